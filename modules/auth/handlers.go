package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cultureforchange/members-api/core"
	"github.com/cultureforchange/members-api/pkg/cookie"
	"github.com/cultureforchange/members-api/pkg/logger"
	"github.com/cultureforchange/members-api/pkg/validator"
)

// SessionCookieName is the single canonical name of the session cookie.
const SessionCookieName = "cforc_session"

// genericMagicLinkMessage is returned for every valid magic-link request,
// whether or not the email matches a member and whether or not delivery
// succeeded.
const genericMagicLinkMessage = "If this email belongs to a member, a sign-in link is on its way."

// Handler exposes the auth flows over HTTP.
type Handler struct {
	svc     *Service
	cookies *cookie.Manager
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler for the auth module.
func NewHandler(svc *Service, cookies *cookie.Manager, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		svc:     svc,
		cookies: cookies,
		logger:  log,
	}
}

// Router returns the chi sub-router mounted at /api/auth.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/request-magic-link", h.requestMagicLink)
	r.Post("/verify-magic-link", h.verifyMagicLink)
	r.Post("/set-password", h.setPassword)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/session", h.session)

	return r
}

type emailRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type setPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Member  *MemberView `json:"member,omitempty"`
}

func (h *Handler) requestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// The result's MemberFound/EmailSent fields stay server-side: the
	// response body is identical in every non-error case.
	if _, err := h.svc.RequestMagicLink(r.Context(), req.Email); err != nil {
		h.writeError(w, err)
		return
	}

	core.JSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: genericMagicLinkMessage,
	})
}

func (h *Handler) verifyMagicLink(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		core.Fail(w, http.StatusBadRequest, "token is required")
		return
	}

	intro, err := h.svc.VerifyMagicLink(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"email":    intro.Email,
		"memberId": intro.MemberID,
	})
}

func (h *Handler) setPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		core.Fail(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := h.svc.SetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	core.JSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Password set. You are now signed in.",
		Member:  result.Member,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	core.JSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Signed in.",
		Member:  result.Member,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Delete(w, SessionCookieName)
	core.JSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Signed out.",
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	token, err := h.cookies.Get(r, SessionCookieName)
	if err != nil {
		core.Fail(w, http.StatusUnauthorized, "not signed in")
		return
	}

	member, err := h.svc.Session(r.Context(), token)
	if err != nil {
		// Invalid or orphaned sessions clear the cookie so the client
		// stops re-sending a token that can never succeed.
		switch {
		case errors.Is(err, ErrInvalidSession):
			h.cookies.Delete(w, SessionCookieName)
			core.Fail(w, http.StatusUnauthorized, "session expired")
		case errors.Is(err, ErrMemberNotFound):
			h.cookies.Delete(w, SessionCookieName)
			core.Fail(w, http.StatusNotFound, "member not found")
		default:
			h.writeError(w, err)
		}
		return
	}

	core.JSON(w, http.StatusOK, successResponse{
		Success: true,
		Member:  member,
	})
}

// setSessionCookie stores the session token with a max-age matching the
// token's own lifetime, so the cookie and the JWT expire together.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	h.cookies.Set(w, SessionCookieName, token, cookie.WithMaxAge(int(h.svc.SessionTTL().Seconds())))
}

// writeError maps service errors onto the wire. Upstream failures are logged
// with their payload but reported generically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var rl *RateLimitError
	switch {
	case validator.IsValidationError(err):
		core.Error(w, err)
	case errors.As(err, &rl):
		core.Fail(w, http.StatusTooManyRequests, rl.RetryMessage())
	case errors.Is(err, ErrInvalidToken):
		core.Fail(w, http.StatusUnauthorized, "This link is invalid. Please request a new one.")
	case errors.Is(err, ErrTokenExpired):
		core.Fail(w, http.StatusUnauthorized, "This link has expired. Please request a new one.")
	case errors.Is(err, ErrInvalidCredentials):
		core.Fail(w, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, ErrNoPassword):
		core.Fail(w, http.StatusUnauthorized, "No password set for this account. Please use the sign-in link instead.")
	case errors.Is(err, ErrInvalidSession):
		core.Fail(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, ErrMemberNotFound):
		core.Fail(w, http.StatusNotFound, "member not found")
	default:
		h.logger.Error("auth request failed",
			slog.String("error", err.Error()),
			slog.String("component", "auth"),
		)
		core.Fail(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

// decodeJSON decodes the request body, writing a 400 and returning false on
// malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		core.Fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
