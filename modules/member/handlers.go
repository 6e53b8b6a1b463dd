package member

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cultureforchange/members-api/core"
	"github.com/cultureforchange/members-api/pkg/cookie"
	"github.com/cultureforchange/members-api/pkg/jwtoken"
	"github.com/cultureforchange/members-api/pkg/logger"
	"github.com/cultureforchange/members-api/pkg/validator"
	"github.com/cultureforchange/members-api/strapi"
)

// maxUploadBytes caps how much multipart payload is buffered in memory.
const maxUploadBytes = 10 << 20

const sessionCookieName = "cforc_session"

// Handler exposes the member HTTP endpoints.
type Handler struct {
	svc     *Service
	tokens  *jwtoken.Service
	cookies *cookie.Manager
	logger  *slog.Logger
}

// NewHandler creates the member HTTP handler.
func NewHandler(svc *Service, tokens *jwtoken.Service, cookies *cookie.Manager, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{svc: svc, tokens: tokens, cookies: cookies, logger: log}
}

// Router mounts the member routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/members/update", h.updateProfile)
	r.Post("/subscribe", h.subscribe)
	return r
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// updateProfile mutates the authenticated member's record. The body is either
// JSON (text-only edits) or multipart/form-data (edits with file uploads).
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.authenticate(r)
	if !ok {
		core.Fail(w, http.StatusUnauthorized, "Your session has expired. Please log in again.")
		return
	}

	input, err := parseUpdateRequest(r)
	if err != nil {
		core.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.UpdateProfile(r.Context(), memberID, input)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	for _, soft := range result.SoftFailures {
		h.logger.Warn("profile update step skipped",
			slog.String("member_id", memberID),
			slog.String("step", soft.Step),
			slog.String("error", soft.Err.Error()),
			slog.String("component", "member"),
		)
	}

	core.JSON(w, http.StatusOK, successResponse{Success: true, Message: "Profile updated."})
}

// subscribe registers a newsletter signup.
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Subscribe(r.Context(), req.Email); err != nil {
		core.Error(w, err)
		return
	}

	core.JSON(w, http.StatusOK, successResponse{Success: true, Message: "You are subscribed."})
}

// authenticate resolves the session cookie to a member document id.
func (h *Handler) authenticate(r *http.Request) (string, bool) {
	raw, err := h.cookies.Get(r, sessionCookieName)
	if err != nil {
		return "", false
	}

	claims := h.tokens.Verify(raw)
	if claims == nil || !claims.IsSession() {
		return "", false
	}
	return claims.MemberID(), true
}

func (h *Handler) writeUpdateError(w http.ResponseWriter, err error) {
	if validator.IsValidationError(err) {
		core.Error(w, err)
		return
	}
	if errors.Is(err, ErrMemberNotFound) {
		core.Fail(w, http.StatusNotFound, "Member not found.")
		return
	}

	// Upstream rejections surface their raw payload to ease debugging of
	// CMS schema mismatches.
	var upstream *strapi.Error
	if errors.As(err, &upstream) {
		h.logger.Error("profile update rejected upstream",
			slog.Int("status", upstream.Status),
			slog.String("component", "member"),
		)
		core.FailWithDetails(w, http.StatusInternalServerError, "Profile update failed.", json.RawMessage(upstream.Body))
		return
	}

	h.logger.Error("profile update failed",
		slog.String("error", err.Error()),
		slog.String("component", "member"),
	)
	core.Fail(w, http.StatusInternalServerError, "something went wrong")
}

// updateJSONRequest mirrors UpdateInput for text-only JSON submissions.
// Pointer fields distinguish "absent" from "submitted empty".
type updateJSONRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Bio          *string `json:"bio"`
	FieldsOfWork *string `json:"fieldsOfWork"`
	City         *string `json:"city"`
	Province     *string `json:"province"`
	Phone        *string `json:"phone"`
	Websites     *string `json:"websites"`

	Project1 *projectJSONRequest `json:"project1"`
	Project2 *projectJSONRequest `json:"project2"`
}

type projectJSONRequest struct {
	Title        *string `json:"title"`
	Tags         *string `json:"tags"`
	Description  *string `json:"description"`
	KeptImageIDs *[]int  `json:"keptImageIds"`
}

func parseUpdateRequest(r *http.Request) (UpdateInput, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return parseMultipartUpdate(r)
	}
	return parseJSONUpdate(r)
}

func parseJSONUpdate(r *http.Request) (UpdateInput, error) {
	var req updateJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return UpdateInput{}, err
	}

	in := UpdateInput{
		Name:         req.Name,
		Email:        req.Email,
		Bio:          req.Bio,
		FieldsOfWork: req.FieldsOfWork,
		City:         req.City,
		Province:     req.Province,
		Phone:        req.Phone,
		Websites:     req.Websites,
	}
	in.Project1 = jsonProject(req.Project1)
	in.Project2 = jsonProject(req.Project2)
	return in, nil
}

func jsonProject(req *projectJSONRequest) ProjectInput {
	if req == nil {
		return ProjectInput{}
	}
	in := ProjectInput{
		Title:       req.Title,
		Tags:        req.Tags,
		Description: req.Description,
	}
	if req.KeptImageIDs != nil {
		in.KeptPictureIDs = *req.KeptImageIDs
		in.ReplacePictures = true
	}
	return in
}

func parseMultipartUpdate(r *http.Request) (UpdateInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return UpdateInput{}, err
	}
	form := r.MultipartForm

	in := UpdateInput{
		Name:         formValue(form, "name"),
		Email:        formValue(form, "email"),
		Bio:          formValue(form, "bio"),
		FieldsOfWork: formValue(form, "fieldsOfWork"),
		City:         formValue(form, "city"),
		Province:     formValue(form, "province"),
		Phone:        formValue(form, "phone"),
		Websites:     formValue(form, "websites"),
	}

	if headers := form.File["profileImage"]; len(headers) > 0 {
		file, err := readUpload(headers[0])
		if err != nil {
			return UpdateInput{}, err
		}
		in.ProfileImage = &file
	}

	project1, err := multipartProject(form, "project1")
	if err != nil {
		return UpdateInput{}, err
	}
	in.Project1 = project1

	project2, err := multipartProject(form, "project2")
	if err != nil {
		return UpdateInput{}, err
	}
	in.Project2 = project2

	return in, nil
}

func multipartProject(form *multipart.Form, prefix string) (ProjectInput, error) {
	in := ProjectInput{
		Title:       formValue(form, prefix+"Title"),
		Tags:        formValue(form, prefix+"Tags"),
		Description: formValue(form, prefix+"Description"),
	}

	if raw := formValue(form, prefix+"KeptImageIds"); raw != nil {
		in.KeptPictureIDs = parseKeptIDs(*raw)
		in.ReplacePictures = true
	}

	for _, header := range form.File[prefix+"Images"] {
		file, err := readUpload(header)
		if err != nil {
			return ProjectInput{}, err
		}
		in.NewPictures = append(in.NewPictures, file)
		in.ReplacePictures = true
	}

	return in, nil
}

func formValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func readUpload(header *multipart.FileHeader) (FileInput, error) {
	f, err := header.Open()
	if err != nil {
		return FileInput{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return FileInput{}, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return FileInput{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

// parseKeptIDs accepts a JSON array ("[5,7]") or a comma-separated list
// ("5,7"). Unparseable entries are dropped.
func parseKeptIDs(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int{}
	}

	var ids []int
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			return ids
		}
		return []int{}
	}

	ids = []int{}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
