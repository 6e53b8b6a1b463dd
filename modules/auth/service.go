package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/cultureforchange/members-api/pkg/credentials"
	"github.com/cultureforchange/members-api/pkg/email"
	"github.com/cultureforchange/members-api/pkg/jwtoken"
	"github.com/cultureforchange/members-api/pkg/logger"
	"github.com/cultureforchange/members-api/pkg/ratelimit"
	"github.com/cultureforchange/members-api/pkg/sanitizer"
	"github.com/cultureforchange/members-api/pkg/validator"
	"github.com/cultureforchange/members-api/strapi"
)

// Default limits: magic links are costly (email delivery) and logins are
// brute-forceable, so the windows differ.
var (
	MagicLinkLimit = ratelimit.Config{Name: "magic-link", Limit: 3, Window: time.Hour}
	LoginLimit     = ratelimit.Config{Name: "login", Limit: 5, Window: 15 * time.Minute}
)

// CMS is the slice of the Strapi client the auth flows depend on.
type CMS interface {
	FindMemberByEmail(ctx context.Context, email string) (*strapi.Member, error)
	GetMember(ctx context.Context, documentID string) (*strapi.Member, error)
	TouchLastLogin(ctx context.Context, documentID string) error
	FindAuthTokensByEmail(ctx context.Context, email string) ([]strapi.AuthToken, error)
	CreateAuthToken(ctx context.Context, input strapi.AuthTokenInput) error
	UpdateAuthToken(ctx context.Context, internalID int, fields map[string]any) error
	DeleteAuthToken(ctx context.Context, internalID int) error
}

// Service implements the six auth flows against the CMS. All methods are
// stateless and request-scoped; the only shared state lives in the injected
// rate-limit stores.
type Service struct {
	cms              CMS
	tokens           *jwtoken.Service
	mailer           email.Sender
	magicLinkLimiter ratelimit.Limiter
	loginLimiter     ratelimit.Limiter
	baseURL          string
	magicLinkTTL     time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMagicLinkTTL tells the email copy how long links stay valid; it must
// match the TTL the token service signs with.
func WithMagicLinkTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.magicLinkTTL = ttl
		}
	}
}

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the auth flows together. baseURL is the public site URL
// the emailed magic link points at.
func NewService(
	cms CMS,
	tokens *jwtoken.Service,
	mailer email.Sender,
	magicLinkLimiter, loginLimiter ratelimit.Limiter,
	baseURL string,
	opts ...Option,
) *Service {
	s := &Service{
		cms:              cms,
		tokens:           tokens,
		mailer:           mailer,
		magicLinkLimiter: magicLinkLimiter,
		loginLimiter:     loginLimiter,
		baseURL:          baseURL,
		magicLinkTTL:     6 * time.Hour,
		logger:           logger.Discard(),
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SessionTTL exposes the session token lifetime so the handler layer can set
// the cookie max-age to match.
func (s *Service) SessionTTL() time.Duration {
	return s.tokens.SessionTTL()
}

// MagicLinkResult reports what actually happened behind the uniform success
// response: MemberFound and EmailSent are soft outcomes the handler must not
// leak to the caller (enumeration resistance, retryable email failure).
type MagicLinkResult struct {
	Email       string
	MemberFound bool
	EmailSent   bool
}

// RequestMagicLink issues a fresh magic link for the email and mails it.
// Unknown emails return a result identical in shape to known ones. A failed
// email send is a soft failure: the token row already exists, so the user
// can simply request again.
func (s *Service) RequestMagicLink(ctx context.Context, emailAddr string) (*MagicLinkResult, error) {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if err := validator.Apply(
		validator.Required("email", emailAddr),
		validator.ValidEmail("email", emailAddr),
	); err != nil {
		return nil, err
	}

	res, err := s.magicLinkLimiter.Allow(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !res.Allowed {
		return nil, &RateLimitError{ResetAt: res.ResetAt}
	}

	member, err := s.cms.FindMemberByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			// Same outward response as the found case so the endpoint
			// cannot be used to enumerate member emails.
			return &MagicLinkResult{Email: emailAddr}, nil
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	token, err := s.tokens.GenerateMagicLink(member.DocumentID, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to generate magic link token: %w", err)
	}

	// At most one active magic link per email: clear out prior rows first.
	existing, err := s.cms.FindAuthTokensByEmail(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}
	for _, row := range existing {
		if err := s.cms.DeleteAuthToken(ctx, row.ID); err != nil {
			return nil, fmt.Errorf("failed to delete stale token: %w", err)
		}
	}

	if err := s.cms.CreateAuthToken(ctx, strapi.AuthTokenInput{
		Email:       emailAddr,
		TokenHash:   credentials.HashToken(token),
		TokenExpiry: s.now().Add(s.magicLinkTTL),
		TokenType:   strapi.TokenTypeMagicLink,
	}); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	result := &MagicLinkResult{Email: emailAddr, MemberFound: true}

	body, err := email.MagicLinkEmail(s.magicLinkURL(token), s.magicLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}

	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   emailAddr,
		Subject:  "Your sign-in link",
		BodyHTML: body,
		Tag:      "magic-link",
	}); err != nil {
		// Soft failure: the token row exists, the user can retry via resend.
		s.logger.Warn("magic link email delivery failed",
			slog.String("email", emailAddr),
			slog.String("error", err.Error()),
			slog.String("component", "auth"),
		)
		return result, nil
	}

	result.EmailSent = true
	return result, nil
}

// TokenIntrospection is the outcome of a successful magic-link verification.
type TokenIntrospection struct {
	Email    string
	MemberID string
}

// VerifyMagicLink checks a raw magic-link token without redeeming it, so the
// frontend can show the set-password form only for live links.
func (s *Service) VerifyMagicLink(ctx context.Context, rawToken string) (*TokenIntrospection, error) {
	_, claims, err := s.lookupMagicLink(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	member, err := s.cms.FindMemberByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	return &TokenIntrospection{
		Email:    member.Email,
		MemberID: member.DocumentID,
	}, nil
}

// SessionResult carries a freshly issued session and the sanitized member.
type SessionResult struct {
	Member *MemberView
	Token  string

	// LastLoginRecorded is false when the best-effort timestamp update
	// failed; the login itself still succeeded.
	LastLoginRecorded bool
}

// SetPassword redeems a magic link: it validates the new password, burns the
// stored token row and issues a session. A second redemption of the same
// token fails because the stored digest has been nulled.
func (s *Service) SetPassword(ctx context.Context, rawToken, password string) (*SessionResult, error) {
	if err := credentials.ValidatePassword(password); err != nil {
		return nil, err
	}

	row, claims, err := s.lookupMagicLink(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	member, err := s.cms.FindMemberByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// Single patch both stores the password and burns the link.
	if err := s.cms.UpdateAuthToken(ctx, row.ID, map[string]any{
		"passwordHash": hash,
		"tokenHash":    nil,
		"tokenExpiry":  nil,
		"tokenType":    nil,
	}); err != nil {
		return nil, fmt.Errorf("failed to update token record: %w", err)
	}

	session, err := s.tokens.GenerateSession(member.DocumentID, member.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session: %w", err)
	}

	return &SessionResult{
		Member: NewMemberView(member),
		Token:  session,
	}, nil
}

// Login authenticates with email and password and issues a session.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*SessionResult, error) {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if err := validator.Apply(
		validator.Required("email", emailAddr),
		validator.ValidEmail("email", emailAddr),
		validator.Required("password", password),
	); err != nil {
		return nil, err
	}

	res, err := s.loginLimiter.Allow(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !res.Allowed {
		return nil, &RateLimitError{ResetAt: res.ResetAt}
	}

	member, err := s.cms.FindMemberByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	hash, err := s.findPasswordHash(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if !credentials.VerifyPassword(password, hash) {
		return nil, ErrInvalidCredentials
	}

	result := &SessionResult{Member: NewMemberView(member)}

	if err := s.cms.TouchLastLogin(ctx, member.DocumentID); err != nil {
		// Soft failure: a missing timestamp must never block the login.
		s.logger.Warn("failed to record last login",
			slog.String("member_id", member.DocumentID),
			slog.String("error", err.Error()),
			slog.String("component", "auth"),
		)
	} else {
		result.LastLoginRecorded = true
	}

	session, err := s.tokens.GenerateSession(member.DocumentID, member.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session: %w", err)
	}
	result.Token = session

	return result, nil
}

// Session validates a session token and rehydrates the member it belongs to.
// Polled on every page load; it must stay idempotent and side-effect free.
func (s *Service) Session(ctx context.Context, sessionToken string) (*MemberView, error) {
	claims := s.tokens.Verify(sessionToken)
	if claims == nil || !claims.IsSession() {
		return nil, ErrInvalidSession
	}

	member, err := s.cms.GetMember(ctx, claims.MemberID())
	if err != nil {
		if errors.Is(err, strapi.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}

	return NewMemberView(member), nil
}

// lookupMagicLink verifies the JWT, then requires the specific token to still
// be live in storage. The storage check guards against a foreign token that
// happens to carry a valid signature but was already rotated or redeemed.
func (s *Service) lookupMagicLink(ctx context.Context, rawToken string) (*strapi.AuthToken, *jwtoken.Claims, error) {
	claims := s.tokens.Verify(rawToken)
	if claims == nil || !claims.IsMagicLink() {
		return nil, nil, ErrInvalidToken
	}

	rows, err := s.cms.FindAuthTokensByEmail(ctx, claims.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("token lookup failed: %w", err)
	}

	digest := credentials.HashToken(rawToken)
	for i := range rows {
		row := &rows[i]
		if row.TokenHash == nil || *row.TokenHash != digest {
			continue
		}
		if row.TokenType == nil || *row.TokenType != strapi.TokenTypeMagicLink {
			continue
		}
		if row.TokenExpiry == nil || s.now().After(*row.TokenExpiry) {
			return nil, nil, ErrTokenExpired
		}
		return row, claims, nil
	}

	return nil, nil, ErrInvalidToken
}

// findPasswordHash returns the stored password hash for the email, or
// ErrNoPassword when the member has never completed the magic-link flow.
// The auth-token record is the single canonical credential location.
func (s *Service) findPasswordHash(ctx context.Context, emailAddr string) (string, error) {
	rows, err := s.cms.FindAuthTokensByEmail(ctx, emailAddr)
	if err != nil {
		return "", fmt.Errorf("credential lookup failed: %w", err)
	}

	for i := range rows {
		if rows[i].PasswordHash != nil && *rows[i].PasswordHash != "" {
			return *rows[i].PasswordHash, nil
		}
	}

	return "", ErrNoPassword
}

func (s *Service) magicLinkURL(token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, url.QueryEscape(token))
}
