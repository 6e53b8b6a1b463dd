// Package jwtoken issues and verifies the two token kinds the service uses:
// long-lived session tokens carried in a cookie and short-lived magic-link
// tokens embedded in emailed URLs. Both are HS256 JWTs signed with a shared
// secret; the typ claim keeps one from being accepted as the other.
package jwtoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeSession   = "session"
	TypeMagicLink = "magic-link"
)

// Claims is the payload of every token the service signs. Subject holds the
// member's document id.
type Claims struct {
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// MemberID returns the member document id the token was issued for.
func (c *Claims) MemberID() string {
	return c.Subject
}

func (c *Claims) IsSession() bool {
	return c.TokenType == TypeSession
}

func (c *Claims) IsMagicLink() bool {
	return c.TokenType == TypeMagicLink
}

// Service signs and verifies tokens with a shared HS256 secret.
type Service struct {
	secret       []byte
	sessionTTL   time.Duration
	magicLinkTTL time.Duration
	now          func() time.Time
}

type Option func(*Service)

// WithSessionTTL overrides the session token lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithMagicLinkTTL overrides the magic-link token lifetime.
func WithMagicLinkTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.magicLinkTTL = ttl
		}
	}
}

// withClock overrides the time source, for expiry tests.
func withClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a token service. An empty secret is a configuration error and
// must fail the process at startup rather than at first sign.
func New(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	s := &Service{
		secret:       []byte(secret),
		sessionTTL:   30 * 24 * time.Hour,
		magicLinkTTL: 6 * time.Hour,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// SessionTTL returns the configured session token lifetime, so cookie
// lifetimes can be derived from the same value the tokens are signed with.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// GenerateSession signs a session token for the member.
func (s *Service) GenerateSession(memberID, email string) (string, error) {
	return s.generate(memberID, email, TypeSession, s.sessionTTL)
}

// GenerateMagicLink signs a magic-link token for the member.
func (s *Service) GenerateMagicLink(memberID, email string) (string, error) {
	return s.generate(memberID, email, TypeMagicLink, s.magicLinkTTL)
}

func (s *Service) generate(memberID, email, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token's signature and expiry. It returns nil on ANY
// failure; callers nil-check rather than branch on error kinds. Token type
// discrimination is the caller's job via Claims.IsSession/IsMagicLink.
func (s *Service) Verify(tokenString string) *Claims {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil
	}
	return claims
}
