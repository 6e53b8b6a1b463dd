package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidToken is returned for a magic-link token that fails signature,
	// type or stored-digest checks. The caller cannot tell which check failed.
	ErrInvalidToken = errors.New("auth: invalid magic link")

	// ErrTokenExpired is returned when the stored token row has passed its
	// expiry. Distinct from ErrInvalidToken so the UI can offer a resend.
	ErrTokenExpired = errors.New("auth: magic link has expired")

	// ErrInvalidCredentials is returned for any email/password mismatch.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrNoPassword is returned when the member has never completed the
	// magic-link flow and therefore has no password to log in with.
	ErrNoPassword = errors.New("auth: no password set for this account")

	// ErrInvalidSession is returned when the session cookie is missing,
	// malformed, expired or of the wrong token type.
	ErrInvalidSession = errors.New("auth: invalid session")

	// ErrMemberNotFound is returned when the member record behind a valid
	// token no longer exists.
	ErrMemberNotFound = errors.New("auth: member not found")
)

// RateLimitError reports a denied rate-limit check together with when the
// window resets, so the handler can phrase a human-readable retry message.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return "auth: too many requests"
}

// RetryMessage returns a human-readable hint derived from the reset time.
func (e *RateLimitError) RetryMessage() string {
	wait := time.Until(e.ResetAt)
	if wait <= time.Minute {
		return "Too many requests. Please try again in a minute."
	}
	minutes := int(wait.Round(time.Minute).Minutes())
	return fmt.Sprintf("Too many requests. Please try again in about %d minutes.", minutes)
}
