// Package credentials contains the pure credential primitives: password
// hashing, opaque token digests and the password strength checklist. No I/O
// happens here.
package credentials

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/cultureforchange/members-api/pkg/validator"
)

// BcryptCost matches the cost factor used when the member base was first
// onboarded; existing hashes verify against it.
const BcryptCost = 10

// HashPassword returns a salted bcrypt hash of the plaintext password.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the hash.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token. The signed
// magic-link token is never persisted; only its digest is stored and the
// digest of an incoming token is recomputed for comparison.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword checks the password against all strength rules and
// returns every violated rule, not just the first, so the UI can render
// the full checklist. Returns nil when the password passes.
func ValidatePassword(password string) error {
	return validator.Apply(
		validator.PasswordMinLength("password", password, 8),
		validator.PasswordUppercase("password", password),
		validator.PasswordLowercase("password", password),
		validator.PasswordDigit("password", password),
	)
}
