// Package sanitizer provides input normalization helpers applied before
// validation, so that equivalent inputs compare equal.
package sanitizer

import "strings"

// Trim removes leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases and trims an email address. Emails are the
// lookup key for members and rate-limit buckets, so all paths must agree
// on a single canonical form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
