package jwtoken

import "errors"

var (
	// ErrMissingSecret is returned when the service is constructed without a signing secret.
	ErrMissingSecret = errors.New("jwtoken: signing secret is not configured")
)
