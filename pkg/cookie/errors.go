package cookie

import "errors"

var (
	// ErrCookieNotFound is returned when the requested cookie is absent from the request.
	ErrCookieNotFound = errors.New("cookie not found")
)
