package strapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("strapi: record not found")

	// ErrInvalidConfig is returned when the client is constructed with an unusable config.
	ErrInvalidConfig = errors.New("strapi: invalid configuration")
)

// Error carries a non-2xx upstream response. The raw body is kept so the
// profile update path can echo it back to the caller for debugging; every
// other path logs it server-side and returns a generic message.
type Error struct {
	Status int
	Body   json.RawMessage
}

func (e *Error) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("strapi: upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("strapi: upstream returned status %d: %s", e.Status, string(e.Body))
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
