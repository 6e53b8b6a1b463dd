package httpserver

import "errors"

var (
	// ErrStart is returned when the server fails to start or exits abnormally.
	ErrStart = errors.New("http server failed to start")

	// ErrShutdown is returned when graceful shutdown fails.
	ErrShutdown = errors.New("http server failed to shut down")
)
