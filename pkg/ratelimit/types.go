package ratelimit

import (
	"context"
	"time"
)

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAt is the time when the rate limit window resets.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key,
	// consuming one slot when it is.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}

// Store defines the interface for rate limit storage backends. The limiter
// itself holds no state, so single-instance deployments use the in-memory
// store while multi-instance ones share a Redis store.
type Store interface {
	// Increment atomically increments the counter for the key, starting a
	// fresh window when none is active, and returns the new count together
	// with the window's reset time.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Reset removes the given key from the store.
	Reset(ctx context.Context, key string) error
}

// Config defines a fixed-window rate limit. Name namespaces the limiter's
// keys inside the store, so limiters sharing one store keep independent
// counters for the same key.
type Config struct {
	Name   string        // Key namespace within the store
	Limit  int           // Maximum requests per window
	Window time.Duration // Window length
}
