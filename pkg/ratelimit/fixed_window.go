// Package ratelimit implements fixed-window request throttling over a
// pluggable store. Fixed windows are intentionally approximate: up to 2x the
// configured limit can pass at a window boundary. That is acceptable here
// because the throttled operations (email delivery, CMS round trips) dominate
// cost; callers needing strict limits should use a sliding algorithm.
package ratelimit

import (
	"context"
	"fmt"
)

// FixedWindow implements Limiter with a fixed-window counter.
type FixedWindow struct {
	store  Store
	config Config
}

// NewFixedWindow creates a fixed-window limiter over the given store.
func NewFixedWindow(store Store, config Config) (*FixedWindow, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}

	return &FixedWindow{
		store:  store,
		config: config,
	}, nil
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.Increment(ctx, l.storageKey(key), l.config.Window)
	if err != nil {
		return nil, err
	}

	remaining := l.config.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(l.config.Limit),
		Limit:     l.config.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (l *FixedWindow) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, l.storageKey(key))
}

// storageKey prefixes the caller's key with the limiter name so limiters
// sharing a store never touch each other's counters.
func (l *FixedWindow) storageKey(key string) string {
	if l.config.Name == "" {
		return key
	}
	return l.config.Name + ":" + key
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}
