package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFixedWindow(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	t.Cleanup(store.Close)

	t.Run("rejects non-positive limit", func(t *testing.T) {
		t.Parallel()

		_, err := NewFixedWindow(store, Config{Limit: 0, Window: time.Minute})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects non-positive window", func(t *testing.T) {
		t.Parallel()

		_, err := NewFixedWindow(store, Config{Limit: 3, Window: 0})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects nil store", func(t *testing.T) {
		t.Parallel()

		_, err := NewFixedWindow(nil, Config{Limit: 3, Window: time.Minute})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestFixedWindowAllow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("denies request N+1", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		t.Cleanup(store.Close)

		limiter, err := NewFixedWindow(store, Config{Limit: 3, Window: time.Hour})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			result, err := limiter.Allow(ctx, "user@example.com")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should pass", i+1)
			assert.Equal(t, 3-(i+1), result.Remaining)
		}

		result, err := limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		t.Cleanup(store.Close)

		limiter, err := NewFixedWindow(store, Config{Limit: 1, Window: time.Hour})
		require.NoError(t, err)

		first, err := limiter.Allow(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := limiter.Allow(ctx, "a@example.com")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed)

		other, err := limiter.Allow(ctx, "b@example.com")
		require.NoError(t, err)
		assert.True(t, other.Allowed)
	})

	t.Run("window expiry resets the count", func(t *testing.T) {
		t.Parallel()

		current := time.Now()
		store := NewMemoryStore(withMemoryClock(func() time.Time { return current }))
		t.Cleanup(store.Close)

		limiter, err := NewFixedWindow(store, Config{Limit: 1, Window: time.Minute})
		require.NoError(t, err)

		result, err := limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, result.Allowed)

		result, err = limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		current = current.Add(61 * time.Second)

		result, err = limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("named limiters on one store keep separate budgets", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		t.Cleanup(store.Close)

		strict, err := NewFixedWindow(store, Config{Name: "strict", Limit: 1, Window: time.Hour})
		require.NoError(t, err)
		loose, err := NewFixedWindow(store, Config{Name: "loose", Limit: 3, Window: time.Minute})
		require.NoError(t, err)

		result, err := strict.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, result.Allowed)

		result, err = strict.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		// The other limiter's budget for the same key is untouched, and
		// its window length is its own.
		for i := 0; i < 3; i++ {
			result, err = loose.Allow(ctx, "user@example.com")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should pass", i+1)
		}
		result, err = loose.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.WithinDuration(t, time.Now().Add(time.Minute), result.ResetAt, 5*time.Second)

		// Resetting one limiter leaves the other denied.
		require.NoError(t, loose.Reset(ctx, "user@example.com"))
		result, err = strict.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})

	t.Run("reset clears the key", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		t.Cleanup(store.Close)

		limiter, err := NewFixedWindow(store, Config{Limit: 1, Window: time.Hour})
		require.NoError(t, err)

		_, err = limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)

		require.NoError(t, limiter.Reset(ctx, "user@example.com"))

		result, err := limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

func TestMemoryStoreSweep(t *testing.T) {
	t.Parallel()

	current := time.Now()
	store := NewMemoryStore(withMemoryClock(func() time.Time { return current }))
	t.Cleanup(store.Close)

	ctx := context.Background()
	_, _, err := store.Increment(ctx, "stale", time.Minute)
	require.NoError(t, err)
	_, _, err = store.Increment(ctx, "fresh", time.Hour)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	store.sweep()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.entries, "stale")
	assert.Contains(t, store.entries, "fresh")
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newStore := func(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
		t.Helper()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		return NewRedisStore(client, "rl:test"), mr
	}

	t.Run("increments within a window", func(t *testing.T) {
		t.Parallel()

		store, _ := newStore(t)

		count, resetAt, err := store.Increment(ctx, "user@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 5*time.Second)

		count, _, err = store.Increment(ctx, "user@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("window expiry starts a fresh count", func(t *testing.T) {
		t.Parallel()

		store, mr := newStore(t)

		count, _, err := store.Increment(ctx, "user@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		mr.FastForward(61 * time.Second)

		count, _, err = store.Increment(ctx, "user@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("reset deletes the key", func(t *testing.T) {
		t.Parallel()

		store, _ := newStore(t)

		_, _, err := store.Increment(ctx, "user@example.com", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Reset(ctx, "user@example.com"))

		count, _, err := store.Increment(ctx, "user@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("limiter over redis denies N+1", func(t *testing.T) {
		t.Parallel()

		store, _ := newStore(t)
		limiter, err := NewFixedWindow(store, Config{Limit: 2, Window: time.Minute})
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			result, err := limiter.Allow(ctx, "user@example.com")
			require.NoError(t, err)
			assert.True(t, result.Allowed)
		}

		result, err := limiter.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})
}
