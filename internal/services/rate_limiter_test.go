package services

import (
	"context"
	"testing"
	"time"

	"apparel-backoffice/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmit_FixedWindow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(newMemoryCounters(clock))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		ok, err := limiter.Admit(ctx, ClassQuoteSubmit, "203.0.113.7", 20, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "call %d should be admitted", i+1)
	}

	ok, err := limiter.Admit(ctx, ClassQuoteSubmit, "203.0.113.7", 20, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := limiter.Count(ctx, ClassQuoteSubmit, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, int64(20), count, "rejected calls are not counted")

	clock.Advance(time.Hour)

	ok, err = limiter.Admit(ctx, ClassQuoteSubmit, "203.0.113.7", 20, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdmit_WindowStartsAtFirstHit(t *testing.T) {
	clock := newFakeClock()
	limiter := NewRateLimiter(newMemoryCounters(clock))
	ctx := context.Background()

	ok, _ := limiter.Admit(ctx, ClassQuoteSubmit, "c", 2, time.Hour)
	require.True(t, ok)
	clock.Advance(59 * time.Minute)
	ok, _ = limiter.Admit(ctx, ClassQuoteSubmit, "c", 2, time.Hour)
	require.True(t, ok)

	ok, _ = limiter.Admit(ctx, ClassQuoteSubmit, "c", 2, time.Hour)
	assert.False(t, ok)

	clock.Advance(time.Minute)
	ok, _ = limiter.Admit(ctx, ClassQuoteSubmit, "c", 2, time.Hour)
	assert.True(t, ok, "later increments must not extend the window")
}

func TestAdmit_KeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(newMemoryCounters(newFakeClock()))
	ctx := context.Background()

	ok, _ := limiter.Admit(ctx, ClassQuoteSubmit, "a", 1, time.Hour)
	require.True(t, ok)
	ok, _ = limiter.Admit(ctx, ClassQuoteSubmit, "a", 1, time.Hour)
	require.False(t, ok)

	ok, _ = limiter.Admit(ctx, ClassQuoteSubmit, "b", 1, time.Hour)
	assert.True(t, ok)
	ok, _ = limiter.Admit(ctx, ClassLoginFailure, "a", 1, time.Hour)
	assert.True(t, ok)
}

func TestAdmit_StorageError(t *testing.T) {
	store := newMemoryCounters(newFakeClock())
	store.err = cache.ErrUnavailable
	limiter := NewRateLimiter(store)

	ok, err := limiter.Admit(context.Background(), ClassQuoteSubmit, "a", 1, time.Hour)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAdmit_WithLocalCacheManager(t *testing.T) {
	limiter := NewRateLimiter(cache.NewLocalCacheManager(nil))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Admit(ctx, ClassQuoteSubmit, "x", 3, 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := limiter.Admit(ctx, ClassQuoteSubmit, "x", 3, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	time.Sleep(80 * time.Millisecond)

	ok, err = limiter.Admit(ctx, ClassQuoteSubmit, "x", 3, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginGuard_LocksAfterMaxFailures(t *testing.T) {
	clock := newFakeClock()
	guard := NewLoginGuard(NewRateLimiter(newMemoryCounters(clock)), 5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := guard.Allowed(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, guard.RecordFailure(ctx, "198.51.100.1"))
	}

	ok, err := guard.Allowed(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(15 * time.Minute)
	ok, err = guard.Allowed(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginGuard_SuccessClearsFailures(t *testing.T) {
	limiter := NewRateLimiter(newMemoryCounters(newFakeClock()))
	guard := NewLoginGuard(limiter, 5, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "ip"))
	}
	require.NoError(t, guard.RecordSuccess(ctx, "ip"))

	count, err := limiter.Count(ctx, ClassLoginFailure, "ip")
	require.NoError(t, err)
	assert.Zero(t, count)
}
