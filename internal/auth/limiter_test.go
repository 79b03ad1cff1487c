package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(client), mr
}

func TestLimiterLocksAfterThreshold(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxFailures-1; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "ops@example.com"))
		locked, err := limiter.IsLocked(ctx, "ops@example.com")
		require.NoError(t, err)
		require.False(t, locked, "attempt %d should not lock", i+1)
	}

	require.NoError(t, limiter.RecordFailure(ctx, "ops@example.com"))
	locked, err := limiter.IsLocked(ctx, "ops@example.com")
	require.NoError(t, err)
	require.True(t, locked)
}

func TestLimiterLockExpiresAfterLockoutPeriod(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "ops@example.com"))
	}
	locked, err := limiter.IsLocked(ctx, "ops@example.com")
	require.NoError(t, err)
	require.True(t, locked)

	mr.FastForward(DefaultLockoutPeriod + time.Second)

	locked, err = limiter.IsLocked(ctx, "ops@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestLimiterWindowExpiryClearsCounter(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxFailures-1; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "ops@example.com"))
	}

	// Window passes before the 5th failure: the counter restarts.
	mr.FastForward(DefaultFailureWindow + time.Second)

	require.NoError(t, limiter.RecordFailure(ctx, "ops@example.com"))
	locked, err := limiter.IsLocked(ctx, "ops@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestLimiterResetClearsLock(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "ops@example.com"))
	}
	require.NoError(t, limiter.Reset(ctx, "ops@example.com"))

	locked, err := limiter.IsLocked(ctx, "ops@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestLimiterKeysArePerEmail(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxFailures; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "a@example.com"))
	}
	locked, err := limiter.IsLocked(ctx, "b@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}
