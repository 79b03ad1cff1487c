package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lockout defaults: the 5th failure inside a 15-minute window locks the
// email for 10 minutes; any successful login resets the counters.
const (
	DefaultMaxFailures   = 5
	DefaultFailureWindow = 15 * time.Minute
	DefaultLockoutPeriod = 10 * time.Minute
	failureKeyPrefix     = "login:fail:"
	lockKeyPrefix        = "login:lock:"
)

// LoginLimiter throttles repeated login failures per email address. State
// lives in Redis so the lockout guarantee holds across instances and
// survives restarts.
type LoginLimiter struct {
	client      *redis.Client
	maxFailures int
	window      time.Duration
	lockout     time.Duration
}

// NewLoginLimiter constructs a limiter with the default thresholds.
func NewLoginLimiter(client *redis.Client) *LoginLimiter {
	return &LoginLimiter{
		client:      client,
		maxFailures: DefaultMaxFailures,
		window:      DefaultFailureWindow,
		lockout:     DefaultLockoutPeriod,
	}
}

func limiterKey(prefix, email string) string {
	return prefix + strings.ToLower(strings.TrimSpace(email))
}

// IsLocked reports whether the email is inside a lockout period.
func (l *LoginLimiter) IsLocked(ctx context.Context, email string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	n, err := l.client.Exists(ctx, limiterKey(lockKeyPrefix, email)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: lockout check: %w", err)
	}
	return n > 0, nil
}

// RecordFailure counts one failed attempt. The first failure opens the
// counting window; reaching the threshold sets the lock key with the
// lockout TTL, measured from that failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	key := limiterKey(failureKeyPrefix, email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("auth: record failure: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("auth: set failure window: %w", err)
		}
	}
	if count >= int64(l.maxFailures) {
		if err := l.client.Set(ctx, limiterKey(lockKeyPrefix, email), "1", l.lockout).Err(); err != nil {
			return fmt.Errorf("auth: set lockout: %w", err)
		}
	}
	return nil
}

// Reset clears the failure counter and any lock, called on successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	err := l.client.Del(ctx, limiterKey(failureKeyPrefix, email), limiterKey(lockKeyPrefix, email)).Err()
	if err != nil {
		return fmt.Errorf("auth: reset failures: %w", err)
	}
	return nil
}
