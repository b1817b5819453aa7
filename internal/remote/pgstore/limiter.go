package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxFailures is how many failed sign-ins an address gets per
	// window before being throttled.
	DefaultMaxFailures = 5

	// DefaultFailureWindow is how long failures are remembered.
	DefaultFailureWindow = 15 * time.Minute

	// limiterKeyPrefix namespaces limiter keys in Redis.
	limiterKeyPrefix = "contactadmin:login_failures:"
)

// LoginLimiter throttles failed sign-in attempts per email address using
// a Redis counter with TTL. Throttling state is shared across replicas,
// which an in-process counter could not provide.
type LoginLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

// NewLoginLimiter creates a limiter with the default budget.
func NewLoginLimiter(rdb *redis.Client) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, max: DefaultMaxFailures, window: DefaultFailureWindow}
}

func key(email string) string {
	return limiterKeyPrefix + email
}

// Allow reports whether the address is under its failure budget.
func (l *LoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	n, err := l.rdb.Get(ctx, key(email)).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("limiter GET: %w", err)
	}
	return n < l.max, nil
}

// RecordFailure counts one failed attempt. The first failure in a window
// arms the TTL.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) error {
	n, err := l.rdb.Incr(ctx, key(email)).Result()
	if err != nil {
		return fmt.Errorf("limiter INCR: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key(email), l.window).Err(); err != nil {
			return fmt.Errorf("limiter EXPIRE: %w", err)
		}
	}
	return nil
}

// Reset clears the failure count after a successful sign-in.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.rdb.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("limiter DEL: %w", err)
	}
	return nil
}
