package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"inspection-backend/internal/shared/telemetry"
)

// RedisLocker holds a Redis lock for the duration of a flush.
type RedisLocker struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker builds a locker on client. ttl bounds how long a crashed
// holder blocks other agents.
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = "cec:queue:flush"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{locker: redislock.New(client), key: key, ttl: ttl}
}

// Lock obtains the lock or returns ErrFlushInProgress.
func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrFlushInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("obtain flush lock: %w", err)
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			telemetry.Warn("queue.unlock_failed", map[string]any{"error": err.Error()})
		}
	}, nil
}
