package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Delay between acquisition attempts while the key is busy
const redisRetryDelay = 50 * time.Millisecond

// RedisLocker is a Locker backed by redis with the redlock algorithm.
// Safe to share between instances of the service
type RedisLocker struct {
	redsync *redsync.Redsync
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{redsync: redsync.New(pool)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration, lease time.Duration) (Handle, error) {
	// One attempt plus as many retries as fit into the wait timeout
	tries := int(wait/redisRetryDelay) + 1

	mutex := l.redsync.NewMutex(
		key,
		redsync.WithExpiry(lease),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(redisRetryDelay),
	)

	// Wait is bounded by tries only, cleanup of a failed try runs with this context
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("lock %q: %w: %w", key, ErrNotAcquired, err)
	}

	return &redisHandle{mutex: mutex}, nil
}

type redisHandle struct {
	mutex *redsync.Mutex
}

func (h *redisHandle) Key() string {
	return h.mutex.Name()
}

func (h *redisHandle) Release(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("unlock %q: %w: %w", h.mutex.Name(), ErrNotHeld, err)
	}
	if !ok {
		return fmt.Errorf("unlock %q: %w", h.mutex.Name(), ErrNotHeld)
	}

	return nil
}
