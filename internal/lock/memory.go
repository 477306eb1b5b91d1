package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker is a Locker for a single process.
// Used when no redis configured and in tests
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]*memoryLease
}

type memoryLease struct {
	token   string
	expires time.Time

	// Closed when lease released or taken over after expiry
	released chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]*memoryLease)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, wait time.Duration, lease time.Duration) (Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		l.mu.Lock()
		now := time.Now()
		current, busy := l.leases[key]

		if !busy || !now.Before(current.expires) {
			if busy {
				close(current.released)
			}

			token := uuid.NewString()
			l.leases[key] = &memoryLease{token: token, expires: now.Add(lease), released: make(chan struct{})}
			l.mu.Unlock()

			return &memoryHandle{locker: l, key: key, token: token}, nil
		}

		released := current.released
		timer := time.NewTimer(current.expires.Sub(now))
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("lock %q: %w: %w", key, ErrNotAcquired, ctx.Err())
		case <-released:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (l *MemoryLocker) release(key string, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.leases[key]
	if !ok || current.token != token {
		return fmt.Errorf("unlock %q: %w", key, ErrNotHeld)
	}

	delete(l.leases, key)
	close(current.released)

	if !time.Now().Before(current.expires) {
		return fmt.Errorf("unlock %q: %w", key, ErrNotHeld)
	}

	return nil
}

type memoryHandle struct {
	locker *MemoryLocker
	key    string
	token  string
}

func (h *memoryHandle) Key() string {
	return h.key
}

func (h *memoryHandle) Release(_ context.Context) error {
	return h.locker.release(h.key, h.token)
}
