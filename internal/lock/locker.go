package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// Lock is held by someone else for the whole wait timeout
	ErrNotAcquired = errors.New("lock not acquired")

	// Lock was released already or its lease expired
	ErrNotHeld = errors.New("lock was not held or already expired")
)

// Locker grants named, time-bounded mutual exclusion leases
type Locker interface {
	// Acquire waits up to wait for the key to be free and holds it at most lease.
	// Must return error wrapping ErrNotAcquired if key is busy for the whole wait
	Acquire(ctx context.Context, key string, wait time.Duration, lease time.Duration) (Handle, error)
}

// Handle is an acquired lease
type Handle interface {
	Key() string

	// Release the lease. Returns ErrNotHeld if the lease expired and was lost
	Release(ctx context.Context) error
}
