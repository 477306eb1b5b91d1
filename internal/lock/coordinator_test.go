package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/logger"
)

// Records acquire arguments and may fail on demand
type spyLocker struct {
	key   string
	wait  time.Duration
	lease time.Duration

	acquireErr error
	releaseErr error
	released   int
}

func (l *spyLocker) Acquire(ctx context.Context, key string, wait time.Duration, lease time.Duration) (Handle, error) {
	l.key, l.wait, l.lease = key, wait, lease
	if l.acquireErr != nil {
		return nil, l.acquireErr
	}
	return &spyHandle{locker: l, key: key}, nil
}

type spyHandle struct {
	locker *spyLocker
	key    string
}

func (h *spyHandle) Key() string { return h.key }

func (h *spyHandle) Release(ctx context.Context) error {
	h.locker.released++
	return h.locker.releaseErr
}

func TestCoordinator_LockAccount(t *testing.T) {
	t.Run("account key and default timeouts", func(t *testing.T) {
		spy := &spyLocker{}
		c := NewCoordinator(spy, logger.NewNoOpLogger())

		h, err := c.LockAccount(t.Context(), "1234567890")

		require.NoError(t, err)
		require.Equal(t, "ACLK:1234567890", h.Key())
		require.Equal(t, "ACLK:1234567890", spy.key)
		require.Equal(t, time.Second, spy.wait, "wait timeout should be 1s")
		require.Equal(t, 15*time.Second, spy.lease, "lease timeout should be 15s")
	})

	t.Run("custom timeouts", func(t *testing.T) {
		spy := &spyLocker{}
		c := NewCoordinator(spy, logger.NewNoOpLogger(), WithWaitTimeout(time.Millisecond), WithLeaseTimeout(time.Minute))

		_, err := c.LockAccount(t.Context(), "1234567890")

		require.NoError(t, err)
		require.Equal(t, time.Millisecond, spy.wait)
		require.Equal(t, time.Minute, spy.lease)
	})

	t.Run("acquire failure is lock failed error", func(t *testing.T) {
		spy := &spyLocker{acquireErr: ErrNotAcquired}
		c := NewCoordinator(spy, logger.NewNoOpLogger())

		_, err := c.LockAccount(t.Context(), "1234567890")

		require.ErrorIs(t, err, apperrors.ErrLockFailed)
		require.ErrorIs(t, err, ErrNotAcquired, "cause has to be kept")
		require.Equal(t, apperrors.CodeAccountTransactionLock, apperrors.CodeOf(err))
	})

	t.Run("contention on real locker", func(t *testing.T) {
		c := NewCoordinator(NewMemoryLocker(), logger.NewNoOpLogger(), WithWaitTimeout(50*time.Millisecond))
		h, err := c.LockAccount(t.Context(), "1234567890")
		require.NoError(t, err)
		defer c.Release(t.Context(), h)

		_, err = c.LockAccount(t.Context(), "1234567890")
		require.ErrorIs(t, err, apperrors.ErrLockFailed)

		other, err := c.LockAccount(t.Context(), "0987654321")
		require.NoError(t, err, "other accounts must not be blocked")
		c.Release(t.Context(), other)
	})
}

func TestCoordinator_Release(t *testing.T) {
	t.Run("release error swallowed", func(t *testing.T) {
		spy := &spyLocker{releaseErr: errors.New("redis is down")}
		c := NewCoordinator(spy, logger.NewNoOpLogger())
		h, err := c.LockAccount(t.Context(), "1234567890")
		require.NoError(t, err)

		require.NotPanics(t, func() { c.Release(t.Context(), h) })
		require.Equal(t, 1, spy.released)
	})

	t.Run("nil handle ignored", func(t *testing.T) {
		c := NewCoordinator(&spyLocker{}, logger.NewNoOpLogger())

		require.NotPanics(t, func() { c.Release(t.Context(), nil) })
	})

	t.Run("cancelled context still releases", func(t *testing.T) {
		locker := NewMemoryLocker()
		c := NewCoordinator(locker, logger.NewNoOpLogger(), WithWaitTimeout(10*time.Millisecond))
		h, err := c.LockAccount(t.Context(), "1234567890")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		c.Release(ctx, h)

		h, err = c.LockAccount(t.Context(), "1234567890")
		require.NoError(t, err, "lock has to be released")
		c.Release(t.Context(), h)
	})
}
