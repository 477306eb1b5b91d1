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

type accountRequest struct {
	AccountNumber string
}

func (r accountRequest) LockKey() string { return r.AccountNumber }

func TestGuard(t *testing.T) {
	newCoordinator := func(locker Locker) *Coordinator {
		return NewCoordinator(locker, logger.NewNoOpLogger(), WithWaitTimeout(20*time.Millisecond))
	}

	t.Run("fn runs holding account lock", func(t *testing.T) {
		locker := NewMemoryLocker()
		c := newCoordinator(locker)

		guarded := Guard(c, func(ctx context.Context, req accountRequest) (string, error) {
			_, err := locker.Acquire(ctx, "ACLK:"+req.AccountNumber, 10*time.Millisecond, time.Second)
			require.ErrorIs(t, err, ErrNotAcquired, "account lock has to be held while fn runs")
			return "done", nil
		})

		res, err := guarded(t.Context(), accountRequest{AccountNumber: "1234567890"})

		require.NoError(t, err)
		require.Equal(t, "done", res)

		h, err := locker.Acquire(t.Context(), "ACLK:1234567890", 10*time.Millisecond, time.Second)
		require.NoError(t, err, "lock has to be released after fn")
		require.NoError(t, h.Release(t.Context()))
	})

	t.Run("released and error unchanged when fn fails", func(t *testing.T) {
		spy := &spyLocker{}
		fnErr := apperrors.ErrInsufficientBalance

		guarded := Guard(newCoordinator(spy), func(context.Context, accountRequest) (int, error) {
			return 0, fnErr
		})

		_, err := guarded(t.Context(), accountRequest{AccountNumber: "1234567890"})

		require.Same(t, fnErr, err, "fn error has to be returned as is")
		require.Equal(t, 1, spy.released)
	})

	t.Run("released when fn panics", func(t *testing.T) {
		spy := &spyLocker{}

		guarded := Guard(newCoordinator(spy), func(context.Context, accountRequest) (int, error) {
			panic("boom")
		})

		require.Panics(t, func() { _, _ = guarded(t.Context(), accountRequest{AccountNumber: "1234567890"}) })
		require.Equal(t, 1, spy.released)
	})

	t.Run("release failure does not mask result", func(t *testing.T) {
		spy := &spyLocker{releaseErr: errors.New("redis is down")}

		guarded := Guard(newCoordinator(spy), func(context.Context, accountRequest) (int, error) {
			return 42, nil
		})

		res, err := guarded(t.Context(), accountRequest{AccountNumber: "1234567890"})

		require.NoError(t, err)
		require.Equal(t, 42, res)
	})

	t.Run("fn not called without lock", func(t *testing.T) {
		spy := &spyLocker{acquireErr: ErrNotAcquired}
		called := false

		guarded := Guard(newCoordinator(spy), func(context.Context, accountRequest) (int, error) {
			called = true
			return 0, nil
		})

		_, err := guarded(t.Context(), accountRequest{AccountNumber: "1234567890"})

		require.ErrorIs(t, err, apperrors.ErrLockFailed)
		require.False(t, called, "fn must not be called if lock not acquired")
		require.Zero(t, spy.released)
	})
}
