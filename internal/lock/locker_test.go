package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Checks every Locker has to pass
func testLocker(t *testing.T, newLocker func(t *testing.T) Locker) {
	const (
		wait  = 100 * time.Millisecond
		lease = 10 * time.Second
	)

	t.Run("acquire free key", func(t *testing.T) {
		locker := newLocker(t)

		h, err := locker.Acquire(t.Context(), "ACLK:1234567890", wait, lease)

		require.NoError(t, err)
		require.Equal(t, "ACLK:1234567890", h.Key())
		require.NoError(t, h.Release(t.Context()))
	})

	t.Run("busy key not acquired after wait", func(t *testing.T) {
		locker := newLocker(t)
		h, err := locker.Acquire(t.Context(), "busy", wait, lease)
		require.NoError(t, err)
		defer h.Release(t.Context()) // nolint:errcheck

		start := time.Now()
		_, err = locker.Acquire(t.Context(), "busy", wait, lease)

		require.ErrorIs(t, err, ErrNotAcquired)
		require.GreaterOrEqual(t, time.Since(start), wait/2, "should wait before giving up")
		require.Less(t, time.Since(start), 5*wait, "should not wait much longer than wait timeout")
	})

	t.Run("different keys independent", func(t *testing.T) {
		locker := newLocker(t)

		h1, err := locker.Acquire(t.Context(), "first", wait, lease)
		require.NoError(t, err)
		h2, err := locker.Acquire(t.Context(), "second", wait, lease)
		require.NoError(t, err)

		require.NoError(t, h1.Release(t.Context()))
		require.NoError(t, h2.Release(t.Context()))
	})

	t.Run("released key acquired again", func(t *testing.T) {
		locker := newLocker(t)
		h, err := locker.Acquire(t.Context(), "key", wait, lease)
		require.NoError(t, err)
		require.NoError(t, h.Release(t.Context()))

		h, err = locker.Acquire(t.Context(), "key", wait, lease)

		require.NoError(t, err, "released key has to be free")
		require.NoError(t, h.Release(t.Context()))
	})

	t.Run("waiter acquires when holder releases", func(t *testing.T) {
		locker := newLocker(t)
		h, err := locker.Acquire(t.Context(), "key", wait, lease)
		require.NoError(t, err)

		time.AfterFunc(wait/4, func() { _ = h.Release(t.Context()) })

		next, err := locker.Acquire(t.Context(), "key", 10*wait, lease)

		require.NoError(t, err, "key released while waiting has to be acquired")
		require.NoError(t, next.Release(t.Context()))
	})

	t.Run("double release", func(t *testing.T) {
		locker := newLocker(t)
		h, err := locker.Acquire(t.Context(), "key", wait, lease)
		require.NoError(t, err)
		require.NoError(t, h.Release(t.Context()))

		err = h.Release(t.Context())

		require.ErrorIs(t, err, ErrNotHeld)
	})

	t.Run("mutual exclusion", func(t *testing.T) {
		locker := newLocker(t)

		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				h, err := locker.Acquire(t.Context(), "shared", 5*time.Second, lease)
				if err != nil {
					return
				}

				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)

				_ = h.Release(t.Context())
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), maxInside.Load(), "only one holder at a time expected")
	})
}
