package lock

import (
	"context"
)

// Lockable is a request that mutates one account
type Lockable interface {
	// Number of the account the request mutates
	LockKey() string
}

// Guard wraps fn so it runs holding the lock of the request account.
// The lock is released on every exit path and fn error is returned unchanged.
// If lock is not acquired fn is not called
func Guard[Req Lockable, Res any](c *Coordinator, fn func(context.Context, Req) (Res, error)) func(context.Context, Req) (Res, error) {
	return func(ctx context.Context, req Req) (Res, error) {
		h, err := c.LockAccount(ctx, req.LockKey())
		if err != nil {
			var zero Res
			return zero, err
		}
		defer c.Release(ctx, h)

		return fn(ctx, req)
	}
}
