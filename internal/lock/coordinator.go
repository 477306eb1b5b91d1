package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/logger"
)

const (
	// Account lock key is the prefix followed by the account number
	AccountKeyPrefix = "ACLK:"

	DefaultWaitTimeout  = 1 * time.Second
	DefaultLeaseTimeout = 15 * time.Second
)

// Coordinator serializes balance mutations of one account
type Coordinator struct {
	locker Locker
	logger logger.Logger

	wait  time.Duration
	lease time.Duration
}

type CoordinatorOption func(*Coordinator)

func WithWaitTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.wait = d }
}

func WithLeaseTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.lease = d }
}

func NewCoordinator(locker Locker, logger logger.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		locker: locker,
		logger: logger,
		wait:   DefaultWaitTimeout,
		lease:  DefaultLeaseTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LockAccount acquires the account lock or returns apperrors.ErrLockFailed
func (c *Coordinator) LockAccount(ctx context.Context, accountNumber string) (Handle, error) {
	key := AccountKeyPrefix + accountNumber

	h, err := c.locker.Acquire(ctx, key, c.wait, c.lease)
	if err != nil {
		c.logger.Error("account lock not acquired", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrLockFailed, err)
	}

	c.logger.Debug("account lock acquired", "key", key)
	return h, nil
}

// Release never fails: errors are logged only
func (c *Coordinator) Release(ctx context.Context, h Handle) {
	if h == nil {
		return
	}

	// Release even if request context is already cancelled
	ctx = context.WithoutCancel(ctx)

	if err := h.Release(ctx); err != nil {
		c.logger.Warn("account lock release failed", "key", h.Key(), "error", err)
		return
	}

	c.logger.Debug("account lock released", "key", h.Key())
}
