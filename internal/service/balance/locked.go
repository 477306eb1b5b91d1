package balance

import (
	"context"

	"github.com/nkiryanov/accountd/internal/lock"
	"github.com/nkiryanov/accountd/internal/models"
)

// LockedService is the Service with balance use serialized per account.
// Cancellation and reads are not locked
type LockedService struct {
	*Service

	use func(context.Context, UseRequest) (models.TransactionResult, error)
}

func NewLockedService(s *Service, c *lock.Coordinator) *LockedService {
	return &LockedService{
		Service: s,
		use:     lock.Guard(c, s.UseBalance),
	}
}

func (s *LockedService) UseBalance(ctx context.Context, req UseRequest) (models.TransactionResult, error) {
	return s.use(ctx, req)
}
