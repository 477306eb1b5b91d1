package balance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/logger"
	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/repository"
)

// Transactions older than that can't be cancelled
const CancelWindow = 365 * 24 * time.Hour

type UseRequest struct {
	OwnerID       int64
	AccountNumber string
	Amount        int64
}

// Use requests are serialized per account
func (r UseRequest) LockKey() string {
	return r.AccountNumber
}

type CancelRequest struct {
	TransactionID string
	AccountNumber string
	Amount        int64
}

// Service applies balance use and cancellation and keeps the transactions ledger.
// Every mutation attempt that breaks a business rule is recorded as failed transaction
type Service struct {
	storage repository.Storage
	logger  logger.Logger

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(storage repository.Storage, logger logger.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		newID:   NewTransactionID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewTransactionID returns random uuid without dashes
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// UseBalance withdraws amount from the owner account.
// Does not lock the account, wrap it with LockedService to serialize concurrent uses
func (s *Service) UseBalance(ctx context.Context, req UseRequest) (models.TransactionResult, error) {
	var (
		created  models.Transaction
		resolved *models.Account
	)

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		if req.Amount <= 0 {
			return apperrors.ErrInvalidRequest
		}

		if _, err := st.User().GetUserByID(ctx, req.OwnerID); err != nil {
			return err
		}

		account, err := st.Account().GetAccountByNumber(ctx, req.AccountNumber)
		if err != nil {
			return err
		}
		unchanged := account
		resolved = &unchanged

		switch {
		case account.UserID != req.OwnerID:
			return apperrors.ErrAccountOwnerMismatch
		case account.IsClosed():
			return apperrors.ErrAccountAlreadyClosed
		case req.Amount > account.Balance:
			return apperrors.ErrAmountExceedsBalance
		}

		account.Balance -= req.Amount
		created, err = s.applyTransaction(ctx, st, account, models.TransactionTypeUse, req.Amount)
		return err
	})

	if err != nil {
		s.recordFailure(ctx, err, models.TransactionTypeUse, req.AccountNumber, req.Amount, resolved)
		return models.TransactionResult{}, err
	}

	s.logger.Info("balance used", "account_number", req.AccountNumber, "transaction_id", created.TransactionID, "amount", req.Amount)
	return created.ToResult(), nil
}

// CancelBalance returns the whole amount of a use transaction back to the account
func (s *Service) CancelBalance(ctx context.Context, req CancelRequest) (models.TransactionResult, error) {
	var (
		created  models.Transaction
		resolved *models.Account
	)

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		original, err := st.Transaction().GetTransaction(ctx, req.TransactionID)
		if err != nil {
			return err
		}

		account, err := st.Account().GetAccountByNumber(ctx, req.AccountNumber)
		if err != nil {
			return err
		}
		unchanged := account
		resolved = &unchanged

		switch {
		case original.AccountID == nil || *original.AccountID != account.ID:
			return apperrors.ErrTransactionAccountMismatch
		case original.Amount != req.Amount:
			return apperrors.ErrPartialCancelNotAllowed
		case s.now().Sub(original.TransactedAt) > CancelWindow:
			return apperrors.ErrCancelWindowExpired
		case req.Amount < 0:
			return apperrors.ErrInvalidRequest
		}

		account.Balance += req.Amount
		created, err = s.applyTransaction(ctx, st, account, models.TransactionTypeCancel, req.Amount)
		return err
	})

	if err != nil {
		s.recordFailure(ctx, err, models.TransactionTypeCancel, req.AccountNumber, req.Amount, resolved)
		return models.TransactionResult{}, err
	}

	s.logger.Info("balance cancelled", "account_number", req.AccountNumber, "transaction_id", created.TransactionID, "amount", req.Amount)
	return created.ToResult(), nil
}

// Persist new account balance and successful transaction with the same storage
func (s *Service) applyTransaction(ctx context.Context, st repository.Storage, account models.Account, typ string, amount int64) (models.Transaction, error) {
	updated, err := st.Account().UpdateAccount(ctx, account)
	if err != nil {
		return models.Transaction{}, err
	}

	snapshot := updated.Balance
	return st.Transaction().CreateTransaction(ctx, models.Transaction{
		TransactionID:   s.newID(),
		Type:            typ,
		Result:          models.TransactionResultSuccess,
		AccountID:       &updated.ID,
		AccountNumber:   updated.AccountNumber,
		Amount:          amount,
		BalanceSnapshot: &snapshot,
		TransactedAt:    s.now(),
	})
}

// Append failed transaction for business rule violation.
// Errors are logged only, caller gets the original error anyway
func (s *Service) recordFailure(ctx context.Context, cause error, typ string, accountNumber string, amount int64, account *models.Account) {
	if !apperrors.IsBusiness(cause) {
		s.logger.Error("balance transaction failed", "type", typ, "account_number", accountNumber, "error", cause)
		return
	}

	s.logger.Warn("balance transaction rejected", "type", typ, "account_number", accountNumber, "code", apperrors.CodeOf(cause))

	failed := models.Transaction{
		TransactionID: s.newID(),
		Type:          typ,
		Result:        models.TransactionResultFail,
		AccountNumber: accountNumber,
		Amount:        amount,
		TransactedAt:  s.now(),
	}
	if account != nil {
		snapshot := account.Balance
		failed.AccountID = &account.ID
		failed.BalanceSnapshot = &snapshot
	}

	// Outside of the rolled back transaction and regardless of request cancellation
	ctx = context.WithoutCancel(ctx)
	if _, err := s.storage.Transaction().CreateTransaction(ctx, failed); err != nil {
		s.logger.Error("can't record failed transaction", "type", typ, "account_number", accountNumber, "error", err)
	}
}

func (s *Service) QueryTransaction(ctx context.Context, transactionID string) (models.TransactionResult, error) {
	t, err := s.storage.Transaction().GetTransaction(ctx, transactionID)
	if err != nil {
		return models.TransactionResult{}, err
	}

	return t.ToResult(), nil
}

// ListTransactions returns account ledger, newest first
func (s *Service) ListTransactions(ctx context.Context, accountNumber string) ([]models.TransactionResult, error) {
	if _, err := s.storage.Account().GetAccountByNumber(ctx, accountNumber); err != nil {
		return nil, err
	}

	transactions, err := s.storage.Transaction().ListTransactions(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	results := make([]models.TransactionResult, 0, len(transactions))
	for _, t := range transactions {
		results = append(results, t.ToResult())
	}

	return results, nil
}

// ListAccounts returns all accounts of the owner, closed ones included
func (s *Service) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	if _, err := s.storage.User().GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	return s.storage.Account().ListAccountsByUser(ctx, ownerID)
}
