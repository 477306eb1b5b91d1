package repository

import (
	"context"

	"github.com/nkiryanov/accountd/internal/models"
)

// Owner directory
// Accounts and users are administered outside of the balance engine, create methods are for seeding only
type UserRepo interface {
	// Create user with the name
	CreateUser(ctx context.Context, name string) (models.User, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
}

type AccountRepo interface {
	// Create account in use with random unique 10 digits number
	CreateAccount(ctx context.Context, userID int64, initialBalance int64) (models.Account, error)

	// Get account by its number
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccountByNumber(ctx context.Context, number string) (models.Account, error)

	// List accounts owned by the user, oldest first
	ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error)

	// Persist account balance and status
	// If account not found must return apperrors.ErrAccountNotFound
	UpdateAccount(ctx context.Context, account models.Account) (models.Account, error)

	// Mark account unregistered
	CloseAccount(ctx context.Context, number string) (models.Account, error)
}

// Append-only transaction ledger
type TransactionRepo interface {
	// Append transaction to the ledger
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// Get transaction by external transaction id
	// If transaction not found must return apperrors.ErrTransactionNotFound
	GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error)

	// List account transactions, newest first
	ListTransactions(ctx context.Context, accountNumber string) ([]models.Transaction, error)
}

type Storage interface {
	User() UserRepo
	Account() AccountRepo
	Transaction() TransactionRepo

	// Run fn in db transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
