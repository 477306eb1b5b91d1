package postgres

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/models"
)

// How many random numbers try before give up creating account
const maxAccountNumberAttempts = 5

type AccountRepo struct {
	DB DBTX

	// Account number generator, random 10 digits if nil
	NewNumber func() (string, error)
}

const accountColumns = `id, created_at, updated_at, user_id, account_number, status, balance, registered_at, unregistered_at`

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (user_id, account_number, status, balance, registered_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns

func (r *AccountRepo) CreateAccount(ctx context.Context, userID int64, initialBalance int64) (models.Account, error) {
	newNumber := r.NewNumber
	if newNumber == nil {
		newNumber = randomAccountNumber
	}

	var account models.Account
	for range maxAccountNumberAttempts {
		number, err := newNumber()
		if err != nil {
			return account, fmt.Errorf("can't generate account number: %w", err)
		}

		account, err = r.insertAccount(ctx, userID, number, initialBalance)
		switch {
		case err == nil:
			return account, nil
		case errors.Is(err, apperrors.ErrAccountNumberConflict):
			continue
		default:
			return account, err
		}
	}

	return account, apperrors.ErrAccountNumberConflict
}

func (r *AccountRepo) insertAccount(ctx context.Context, userID int64, number string, initialBalance int64) (models.Account, error) {
	// Savepoint lets retry with another number after unique violation
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("db tx error: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	rows, _ := tx.Query(ctx, createAccount, userID, number, models.AccountStatusInUse, initialBalance, time.Now())
	account, err := pgx.CollectOneRow(rows, rowToAccount)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return account, apperrors.ErrAccountNumberConflict
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return account, apperrors.ErrUserNotFound
		default:
			return account, fmt.Errorf("db error: %w", err)
		}
	}

	return account, tx.Commit(ctx)
}

const getAccountByNumber = `-- name: GetAccountByNumber
SELECT ` + accountColumns + ` FROM accounts
WHERE account_number = $1
`

func (r *AccountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByNumber, number)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const listAccountsByUser = `-- name: ListAccountsByUser
SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = $1
ORDER BY id
`

func (r *AccountRepo) ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listAccountsByUser, userID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

const updateAccount = `-- name: UpdateAccount
UPDATE accounts
SET balance = $2, status = $3, unregistered_at = $4, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) UpdateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, a.ID, a.Balance, a.Status, a.UnregisteredAt)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
		return account, fmt.Errorf("db error: negative balance rejected: %w", err)
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const closeAccount = `-- name: CloseAccount
UPDATE accounts
SET status = $2, unregistered_at = COALESCE(unregistered_at, now()), updated_at = now()
WHERE account_number = $1
RETURNING ` + accountColumns

func (r *AccountRepo) CloseAccount(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, closeAccount, number, models.AccountStatusUnregistered)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.UserID, &a.AccountNumber, &a.Status, &a.Balance, &a.RegisteredAt, &a.UnregisteredAt)
	return a, err
}

// Random number of models.AccountNumberLen digits, leading zeros allowed
func randomAccountNumber() (string, error) {
	limit := big.NewInt(10_000_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", models.AccountNumberLen, n.Int64()), nil
}
