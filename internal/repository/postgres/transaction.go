package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, created_at, transaction_id, type, result, error_code, account_id, account_number, amount, balance_snapshot, transaction_at`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (transaction_id, type, result, error_code, account_id, account_number, amount, balance_snapshot, transaction_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + transactionColumns

func (r *TransactionRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		t.TransactionID, t.Type, t.Result, t.ErrorCode, t.AccountID, t.AccountNumber, t.Amount, t.BalanceSnapshot, t.TransactedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, fmt.Errorf("transaction id %q already recorded: %w", t.TransactionID, err)
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTransaction = `-- name: GetTransaction
SELECT ` + transactionColumns + ` FROM transactions
WHERE transaction_id = $1
`

func (r *TransactionRepo) GetTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, transactionID)
	t, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, apperrors.ErrTransactionNotFound
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const listTransactions = `-- name: ListTransactions
SELECT ` + transactionColumns + ` FROM transactions
WHERE account_number = $1
ORDER BY transaction_at DESC, id DESC
`

func (r *TransactionRepo) ListTransactions(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, accountNumber)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.TransactionID, &t.Type, &t.Result, &t.ErrorCode, &t.AccountID, &t.AccountNumber, &t.Amount, &t.BalanceSnapshot, &t.TransactedAt)
	return t, err
}
