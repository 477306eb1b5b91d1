package models

import (
	"time"
)

const (
	TransactionTypeUse    = "USE"
	TransactionTypeCancel = "CANCEL"
)

const (
	TransactionResultSuccess = "S"
	TransactionResultFail    = "F"
)

// Transaction is an append-only audit record of one balance mutation attempt
type Transaction struct {
	ID            int64
	CreatedAt     time.Time
	TransactionID string
	Type          string
	Result        string

	// Failed attempts do not carry error code
	ErrorCode *string

	// Nil when the attempt failed before the account was resolved
	AccountID     *int64
	AccountNumber string

	Amount int64

	// Account balance after the mutation; for failed attempts the unchanged balance or nil if unknown
	BalanceSnapshot *int64

	TransactedAt time.Time
}

// TransactionResult is the read-only projection returned to callers
type TransactionResult struct {
	AccountNumber   string
	Type            string
	Result          string
	TransactionID   string
	Amount          int64
	BalanceSnapshot *int64
	TransactedAt    time.Time
}

func (t Transaction) ToResult() TransactionResult {
	return TransactionResult{
		AccountNumber:   t.AccountNumber,
		Type:            t.Type,
		Result:          t.Result,
		TransactionID:   t.TransactionID,
		Amount:          t.Amount,
		BalanceSnapshot: t.BalanceSnapshot,
		TransactedAt:    t.TransactedAt,
	}
}
