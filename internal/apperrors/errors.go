package apperrors

import (
	"errors"
)

// Code is a stable error kind exposed to callers
type Code string

const (
	CodeInternal               Code = "INTERNAL_SERVER_ERROR"
	CodeUserNotFound           Code = "USER_NOT_FOUND"
	CodeAccountNotFound        Code = "ACCOUNT_NOT_FOUND"
	CodeAccountUnmatched       Code = "ACCOUNT_UNMATCHED"
	CodeAccountAlreadyDeleted  Code = "ACCOUNT_ALREADY_DELETED"
	CodeNotEnoughBalance       Code = "NOT_ENOUGH_BALANCE"
	CodeAmountExceedBalance    Code = "AMOUNT_EXCEED_BALANCE"
	CodeTransactionNotFound    Code = "TRANSACTION_NOT_FOUND"
	CodeTransactionUnmatched   Code = "TRANSACTION_UNMATCHED"
	CodeCancelMustFully        Code = "CANCEL_MUST_FULLY"
	CodeTooOldOrderToCancel    Code = "TOO_OLD_ORDER_TO_CANCEL"
	CodeInvalidRequest         Code = "INVALID_REQUEST"
	CodeAccountTransactionLock Code = "ACCOUNT_TRANSACTION_LOCK_FAILED"
)

// Error is a typed failure with a code and a human-readable message.
// Package level values are sentinels: compare them with errors.Is
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrInternal = newError(CodeInternal, "internal server error")

	ErrUserNotFound = newError(CodeUserNotFound, "user not found")

	ErrAccountNotFound      = newError(CodeAccountNotFound, "account not found")
	ErrAccountOwnerMismatch = newError(CodeAccountUnmatched, "account owner does not match user")
	ErrAccountAlreadyClosed = newError(CodeAccountAlreadyDeleted, "account is already closed")
	// Not returned by the engine, keeps NOT_ENOUGH_BALANCE code stable for clients
	ErrInsufficientBalance   = newError(CodeNotEnoughBalance, "insufficient balance")
	ErrAmountExceedsBalance  = newError(CodeAmountExceedBalance, "amount exceeds account balance")
	ErrAccountNumberConflict = errors.New("account number already taken")

	ErrTransactionNotFound        = newError(CodeTransactionNotFound, "transaction not found")
	ErrTransactionAccountMismatch = newError(CodeTransactionUnmatched, "transaction does not belong to account")
	ErrPartialCancelNotAllowed    = newError(CodeCancelMustFully, "partial cancellation is not allowed")
	ErrCancelWindowExpired        = newError(CodeTooOldOrderToCancel, "transaction older than one year can not be cancelled")

	ErrInvalidRequest = newError(CodeInvalidRequest, "invalid request")
	ErrLockFailed     = newError(CodeAccountTransactionLock, "account is in use")
)

// CodeOf returns code of the first typed error in err chain.
// Anything untyped collapses to CodeInternal
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsBusiness reports whether err is a typed rule violation (a gate failure),
// not an infrastructure or lock failure
func IsBusiness(err error) bool {
	switch CodeOf(err) {
	case CodeInternal, CodeAccountTransactionLock:
		return false
	default:
		return true
	}
}
