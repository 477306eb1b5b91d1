package models

import (
	"time"
)

const (
	AccountStatusInUse        = "IN_USE"
	AccountStatusUnregistered = "UNREGISTERED"
)

// Length of the account number, always digits only
const AccountNumberLen = 10

type Account struct {
	ID             int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         int64
	AccountNumber  string
	Status         string
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time // nil while account is in use
}

func (a *Account) IsClosed() bool {
	return a.Status == AccountStatusUnregistered
}
