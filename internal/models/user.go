package models

import (
	"time"
)

// Account owner as seen by the balance engine
type User struct {
	ID        int64
	CreatedAt time.Time
	Name      string
}
