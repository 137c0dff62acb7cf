package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores for records that do not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}
