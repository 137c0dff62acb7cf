package models

import "time"

// Status is the state of a to-do item.
type Status string

const (
	StatusTodo Status = "TODO"
	StatusDone Status = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDone
}

// Todo is an item on a user's to-do list.
type Todo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
