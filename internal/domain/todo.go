package domain

import (
	"errors"
	"time"
)

var (
	ErrTodoNotFound  = errors.New("todo not found")
	ErrInvalidTodoID = errors.New("invalid todo id")
	ErrEmptyText     = errors.New("text must not be empty")
)

type Todo struct {
	ID      string
	OwnerID string
	Text    string

	Completed bool
	// CompletedAt is epoch milliseconds; nil unless Completed.
	CompletedAt *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
