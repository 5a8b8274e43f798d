package repository

import (
	"context"

	"github.com/abekov/todo-api/internal/domain"
)

// UseCase depends on interface, not concrete implementation.
// This way we get: 1) can swap DB later without touching usecase 2) We can pass a mock implementation of interface in tests
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)

	// Lookups are ownership-scoped: a todo that exists but belongs to a
	// different owner is reported as not found.
	GetByID(ctx context.Context, todoID, ownerID string) (*domain.Todo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	Delete(ctx context.Context, todoID, ownerID string) (*domain.Todo, error)
}
