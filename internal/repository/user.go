package repository

import (
	"context"
	"time"

	"github.com/abekov/todo-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindBySession returns the user only if (userID, token) is a live
	// "auth" session — the check that makes logout immediately effective.
	FindBySession(ctx context.Context, userID, token string) (*domain.User, error)

	AddToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	PruneTokens(ctx context.Context, cutoff time.Time) (int, error)
}
