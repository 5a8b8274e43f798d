package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, name, email, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindBySession(ctx context.Context, userID, token string) (*domain.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at
		FROM users u
		JOIN user_tokens t ON t.user_id = u.id
		WHERE u.id = $1 AND t.token = $2 AND t.access = $3`

	return scanUser(r.pool.QueryRow(ctx, query, userID, token, domain.TokenAccessAuth))
}

func (r *UserRepository) AddToken(ctx context.Context, userID, token string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_tokens (user_id, access, token) VALUES ($1, $2, $3)`,
		userID, domain.TokenAccessAuth, token,
	)
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (r *UserRepository) PruneTokens(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_tokens WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
