package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TodoRepository struct {
	pool *pgxpool.Pool
}

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

const todoColumns = `id, owner_id, text, completed, completed_at, created_at, updated_at`

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	query := `
		INSERT INTO todos (owner_id, text, completed, completed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + todoColumns

	row := r.pool.QueryRow(ctx, query, todo.OwnerID, todo.Text, todo.Completed, todo.CompletedAt)
	return scanTodo(row)
}

func (r *TodoRepository) GetByID(ctx context.Context, todoID, ownerID string) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND owner_id = $2`

	return scanTodo(r.pool.QueryRow(ctx, query, todoID, ownerID))
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []*domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Update writes the whole document. Concurrent updates to the same todo are
// serialized by the row lock; last write wins.
func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	query := `
		UPDATE todos
		SET    text         = $3,
		       completed    = $4,
		       completed_at = $5,
		       updated_at   = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + todoColumns

	row := r.pool.QueryRow(ctx, query, todo.ID, todo.OwnerID, todo.Text, todo.Completed, todo.CompletedAt)
	return scanTodo(row)
}

func (r *TodoRepository) Delete(ctx context.Context, todoID, ownerID string) (*domain.Todo, error) {
	query := `
		DELETE FROM todos
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + todoColumns

	return scanTodo(r.pool.QueryRow(ctx, query, todoID, ownerID))
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var t domain.Todo
	err := row.Scan(&t.ID, &t.OwnerID, &t.Text, &t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	return &t, nil
}
