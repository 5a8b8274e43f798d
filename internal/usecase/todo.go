package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/abekov/todo-api/internal/repository"
	"github.com/google/uuid"
)

type TodoUsecase struct {
	repo repository.TodoRepository
}

func NewTodoUsecase(repo repository.TodoRepository) *TodoUsecase {
	return &TodoUsecase{repo: repo}
}

func (u *TodoUsecase) CreateTodo(ctx context.Context, ownerID, text string) (*domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyText
	}

	todo := &domain.Todo{
		OwnerID:   ownerID,
		Text:      text,
		Completed: false,
	}

	created, err := u.repo.Create(ctx, todo)
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return created, nil
}

func (u *TodoUsecase) ListTodos(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	todos, err := u.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (u *TodoUsecase) GetTodo(ctx context.Context, todoID, ownerID string) (*domain.Todo, error) {
	if err := validateTodoID(todoID); err != nil {
		return nil, err
	}
	return u.repo.GetByID(ctx, todoID, ownerID)
}

func (u *TodoUsecase) DeleteTodo(ctx context.Context, todoID, ownerID string) (*domain.Todo, error) {
	if err := validateTodoID(todoID); err != nil {
		return nil, err
	}
	return u.repo.Delete(ctx, todoID, ownerID)
}

type UpdateTodoInput struct {
	TodoID  string
	OwnerID string

	// nil means "leave unchanged"
	Text      *string
	Completed *bool
}

// UpdateTodo applies a partial update. Marking a todo completed stamps
// CompletedAt with the current epoch milliseconds; marking it not completed
// always clears the stamp.
func (u *TodoUsecase) UpdateTodo(ctx context.Context, input UpdateTodoInput) (*domain.Todo, error) {
	if err := validateTodoID(input.TodoID); err != nil {
		return nil, err
	}

	todo, err := u.repo.GetByID(ctx, input.TodoID, input.OwnerID)
	if err != nil {
		return nil, err
	}

	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, domain.ErrEmptyText
		}
		todo.Text = text
	}

	if input.Completed != nil {
		switch {
		case *input.Completed && !todo.Completed:
			now := time.Now().UnixMilli()
			todo.CompletedAt = &now
		case !*input.Completed:
			todo.CompletedAt = nil
		}
		todo.Completed = *input.Completed
	}

	updated, err := u.repo.Update(ctx, todo)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validateTodoID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidTodoID
	}
	return nil
}
