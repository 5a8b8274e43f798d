package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/abekov/todo-api/internal/metrics"
	"github.com/abekov/todo-api/internal/transport/http/middleware"
	"github.com/abekov/todo-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// todoUsecaser is the subset of TodoUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type todoUsecaser interface {
	CreateTodo(ctx context.Context, ownerID, text string) (*domain.Todo, error)
	ListTodos(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	GetTodo(ctx context.Context, todoID, ownerID string) (*domain.Todo, error)
	UpdateTodo(ctx context.Context, input usecase.UpdateTodoInput) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, todoID, ownerID string) (*domain.Todo, error)
}

type TodoHandler struct {
	todoUsecase todoUsecaser
	logger      *slog.Logger
}

func NewTodoHandler(todoUsecase todoUsecaser, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{todoUsecase: todoUsecase, logger: logger.With("component", "todo_handler")}
}

type createTodoRequest struct {
	Text string `json:"text" binding:"required,max=4096"`
}

type updateTodoRequest struct {
	Text      *string `json:"text" binding:"omitempty,max=4096"`
	Completed *bool   `json:"completed"`
}

type todoResponse struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Completed   bool      `json:"completed"`
	CompletedAt *int64    `json:"completedAt"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newTodoResponse(t *domain.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		Text:        t.Text,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// POST /todos
func (h *TodoHandler) Create(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := middleware.CurrentUser(c)
	todo, err := h.todoUsecase.CreateTodo(c.Request.Context(), owner.ID, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyText})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "create todo", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	metrics.TodosCreatedTotal.Inc()
	c.JSON(http.StatusOK, newTodoResponse(todo))
}

// GET /todos
func (h *TodoHandler) List(c *gin.Context) {
	owner := middleware.CurrentUser(c)

	todos, err := h.todoUsecase.ListTodos(c.Request.Context(), owner.ID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list todos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]todoResponse, len(todos))
	for i, t := range todos {
		items[i] = newTodoResponse(t)
	}
	c.JSON(http.StatusOK, gin.H{"todos": items})
}

// GET /todos/:id
func (h *TodoHandler) GetByID(c *gin.Context) {
	todoID := c.Param("id")
	owner := middleware.CurrentUser(c)

	todo, err := h.todoUsecase.GetTodo(c.Request.Context(), todoID, owner.ID)
	if err != nil {
		h.respondTodoError(c, todoID, "get todo", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"todo": newTodoResponse(todo)})
}

// PATCH /todos/:id
func (h *TodoHandler) Update(c *gin.Context) {
	todoID := c.Param("id")
	owner := middleware.CurrentUser(c)

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todoUsecase.UpdateTodo(c.Request.Context(), usecase.UpdateTodoInput{
		TodoID:    todoID,
		OwnerID:   owner.ID,
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyText})
			return
		}
		h.respondTodoError(c, todoID, "update todo", err)
		return
	}

	if req.Completed != nil && *req.Completed {
		metrics.TodosCompletedTotal.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"todo": newTodoResponse(todo)})
}

// DELETE /todos/:id — responds with the document as it was before deletion.
func (h *TodoHandler) Delete(c *gin.Context) {
	todoID := c.Param("id")
	owner := middleware.CurrentUser(c)

	todo, err := h.todoUsecase.DeleteTodo(c.Request.Context(), todoID, owner.ID)
	if err != nil {
		h.respondTodoError(c, todoID, "delete todo", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"todo": newTodoResponse(todo)})
}

// respondTodoError maps the shared lookup failures. A todo owned by someone
// else surfaces as not found, never as forbidden.
func (h *TodoHandler) respondTodoError(c *gin.Context, todoID, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTodoID):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("invalid todo id: %s", todoID)})
	case errors.Is(err, domain.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no todo found with id: %s", todoID)})
	default:
		h.logger.ErrorContext(c.Request.Context(), op, "todo_id", todoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
