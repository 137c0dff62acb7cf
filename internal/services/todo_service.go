package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todolist-web/internal/models"
)

// TodoServiceProvider defines the read surface over to-do items, plus
// Create for seeding.
type TodoServiceProvider interface {
	ListByUser(ctx context.Context, userID string) ([]models.Todo, error)
	ListByUserAndStatus(ctx context.Context, userID string, status models.Status) ([]models.Todo, error)
	Create(ctx context.Context, todo models.Todo) (models.Todo, error)
}

// TodoService provides access to to-do items.
type TodoService struct {
	db *sql.DB
}

// NewTodoService creates a new TodoService.
func NewTodoService(db *sql.DB) *TodoService {
	return &TodoService{db: db}
}

// ListByUser returns all to-dos owned by userID, newest first.
func (s *TodoService) ListByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	return s.query(ctx,
		"SELECT id, user_id, title, status, created_at FROM todos WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
}

// ListByUserAndStatus returns the to-dos owned by userID with the given status.
func (s *TodoService) ListByUserAndStatus(ctx context.Context, userID string, status models.Status) ([]models.Todo, error) {
	return s.query(ctx,
		"SELECT id, user_id, title, status, created_at FROM todos WHERE user_id = ? AND status = ? ORDER BY created_at DESC, id",
		userID, string(status),
	)
}

// Create inserts a to-do for its owner.
func (s *TodoService) Create(ctx context.Context, todo models.Todo) (models.Todo, error) {
	if !todo.Status.Valid() {
		return models.Todo{}, fmt.Errorf("invalid todo status %q", todo.Status)
	}
	todo.ID = uuid.New().String()
	todo.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO todos (id, user_id, title, status, created_at) VALUES (?, ?, ?, ?, ?)",
		todo.ID, todo.UserID, todo.Title, string(todo.Status), todo.CreatedAt,
	)
	if err != nil {
		return models.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return todo, nil
}

func (s *TodoService) query(ctx context.Context, query string, args ...any) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		var status string
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Title, &status, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todo.Status = models.Status(status)
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}
