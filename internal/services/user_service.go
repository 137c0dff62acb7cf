package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todolist-web/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UserServiceProvider defines the interface for user persistence.
type UserServiceProvider interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Remove(ctx context.Context, id string) error
}

// UserService stores user accounts in SQL. Emails are normalised on every
// write and lookup, so uniqueness is case-insensitive.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const userColumns = "id, firstname, lastname, email, password_hash, created_at"

// FindByID retrieves a single user by their ID.
func (s *UserService) FindByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("find user %s: %w", id, err)
	}
	return user, nil
}

// FindByEmail retrieves a single user by their email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	email = NormalizeEmail(email)
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("find user by email %s: %w", email, err)
	}
	return user, nil
}

// Create assigns a fresh identity to user and inserts it.
func (s *UserService) Create(ctx context.Context, user models.User) (models.User, error) {
	user.ID = uuid.New().String()
	user.Email = NormalizeEmail(user.Email)
	user.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, firstname, lastname, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Firstname, user.Lastname, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Update persists the mutable fields of an existing user.
func (s *UserService) Update(ctx context.Context, user models.User) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET firstname = ?, lastname = ?, email = ?, password_hash = ? WHERE id = ?",
		user.Firstname, user.Lastname, NormalizeEmail(user.Email), user.PasswordHash, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	return expectAffected(res, user.ID)
}

// Remove deletes a user. Their to-dos are removed by the foreign key cascade.
func (s *UserService) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove user %s: %w", id, err)
	}
	return expectAffected(res, id)
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func expectAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
