package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/isdelr/todolist-web/internal/models"
)

var (
	// store errors
	ErrNotFound       = models.ErrNotFound
	ErrDuplicateEmail = errors.New("email already in use")

	// account errors
	ErrPasswordConfirmationMismatch = errors.New("password and confirmation do not match")
	ErrCurrentPasswordIncorrect     = errors.New("current password is incorrect")
	ErrInvalidCredentials           = errors.New("invalid email or password")
	ErrNotAuthenticated             = errors.New("no user bound to session")
)

// ValidationError lists the form fields that failed validation, keyed by
// field name with the failed rule as value.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name, rule := range e.Fields {
		names = append(names, name+"="+rule)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// EmailAlreadyRegisteredError is returned when another account owns Email.
type EmailAlreadyRegisteredError struct {
	Email string
}

func (e *EmailAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("email %s is already registered", e.Email)
}
