package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/todolist-web/internal/i18n"
	"github.com/isdelr/todolist-web/internal/models"
	"github.com/isdelr/todolist-web/internal/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

// RegistrationInput is the registration form.
type RegistrationInput struct {
	Firstname            string `validate:"required"`
	Lastname             string `validate:"required"`
	Email                string `validate:"required,mailaddr"`
	Password             string `validate:"required"`
	ConfirmationPassword string `validate:"required"`
}

// PasswordChangeInput is the change password form.
type PasswordChangeInput struct {
	CurrentPassword      string `validate:"required"`
	Password             string `validate:"required"`
	ConfirmationPassword string `validate:"required"`
}

// ProfileUpdateInput is the personal information form.
type ProfileUpdateInput struct {
	Firstname string `validate:"required"`
	Lastname  string `validate:"required"`
	Email     string `validate:"required,mailaddr"`
}

// AccountSummary is the account details page model. The counts come from
// independent reads and may disagree under concurrent modification.
type AccountSummary struct {
	User       models.User
	TotalCount int
	TodoCount  int
	DoneCount  int
}

// AccountServiceProvider defines the interface for account operations.
type AccountServiceProvider interface {
	Register(ctx context.Context, sess *session.Session, in RegistrationInput) error
	Login(ctx context.Context, sess *session.Session, email, password string) error
	Logout(sess *session.Session)
	Home(ctx context.Context, sess *session.Session) ([]models.Todo, error)
	AccountSummary(ctx context.Context, sess *session.Session) (AccountSummary, error)
	DeleteAccount(ctx context.Context, sess *session.Session) error
	ChangePassword(ctx context.Context, sess *session.Session, in PasswordChangeInput) error
	UpdateProfile(ctx context.Context, sess *session.Session, in ProfileUpdateInput) error
}

// AccountService implements the account lifecycle on top of the user and
// to-do stores, binding the logged-in user to the caller's session.
type AccountService struct {
	users    UserServiceProvider
	todos    TodoServiceProvider
	hasher   PasswordHasher
	validate *validator.Validate
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserServiceProvider, todos TodoServiceProvider, hasher PasswordHasher) (*AccountService, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// RFC 5322 addr-spec; unlike the built-in "email" rule, single-label
	// domains are accepted.
	if err := validate.RegisterValidation("mailaddr", isMailAddress); err != nil {
		return nil, fmt.Errorf("register mailaddr rule: %w", err)
	}

	return &AccountService{
		users:    users,
		todos:    todos,
		hasher:   hasher,
		validate: validate,
	}, nil
}

func isMailAddress(fl validator.FieldLevel) bool {
	addr, err := mail.ParseAddress(fl.Field().String())
	return err == nil && addr.Name == "" && addr.Address == fl.Field().String()
}

// Register creates an account and logs it into sess under a new session id.
func (s *AccountService) Register(ctx context.Context, sess *session.Session, in RegistrationInput) error {
	if err := s.validateInput(in); err != nil {
		return err
	}
	if in.Password != in.ConfirmationPassword {
		return ErrPasswordConfirmationMismatch
	}
	if err := s.ensureEmailAvailable(ctx, in.Email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}
	user, err := s.users.Create(ctx, models.User{
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// Lost a race with a concurrent registration.
		return &EmailAlreadyRegisteredError{Email: in.Email}
	}
	if err != nil {
		return err
	}

	sess.Renew()
	sess.SetUser(&user)
	if sess.Locale() == language.Und {
		sess.SetLocale(i18n.DefaultLocale)
	}
	log.Info().Str("user_id", user.ID).Msg("User registered")
	return nil
}

// Login authenticates email and password and binds the user to sess under
// a new session id.
func (s *AccountService) Login(ctx context.Context, sess *session.Session, email, password string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	sess.Renew()
	sess.SetUser(&user)
	return nil
}

// Logout ends sess.
func (s *AccountService) Logout(sess *session.Session) {
	sess.Invalidate()
}

// Home returns the to-do list of the logged-in user.
func (s *AccountService) Home(ctx context.Context, sess *session.Session) ([]models.Todo, error) {
	user, err := currentUser(sess)
	if err != nil {
		return nil, err
	}
	return s.todos.ListByUser(ctx, user.ID)
}

// AccountSummary returns the logged-in user with their to-do counts.
func (s *AccountService) AccountSummary(ctx context.Context, sess *session.Session) (AccountSummary, error) {
	user, err := currentUser(sess)
	if err != nil {
		return AccountSummary{}, err
	}

	todo, err := s.todos.ListByUserAndStatus(ctx, user.ID, models.StatusTodo)
	if err != nil {
		return AccountSummary{}, err
	}
	done, err := s.todos.ListByUserAndStatus(ctx, user.ID, models.StatusDone)
	if err != nil {
		return AccountSummary{}, err
	}
	all, err := s.todos.ListByUser(ctx, user.ID)
	if err != nil {
		return AccountSummary{}, err
	}

	return AccountSummary{
		User:       *user,
		TotalCount: len(all),
		TodoCount:  len(todo),
		DoneCount:  len(done),
	}, nil
}

// DeleteAccount removes the logged-in user and invalidates sess. An account
// that is already gone still logs the session out.
func (s *AccountService) DeleteAccount(ctx context.Context, sess *session.Session) error {
	user, err := currentUser(sess)
	if err != nil {
		return err
	}
	if err := s.users.Remove(ctx, user.ID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		log.Warn().Str("user_id", user.ID).Msg("Account already deleted")
	}

	sess.SetUser(nil)
	sess.Invalidate()
	log.Info().Str("user_id", user.ID).Msg("Account deleted")
	return nil
}

// ChangePassword replaces the password of the logged-in user.
func (s *AccountService) ChangePassword(ctx context.Context, sess *session.Session, in PasswordChangeInput) error {
	user, err := currentUser(sess)
	if err != nil {
		return err
	}
	if err := s.validateInput(in); err != nil {
		return err
	}
	if in.Password != in.ConfirmationPassword {
		return ErrPasswordConfirmationMismatch
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.CurrentPassword)
	if err != nil {
		return fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		return ErrCurrentPasswordIncorrect
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}
	updated := *user
	updated.PasswordHash = hash
	if err := s.users.Update(ctx, updated); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	user.PasswordHash = hash
	return nil
}

// UpdateProfile replaces the name and email of the logged-in user.
func (s *AccountService) UpdateProfile(ctx context.Context, sess *session.Session, in ProfileUpdateInput) error {
	user, err := currentUser(sess)
	if err != nil {
		return err
	}
	if err := s.validateInput(in); err != nil {
		return err
	}
	if NormalizeEmail(in.Email) != NormalizeEmail(user.Email) {
		if err := s.ensureEmailAvailable(ctx, in.Email); err != nil {
			return err
		}
	}

	updated := *user
	updated.Firstname = in.Firstname
	updated.Lastname = in.Lastname
	updated.Email = NormalizeEmail(in.Email)
	if err := s.users.Update(ctx, updated); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return &EmailAlreadyRegisteredError{Email: in.Email}
		}
		return fmt.Errorf("update profile: %w", err)
	}

	*user = updated
	return nil
}

func (s *AccountService) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &EmailAlreadyRegisteredError{Email: email}
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *AccountService) validateInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fe.Tag()
	}
	return verr
}

func currentUser(sess *session.Session) (*models.User, error) {
	if sess == nil || sess.User() == nil {
		return nil, ErrNotAuthenticated
	}
	return sess.User(), nil
}
