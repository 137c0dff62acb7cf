// Package session binds server-side state (the logged-in user and the
// locale) to a browser through a signed cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todolist-web/internal/models"
	"golang.org/x/text/language"
)

// ErrNotFound is returned by a Store for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Record is the persisted form of a session.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Locale    string    `json:"locale"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists session records.
type Store interface {
	Load(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session is the per-request view of one client's session. It is not safe
// for concurrent use; a session is expected to serve one request at a time.
type Session struct {
	id          string
	previousID  string
	user        *models.User
	locale      language.Tag
	invalidated bool
}

// New creates an anonymous session.
func New(id string, locale language.Tag) *Session {
	return &Session{id: id, locale: locale}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Renew gives the session a fresh identifier. The record stored under the
// old identifier is deleted when the session is committed, so a cookie
// issued before a login cannot be used after it.
func (s *Session) Renew() {
	if s.previousID == "" {
		s.previousID = s.id
	}
	s.id = uuid.New().String()
}

// User returns the logged-in user, or nil for an anonymous session.
func (s *Session) User() *models.User { return s.user }

// SetUser binds user to the session. Passing nil logs the user out.
func (s *Session) SetUser(user *models.User) { s.user = user }

// Locale returns the session locale.
func (s *Session) Locale() language.Tag { return s.locale }

// SetLocale changes the session locale.
func (s *Session) SetLocale(tag language.Tag) { s.locale = tag }

// Invalidate drops all session state. The record is deleted and the cookie
// cleared when the session is committed.
func (s *Session) Invalidate() {
	s.user = nil
	s.invalidated = true
}

// Invalidated reports whether Invalidate was called.
func (s *Session) Invalidated() bool { return s.invalidated }

func (s *Session) record(expiresAt time.Time) Record {
	rec := Record{ID: s.id, Locale: s.locale.String(), ExpiresAt: expiresAt}
	if s.user != nil {
		rec.UserID = s.user.ID
	}
	return rec
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}
