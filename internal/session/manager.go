package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todolist-web/internal/auth"
	"github.com/isdelr/todolist-web/internal/i18n"
	"github.com/isdelr/todolist-web/internal/models"
	"github.com/rs/zerolog/log"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// UserLookup resolves the user a session record points at. A user that no
// longer exists is reported with an error matching models.ErrNotFound.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Manager loads sessions for incoming requests and commits them back.
type Manager struct {
	store  Store
	users  UserLookup
	tokens *auth.TokenIssuer
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a Manager. Sessions expire ttl after their last commit.
func NewManager(store Store, users UserLookup, tokens *auth.TokenIssuer, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:  store,
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Load is middleware that attaches the request's session to its context.
// Requests without a valid cookie get a fresh anonymous session whose
// locale is negotiated from Accept-Language. Storage failures answer 500
// and leave the stored session untouched.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.resolve(r)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to load session")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// RequireUser is middleware that redirects anonymous sessions to loginPath.
func (m *Manager) RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := FromContext(r.Context())
			if sess == nil || sess.User() == nil {
				if sess != nil {
					if err := m.Commit(r.Context(), w, sess); err != nil {
						log.Error().Err(err).Msg("Failed to commit session")
					}
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Commit persists sess and refreshes its cookie, or removes both when the
// session was invalidated. A renewed session also drops the record kept
// under its previous identifier. It must run before the response is written.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.Invalidated() {
		if err := m.store.Delete(ctx, sess.ID()); err != nil {
			return err
		}
		if err := m.dropPrevious(ctx, sess); err != nil {
			return err
		}
		http.SetCookie(w, m.cookie("", time.Unix(0, 0), -1))
		return nil
	}

	expiresAt := m.now().Add(m.ttl)
	if err := m.store.Save(ctx, sess.record(expiresAt)); err != nil {
		return err
	}
	if err := m.dropPrevious(ctx, sess); err != nil {
		return err
	}
	token, err := m.tokens.Issue(sess.ID())
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(token, expiresAt, 0))
	return nil
}

func (m *Manager) dropPrevious(ctx context.Context, sess *Session) error {
	if sess.previousID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, sess.previousID); err != nil {
		return err
	}
	sess.previousID = ""
	return nil
}

func (m *Manager) resolve(r *http.Request) (*Session, error) {
	sess, err := m.fromCookie(r.Context(), r)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, http.ErrNoCookie), errors.Is(err, ErrNotFound), errors.Is(err, auth.ErrInvalidToken):
		return New(uuid.New().String(), i18n.Negotiate(r.Header.Get("Accept-Language"))), nil
	default:
		return nil, err
	}
}

func (m *Manager) fromCookie(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, err
	}
	id, err := m.tokens.Parse(cookie.Value)
	if err != nil {
		return nil, err
	}
	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := New(rec.ID, i18n.Parse(rec.Locale))
	if rec.UserID != "" {
		user, err := m.users.FindByID(ctx, rec.UserID)
		switch {
		case err == nil:
			sess.SetUser(&user)
		case errors.Is(err, models.ErrNotFound):
			// The account may have been deleted from another session.
			log.Debug().Str("session_id", rec.ID).Msg("Session user not found, continuing anonymously")
		default:
			return nil, fmt.Errorf("failed to load session user: %w", err)
		}
	}
	return sess, nil
}

func (m *Manager) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
