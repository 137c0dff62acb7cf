package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/todolist-web/internal/auth"
	"github.com/isdelr/todolist-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type fakeUsers map[string]models.User

func (f fakeUsers) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

// flakyUsers fails every lookup while err is set.
type flakyUsers struct {
	fakeUsers
	err error
}

func (f *flakyUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	return f.fakeUsers.FindByID(ctx, id)
}

func newTestManager(t *testing.T, users UserLookup) (*Manager, *SQLiteStore) {
	t.Helper()
	store := NewSQLiteStore(setupDB(t))
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	return NewManager(store, users, tokens, time.Hour, false), store
}

// serve runs one request through Load, letting fn act on the session before
// committing it, and returns the response.
func serve(t *testing.T, m *Manager, cookie *http.Cookie, header http.Header, fn func(*Session)) (*httptest.ResponseRecorder, *Session) {
	t.Helper()
	var seen *Session
	h := m.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		require.NotNil(t, seen)
		if fn != nil {
			fn(seen)
		}
		require.NoError(t, m.Commit(r.Context(), w, seen))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestManager_NewSessionNegotiatesLocale(t *testing.T) {
	m, _ := newTestManager(t, fakeUsers{})

	rec, sess := serve(t, m, nil, http.Header{"Accept-Language": {"fr-FR,fr;q=0.9"}}, nil)
	assert.Equal(t, language.French, sess.Locale())
	assert.Nil(t, sess.User())

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.NotEmpty(t, c.Value)
}

func TestManager_RoundTripKeepsUserAndLocale(t *testing.T) {
	ada := models.User{ID: "u1", Email: "ada@x"}
	m, _ := newTestManager(t, fakeUsers{"u1": ada})

	rec, first := serve(t, m, nil, nil, func(s *Session) {
		s.SetUser(&ada)
		s.SetLocale(language.French)
	})

	_, second := serve(t, m, sessionCookie(rec), nil, nil)
	assert.Equal(t, first.ID(), second.ID())
	require.NotNil(t, second.User())
	assert.Equal(t, "ada@x", second.User().Email)
	assert.Equal(t, language.French, second.Locale())
}

func TestManager_VanishedUserIsAnonymous(t *testing.T) {
	users := fakeUsers{"u1": {ID: "u1"}}
	m, _ := newTestManager(t, users)

	rec, _ := serve(t, m, nil, nil, func(s *Session) {
		u := users["u1"]
		s.SetUser(&u)
	})
	delete(users, "u1")

	_, next := serve(t, m, sessionCookie(rec), nil, nil)
	assert.Nil(t, next.User())
}

func TestManager_InvalidateClearsCookieAndRecord(t *testing.T) {
	m, store := newTestManager(t, fakeUsers{})

	rec, first := serve(t, m, nil, nil, nil)
	cookie := sessionCookie(rec)

	rec, _ = serve(t, m, cookie, nil, func(s *Session) { s.Invalidate() })
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	_, err := store.Load(context.Background(), first.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	// replaying the old cookie yields a new session
	_, next := serve(t, m, cookie, nil, nil)
	assert.NotEqual(t, first.ID(), next.ID())
}

func TestManager_TamperedCookieStartsNewSession(t *testing.T) {
	m, _ := newTestManager(t, fakeUsers{})

	_, sess := serve(t, m, &http.Cookie{Name: CookieName, Value: "forged"}, nil, nil)
	assert.NotEmpty(t, sess.ID())
	assert.Nil(t, sess.User())
}

func TestManager_RequireUser(t *testing.T) {
	ada := models.User{ID: "u1"}
	m, _ := newTestManager(t, fakeUsers{"u1": ada})

	protected := m.Load(m.RequireUser("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/todos", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	login, _ := serve(t, m, nil, nil, func(s *Session) { s.SetUser(&ada) })
	req := httptest.NewRequest(http.MethodGet, "/user/todos", nil)
	req.AddCookie(sessionCookie(login))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestManager_LookupFailureKeepsUserBound(t *testing.T) {
	ada := models.User{ID: "u1"}
	users := &flakyUsers{fakeUsers: fakeUsers{"u1": ada}}
	m, store := newTestManager(t, users)

	rec, first := serve(t, m, nil, nil, func(s *Session) { s.SetUser(&ada) })
	cookie := sessionCookie(rec)

	users.err = errors.New("database is locked")
	called := false
	h := m.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodGet, "/user/todos", nil)
	req.AddCookie(cookie)
	failed := httptest.NewRecorder()
	h.ServeHTTP(failed, req)

	assert.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.False(t, called)
	assert.Nil(t, sessionCookie(failed))
	stored, err := store.Load(context.Background(), first.ID())
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)

	users.err = nil
	_, next := serve(t, m, cookie, nil, nil)
	assert.Equal(t, first.ID(), next.ID())
	require.NotNil(t, next.User())
	assert.Equal(t, "u1", next.User().ID)
}

func TestManager_RenewDropsPreviousRecord(t *testing.T) {
	ada := models.User{ID: "u1"}
	m, store := newTestManager(t, fakeUsers{"u1": ada})

	rec, anonymous := serve(t, m, nil, nil, nil)
	preLogin := sessionCookie(rec)
	oldID := anonymous.ID()

	rec, renewed := serve(t, m, preLogin, nil, func(s *Session) {
		s.Renew()
		s.SetUser(&ada)
	})
	assert.NotEqual(t, oldID, renewed.ID())

	_, err := store.Load(context.Background(), oldID)
	assert.ErrorIs(t, err, ErrNotFound)

	// the pre-login cookie no longer carries the user
	_, replayed := serve(t, m, preLogin, nil, nil)
	assert.Nil(t, replayed.User())
	assert.NotEqual(t, renewed.ID(), replayed.ID())

	_, current := serve(t, m, sessionCookie(rec), nil, nil)
	assert.Equal(t, renewed.ID(), current.ID())
	require.NotNil(t, current.User())
}
