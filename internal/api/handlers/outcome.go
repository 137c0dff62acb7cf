package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/isdelr/todolist-web/internal/api/views"
	"github.com/isdelr/todolist-web/internal/session"
	"github.com/rs/zerolog/hlog"
)

// Outcome is the result of a handler: a rendered view, a form re-rendered
// with an error, or a redirect.
type Outcome interface {
	outcome()
}

// RenderView renders the named view.
type RenderView struct {
	Name  string
	Model views.Model
}

// RenderForm re-renders the named form view with a localised error.
type RenderForm struct {
	Name  string
	Model views.Model
	Error string
}

// Redirect sends the client to Path with 303 See Other.
type Redirect struct {
	Path string
}

func (RenderView) outcome() {}
func (RenderForm) outcome() {}
func (Redirect) outcome()   {}

// SessionCommitter persists a session before the response is written.
type SessionCommitter interface {
	Commit(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
}

// Responder commits the request session and writes an Outcome.
type Responder struct {
	sessions SessionCommitter
	views    *views.Renderer
}

// NewResponder creates a Responder.
func NewResponder(sessions SessionCommitter, renderer *views.Renderer) *Responder {
	return &Responder{sessions: sessions, views: renderer}
}

// Respond writes out. The session is committed first so its cookie makes
// it into the response headers.
func (rs *Responder) Respond(w http.ResponseWriter, r *http.Request, sess *session.Session, out Outcome) {
	if err := rs.sessions.Commit(r.Context(), w, sess); err != nil {
		rs.InternalError(w, r, err, "Failed to commit session")
		return
	}

	switch out := out.(type) {
	case Redirect:
		http.Redirect(w, r, out.Path, http.StatusSeeOther)
	case RenderView:
		rs.render(w, r, sess, http.StatusOK, out.Name, out.Model)
	case RenderForm:
		model := out.Model
		if model == nil {
			model = views.Model{}
		}
		model["error"] = out.Error
		rs.render(w, r, sess, http.StatusUnprocessableEntity, out.Name, model)
	}
}

// InternalError logs err and answers with a bare 500.
func (rs *Responder) InternalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (rs *Responder) render(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, name string, model views.Model) {
	if model == nil {
		model = views.Model{}
	}
	model["currentUser"] = sess.User()
	err := rs.views.Render(w, status, name, model)
	switch {
	case err == nil:
	case errors.Is(err, views.ErrResponseStarted):
		hlog.FromRequest(r).Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to write view")
	default:
		rs.InternalError(w, r, err, "Failed to render view")
	}
}
