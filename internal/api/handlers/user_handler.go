package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/todolist-web/internal/api/views"
	"github.com/isdelr/todolist-web/internal/i18n"
	"github.com/isdelr/todolist-web/internal/services"
	"github.com/isdelr/todolist-web/internal/session"
)

// View names.
const (
	ViewIndex           = "index"
	ViewLogin           = "login"
	ViewRegister        = "user/register"
	ViewHome            = "user/home"
	ViewAccountDetails  = "user/account/details"
	ViewAccountDelete   = "user/account/delete"
	ViewAccountPassword = "user/account/password"
	ViewAccountUpdate   = "user/account/update"
)

// Routes the handlers redirect to.
const (
	PathRoot    = "/"
	PathLogin   = "/login"
	PathHome    = "/user/todos"
	PathAccount = "/user/account"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	service  services.AccountServiceProvider
	messages *i18n.Messages
	*Responder
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.AccountServiceProvider, messages *i18n.Messages, responder *Responder) *UserHandler {
	return &UserHandler{service: service, messages: messages, Responder: responder}
}

// Index shows the public landing page.
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		return RenderView{Name: ViewIndex}, nil
	})
}

// ShowRegister shows the registration form.
func (h *UserHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		return RenderView{Name: ViewRegister, Model: views.Model{
			"registerTabStyle": "active",
			"registrationForm": services.RegistrationInput{},
		}}, nil
	})
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		in := services.RegistrationInput{
			Firstname:            strings.TrimSpace(r.PostForm.Get("firstname")),
			Lastname:             strings.TrimSpace(r.PostForm.Get("lastname")),
			Email:                strings.TrimSpace(r.PostForm.Get("email")),
			Password:             r.PostForm.Get("password"),
			ConfirmationPassword: r.PostForm.Get("confirmationPassword"),
		}

		err := h.service.Register(r.Context(), sess, in)
		if err == nil {
			return Redirect{Path: PathHome}, nil
		}

		// Never echo passwords back into the form.
		in.Password, in.ConfirmationPassword = "", ""
		form := func(key string, args ...any) Outcome {
			return RenderForm{
				Name:  ViewRegister,
				Model: views.Model{"registerTabStyle": "active", "registrationForm": in},
				Error: h.messages.Get(sess.Locale(), key, args...),
			}
		}

		var verr *services.ValidationError
		var dup *services.EmailAlreadyRegisteredError
		switch {
		case errors.As(err, &verr):
			return form(i18n.RegisterErrorGlobal), nil
		case errors.Is(err, services.ErrPasswordConfirmationMismatch):
			return form(i18n.RegisterErrorPasswordConfirmation), nil
		case errors.As(err, &dup):
			return form(i18n.RegisterErrorAccount, dup.Email), nil
		default:
			return nil, err
		}
	})
}

// ShowLogin shows the login form.
func (h *UserHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		if sess.User() != nil {
			return Redirect{Path: PathHome}, nil
		}
		return RenderView{Name: ViewLogin}, nil
	})
}

// Login authenticates the session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		email := strings.TrimSpace(r.PostForm.Get("email"))
		err := h.service.Login(r.Context(), sess, email, r.PostForm.Get("password"))
		switch {
		case err == nil:
			return Redirect{Path: PathHome}, nil
		case errors.Is(err, services.ErrInvalidCredentials):
			return RenderForm{
				Name:  ViewLogin,
				Model: views.Model{"email": email},
				Error: h.messages.Get(sess.Locale(), i18n.LoginError),
			}, nil
		default:
			return nil, err
		}
	})
}

// Logout ends the session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		h.service.Logout(sess)
		return Redirect{Path: PathRoot}, nil
	})
}

// Home shows the user's to-do list.
func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		todos, err := h.service.Home(r.Context(), sess)
		if err != nil {
			return nil, err
		}
		return RenderView{Name: ViewHome, Model: views.Model{
			"todoList":     todos,
			"homeTabStyle": "active",
		}}, nil
	})
}

// Account shows the account details with to-do counts.
func (h *UserHandler) Account(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		summary, err := h.service.AccountSummary(r.Context(), sess)
		if err != nil {
			return nil, err
		}
		return RenderView{Name: ViewAccountDetails, Model: views.Model{
			"user":       summary.User,
			"totalCount": summary.TotalCount,
			"todoCount":  summary.TodoCount,
			"doneCount":  summary.DoneCount,
		}}, nil
	})
}

// ShowDelete shows the account deletion confirmation page.
func (h *UserHandler) ShowDelete(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		return RenderView{Name: ViewAccountDelete}, nil
	})
}

// Delete handles the permanent deletion of the user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		if err := h.service.DeleteAccount(r.Context(), sess); err != nil {
			return nil, err
		}
		return RenderView{Name: ViewIndex}, nil
	})
}

// ShowPassword shows the change password form.
func (h *UserHandler) ShowPassword(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		return RenderView{Name: ViewAccountPassword}, nil
	})
}

// ChangePassword handles changing the user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		err := h.service.ChangePassword(r.Context(), sess, services.PasswordChangeInput{
			CurrentPassword:      r.PostForm.Get("currentpassword"),
			Password:             r.PostForm.Get("password"),
			ConfirmationPassword: r.PostForm.Get("confirmpassword"),
		})
		if err == nil {
			return Redirect{Path: PathAccount}, nil
		}

		form := func(key string) Outcome {
			return RenderForm{Name: ViewAccountPassword, Error: h.messages.Get(sess.Locale(), key)}
		}

		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return form(i18n.AccountErrorGlobal), nil
		case errors.Is(err, services.ErrPasswordConfirmationMismatch):
			return form(i18n.AccountPasswordConfirmationError), nil
		case errors.Is(err, services.ErrCurrentPasswordIncorrect):
			return form(i18n.AccountPasswordError), nil
		default:
			return nil, err
		}
	})
}

// ShowUpdate shows the personal information form.
func (h *UserHandler) ShowUpdate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		return RenderView{Name: ViewAccountUpdate, Model: views.Model{"user": sess.User()}}, nil
	})
}

// UpdateProfile handles updating the user's personal information.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(sess *session.Session) (Outcome, error) {
		in := services.ProfileUpdateInput{
			Firstname: strings.TrimSpace(r.PostForm.Get("firstname")),
			Lastname:  strings.TrimSpace(r.PostForm.Get("lastname")),
			Email:     strings.TrimSpace(r.PostForm.Get("email")),
		}
		err := h.service.UpdateProfile(r.Context(), sess, in)
		if err == nil {
			return Redirect{Path: PathAccount}, nil
		}

		form := func(key string, args ...any) Outcome {
			return RenderForm{
				Name:  ViewAccountUpdate,
				Model: views.Model{"user": sess.User()},
				Error: h.messages.Get(sess.Locale(), key, args...),
			}
		}

		var verr *services.ValidationError
		var dup *services.EmailAlreadyRegisteredError
		switch {
		case errors.As(err, &verr):
			return form(i18n.AccountErrorGlobal), nil
		case errors.As(err, &dup):
			return form(i18n.AccountEmailAlreadyUsed, dup.Email), nil
		default:
			return nil, err
		}
	})
}

// handle resolves the request session, parses any form payload, runs fn
// and writes its outcome. Errors fn does not translate become a 500.
func (h *UserHandler) handle(w http.ResponseWriter, r *http.Request, fn func(sess *session.Session) (Outcome, error)) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		h.InternalError(w, r, errors.New("no session in request context"), "Session middleware missing")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	out, err := fn(sess)
	if err != nil {
		h.InternalError(w, r, err, "Request failed")
		return
	}
	h.Respond(w, r, sess, out)
}
