package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/todolist-web/internal/api/handlers"
	"github.com/isdelr/todolist-web/internal/api/views"
	"github.com/isdelr/todolist-web/internal/i18n"
	"github.com/isdelr/todolist-web/internal/services"
	"github.com/isdelr/todolist-web/internal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	logger zerolog.Logger,
	allowedOrigins []string,
	sessions *session.Manager,
	renderer *views.Renderer,
	messages *i18n.Messages,
	accountService services.AccountServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(sessions.Load)

	userHandler := handlers.NewUserHandler(accountService, messages, handlers.NewResponder(sessions, renderer))

	// Public pages
	r.Get("/", userHandler.Index)
	r.Get("/register", userHandler.ShowRegister)
	r.Post("/register.do", userHandler.Register)
	r.Get("/login", userHandler.ShowLogin)
	r.Post("/login.do", userHandler.Login)
	r.Get("/logout", userHandler.Logout)

	// Pages for logged-in users
	r.Route("/user", func(r chi.Router) {
		r.Use(sessions.RequireUser(handlers.PathLogin))

		r.Get("/todos", userHandler.Home)
		r.Route("/account", func(r chi.Router) {
			r.Get("/", userHandler.Account)
			r.Get("/delete", userHandler.ShowDelete)
			r.Post("/delete.do", userHandler.Delete)
			r.Get("/password", userHandler.ShowPassword)
			r.Post("/password.do", userHandler.ChangePassword)
			r.Get("/update", userHandler.ShowUpdate)
			r.Post("/update.do", userHandler.UpdateProfile)
		})
	})

	return r
}
