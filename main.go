package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/todolist-web/internal/api"
	"github.com/isdelr/todolist-web/internal/api/views"
	"github.com/isdelr/todolist-web/internal/auth"
	"github.com/isdelr/todolist-web/internal/config"
	"github.com/isdelr/todolist-web/internal/database"
	"github.com/isdelr/todolist-web/internal/i18n"
	"github.com/isdelr/todolist-web/internal/logger"
	"github.com/isdelr/todolist-web/internal/monitoring"
	"github.com/isdelr/todolist-web/internal/services"
	"github.com/isdelr/todolist-web/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.Production())

	if cfg.Production() && cfg.SessionSecret == "change-me" {
		log.Fatal().Msg("SESSION_SECRET must be set in production")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up session storage
	var sessionStore session.Store
	switch cfg.SessionBackend {
	case "redis":
		redisStore, err := session.NewRedisStore(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis session store")
		}
		defer redisStore.Close()
		sessionStore = redisStore
	default:
		sessionStore = session.NewSQLiteStore(db)
	}

	// Set up services
	userService := services.NewUserService(db)
	todoService := services.NewTodoService(db)
	hasher := &auth.PasswordHasher{
		Memory:  cfg.Argon2MemoryKB,
		Time:    cfg.Argon2Time,
		Threads: cfg.Argon2Threads,
	}
	accountService, err := services.NewAccountService(userService, todoService, hasher)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up account service")
	}

	tokens := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	sessions := session.NewManager(sessionStore, userService, tokens, cfg.SessionTTL, cfg.Production())

	renderer, err := views.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load views")
	}
	messages, err := i18n.NewMessages()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load messages")
	}

	// Set up and run the background session sweeper
	sweeper, err := monitoring.NewSessionSweeper(sessionStore, cfg.SessionSweepSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up session sweeper")
	}
	sweeper.Run()

	// Set up router
	router := api.NewRouter(log.Logger, cfg.CORSAllowedOrigins, sessions, renderer, messages, accountService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
