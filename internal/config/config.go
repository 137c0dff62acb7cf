package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	AppEnv       string
	LogLevel     string

	SessionSecret        string
	SessionTTL           time.Duration
	SessionBackend       string // "sqlite" or "redis"
	RedisURL             string
	SessionSweepSchedule string // cron spec for purging expired sessions

	CORSAllowedOrigins []string

	Argon2MemoryKB uint32
	Argon2Time     uint32
	Argon2Threads  uint8
}

// Production reports whether the server runs with production settings.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is fine, real environment wins over it.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL: must be positive")
	}

	backend := getEnv("SESSION_BACKEND", "sqlite")
	if backend != "sqlite" && backend != "redis" {
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q: want sqlite or redis", backend)
	}

	memory, err := getEnvUint("ARGON2_MEMORY_KB", 64*1024, 32)
	if err != nil {
		return nil, err
	}
	iterations, err := getEnvUint("ARGON2_TIME", 1, 32)
	if err != nil {
		return nil, err
	}
	threads, err := getEnvUint("ARGON2_THREADS", 4, 8)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:           port,
		DatabasePath:         getEnv("DATABASE_PATH", "./todolist.db"),
		AppEnv:               getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		SessionSecret:        getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:           ttl,
		SessionBackend:       backend,
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		CORSAllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		Argon2MemoryKB:       uint32(memory),
		Argon2Time:           uint32(iterations),
		Argon2Threads:        uint8(threads),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvUint(key string, fallback uint64, bits int) (uint64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.ParseUint(value, 10, bits)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
