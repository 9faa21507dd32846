package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSecretKey     = "dev-secret-key-change-this"
	DefaultAdminEmail    = "admin@expensetracker.com"
	DefaultAdminPassword = "admin123"
)

type Config struct {
	// HTTP Server
	Port         string
	SecureCookie bool

	// Database, "sqlite://relative.db", "sqlite:////abs/path.db", a bare
	// path, or "postgres://..."
	DatabaseURL string

	// Sessions
	SecretKey  string
	SessionTTL time.Duration
	RedisURL   string

	// Administrator credentials
	AdminEmail    string
	AdminPassword string

	LogLevel slog.Level
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory are applied first without overriding real
// environment variables.
func Load() *Config {
	_ = godotenv.Load()

	// DB_PATH, a bare SQLite path, is kept for older deployments.
	dbURL := getEnv("DATABASE_URL", getEnv("DB_PATH", "sqlite://expenses.db"))

	return &Config{
		Port:          getEnv("PORT", "8080"),
		SecureCookie:  getEnvBool("SECURE_COOKIE", false),
		DatabaseURL:   dbURL,
		SecretKey:     getEnv("SECRET_KEY", DefaultSecretKey),
		SessionTTL:    getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		RedisURL:      getEnv("REDIS_URL", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", DefaultAdminEmail),
		AdminPassword: getEnv("ADMIN_PASSWORD", DefaultAdminPassword),
		LogLevel:      getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DatabaseURL == "" || c.DatabaseURL == "sqlite://" {
		errors = append(errors, "database URL cannot be empty")
	}

	if c.SecretKey == "" {
		errors = append(errors, "SECRET_KEY cannot be empty")
	}

	if c.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid session TTL %s: must be positive", c.SessionTTL))
	}

	if c.AdminEmail == "" || c.AdminPassword == "" {
		errors = append(errors, "ADMIN_EMAIL and ADMIN_PASSWORD must both be set")
	}

	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		errors = append(errors, fmt.Sprintf("invalid Redis URL scheme in '%s': must be 'redis' or 'rediss'", c.RedisURL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// Warnings lists settings that work but are unsafe outside development.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.SecretKey == DefaultSecretKey {
		warnings = append(warnings, "SECRET_KEY is the development default")
	}
	if c.AdminPassword == DefaultAdminPassword {
		warnings = append(warnings, "ADMIN_PASSWORD is the development default")
	}
	return warnings
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvLevel(key string, def slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			return level
		}
	}
	return def
}
