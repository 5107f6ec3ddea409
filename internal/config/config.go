// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const insecureDefaultKey = "0000000000000000000000000000000000000000000000000000000000000000"

// DirectoryConfig holds external directory provider configuration.
type DirectoryConfig struct {
	BaseURL    string        // REST API base URL (default: https://api.github.com)
	GraphQLURL string        // GraphQL endpoint (default: https://api.github.com/graphql)
	Timeout    time.Duration // per-request timeout (default: 5s)
	RateRPS    float64       // sustained provider requests per second (default 10)
	RateBurst  int           // burst capacity (default 10)
}

// Config holds the application configuration.
type Config struct {
	DBPath        string // path to the SQLite database file
	EncryptionKey string // 64-char hex string (32-byte AES key) wrapping key material at rest
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"

	Directory DirectoryConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:        os.Getenv("DB_PATH"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
		Directory: DirectoryConfig{
			BaseURL:    os.Getenv("DIRECTORY_BASE_URL"),
			GraphQLURL: os.Getenv("DIRECTORY_GRAPHQL_URL"),
		},
	}

	if v := os.Getenv("DIRECTORY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Directory.Timeout = d
		}
	}
	if v := os.Getenv("DIRECTORY_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Directory.RateRPS = f
		}
	}
	if v := os.Getenv("DIRECTORY_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Directory.RateBurst = n
		}
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "groupvault.sqlite"
	}
	if cfg.EncryptionKey == "" {
		cfg.EncryptionKey = insecureDefaultKey
		cfg.Warnings = append(cfg.Warnings, "ENCRYPTION_KEY not set — using insecure default. Set ENCRYPTION_KEY in production!")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Directory.BaseURL == "" {
		cfg.Directory.BaseURL = "https://api.github.com"
	}
	if cfg.Directory.GraphQLURL == "" {
		cfg.Directory.GraphQLURL = "https://api.github.com/graphql"
	}
	if cfg.Directory.Timeout == 0 {
		cfg.Directory.Timeout = 5 * time.Second
	}
	if cfg.Directory.RateRPS == 0 {
		cfg.Directory.RateRPS = 10
	}
	if cfg.Directory.RateBurst == 0 {
		cfg.Directory.RateBurst = 10
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.EncryptionKey == insecureDefaultKey {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be set in production (ENV=production)")
		}
	}

	if len(cfg.EncryptionKey) != 64 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes)")
	}

	return cfg, nil
}
