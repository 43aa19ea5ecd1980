// Package config handles loading and validating runtime configuration for Daddy Caddy.
// Values are read from environment variables (optionally seeded from a .env file) so the
// same binary runs against a local sqlite file on a phone-side host or against postgres
// during development without any code changes.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port        string     // TCP port of the local API (e.g. "8080")
	ListenHost  string     // Interface the local API binds to; loopback unless overridden
	DatabaseURL string     // sqlite DSN/path or a postgres:// URL
	Env         string     // "development", "staging", or "production"
	LogLevel    slog.Level // Minimum level written by the JSON logger
	APIToken    string     // Optional shared secret required on /api routes

	Summary SummaryConfig
	Backup  BackupConfig
}

// SummaryConfig points at an OpenAI-compatible chat-completions endpoint.
// Leaving URL empty disables the remote service; the deterministic fallback is used instead.
type SummaryConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// BackupConfig describes the S3-compatible bucket export documents are uploaded to.
type BackupConfig struct {
	Bucket          string
	Endpoint        string // Empty means AWS S3; set for R2/MinIO style endpoints
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether enough is configured to upload backups.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.AccessKeyID != "" && b.SecretAccessKey != ""
}

// Load reads configuration from environment variables and returns a populated Config.
// A missing .env file is fine; real environment variables win over it anyway.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		ListenHost:  getEnv("LISTEN_HOST", "127.0.0.1"),
		DatabaseURL: getEnv("DATABASE_URL", "file:daddycaddy.db"),
		Env:         getEnv("ENV", "development"),
		APIToken:    os.Getenv("LOCAL_API_TOKEN"),
		Summary: SummaryConfig{
			URL:    os.Getenv("SUMMARY_API_URL"),
			APIKey: os.Getenv("SUMMARY_API_KEY"),
			Model:  getEnv("SUMMARY_MODEL", "gpt-4o-mini"),
		},
		Backup: BackupConfig{
			Bucket:          os.Getenv("BACKUP_BUCKET"),
			Endpoint:        os.Getenv("BACKUP_ENDPOINT"),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     os.Getenv("BACKUP_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("BACKUP_SECRET_ACCESS_KEY"),
		},
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	timeout, err := time.ParseDuration(getEnv("SUMMARY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_TIMEOUT environment variable: %w", err)
	}
	cfg.Summary.Timeout = timeout

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// Addr is the host:port the local API listens on.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
