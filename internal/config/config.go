// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns
// an error and the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all runtime configuration for the ATS service.
type Config struct {
	Port        string
	GRPCPort    string
	Store       string
	DatabaseURL string
	// RedisURL is optional; events are dropped without it.
	RedisURL    string
	SeedFile string
	TAName   string

	ReminderSpec string
	StaleAfter   time.Duration
	LogLevel     zapcore.Level
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("ATS_PORT", "8082"),
		GRPCPort:     getenv("ATS_GRPC_PORT", "9092"),
		Store:        getenv("ATS_STORE", StoreMemory),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		SeedFile:     os.Getenv("ATS_SEED_FILE"),
		TAName:       getenv("ATS_TA_NAME", "Sarah Jenks"),
		ReminderSpec: getenv("ATS_REMINDER_SPEC", "@every 1h"),
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when ATS_STORE=%s", StorePostgres)
		}
	default:
		return nil, fmt.Errorf("ATS_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.Store)
	}

	days, err := strconv.Atoi(getenv("ATS_STALE_AFTER_DAYS", "3"))
	if err != nil || days < 1 {
		return nil, fmt.Errorf("ATS_STALE_AFTER_DAYS must be a positive integer")
	}
	cfg.StaleAfter = time.Duration(days) * 24 * time.Hour

	lvl, err := zapcore.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = lvl

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
