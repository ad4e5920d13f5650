// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
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

// Store drivers understood by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all runtime configuration for the board service.
type Config struct {
	Port        string
	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string // empty means in-process fallbacks for tokens, preferences and favorites
	CatalogPath string

	TokenTTL                time.Duration
	DirectoryRefreshMinutes int // 0 disables the cron refresh
	AuthRatePerMinute       int
	LogLevel                slog.Level
}

// Load reads environment variables (after an optional .env file) and returns
// a validated Config.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	driver := strings.ToLower(os.Getenv("STORE_DRIVER"))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite, memory, got %q", driver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if driver == DriverPostgres && dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "board.db"
	}

	port := os.Getenv("BOARD_PORT")
	if port == "" {
		port = "8083"
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "mx-municipios.json"
	}

	ttlHours, err := positiveInt("TOKEN_TTL_HOURS", 72)
	if err != nil {
		return nil, err
	}

	refresh := 5
	if s := os.Getenv("DIRECTORY_REFRESH_MINUTES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("DIRECTORY_REFRESH_MINUTES must be a non-negative integer, got %q", s)
		}
		refresh = v
	}

	authRate, err := positiveInt("AUTH_RATE_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                    port,
		StoreDriver:             driver,
		DatabaseURL:             dbURL,
		SQLitePath:              sqlitePath,
		RedisURL:                os.Getenv("REDIS_URL"),
		CatalogPath:             catalogPath,
		TokenTTL:                time.Duration(ttlHours) * time.Hour,
		DirectoryRefreshMinutes: refresh,
		AuthRatePerMinute:       authRate,
		LogLevel:                level,
	}, nil
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return l, nil
}
