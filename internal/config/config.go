// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/blockedby/flight-stats/internal/stats"
)

// ErrMissingAPIBase is returned by Validate when STATS_API_BASE is empty.
var ErrMissingAPIBase = errors.New("STATS_API_BASE is required")

// Config holds all application configuration.
type Config struct {
	// upstream statistics api
	StatsAPIBase string
	FetchTimeout time.Duration
	DefaultYear  int
	RateLimit    float64

	// nats, empty disables event publishing
	NatsURL string

	// postgres, empty disables the cycle history
	DatabaseURL string

	// server
	HTTPPort     int
	CORSOrigins  []string
	TemplatesDir string // empty uses the templates built into the binary

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StatsAPIBase: getEnv("STATS_API_BASE", ""),
		FetchTimeout: getEnvDuration("STATS_FETCH_TIMEOUT", 10*time.Second),
		DefaultYear:  getEnvInt("STATS_DEFAULT_YEAR", stats.DefaultYear),
		RateLimit:    getEnvFloat("STATS_RATE_LIMIT", 5),
		NatsURL:      getEnv("NATS_URL", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		HTTPPort:     getEnvInt("HTTP_PORT", 3100),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"*"}),
		TemplatesDir: getEnv("TEMPLATES_DIR", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}

	return cfg, nil
}

// Validate checks the settings needed to talk to the statistics API.
func (c *Config) Validate() error {
	if c.StatsAPIBase == "" {
		return ErrMissingAPIBase
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("STATS_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	if err := stats.ValidateYear(c.DefaultYear); err != nil {
		return fmt.Errorf("STATS_DEFAULT_YEAR: %w", err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("STATS_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("10s") and plain milliseconds ("10000").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
