package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Balance store (PostgreSQL)
	DatabaseURL string

	// Analytics store (embedded SQLite)
	AnalyticsDBPath string

	// Transfer guards
	RateLimitWindow  time.Duration // sliding window for transfer initiations
	RateLimitMax     int           // max transfer initiations per window
	ConfirmThreshold int64         // amounts at or above this require confirmation
	ConfirmTimeout   time.Duration // how long to wait for a human confirmation

	// Settlement
	WagerTaxRate     float64       // fraction of a coinflip stake burned as tax
	ChallengeTimeout time.Duration // how long a coinflip challenge stays open

	// HTTP surface for the command/UI layer
	HTTPAddr string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Limits is the per-operation guard configuration. Services resolve it once
// at the start of an operation so a settings change never splits a single
// operation.
type Limits struct {
	RateLimitWindow  time.Duration
	RateLimitMax     int
	ConfirmThreshold int64
	ConfirmTimeout   time.Duration
	WagerTaxRate     float64
	ChallengeTimeout time.Duration
}

// Limits returns a snapshot of the guard settings.
func (c *Config) Limits() Limits {
	return Limits{
		RateLimitWindow:  c.RateLimitWindow,
		RateLimitMax:     c.RateLimitMax,
		ConfirmThreshold: c.ConfirmThreshold,
		ConfirmTimeout:   c.ConfirmTimeout,
		WagerTaxRate:     c.WagerTaxRate,
		ChallengeTimeout: c.ChallengeTimeout,
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Stores
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AnalyticsDBPath: os.Getenv("ANALYTICS_DB_PATH"),

		// Guard settings with defaults
		RateLimitWindow:  60 * time.Second,
		RateLimitMax:     5,
		ConfirmThreshold: 1000,
		ConfirmTimeout:   30 * time.Second,
		WagerTaxRate:     0.05,
		ChallengeTimeout: 5 * time.Minute,
		HTTPAddr:         ":8080",

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.AnalyticsDBPath == "" {
		config.AnalyticsDBPath = "bursar_analytics.db"
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.RateLimitWindow = time.Duration(parsed) * time.Second
		}
	}
	if v := os.Getenv("RATE_LIMIT_MAX_TRANSFERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.RateLimitMax = parsed
		}
	}
	if v := os.Getenv("CONFIRM_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.ConfirmThreshold = parsed
		}
	}
	if v := os.Getenv("CONFIRM_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.ConfirmTimeout = time.Duration(parsed) * time.Second
		}
	}
	if v := os.Getenv("WAGER_TAX_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			config.WagerTaxRate = parsed
		}
	}
	if v := os.Getenv("CHALLENGE_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.ChallengeTimeout = time.Duration(parsed) * time.Second
		}
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		config.HTTPAddr = v
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	if config.WagerTaxRate < 0 || config.WagerTaxRate >= 1 {
		return nil, fmt.Errorf("WAGER_TAX_RATE must be in [0, 1), got %f", config.WagerTaxRate)
	}

	return config, nil
}
