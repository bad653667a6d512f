package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinLandingPollInterval is the shortest interval the landing watch will poll at.
const MinLandingPollInterval = 100 * time.Millisecond

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Solana configuration
	RPCURL string

	// Observability
	LogLevel    string
	MetricsAddr string

	// NATS configuration
	NATSURL string

	// Temporal configuration
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string

	// Landing watch configuration
	LandingPollInterval time.Duration
	LandingMaxAttempts  int
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.RPCURL = os.Getenv("ORE_RPC_URL")
	if cfg.RPCURL == "" {
		errs = append(errs, fmt.Errorf("ORE_RPC_URL is required"))
	}

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.MetricsAddr = getEnvOrDefault("METRICS_ADDR", ":9091")

	// NATS configuration
	cfg.NATSURL = getEnvOrDefault("NATS_URL", "nats://localhost:4222")

	// Temporal configuration
	cfg.TemporalHost = getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")
	cfg.TemporalNamespace = getEnvOrDefault("TEMPORAL_NAMESPACE", "default")
	cfg.TemporalTaskQueue = getEnvOrDefault("TEMPORAL_TASK_QUEUE", "orewatch-landing")

	// Landing watch configuration
	interval, err := parseDuration("LANDING_POLL_INTERVAL", "2s")
	if err != nil {
		errs = append(errs, err)
	} else if interval < MinLandingPollInterval {
		errs = append(errs, fmt.Errorf("LANDING_POLL_INTERVAL (%v) must be at least %v", interval, MinLandingPollInterval))
	} else {
		cfg.LandingPollInterval = interval
	}

	attempts, err := parseInt("LANDING_MAX_ATTEMPTS", 30)
	if err != nil {
		errs = append(errs, err)
	} else if attempts < 1 {
		errs = append(errs, fmt.Errorf("LANDING_MAX_ATTEMPTS (%d) must be at least 1", attempts))
	} else {
		cfg.LandingMaxAttempts = attempts
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for worker initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		errs = append(errs, fmt.Errorf("RPCURL is required"))
	}

	if c.TemporalHost == "" {
		errs = append(errs, fmt.Errorf("TemporalHost is required"))
	}

	if c.TemporalNamespace == "" {
		errs = append(errs, fmt.Errorf("TemporalNamespace is required"))
	}

	if c.TemporalTaskQueue == "" {
		errs = append(errs, fmt.Errorf("TemporalTaskQueue is required"))
	}

	if c.LandingPollInterval < MinLandingPollInterval {
		errs = append(errs, fmt.Errorf("LandingPollInterval must be at least %v", MinLandingPollInterval))
	}

	if c.LandingMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("LandingMaxAttempts must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
