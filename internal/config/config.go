// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Worker-specific configuration
	WorkerConcurrency int

	// How often the worker polls for due schedules
	PollInterval time.Duration

	// Upper bound on one adapter publish call
	PublishTimeout time.Duration

	// Total attempt budget per schedule
	MaxAttempts int

	// Minimum level for structured logs
	LogLevel slog.Level

	// OTLP collector endpoint for traces; empty disables tracing
	OTELEndpoint string

	// Shared secret guarding the /internal endpoints
	InternalAPISecret string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbUrl := os.Getenv("DATABASE_URL")
	if dbUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	portStr := os.Getenv("PORT")
	port := 8080 // Default
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		port = p
	}

	concurrencyStr := os.Getenv("WORKER_CONCURRENCY")
	concurrency := 4 // Default
	if concurrencyStr != "" {
		c, err := strconv.Atoi(concurrencyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
		}
		concurrency = c
	}

	pollIntervalStr := os.Getenv("POLL_INTERVAL")
	pollInterval := 1 * time.Minute // Default
	if pollIntervalStr != "" {
		pi, err := time.ParseDuration(pollIntervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
		}
		pollInterval = pi
	}

	publishTimeoutStr := os.Getenv("PUBLISH_TIMEOUT")
	publishTimeout := 30 * time.Second // Default
	if publishTimeoutStr != "" {
		pt, err := time.ParseDuration(publishTimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PUBLISH_TIMEOUT: %w", err)
		}
		publishTimeout = pt
	}

	maxAttemptsStr := os.Getenv("MAX_ATTEMPTS")
	maxAttempts := 5 // Default
	if maxAttemptsStr != "" {
		ma, err := strconv.Atoi(maxAttemptsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_ATTEMPTS: %w", err)
		}
		if ma < 1 {
			return nil, fmt.Errorf("MAX_ATTEMPTS must be at least 1")
		}
		maxAttempts = ma
	}

	logLevel := slog.LevelInfo
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if err := logLevel.UnmarshalText([]byte(levelStr)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	return &Config{
		DatabaseURL:       dbUrl,
		HTTPPort:          port,
		WorkerConcurrency: concurrency,
		PollInterval:      pollInterval,
		PublishTimeout:    publishTimeout,
		MaxAttempts:       maxAttempts,
		LogLevel:          logLevel,
		OTELEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		InternalAPISecret: os.Getenv("INTERNAL_API_SECRET"),
	}, nil
}
