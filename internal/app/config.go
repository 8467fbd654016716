package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RootPath string // directory resource paths are resolved against

	LogFormat string
	LogLevel  string

	Workers   int // default job queue
	IOWorkers int // "io" job queue
	HTTPPort  int // debug server, 0 is disabled

	TickInterval time.Duration
	Timeout      time.Duration // load command deadline
}

// NewConfig validates cfg and fills in defaults for zero durations.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootPath == "" {
		return nil, errors.New("RootPath is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.IOWorkers <= 0 {
		return nil, fmt.Errorf("io workers must be positive, got %d", cfg.IOWorkers)
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid http port %d", cfg.HTTPPort)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 10 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &cfg, nil
}
