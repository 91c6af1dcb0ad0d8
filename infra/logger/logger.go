package logger

import (
	"fmt"
	"os"
	"strings"

	corelogger "github.com/kilianp07/zerowaste/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// Config selects the logging backend.
type Config struct {
	// Backend is "zerolog" (default) or "logrus".
	Backend string           `json:"backend"`
	Level   corelogger.Level `json:"level"`
	// Format is "json" or "console". Empty follows APP_ENV: console in dev.
	Format string `json:"format"`
}

// SetDefaults fills the backend and format.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "zerolog"
	}
	if c.Level == "" {
		c.Level = corelogger.LevelInfo
	}
	if c.Format == "" {
		if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
}

// Validate checks the configured names.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "zerolog", "logrus":
	default:
		return fmt.Errorf("logging: unknown backend %q", c.Backend)
	}
	if !c.Level.Valid() {
		return fmt.Errorf("logging: unknown level %q", c.Level)
	}
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging: unknown format %q", c.Format)
	}
	return nil
}

var defaults Config

// Configure sets the settings used by New. It is called once at startup.
func Configure(cfg Config) {
	cfg.SetDefaults()
	defaults = cfg
}

// New returns a Logger for the given component using the configured backend.
// Without Configure, the environment decides the format via APP_ENV.
func New(component string) Logger {
	cfg := defaults
	cfg.SetDefaults()
	return NewWithConfig(component, cfg)
}

// NewWithConfig returns a Logger for component writing to stdout.
func NewWithConfig(component string, cfg Config) Logger {
	if cfg.Backend == "logrus" {
		return NewLogrusLogger(component, cfg, os.Stdout)
	}
	return newZerolog(component, cfg, os.Stdout)
}
