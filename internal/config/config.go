// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - New() returns a Config holding every default.
// - Load layers a YAML file and environment variables on top of New().
// - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ryanbouguerra/wbw-rank/internal/domain/ranking"
	"github.com/ryanbouguerra/wbw-rank/internal/domain/sequencer"
	"github.com/ryanbouguerra/wbw-rank/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// DampingFactor, MaxOrderChanges and MaxIterations parameterise the solver.
	DampingFactor   float64 `koanf:"damping_factor"`
	MaxOrderChanges int     `koanf:"max_order_changes"`
	MaxIterations   int     `koanf:"max_iterations"`

	// LookbackDays is the trailing window length used by the sequencer.
	LookbackDays int `koanf:"lookback_days"`

	// BootstrapYear is the calendar year ranked for the first snapshot.
	BootstrapYear int `koanf:"bootstrap_year"`

	// WindowAnchor is "next" or "closed"; see sequencer.Anchor.
	WindowAnchor string `koanf:"window_anchor"`

	// WorkerCount sets the number of precompute workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the precompute job queue.
	QueueSize int `koanf:"queue_size"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		DampingFactor:   ranking.DefaultDampingFactor,
		MaxOrderChanges: ranking.DefaultMaxOrderChanges,
		MaxIterations:   ranking.DefaultMaxIterations,
		LookbackDays:    364,
		BootstrapYear:   sequencer.DefaultBootstrapYear,
		WindowAnchor:    sequencer.AnchorNextTournament.String(),
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("%w: lookback_days must be positive, got %d", ErrInvalidConfig, c.LookbackDays)
	}
	if _, err := sequencer.ParseAnchor(c.WindowAnchor); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}

// Params returns the solver parameters.
func (c *Config) Params() ranking.Params {
	return ranking.Params{
		DampingFactor:   c.DampingFactor,
		MaxOrderChanges: c.MaxOrderChanges,
		MaxIterations:   c.MaxIterations,
	}
}

// Lookback returns the trailing window length.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// Anchor returns the parsed window anchor, falling back to the default when
// the setting is not recognised.
func (c *Config) Anchor() sequencer.Anchor {
	a, err := sequencer.ParseAnchor(c.WindowAnchor)
	if err != nil {
		return sequencer.AnchorNextTournament
	}
	return a
}

// InitLogger initialises the process logger from LogFormat and LogLevel.
func (c *Config) InitLogger(opts ...logger.Option) error {
	opts = append([]logger.Option{logger.WithFormat(c.LogFormat)}, opts...)
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := logger.SetLevelString(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
