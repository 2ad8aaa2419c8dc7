package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/pulsegraph/internal/logging"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph"
)

// Settings controls how the command runs a circuit.
//
// Field names follow the file keys; see the mapstructure tags.
type Settings struct {
	// Entry is the module that receives the button pulse.
	Entry string `mapstructure:"entry"`

	// Presses is the fixed press count for the pulse product.
	Presses int `mapstructure:"presses"`

	// Until names the terminal watched by the press search. The search is
	// skipped when the circuit has no such module.
	Until string `mapstructure:"until"`

	// Accelerate enables the feeder period shortcut.
	Accelerate bool `mapstructure:"accelerate"`

	// ScanLimit bounds the feeder period scan.
	ScanLimit int `mapstructure:"scan_limit"`

	// MaxPresses bounds the press search. Zero means unbounded.
	MaxPresses int `mapstructure:"max_presses"`

	// Timeout cancels the run when positive, e.g. "30s".
	Timeout time.Duration `mapstructure:"timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// Tracing enables OpenTelemetry spans. The command logs them to stderr;
	// embedders install their own tracer provider.
	Tracing bool `mapstructure:"tracing"`

	// Ledger is the SQLite file or redis:// URL that records run results.
	// Empty disables it.
	Ledger string `mapstructure:"ledger"`

	// MetricsOut is the file the Prometheus text exposition is written to
	// after the run. Empty disables it.
	MetricsOut string `mapstructure:"metrics_out"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		Entry:      pulsegraph.DefaultEntry,
		Presses:    1000,
		Until:      pulsegraph.DefaultTerminal,
		Accelerate: true,
		ScanLimit:  pulsegraph.DefaultScanLimit,
		LogLevel:   "info",
	}
}

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Validate checks field ranges. All problems are joined into one error.
func (s Settings) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...)))
	}

	if s.Entry == "" {
		invalid("entry must not be empty")
	}
	if s.Presses <= 0 {
		invalid("presses must be positive, got %d", s.Presses)
	}
	if s.Until == "" {
		invalid("until must not be empty")
	}
	if s.ScanLimit <= 0 {
		invalid("scan_limit must be positive, got %d", s.ScanLimit)
	}
	if s.MaxPresses < 0 {
		invalid("max_presses must not be negative, got %d", s.MaxPresses)
	}
	if s.Timeout < 0 {
		invalid("timeout must not be negative, got %s", s.Timeout)
	}
	if _, err := s.Level(); err != nil {
		invalid("log_level: %v", err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (s Settings) Level() (slog.Level, error) {
	return logging.ParseLevel(s.LogLevel)
}

// RunOptions maps the simulation settings onto run options.
func (s Settings) RunOptions() []pulsegraph.RunOption {
	opts := []pulsegraph.RunOption{
		pulsegraph.WithTerminal(s.Until),
		pulsegraph.WithAcceleration(s.Accelerate),
		pulsegraph.WithScanLimit(s.ScanLimit),
		pulsegraph.WithTracing(s.Tracing),
	}
	if s.MaxPresses > 0 {
		opts = append(opts, pulsegraph.WithMaxPresses(s.MaxPresses))
	}
	return opts
}
