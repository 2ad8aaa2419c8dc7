package pulsegraph

import (
	"log/slog"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/ledger"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/observability"
)

// DefaultScanLimit is the number of presses the accelerated terminal search
// spends looking for feeder periods before it gives up on them.
const DefaultScanLimit = 1 << 16

// runConfig holds configuration for a simulation run.
type runConfig struct {
	terminal   string
	maxPresses int // 0 means unbounded
	accelerate bool
	scanLimit  int

	runID string

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	metricsEnabled bool
	spans          observability.SpanManager
	tracingEnabled bool

	ledger             ledger.Store
	ledgerFailureFatal bool
}

// defaultRunConfig returns the default run configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		terminal:   DefaultTerminal,
		accelerate: true,
		scanLimit:  DefaultScanLimit,
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
	}
}

// RunOption configures run behavior.
type RunOption func(*runConfig)

// WithTerminal sets the module whose Low pulses are counted in press reports
// during RunFixed. Default: "rx". RunUntilTerminal uses its target instead.
func WithTerminal(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.terminal = name
		}
	}
}

// WithMaxPresses bounds RunUntilTerminal. Default: unbounded.
//
// If the terminal has not received a Low pulse after n presses, the run
// returns a *MaxPressesError.
//
// Example:
//
//	presses, err := circuit.RunUntilTerminal(ctx, "rx", pulsegraph.WithMaxPresses(1_000_000))
func WithMaxPresses(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxPresses = n
		}
	}
}

// WithAcceleration enables or disables the feeder period shortcut in
// RunUntilTerminal. Default: enabled.
//
// When disabled, every press is simulated.
func WithAcceleration(enabled bool) RunOption {
	return func(c *runConfig) {
		c.accelerate = enabled
	}
}

// WithScanLimit sets how many presses the feeder period scan may take before
// RunUntilTerminal falls back to plain simulation. Default: DefaultScanLimit.
func WithScanLimit(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.scanLimit = n
		}
	}
}

// WithRunID sets the run identifier used in logs, spans and ledger records.
// A UUID is generated if not set.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithLogger enables structured logging for the run.
// A nil logger (the default) disables logging.
//
// Logged events:
//   - Run start and completion with duration and press count
//   - Every press at Debug level
//   - Feeder period detection and scan fallbacks
//   - Ledger write failures
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics.
// Uses the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder routes metrics to a specific recorder, such as one
// returned by observability.NewPrometheusRecorder.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m == nil {
			c.metricsEnabled = false
			c.metrics = observability.NoopMetrics{}
			return
		}
		c.metricsEnabled = true
		c.metrics = m
	}
}

// WithTracing enables OpenTelemetry tracing.
// Uses the global tracer provider.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithLedger records the outcome of each completed run in store.
//
// Ledger failures are logged and ignored unless WithLedgerFailureFatal(true)
// is also set.
func WithLedger(store ledger.Store) RunOption {
	return func(c *runConfig) {
		c.ledger = store
	}
}

// WithLedgerFailureFatal makes a failed ledger write fail the run.
// Default: false.
func WithLedgerFailureFatal(fatal bool) RunOption {
	return func(c *runConfig) {
		c.ledgerFailureFatal = fatal
	}
}
