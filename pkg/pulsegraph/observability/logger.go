// Package observability provides structured logging, metrics, and tracing
// for pulsegraph runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or a Prometheus registry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id and mode fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "fixed")
//	enriched.Info("pressing") // includes run_id, mode
func EnrichLogger(logger *slog.Logger, runID, mode string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("mode", mode),
	)
}

// LogRunStart logs the start of a simulation run.
func LogRunStart(logger *slog.Logger, runID, mode string) {
	if logger == nil {
		return
	}
	logger.Info("simulation run starting",
		slog.String("run_id", runID),
		slog.String("mode", mode),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, runID, mode string, durationMs float64, presses, answer int) {
	if logger == nil {
		return
	}
	logger.Info("simulation run completed",
		slog.String("run_id", runID),
		slog.String("mode", mode),
		slog.Float64("duration_ms", durationMs),
		slog.Int("presses", presses),
		slog.Int("answer", answer),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, runID, mode string, err error, durationMs float64, presses int) {
	if logger == nil {
		return
	}
	logger.Error("simulation run failed",
		slog.String("run_id", runID),
		slog.String("mode", mode),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("presses", presses),
	)
}

// LogPress logs a completed press.
func LogPress(logger *slog.Logger, press, low, high, terminalLow int) {
	if logger == nil {
		return
	}
	logger.Debug("press completed",
		slog.Int("press", press),
		slog.Int("low", low),
		slog.Int("high", high),
		slog.Int("terminal_low", terminalLow),
	)
}

// LogCycleDetected logs a successful period scan.
func LogCycleDetected(logger *slog.Logger, target, gate string, periods map[string]int, answer int) {
	if logger == nil {
		return
	}
	logger.Info("feeder periods detected",
		slog.String("target", target),
		slog.String("gate", gate),
		slog.Any("periods", periods),
		slog.Int("answer", answer),
	)
}

// LogCycleFallback logs why the period scan gave up. The run continues with
// plain simulation.
func LogCycleFallback(logger *slog.Logger, target string, reason error, scanned int) {
	if logger == nil {
		return
	}
	logger.Warn("period scan abandoned, continuing by simulation",
		slog.String("target", target),
		slog.String("reason", reason.Error()),
		slog.Int("scanned_presses", scanned),
	)
}

// LogLedgerError logs a failed ledger write (non-fatal).
func LogLedgerError(logger *slog.Logger, runID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("ledger write failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
