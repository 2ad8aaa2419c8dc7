package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records simulation metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusRecorder() for a
// Prometheus registry, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPress records one completed press and its pulse counts.
	RecordPress(ctx context.Context, low, high, terminalLow int)

	// RecordRun records a run completion.
	RecordRun(ctx context.Context, mode string, success bool, presses int, duration time.Duration)

	// RecordCycleScan records the outcome of a feeder period scan.
	RecordCycleScan(ctx context.Context, accelerated bool, scanned int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	presses      metric.Int64Counter
	pulses       metric.Int64Counter
	terminalHits metric.Int64Counter
	runs         metric.Int64Counter
	runLatency   metric.Float64Histogram
	runPresses   metric.Int64Histogram
	scans        metric.Int64Counter
	scanPresses  metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pulsegraph")

	presses, err := meter.Int64Counter("pulsegraph.presses",
		metric.WithDescription("Number of button presses simulated"),
	)
	if err != nil {
		return nil, err
	}

	pulses, err := meter.Int64Counter("pulsegraph.pulses",
		metric.WithDescription("Number of pulses delivered, by level"),
	)
	if err != nil {
		return nil, err
	}

	terminalHits, err := meter.Int64Counter("pulsegraph.terminal.hits",
		metric.WithDescription("Number of low pulses delivered to the watched terminal"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("pulsegraph.runs",
		metric.WithDescription("Number of simulation runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("pulsegraph.run.latency_ms",
		metric.WithDescription("Simulation run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	runPresses, err := meter.Int64Histogram("pulsegraph.run.presses",
		metric.WithDescription("Presses executed per run"),
	)
	if err != nil {
		return nil, err
	}

	scans, err := meter.Int64Counter("pulsegraph.cycle.scans",
		metric.WithDescription("Number of feeder period scans"),
	)
	if err != nil {
		return nil, err
	}

	scanPresses, err := meter.Int64Histogram("pulsegraph.cycle.scan_presses",
		metric.WithDescription("Presses simulated while scanning feeder periods"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		presses:      presses,
		pulses:       pulses,
		terminalHits: terminalHits,
		runs:         runs,
		runLatency:   runLatency,
		runPresses:   runPresses,
		scans:        scans,
		scanPresses:  scanPresses,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

var (
	lowAttrs  = metric.WithAttributes(attribute.String("level", "low"))
	highAttrs = metric.WithAttributes(attribute.String("level", "high"))
)

// RecordPress records one press.
func (m *otelMetrics) RecordPress(ctx context.Context, low, high, terminalLow int) {
	m.presses.Add(ctx, 1)
	m.pulses.Add(ctx, int64(low), lowAttrs)
	m.pulses.Add(ctx, int64(high), highAttrs)
	if terminalLow > 0 {
		m.terminalHits.Add(ctx, int64(terminalLow))
	}
}

// RecordRun records a run.
func (m *otelMetrics) RecordRun(ctx context.Context, mode string, success bool, presses int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", success),
	)
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.runPresses.Record(ctx, int64(presses), attrs)
}

// RecordCycleScan records a period scan.
func (m *otelMetrics) RecordCycleScan(ctx context.Context, accelerated bool, scanned int) {
	attrs := metric.WithAttributes(attribute.Bool("accelerated", accelerated))
	m.scans.Add(ctx, 1, attrs)
	m.scanPresses.Record(ctx, int64(scanned), attrs)
}
