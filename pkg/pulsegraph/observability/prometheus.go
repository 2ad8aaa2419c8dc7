package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// promMetrics implements MetricsRecorder with Prometheus collectors.
type promMetrics struct {
	presses      prometheus.Counter
	pulses       *prometheus.CounterVec
	terminalHits prometheus.Counter
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	scans        *prometheus.CounterVec
}

// NewPrometheusRecorder registers pulsegraph collectors on reg and returns a
// recorder that updates them. Registration fails if the collectors are
// already registered on reg.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	rec, err := observability.NewPrometheusRecorder(reg)
//	...
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewPrometheusRecorder(reg prometheus.Registerer) (MetricsRecorder, error) {
	m := &promMetrics{
		presses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsegraph_presses_total",
			Help: "Total number of button presses simulated",
		}),
		pulses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsegraph_pulses_total",
			Help: "Total number of pulses delivered, by level",
		}, []string{"level"}),
		terminalHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsegraph_terminal_hits_total",
			Help: "Total number of low pulses delivered to the watched terminal",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsegraph_runs_total",
			Help: "Total number of simulation runs",
		}, []string{"mode", "success"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsegraph_run_duration_seconds",
			Help:    "Duration of simulation runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsegraph_cycle_scans_total",
			Help: "Total number of feeder period scans",
		}, []string{"accelerated"}),
	}

	for _, c := range []prometheus.Collector{
		m.presses, m.pulses, m.terminalHits, m.runs, m.runDuration, m.scans,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordPress records one press.
func (m *promMetrics) RecordPress(_ context.Context, low, high, terminalLow int) {
	m.presses.Inc()
	m.pulses.WithLabelValues("low").Add(float64(low))
	m.pulses.WithLabelValues("high").Add(float64(high))
	if terminalLow > 0 {
		m.terminalHits.Add(float64(terminalLow))
	}
}

// RecordRun records a run.
func (m *promMetrics) RecordRun(_ context.Context, mode string, success bool, _ int, duration time.Duration) {
	m.runs.WithLabelValues(mode, strconv.FormatBool(success)).Inc()
	m.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordCycleScan records a period scan.
func (m *promMetrics) RecordCycleScan(_ context.Context, accelerated bool, _ int) {
	m.scans.WithLabelValues(strconv.FormatBool(accelerated)).Inc()
}
