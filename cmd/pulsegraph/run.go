package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/config"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/observability"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Press the button and print the pulse product and the terminal press count",
		Long: `Prints "* <low*high>" after the fixed number of presses, then
"** <presses>" for the first press that delivers a low pulse to the
watched terminal. The second line is skipped when the circuit has no
module with that name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(cmd, configPath)
			if err != nil {
				return err
			}
			return runCircuit(cmd, args[0], settings)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Settings file (.yaml, .yml or .json)")
	flags.String("entry", defaults.Entry, "Module that receives the button pulse")
	flags.Int("presses", defaults.Presses, "Presses for the pulse product")
	flags.String("until", defaults.Until, "Terminal watched by the press search")
	flags.Bool("no-accelerate", false, "Simulate every press instead of detecting feeder periods")
	flags.Int("scan-limit", defaults.ScanLimit, "Presses spent looking for feeder periods")
	flags.Int("max-presses", 0, "Give up the press search after this many presses (0 = unbounded)")
	flags.Duration("timeout", 0, "Cancel the run after this long (0 = none)")
	flags.Bool("tracing", false, "Log an OpenTelemetry span per run and period scan to stderr")
	flags.String("ledger", "", "SQLite file or redis:// URL recording run results")
	flags.String("metrics-out", "", "Write Prometheus metrics to this file after the run")
	return cmd
}

// resolveSettings loads the settings file, if any, and applies flags the
// user set explicitly on top of it.
func resolveSettings(cmd *cobra.Command, configPath string) (config.Settings, error) {
	settings := config.Default()
	if configPath != "" {
		var err error
		if settings, err = config.FromFile(configPath); err != nil {
			return config.Settings{}, err
		}
	}

	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}
	set("entry", func() (e error) { settings.Entry, e = flags.GetString("entry"); return })
	set("presses", func() (e error) { settings.Presses, e = flags.GetInt("presses"); return })
	set("until", func() (e error) { settings.Until, e = flags.GetString("until"); return })
	set("scan-limit", func() (e error) { settings.ScanLimit, e = flags.GetInt("scan-limit"); return })
	set("max-presses", func() (e error) { settings.MaxPresses, e = flags.GetInt("max-presses"); return })
	set("timeout", func() (e error) { settings.Timeout, e = flags.GetDuration("timeout"); return })
	set("tracing", func() (e error) { settings.Tracing, e = flags.GetBool("tracing"); return })
	set("ledger", func() (e error) { settings.Ledger, e = flags.GetString("ledger"); return })
	set("metrics-out", func() (e error) { settings.MetricsOut, e = flags.GetString("metrics-out"); return })
	set("log-level", func() (e error) { settings.LogLevel, e = flags.GetString("log-level"); return })
	set("no-accelerate", func() error {
		off, e := flags.GetBool("no-accelerate")
		settings.Accelerate = !off
		return e
	})
	if err != nil {
		return config.Settings{}, err
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func runCircuit(cmd *cobra.Command, path string, settings config.Settings) error {
	logger, err := setupLogger(cmd, settings.LogLevel)
	if err != nil {
		return err
	}

	circuit, err := loadCircuit(path, settings.Entry)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	opts := append(settings.RunOptions(), pulsegraph.WithLogger(logger))

	if settings.Tracing {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(observability.NewLogExporter(logger)),
		)
		defer func() { _ = tp.Shutdown(context.Background()) }()
		otel.SetTracerProvider(tp)
	}

	if settings.Ledger != "" {
		store, err := openLedger(settings.Ledger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, pulsegraph.WithLedger(store))
	}

	var registry *prometheus.Registry
	if settings.MetricsOut != "" {
		registry = prometheus.NewRegistry()
		recorder, err := observability.NewPrometheusRecorder(registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, pulsegraph.WithMetricsRecorder(recorder))
	}

	out := cmd.OutOrStdout()
	tally, err := circuit.RunFixed(ctx, settings.Presses, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "* %d\n", tally.Product())

	if circuit.HasModule(settings.Until) {
		presses, err := circuit.RunUntilTerminal(ctx, settings.Until, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "** %d\n", presses)
	} else {
		logger.Info("terminal not in circuit, skipping press search",
			"until", settings.Until)
	}

	if registry != nil {
		if err := prometheus.WriteToTextfile(settings.MetricsOut, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
