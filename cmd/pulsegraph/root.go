package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulsegraph/internal/logging"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/ledger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pulsegraph",
		Short:         "pulsegraph simulates networks of pulse modules",
		Long:          `pulsegraph reads a module network ("%a -> b, c" per line) and presses its button.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(newRunCmd(), newValidateCmd(), newHistoryCmd())
	return root
}

// setupLogger builds the stderr logger and installs it as the slog default
// so compile warnings go through it too.
func setupLogger(cmd *cobra.Command, levelText string) (*slog.Logger, error) {
	level, err := logging.ParseLevel(levelText)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)
	return logger, nil
}

// loadCircuit parses and compiles the network in path.
func loadCircuit(path, entry string) (*pulsegraph.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	network, err := pulsegraph.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if entry != "" {
		network.SetEntry(entry)
	}
	circuit, err := network.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return circuit, nil
}

// openLedger opens a Redis ledger for redis:// and rediss:// URLs and a
// SQLite file otherwise.
func openLedger(location string) (ledger.Store, error) {
	if strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://") {
		opts, err := backend.ParseURL(location)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		return ledger.NewRedisStoreFromClient(backend.NewClient(opts)), nil
	}

	store, err := ledger.NewSQLiteStore(location)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}
