package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/ledger"
)

func newHistoryCmd() *cobra.Command {
	var (
		ledgerPath string
		entry      string
	)

	cmd := &cobra.Command{
		Use:   "history --ledger PATH [FILE]",
		Short: "List recorded runs, optionally only those of one network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledgerPath == "" {
				return errors.New("--ledger is required")
			}

			digest := ""
			if len(args) == 1 {
				circuit, err := loadCircuit(args[0], entry)
				if err != nil {
					return err
				}
				digest = circuit.Digest()
			}

			store, err := openLedger(ledgerPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(digest)
			if err != nil {
				return err
			}
			return printHistory(cmd, records)
		},
	}
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite file or redis:// URL recording run results")
	cmd.Flags().StringVar(&entry, "entry", pulsegraph.DefaultEntry, "Module that receives the button pulse")
	return cmd
}

func printHistory(cmd *cobra.Command, records []ledger.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tMODE\tDIGEST\tTARGET\tPRESSES\tANSWER\tACCELERATED\tDURATION\tTIME")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%t\t%s\t%s\n",
			rec.RunID, rec.Mode, rec.Digest, rec.Target, rec.Presses, rec.Answer,
			rec.Accelerated, rec.Duration.Round(time.Microsecond),
			rec.Timestamp.Local().Format(time.DateTime))
	}
	return w.Flush()
}
