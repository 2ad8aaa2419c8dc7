package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph"
)

func newValidateCmd() *cobra.Command {
	var entry string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse and compile a network and print a summary",
		Long: `Reports parse errors with their line numbers. Modules that the entry
cannot reach are logged as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levelText, _ := cmd.Flags().GetString("log-level")
			if _, err := setupLogger(cmd, levelText); err != nil {
				return err
			}
			circuit, err := loadCircuit(args[0], entry)
			if err != nil {
				return err
			}
			printSummary(cmd, circuit)
			return nil
		},
	}
	cmd.Flags().StringVar(&entry, "entry", pulsegraph.DefaultEntry, "Module that receives the button pulse")
	return cmd
}

func printSummary(cmd *cobra.Command, c *pulsegraph.Circuit) {
	counts := make(map[pulsegraph.Kind]int)
	for _, name := range c.Names() {
		kind, _ := c.Kind(name)
		counts[kind]++
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "modules:      %d\n", c.Len())
	fmt.Fprintf(out, "broadcast:    %d\n", counts[pulsegraph.Broadcast])
	fmt.Fprintf(out, "flip-flops:   %d\n", counts[pulsegraph.FlipFlop])
	fmt.Fprintf(out, "conjunctions: %d\n", counts[pulsegraph.Conjunction])
	fmt.Fprintf(out, "terminals:    %d\n", counts[pulsegraph.Terminal])
	fmt.Fprintf(out, "entry:        %s\n", c.Entry())
	fmt.Fprintf(out, "digest:       %s\n", c.Digest())
}
