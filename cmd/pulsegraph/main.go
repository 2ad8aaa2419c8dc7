// Command pulsegraph simulates pulse networks described in text files.
//
// Usage:
//
//	pulsegraph run input.txt
//	pulsegraph run --presses 1000 --until rx --ledger runs.db input.txt
//	pulsegraph validate input.txt
//	pulsegraph history --ledger runs.db [input.txt]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
