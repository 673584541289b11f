// Command cardforge merges trading-card CSV files offline, driven by a
// YAML merge plan. It runs the same pipeline as the server: load, resolve
// conflicts, reconcile, merge, dedupe, export.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "cardforge",
	Short:         "Trading-card CSV merge tool",
	Long:          "Cardforge merges card inventory CSV files into one dataset:\nschemas are reconciled, rows concatenated, and duplicates resolved\naccording to a merge plan.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
