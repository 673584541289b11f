package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/topdeck/cardforge/internal/tabular"
)

var planPath string

var mergeCmd = &cobra.Command{
	Use:   "merge <out.csv> <in.csv> [in.csv...]",
	Short: "Merge CSV files into one dataset",
	Long: `Merge loads every input CSV, reconciles their schemas, concatenates
the rows, resolves duplicates, and writes the result.

Behavior is controlled by a YAML merge plan; without one the defaults
apply: comma-separated UTF-8 input, union schema, all rows kept.`,
	Example: `  cardforge merge merged.csv inventory.csv buylist.csv
  cardforge merge -p plan.yaml merged.csv inventory.csv buylist.csv`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&planPath, "plan", "p", "", "YAML merge plan file")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	outPath, inPaths := args[0], args[1:]

	plan, err := LoadPlan(planPath)
	if err != nil {
		return err
	}
	loadOpts, err := plan.LoadOptions()
	if err != nil {
		return err
	}

	// Load every input.
	datasets := make([]*tabular.Dataset, 0, len(inPaths))
	byName := make(map[string]string, len(inPaths))
	for _, path := range inPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		name := filepath.Base(path)
		ds, report, err := tabular.Load(uuid.New().String(), name, data, loadOpts)
		if err != nil {
			return err
		}
		for _, m := range report.Malformed {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d: skipped row with %d columns, expected %d\n",
				name, m.Line, m.Got, m.Want)
		}

		datasets = append(datasets, ds)
		byName[name] = ds.SourceID
	}

	// Resolve declared conflicts.
	rules, err := plan.ConflictRules(byName)
	if err != nil {
		return err
	}
	if len(rules) > 0 {
		datasets, _, err = tabular.ResolveConflicts(datasets, rules)
		if err != nil {
			return err
		}
	}

	// Reconcile and merge.
	strategy, err := plan.MergeStrategy()
	if err != nil {
		return err
	}
	schema, report, err := tabular.Reconcile(datasets, strategy)
	if err != nil {
		return err
	}
	for _, d := range report.Dropped {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: dropped columns %v\n", d.FileName, d.Columns)
	}

	result := tabular.Merge(datasets, schema)

	// Resolve duplicates.
	policy, err := plan.DuplicatePolicy()
	if err != nil {
		return err
	}
	if policy != tabular.KeepAll {
		deduped, dupReport, err := tabular.Dedupe(result, policy, plan.Dedupe.Columns)
		if err != nil {
			return err
		}
		if dupReport.Removed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "removed %d duplicate rows\n", dupReport.Removed)
		}
		result = deduped
	}

	// Export.
	exportOpts, err := plan.ExportOptions()
	if err != nil {
		return err
	}
	out, err := tabular.Export(result, exportOpts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "merged "+strconv.Itoa(len(inPaths))+" files into "+outPath+
		" ("+strconv.Itoa(result.RowCount())+" rows, "+strconv.Itoa(len(schema))+" columns)")
	return nil
}
