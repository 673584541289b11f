package tabular

import (
	"fmt"
	"strings"
)

// MergeStrategy determines the target column set and order when combining
// datasets with differing schemas.
type MergeStrategy int

const (
	// StrategyUnion targets the union of all input columns, in first-seen
	// order scanning files in upload order.
	StrategyUnion MergeStrategy = iota
	// StrategyIntersection targets the columns common to every file, in
	// the order they appear in the first file.
	StrategyIntersection
	// StrategyCustomMapping targets the first file's columns exactly;
	// columns unique to later files are dropped, columns unique to the
	// first file are null-filled for other files.
	StrategyCustomMapping
)

// String returns the lowercase strategy name.
func (s MergeStrategy) String() string {
	switch s {
	case StrategyUnion:
		return "union"
	case StrategyIntersection:
		return "intersection"
	case StrategyCustomMapping:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseMergeStrategy parses a strategy name as sent by clients.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "union":
		return StrategyUnion, nil
	case "intersection":
		return StrategyIntersection, nil
	case "custom", "custom-mapping", "template":
		return StrategyCustomMapping, nil
	default:
		return 0, fmt.Errorf("unknown merge strategy %q", s)
	}
}

// DroppedColumns lists the columns of one file that the target schema does
// not carry.
type DroppedColumns struct {
	SourceID string   `json:"sourceId"`
	FileName string   `json:"fileName"`
	Columns  []string `json:"columns"`
}

// ReconcileReport describes what the chosen strategy did to each file's
// schema, for preview before committing to the merge.
type ReconcileReport struct {
	Strategy string           `json:"strategy"`
	Dropped  []DroppedColumns `json:"dropped,omitempty"`
}

// Reconcile computes the target schema for the given strategy.
//
// Column names are unique after conflict resolution, so first-seen order is
// deterministic. Intersection fails with ErrEmptyIntersection when no
// column is common to all files; CustomMapping fails with ErrEmptyTemplate
// when the template (first) file has no columns. On failure no partial
// schema is returned.
func Reconcile(datasets []*Dataset, strategy MergeStrategy) (Schema, *ReconcileReport, error) {
	if len(datasets) == 0 {
		return nil, nil, fmt.Errorf("reconcile: no datasets")
	}

	report := &ReconcileReport{Strategy: strategy.String()}

	switch strategy {
	case StrategyUnion:
		var schema Schema
		seen := make(map[string]bool)
		for _, ds := range datasets {
			for _, c := range ds.Columns {
				if !seen[c.Name] {
					seen[c.Name] = true
					schema = append(schema, c)
				}
			}
		}
		return schema, report, nil

	case StrategyIntersection:
		var schema Schema
		for _, c := range datasets[0].Columns {
			inAll := true
			for _, ds := range datasets[1:] {
				if ds.ColumnIndex(c.Name) < 0 {
					inAll = false
					break
				}
			}
			if inAll {
				schema = append(schema, c)
			}
		}
		if len(schema) == 0 {
			return nil, nil, ErrEmptyIntersection
		}
		keep := make(map[string]bool, len(schema))
		for _, c := range schema {
			keep[c.Name] = true
		}
		for _, ds := range datasets {
			var dropped []string
			for _, c := range ds.Columns {
				if !keep[c.Name] {
					dropped = append(dropped, c.Name)
				}
			}
			if len(dropped) > 0 {
				report.Dropped = append(report.Dropped, DroppedColumns{
					SourceID: ds.SourceID,
					FileName: ds.Name,
					Columns:  dropped,
				})
			}
		}
		return schema, report, nil

	case StrategyCustomMapping:
		template := datasets[0]
		if len(template.Columns) == 0 {
			return nil, nil, ErrEmptyTemplate
		}
		schema := make(Schema, len(template.Columns))
		copy(schema, template.Columns)
		keep := make(map[string]bool, len(schema))
		for _, c := range schema {
			keep[c.Name] = true
		}
		for _, ds := range datasets[1:] {
			var dropped []string
			for _, c := range ds.Columns {
				if !keep[c.Name] {
					dropped = append(dropped, c.Name)
				}
			}
			if len(dropped) > 0 {
				report.Dropped = append(report.Dropped, DroppedColumns{
					SourceID: ds.SourceID,
					FileName: ds.Name,
					Columns:  dropped,
				})
			}
		}
		return schema, report, nil

	default:
		return nil, nil, fmt.Errorf("reconcile: unknown strategy %d", strategy)
	}
}
