package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConflictPolicy says how to treat a column name that appears in multiple
// files but refers to semantically different data.
type ConflictPolicy int

const (
	// ConflictRename suffixes the column with its source name in every
	// file, e.g. price -> price_inventory, price_buylist.
	ConflictRename ConflictPolicy = iota
	// ConflictCoerce treats the columns as one and the same. Only valid
	// when the declared types match across all files.
	ConflictCoerce
	// ConflictDrop removes the column from every file except a designated
	// one.
	ConflictDrop
)

// String returns the lowercase policy name.
func (p ConflictPolicy) String() string {
	switch p {
	case ConflictRename:
		return "rename"
	case ConflictCoerce:
		return "coerce"
	case ConflictDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// ParseConflictPolicy parses a policy name as sent by clients.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rename":
		return ConflictRename, nil
	case "coerce":
		return ConflictCoerce, nil
	case "drop":
		return ConflictDrop, nil
	default:
		return 0, fmt.Errorf("unknown conflict policy %q", s)
	}
}

// ConflictRule marks one colliding column as semantically distinct and
// picks a policy for it.
type ConflictRule struct {
	// Column is the colliding column name.
	Column string         `json:"column"`
	Policy ConflictPolicy `json:"policy"`
	// KeepSourceID designates which file keeps the column under the Drop
	// policy. Ignored for other policies.
	KeepSourceID string `json:"keepSourceId,omitempty"`
}

// ConflictAction records what happened to one column in one dataset.
type ConflictAction struct {
	Column   string `json:"column"`
	SourceID string `json:"sourceId"`
	Policy   string `json:"policy"`
	NewName  string `json:"newName,omitempty"` // set for rename
	Dropped  bool   `json:"dropped,omitempty"`
	Reason   string `json:"reason"`
}

// ConflictReport lists every renamed or dropped column and why.
type ConflictReport struct {
	Actions []ConflictAction `json:"actions"`
}

// ResolveConflicts applies the given rules to the datasets and returns new
// copies with columns renamed or dropped per policy.
//
// A rule whose column does not actually collide (present in fewer than two
// datasets) is recorded as a no-op in the report. Coerce across differing
// declared types fails the whole stage with AmbiguousConflict, and a Drop
// rule whose KeepSourceID names none of the colliding files fails with
// InvalidDesignation; the caller's datasets are untouched either way.
func ResolveConflicts(datasets []*Dataset, rules []ConflictRule) ([]*Dataset, *ConflictReport, error) {
	report := &ConflictReport{}

	// Validate coerce and drop rules up front so the stage fails atomically.
	for _, rule := range rules {
		switch rule.Policy {
		case ConflictCoerce:
			types := collidingTypes(datasets, rule.Column)
			if len(types) < 2 {
				continue
			}
			first := types[0]
			for _, t := range types[1:] {
				if t != first {
					return nil, nil, &AmbiguousConflict{Column: rule.Column, Types: types}
				}
			}
		case ConflictDrop:
			holders, designated := 0, false
			for _, ds := range datasets {
				if ds.ColumnIndex(rule.Column) < 0 {
					continue
				}
				holders++
				if ds.SourceID == rule.KeepSourceID {
					designated = true
				}
			}
			if holders >= 2 && !designated {
				return nil, nil, &InvalidDesignation{Column: rule.Column, KeepSourceID: rule.KeepSourceID}
			}
		}
	}

	out := make([]*Dataset, len(datasets))
	for i, ds := range datasets {
		out[i] = ds.Clone()
	}

	for _, rule := range rules {
		holders := 0
		for _, ds := range out {
			if ds.ColumnIndex(rule.Column) >= 0 {
				holders++
			}
		}
		if holders < 2 {
			report.Actions = append(report.Actions, ConflictAction{
				Column: rule.Column,
				Policy: rule.Policy.String(),
				Reason: "no collision: column present in fewer than two files",
			})
			continue
		}

		switch rule.Policy {
		case ConflictRename:
			for _, ds := range out {
				idx := ds.ColumnIndex(rule.Column)
				if idx < 0 {
					continue
				}
				newName := uniqueName(ds, rule.Column+"_"+sourceSuffix(ds.Name))
				ds.Columns[idx].Name = newName
				report.Actions = append(report.Actions, ConflictAction{
					Column:   rule.Column,
					SourceID: ds.SourceID,
					Policy:   "rename",
					NewName:  newName,
					Reason:   "same name, different meaning across files",
				})
			}
		case ConflictCoerce:
			for _, ds := range out {
				if ds.ColumnIndex(rule.Column) < 0 {
					continue
				}
				report.Actions = append(report.Actions, ConflictAction{
					Column:   rule.Column,
					SourceID: ds.SourceID,
					Policy:   "coerce",
					Reason:   "declared types match; values interleave by row position",
				})
			}
		case ConflictDrop:
			for _, ds := range out {
				idx := ds.ColumnIndex(rule.Column)
				if idx < 0 || ds.SourceID == rule.KeepSourceID {
					continue
				}
				dropColumn(ds, idx)
				report.Actions = append(report.Actions, ConflictAction{
					Column:   rule.Column,
					SourceID: ds.SourceID,
					Policy:   "drop",
					Dropped:  true,
					Reason:   "column kept only in designated file",
				})
			}
		}
	}

	return out, report, nil
}

// collidingTypes returns the declared types of the named column across all
// datasets that have it, in dataset order.
func collidingTypes(datasets []*Dataset, column string) []ColumnType {
	var types []ColumnType
	for _, ds := range datasets {
		if idx := ds.ColumnIndex(column); idx >= 0 {
			types = append(types, ds.Columns[idx].Type)
		}
	}
	return types
}

// sourceSuffix derives a column-name suffix from a file name:
// "Buylist Feb.csv" -> "buylist_feb".
func sourceSuffix(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(strings.TrimSpace(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "file"
	}
	return s
}

// uniqueName appends a counter until the candidate is unused in ds.
func uniqueName(ds *Dataset, candidate string) string {
	name := candidate
	for n := 2; ds.ColumnIndex(name) >= 0; n++ {
		name = fmt.Sprintf("%s_%d", candidate, n)
	}
	return name
}

// dropColumn removes the column at idx from the dataset and every row.
func dropColumn(ds *Dataset, idx int) {
	ds.Columns = append(ds.Columns[:idx], ds.Columns[idx+1:]...)
	for i, row := range ds.Rows {
		ds.Rows[i] = append(row[:idx], row[idx+1:]...)
	}
}
