package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/topdeck/cardforge/internal/tabular"
)

// Plan is a YAML merge plan. Zero values fall back to the service
// defaults: comma-separated UTF-8 input, union strategy, keep-all
// duplicates, and a comma-separated UTF-8 export with empty nulls.
type Plan struct {
	Separator string             `yaml:"separator"`
	Encoding  string             `yaml:"encoding"`
	Strategy  string             `yaml:"strategy"`
	Conflicts []ConflictRulePlan `yaml:"conflicts"`
	Dedupe    DedupePlan         `yaml:"dedupe"`
	Export    ExportPlan         `yaml:"export"`
}

// ConflictRulePlan is one per-column conflict decision.
type ConflictRulePlan struct {
	Column     string `yaml:"column"`
	Policy     string `yaml:"policy"`
	KeepSource string `yaml:"keepSource,omitempty"` // file name for the drop policy
}

// DedupePlan selects the duplicate policy and comparison columns.
type DedupePlan struct {
	Policy  string   `yaml:"policy"`
	Columns []string `yaml:"columns"`
}

// ExportPlan controls the output serialization.
type ExportPlan struct {
	Separator string `yaml:"separator"`
	Encoding  string `yaml:"encoding"`
	Nulls     string `yaml:"nulls"`
}

// LoadPlan reads and parses a plan file. An empty path yields the
// default plan.
func LoadPlan(path string) (*Plan, error) {
	plan := &Plan{}
	if path == "" {
		return plan, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan file: %w", err)
	}
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("plan file %s: %w", path, err)
	}
	return plan, nil
}

// parseSeparator maps a separator name to its rune.
func parseSeparator(v string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "comma", ",":
		return tabular.SeparatorComma, nil
	case "semicolon", ";":
		return tabular.SeparatorSemicolon, nil
	case "tab", "\t":
		return tabular.SeparatorTab, nil
	case "pipe", "|":
		return tabular.SeparatorPipe, nil
	default:
		return 0, fmt.Errorf("unsupported separator %q", v)
	}
}

// LoadOptions returns the input parsing options.
func (p *Plan) LoadOptions() (tabular.LoadOptions, error) {
	sep, err := parseSeparator(p.Separator)
	if err != nil {
		return tabular.LoadOptions{}, err
	}
	return tabular.LoadOptions{Separator: sep, Encoding: p.Encoding}, nil
}

// MergeStrategy returns the reconciliation strategy, defaulting to union.
func (p *Plan) MergeStrategy() (tabular.MergeStrategy, error) {
	if p.Strategy == "" {
		return tabular.StrategyUnion, nil
	}
	return tabular.ParseMergeStrategy(p.Strategy)
}

// ConflictRules returns the per-column conflict rules. Source file names
// are resolved to source IDs via the byName index.
func (p *Plan) ConflictRules(byName map[string]string) ([]tabular.ConflictRule, error) {
	rules := make([]tabular.ConflictRule, 0, len(p.Conflicts))
	for _, c := range p.Conflicts {
		policy, err := tabular.ParseConflictPolicy(c.Policy)
		if err != nil {
			return nil, err
		}
		rule := tabular.ConflictRule{Column: c.Column, Policy: policy}
		if c.KeepSource != "" {
			id, ok := byName[c.KeepSource]
			if !ok {
				return nil, fmt.Errorf("conflict rule for %q: no input file named %q", c.Column, c.KeepSource)
			}
			rule.KeepSourceID = id
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// DuplicatePolicy returns the dedupe policy; keep-all means no dedupe.
func (p *Plan) DuplicatePolicy() (tabular.DuplicatePolicy, error) {
	if p.Dedupe.Policy == "" {
		return tabular.KeepAll, nil
	}
	return tabular.ParseDuplicatePolicy(p.Dedupe.Policy)
}

// ExportOptions returns the output serialization options.
func (p *Plan) ExportOptions() (tabular.ExportOptions, error) {
	sep, err := parseSeparator(p.Export.Separator)
	if err != nil {
		return tabular.ExportOptions{}, err
	}
	return tabular.ExportOptions{
		Separator: sep,
		Encoding:  p.Export.Encoding,
		NullAs:    p.Export.Nulls,
	}, nil
}
