package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/topdeck/cardforge/internal/tabular"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	planPath = ""
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String() + errOut.String(), err
}

func TestMerge_Defaults(t *testing.T) {
	dir := t.TempDir()
	in1 := writeFile(t, dir, "inventory.csv", "Name,Price\nBolt,5\n")
	in2 := writeFile(t, dir, "buylist.csv", "Name,Qty\nElf,2\n")
	out := filepath.Join(dir, "merged.csv")

	if _, err := runCLI(t, "merge", out, in1, in2); err != nil {
		t.Fatalf("merge: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "Name,Price,Qty\nBolt,5,\nElf,,2\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMerge_WithPlan(t *testing.T) {
	dir := t.TempDir()
	in1 := writeFile(t, dir, "inventory.csv", "Name;Price\nBolt;5\nBolt;5\n")
	in2 := writeFile(t, dir, "buylist.csv", "Name;Price\nBolt;3\n")
	plan := writeFile(t, dir, "plan.yaml", `
separator: semicolon
strategy: union
conflicts:
  - column: Price
    policy: rename
dedupe:
  policy: keep-first
  columns: [Name]
export:
  separator: semicolon
  nulls: ""
`)
	out := filepath.Join(dir, "merged.csv")

	if _, err := runCLI(t, "merge", "-p", plan, out, in1, in2); err != nil {
		t.Fatalf("merge: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "Name;Price_inventory;Price_buylist\nBolt;5;\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMerge_EmptyIntersectionFails(t *testing.T) {
	dir := t.TempDir()
	in1 := writeFile(t, dir, "a.csv", "Name\nBolt\n")
	in2 := writeFile(t, dir, "b.csv", "Qty\n2\n")
	plan := writeFile(t, dir, "plan.yaml", "strategy: intersection\n")
	out := filepath.Join(dir, "merged.csv")

	if _, err := runCLI(t, "merge", "-p", plan, out, in1, in2); err == nil {
		t.Fatal("expected empty intersection error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output file written despite failure")
	}
}

func TestLoadPlan_Defaults(t *testing.T) {
	plan, err := LoadPlan("")
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}

	strategy, err := plan.MergeStrategy()
	if err != nil || strategy != tabular.StrategyUnion {
		t.Errorf("strategy = %v, %v", strategy, err)
	}
	policy, err := plan.DuplicatePolicy()
	if err != nil || policy != tabular.KeepAll {
		t.Errorf("policy = %v, %v", policy, err)
	}
	opts, err := plan.LoadOptions()
	if err != nil || opts.Separator != tabular.SeparatorComma {
		t.Errorf("load opts = %+v, %v", opts, err)
	}
}

func TestPlan_ConflictRules_UnknownSource(t *testing.T) {
	plan := &Plan{Conflicts: []ConflictRulePlan{
		{Column: "Price", Policy: "drop", KeepSource: "nope.csv"},
	}}

	if _, err := plan.ConflictRules(map[string]string{"a.csv": "id-1"}); err == nil {
		t.Fatal("expected unknown source error")
	}
}
