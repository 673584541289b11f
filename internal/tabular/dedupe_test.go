package tabular

import (
	"strings"
	"testing"
)

func TestDedupe_KeepFirst(t *testing.T) {
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "Name"}},
		[]string{"Bolt"}, []string{"Bolt"}, []string{"Shock"})

	out, report, err := Dedupe(d, KeepFirst, nil)
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}

	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.RowCount())
	}
	if out.Rows[0][0].TextValue() != "Bolt" || out.Rows[1][0].TextValue() != "Shock" {
		t.Errorf("rows = %v", out.Rows)
	}
	if len(report.Groups) != 1 || len(report.Groups[0].Rows) != 2 {
		t.Errorf("report groups = %+v", report.Groups)
	}
	if report.Removed != 1 {
		t.Errorf("removed = %d", report.Removed)
	}
}

func TestDedupe_KeepLast(t *testing.T) {
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "Name"}, {Name: "Qty"}},
		[]string{"Bolt", "1"}, []string{"Shock", "4"}, []string{"Bolt", "9"})

	out, _, err := Dedupe(d, KeepLast, []string{"Name"})
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}

	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.RowCount())
	}
	// Kept set preserves original row order: Shock (row 1), then the last Bolt (row 2).
	if out.Rows[0][0].TextValue() != "Shock" {
		t.Errorf("row 0 = %v", out.Rows[0])
	}
	if out.Rows[1][0].TextValue() != "Bolt" || out.Rows[1][1].TextValue() != "9" {
		t.Errorf("row 1 = %v", out.Rows[1])
	}
}

func TestDedupe_KeepAll(t *testing.T) {
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "Name"}},
		[]string{"Bolt"}, []string{"Bolt"})

	out, report, err := Dedupe(d, KeepAll, nil)
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}

	if out.RowCount() != 2 || report.Removed != 0 {
		t.Errorf("rows=%d removed=%d", out.RowCount(), report.Removed)
	}
	// The report still records the group.
	if len(report.Groups) != 1 {
		t.Errorf("groups = %+v", report.Groups)
	}
}

func TestDedupe_DropAllDuplicates(t *testing.T) {
	// Two identical rows: the whole group is dropped, keeping none.
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "Name"}, {Name: "Price"}},
		[]string{"Bolt", "5"}, []string{"Bolt", "5"}, []string{"Shock", "2"})

	out, report, err := Dedupe(d, DropAllDuplicates, nil)
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}

	if out.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", out.RowCount())
	}
	if out.Rows[0][0].TextValue() != "Shock" {
		t.Errorf("surviving row = %v", out.Rows[0])
	}
	if report.Removed != 2 {
		t.Errorf("removed = %d", report.Removed)
	}
}

func TestDedupe_NullAwareKeys(t *testing.T) {
	d := &Dataset{
		Name:    "m.csv",
		Columns: []Column{{Name: "Name"}, {Name: "Qty"}},
		Rows: []Row{
			{Text("Bolt"), Null()},
			{Text("Bolt"), Text("")},
			{Text("Bolt"), Null()},
		},
	}

	out, report, err := Dedupe(d, KeepFirst, nil)
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}

	// Null and empty text are different keys; the two null rows collapse.
	if out.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.RowCount())
	}
	if len(report.Groups) != 1 {
		t.Errorf("groups = %+v", report.Groups)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "N"}},
		[]string{"a"}, []string{"a"}, []string{"b"}, []string{"b"}, []string{"c"})

	for _, policy := range []DuplicatePolicy{KeepFirst, KeepLast, KeepAll, DropAllDuplicates} {
		first, _, err := Dedupe(d, policy, nil)
		if err != nil {
			t.Fatalf("%v: first pass: %v", policy, err)
		}
		second, report, err := Dedupe(first, policy, nil)
		if err != nil {
			t.Fatalf("%v: second pass: %v", policy, err)
		}
		if !first.Equal(second) {
			t.Errorf("%v: second pass changed the dataset", policy)
		}
		if policy != KeepAll && report.Removed != 0 {
			t.Errorf("%v: second pass removed %d rows", policy, report.Removed)
		}
	}
}

func TestDedupe_UnknownColumn(t *testing.T) {
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "N"}}, []string{"a"})

	_, _, err := Dedupe(d, KeepFirst, []string{"Nope"})
	if err == nil || !strings.Contains(err.Error(), "unknown comparison column") {
		t.Fatalf("expected unknown column error, got %v", err)
	}
}

func TestDedupe_SubsetColumns(t *testing.T) {
	d := makeDataset(t, "s", "m.csv", []Column{{Name: "Name"}, {Name: "Set"}},
		[]string{"Bolt", "M10"}, []string{"Bolt", "M11"})

	out, _, err := Dedupe(d, KeepFirst, []string{"Name"})
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}
	if out.RowCount() != 1 || out.Rows[0][1].TextValue() != "M10" {
		t.Errorf("rows = %v", out.Rows)
	}
}
