package tabular

import "testing"

func TestMerge_UnionScenario(t *testing.T) {
	datasets := scenarioDatasets(t)

	schema, _, err := Reconcile(datasets, StrategyUnion)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	merged := Merge(datasets, schema)

	if merged.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", merged.RowCount())
	}

	// Row 1: ("Bolt", 5, null)
	r := merged.Rows[0]
	if r[0].TextValue() != "Bolt" || r[1].TextValue() != "5" || !r[2].IsNull() {
		t.Errorf("row 1 = %v %v %v", r[0], r[1], r[2])
	}

	// Row 2: ("Bolt", null, 2)
	r = merged.Rows[1]
	if r[0].TextValue() != "Bolt" || !r[1].IsNull() || r[2].TextValue() != "2" {
		t.Errorf("row 2 = %v %v %v", r[0], r[1], r[2])
	}
}

func TestMerge_IntersectionScenario(t *testing.T) {
	datasets := scenarioDatasets(t)

	schema, _, err := Reconcile(datasets, StrategyIntersection)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	merged := Merge(datasets, schema)

	if merged.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", merged.RowCount())
	}
	for i, row := range merged.Rows {
		if len(row) != 1 || row[0].TextValue() != "Bolt" {
			t.Errorf("row %d = %v", i, row)
		}
	}
}

func TestMerge_RowCountConservation(t *testing.T) {
	d1 := makeDataset(t, "s1", "a.csv", []Column{{Name: "A"}},
		[]string{"1"}, []string{"2"}, []string{"3"})
	d2 := makeDataset(t, "s2", "b.csv", []Column{{Name: "A"}, {Name: "B"}},
		[]string{"4", "x"})
	d3 := makeDataset(t, "s3", "c.csv", []Column{{Name: "B"}})

	schema, _, err := Reconcile([]*Dataset{d1, d2, d3}, StrategyUnion)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	merged := Merge([]*Dataset{d1, d2, d3}, schema)
	if merged.RowCount() != 4 {
		t.Errorf("expected 4 rows (3+1+0), got %d", merged.RowCount())
	}
}

func TestMerge_PreservesFileThenRowOrder(t *testing.T) {
	d1 := makeDataset(t, "s1", "a.csv", []Column{{Name: "N"}},
		[]string{"a1"}, []string{"a2"})
	d2 := makeDataset(t, "s2", "b.csv", []Column{{Name: "N"}},
		[]string{"b1"}, []string{"b2"})

	schema, _, err := Reconcile([]*Dataset{d1, d2}, StrategyUnion)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	merged := Merge([]*Dataset{d1, d2}, schema)
	want := []string{"a1", "a2", "b1", "b2"}
	for i, w := range want {
		if got := merged.Rows[i][0].TextValue(); got != w {
			t.Errorf("row %d = %q, want %q", i, got, w)
		}
	}
}

func TestMerge_BlankCellSurvivesProjection(t *testing.T) {
	d1 := makeDataset(t, "s1", "a.csv", []Column{{Name: "N"}, {Name: "P"}},
		[]string{"Bolt", ""})
	d2 := makeDataset(t, "s2", "b.csv", []Column{{Name: "N"}})

	schema, _, err := Reconcile([]*Dataset{d1, d2}, StrategyUnion)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	merged := Merge([]*Dataset{d1, d2}, schema)

	// File1 had the column with a blank cell: empty text, not null.
	if merged.Rows[0][1].IsNull() {
		t.Error("blank cell became null during projection")
	}
	// File2 lacked the column entirely: null.
	if !merged.Rows[1][1].IsNull() {
		t.Error("missing column not filled with null")
	}
}
