package tabular

// Merge projects every dataset's rows onto the target schema and
// concatenates them into one dataset.
//
// Values for columns present in both source and target are copied; target
// columns absent from a source are filled with the null marker, so "file
// lacked this column" stays distinguishable from "cell was blank". Source
// columns outside the target are dropped. Row order is file order then
// original row order within each file; KeepFirst/KeepLast duplicate
// semantics depend on this ordering.
func Merge(datasets []*Dataset, schema Schema) *Dataset {
	total := 0
	for _, ds := range datasets {
		total += len(ds.Rows)
	}

	merged := &Dataset{
		Name:    "merged",
		Columns: append([]Column(nil), schema...),
		Rows:    make([]Row, 0, total),
	}

	for _, ds := range datasets {
		// Map each target column to its source position once per file.
		indices := make([]int, len(schema))
		for i, c := range schema {
			indices[i] = ds.ColumnIndex(c.Name)
		}

		for _, row := range ds.Rows {
			projected := make(Row, len(schema))
			for i, src := range indices {
				if src < 0 || src >= len(row) {
					projected[i] = Null()
				} else {
					projected[i] = row[src]
				}
			}
			merged.Rows = append(merged.Rows, projected)
		}
	}

	return merged
}
