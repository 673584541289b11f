package tabular

import "fmt"

// ColumnType is the declared data type for a column.
//
// The loader never infers types beyond the header row, so loaded columns
// default to TypeUnknown. Declared types matter for the Coerce conflict
// policy, which refuses to merge columns whose types disagree.
type ColumnType int

const (
	TypeUnknown ColumnType = iota
	TypeText
	TypeNumber
	TypeDate
)

// String returns the lowercase name of the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	default:
		return "unknown"
	}
}

// Column is a named, typed column. Name is the join key for schema
// reconciliation; names are unique within a dataset.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Row holds one cell per dataset column, positionally aligned with
// Dataset.Columns.
type Row []Value

// Schema is an ordered target column sequence produced by Reconcile.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Dataset is one fully loaded tabular file: ordered columns, ordered rows,
// and source metadata. Row order reflects original file order.
//
// Datasets are treated as immutable snapshots. Pipeline stages return new
// datasets instead of editing their inputs, which keeps re-running a stage
// with different options safe.
type Dataset struct {
	// SourceID is an opaque identifier assigned at load time.
	SourceID string `json:"sourceId"`
	// Name is the human-readable origin, typically the uploaded file name.
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"-"`
}

// NewDataset creates an empty dataset with the given columns.
// Column names must be unique.
func NewDataset(sourceID, name string, columns []Column) (*Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("dataset %s: empty column name", name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("dataset %s: duplicate column %q", name, c.Name)
		}
		seen[c.Name] = true
	}
	return &Dataset{
		SourceID: sourceID,
		Name:     name,
		Columns:  append([]Column(nil), columns...),
	}, nil
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	return Schema(d.Columns).Names()
}

// AppendRow adds a row, padding short rows with null so every row spans
// the full column set.
func (d *Dataset) AppendRow(row Row) {
	for len(row) < len(d.Columns) {
		row = append(row, Null())
	}
	d.Rows = append(d.Rows, row[:len(d.Columns)])
}

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int { return len(d.Rows) }

// Clone returns a deep copy. Stages that restructure columns work on a
// clone so the caller's snapshot stays untouched.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		SourceID: d.SourceID,
		Name:     d.Name,
		Columns:  append([]Column(nil), d.Columns...),
		Rows:     make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		out.Rows[i] = append(Row(nil), row...)
	}
	return out
}

// Equal reports whether two datasets have identical columns, row order,
// and cell values. Source metadata is ignored.
func (d *Dataset) Equal(o *Dataset) bool {
	if len(d.Columns) != len(o.Columns) || len(d.Rows) != len(o.Rows) {
		return false
	}
	for i := range d.Columns {
		if d.Columns[i].Name != o.Columns[i].Name {
			return false
		}
	}
	for i := range d.Rows {
		if len(d.Rows[i]) != len(o.Rows[i]) {
			return false
		}
		for j := range d.Rows[i] {
			if !d.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}
