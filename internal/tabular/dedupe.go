package tabular

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/spaolacci/murmur3"
)

// DuplicatePolicy determines which rows survive when multiple rows are
// equal under the comparison key.
type DuplicatePolicy int

const (
	// KeepFirst keeps the first row of each duplicate group.
	KeepFirst DuplicatePolicy = iota
	// KeepLast keeps the last row of each duplicate group.
	KeepLast
	// KeepAll removes nothing; the report still records the groups.
	KeepAll
	// DropAllDuplicates drops every row that has at least one duplicate,
	// keeping none of the group.
	DropAllDuplicates
)

// String returns the policy name as used by clients.
func (p DuplicatePolicy) String() string {
	switch p {
	case KeepFirst:
		return "keep-first"
	case KeepLast:
		return "keep-last"
	case KeepAll:
		return "keep-all"
	case DropAllDuplicates:
		return "drop-all"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy parses a policy name as sent by clients.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep-first", "first":
		return KeepFirst, nil
	case "keep-last", "last":
		return KeepLast, nil
	case "keep-all", "all":
		return KeepAll, nil
	case "drop-all", "drop-all-duplicates", "none":
		return DropAllDuplicates, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// DuplicateGroup lists the source row indices that share one equality key.
type DuplicateGroup struct {
	Key  string `json:"key"`
	Rows []int  `json:"rows"` // 0-based indices into the input dataset
}

// DuplicateReport maps each equality key to its member rows, in first-seen
// group order. Groups of size 1 are omitted.
type DuplicateReport struct {
	Policy     string           `json:"policy"`
	KeyColumns []string         `json:"keyColumns"`
	Groups     []DuplicateGroup `json:"groups,omitempty"`
	Removed    int              `json:"removed"`
}

// Dedupe groups rows by a null-aware equality key over the comparison
// columns (all columns when keyColumns is nil) and applies the policy.
//
// Two nulls compare equal; a null and a non-null compare unequal. Row order
// within the kept set is preserved. The stage is idempotent: re-running on
// its own output with the same policy and columns changes nothing.
func Dedupe(d *Dataset, policy DuplicatePolicy, keyColumns []string) (*Dataset, *DuplicateReport, error) {
	indices, names, err := keyIndices(d, keyColumns)
	if err != nil {
		return nil, nil, err
	}

	report := &DuplicateReport{Policy: policy.String(), KeyColumns: names}

	// Group rows by key, preserving first-seen group order.
	groupOf := make(map[string][]int)
	var order []string
	for i, row := range d.Rows {
		key := rowKey(row, indices)
		if _, seen := groupOf[key]; !seen {
			order = append(order, key)
		}
		groupOf[key] = append(groupOf[key], i)
	}

	for _, key := range order {
		if members := groupOf[key]; len(members) > 1 {
			report.Groups = append(report.Groups, DuplicateGroup{Key: key, Rows: members})
		}
	}

	keep := make([]bool, len(d.Rows))
	switch policy {
	case KeepAll:
		for i := range keep {
			keep[i] = true
		}
	case KeepFirst:
		for _, members := range groupOf {
			keep[members[0]] = true
		}
	case KeepLast:
		for _, members := range groupOf {
			keep[members[len(members)-1]] = true
		}
	case DropAllDuplicates:
		for _, members := range groupOf {
			if len(members) == 1 {
				keep[members[0]] = true
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown duplicate policy %d", policy)
	}

	out := &Dataset{
		SourceID: d.SourceID,
		Name:     d.Name,
		Columns:  append([]Column(nil), d.Columns...),
	}
	for i, row := range d.Rows {
		if keep[i] {
			out.Rows = append(out.Rows, row)
		} else {
			report.Removed++
		}
	}

	return out, report, nil
}

// keyIndices resolves the comparison columns to positions. Nil means all
// columns.
func keyIndices(d *Dataset, keyColumns []string) ([]int, []string, error) {
	if len(keyColumns) == 0 {
		indices := make([]int, len(d.Columns))
		names := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			indices[i] = i
			names[i] = c.Name
		}
		return indices, names, nil
	}

	indices := make([]int, 0, len(keyColumns))
	names := make([]string, 0, len(keyColumns))
	for _, name := range keyColumns {
		idx := d.ColumnIndex(name)
		if idx < 0 {
			return nil, nil, fmt.Errorf("unknown comparison column %q", name)
		}
		indices = append(indices, idx)
		names = append(names, name)
	}
	return indices, names, nil
}

// rowKey hashes the comparison cells into a stable 128-bit key. Each cell
// is encoded kind-tagged and length-prefixed so Null, Text(""), and
// adjacent-cell concatenations can never collide by construction.
func rowKey(row Row, indices []int) string {
	h := murmur3.New128()
	var buf [10]byte

	for _, idx := range indices {
		var v Value
		if idx < len(row) {
			v = row[idx]
		} else {
			v = Null()
		}

		buf[0] = byte(v.Kind())
		h.Write(buf[:1])

		var payload []byte
		switch v.Kind() {
		case KindText:
			payload = []byte(v.TextValue())
		case KindNumber:
			binary.LittleEndian.PutUint64(buf[1:9], math.Float64bits(v.NumberValue()))
			payload = buf[1:9]
		case KindDate:
			binary.LittleEndian.PutUint64(buf[1:9], uint64(v.DateValue().Unix()))
			payload = buf[1:9]
		}

		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
		h.Write(size[:])
		h.Write(payload)
	}

	h1, h2 := h.Sum128()
	return fmt.Sprintf("%016x%016x", h1, h2)
}
