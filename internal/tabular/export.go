package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Format is the export target format.
type Format int

const (
	// FormatCSV writes delimiter-separated text.
	FormatCSV Format = iota
	// FormatXLSX is recognized but not supported; exporting it returns an
	// ExportError so the caller can fall back to CSV.
	FormatXLSX
)

// ParseFormat parses a format name as sent by clients.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "spreadsheet":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", s)
	}
}

// ExportOptions controls serialization of the final dataset.
type ExportOptions struct {
	Format    Format
	Separator rune   // default: comma
	Encoding  string // default: utf-8
	// NullAs is how the null marker is rendered, an export-time decision.
	// Empty string renders nulls as empty cells.
	NullAs string
}

// Export serializes the dataset: one header row with exactly the dataset's
// column names in order, then one line per data row in dataset order. No
// reordering, no type coercion beyond the configured null rendering.
func Export(d *Dataset, opts ExportOptions) ([]byte, error) {
	if opts.Format == FormatXLSX {
		return nil, &ExportError{Reason: "spreadsheet export is not supported, use CSV"}
	}
	if opts.Separator == 0 {
		opts.Separator = SeparatorComma
	}
	if !ValidSeparator(opts.Separator) {
		return nil, &ExportError{Reason: fmt.Sprintf("unsupported separator %q", opts.Separator)}
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingUTF8
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = opts.Separator

	if err := w.Write(d.ColumnNames()); err != nil {
		return nil, &ExportError{Reason: "write header", Err: err}
	}

	record := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = row[i].Render(opts.NullAs)
			} else {
				record[i] = opts.NullAs
			}
		}
		if err := w.Write(record); err != nil {
			return nil, &ExportError{Reason: "write row", Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &ExportError{Reason: "flush", Err: err}
	}

	return encode(buf.Bytes(), opts.Encoding)
}

// encode converts UTF-8 output to the requested encoding. Characters not
// representable in the target encoding fail the export rather than being
// silently replaced.
func encode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingUTF8:
		return data, nil
	case EncodingUTF8BOM:
		return append([]byte{0xEF, 0xBB, 0xBF}, data...), nil
	case EncodingLatin1:
		out, err := charmap.ISO8859_1.NewEncoder().Bytes(data)
		if err != nil {
			return nil, &ExportError{Reason: "value not representable in latin-1", Err: err}
		}
		return out, nil
	case EncodingWin1252:
		out, err := charmap.Windows1252.NewEncoder().Bytes(data)
		if err != nil {
			return nil, &ExportError{Reason: "value not representable in windows-1252", Err: err}
		}
		return out, nil
	default:
		return nil, &ExportError{Reason: fmt.Sprintf("unknown encoding %q", encoding)}
	}
}
