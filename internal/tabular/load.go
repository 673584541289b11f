package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Separators supported for parsing and export.
const (
	SeparatorComma     = ','
	SeparatorSemicolon = ';'
	SeparatorTab       = '\t'
	SeparatorPipe      = '|'
)

// ValidSeparator reports whether r is one of the supported separators.
func ValidSeparator(r rune) bool {
	switch r {
	case SeparatorComma, SeparatorSemicolon, SeparatorTab, SeparatorPipe:
		return true
	}
	return false
}

// Encoding names accepted by the loader and exporter.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8BOM = "utf-8-bom"
	EncodingLatin1  = "latin-1"
	EncodingWin1252 = "windows-1252"
)

// LoadOptions describes how raw file bytes should be parsed.
type LoadOptions struct {
	// Separator is the field delimiter (default: comma).
	Separator rune
	// Encoding is the declared character encoding (default: utf-8).
	Encoding string
}

// MalformedRow records a data row whose column count did not match the
// header. The row is excluded from the dataset; the load continues.
type MalformedRow struct {
	Line int      `json:"line"` // 1-based line number in the file
	Got  int      `json:"got"`  // columns found
	Want int      `json:"want"` // columns expected (header width)
	Data []string `json:"data,omitempty"`
}

// LoadReport summarizes a single file load.
type LoadReport struct {
	SourceID  string         `json:"sourceId"`
	FileName  string         `json:"fileName"`
	TotalRows int            `json:"totalRows"` // data rows seen, incl. malformed
	Loaded    int            `json:"loaded"`
	Malformed []MalformedRow `json:"malformed,omitempty"`
	Renamed   []string       `json:"renamed,omitempty"` // headers de-duplicated at load
}

// Load parses raw file bytes into a Dataset.
//
// The first record is the header row; every cell loads as a text value, so
// a blank cell is empty text, never null. Rows whose column count differs
// from the header are excluded and reported. Duplicate header names get a
// positional suffix so column names are unique within the dataset.
func Load(sourceID, fileName string, data []byte, opts LoadOptions) (*Dataset, *LoadReport, error) {
	if opts.Separator == 0 {
		opts.Separator = SeparatorComma
	}
	if !ValidSeparator(opts.Separator) {
		return nil, nil, &LoadError{Source: fileName, Reason: fmt.Sprintf("unsupported separator %q", opts.Separator)}
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingUTF8
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, &LoadError{Source: fileName, Reason: "empty file"}
	}

	decoded, err := decode(data, opts.Encoding)
	if err != nil {
		return nil, nil, &LoadError{Source: fileName, Reason: "decode " + opts.Encoding, Err: err}
	}

	records, err := parseCSV(decoded, opts.Separator)
	if err != nil {
		return nil, nil, &LoadError{Source: fileName, Reason: "parse", Err: err}
	}
	if len(records) == 0 {
		return nil, nil, &LoadError{Source: fileName, Reason: "no rows"}
	}

	header := records[0]
	if isEmptyRecord(header) {
		return nil, nil, &LoadError{Source: fileName, Reason: "empty header row"}
	}

	report := &LoadReport{SourceID: sourceID, FileName: fileName}

	columns, renamed := headerColumns(header)
	report.Renamed = renamed

	ds, err := NewDataset(sourceID, fileName, columns)
	if err != nil {
		return nil, nil, &LoadError{Source: fileName, Reason: "header", Err: err}
	}

	for i, rec := range records[1:] {
		line := i + 2 // 1-based, after header
		if isEmptyRecord(rec) {
			continue
		}
		report.TotalRows++
		if len(rec) != len(columns) {
			report.Malformed = append(report.Malformed, MalformedRow{
				Line: line,
				Got:  len(rec),
				Want: len(columns),
				Data: rec,
			})
			continue
		}
		row := make(Row, len(rec))
		for j, cell := range rec {
			row[j] = Text(cell)
		}
		ds.Rows = append(ds.Rows, row)
		report.Loaded++
	}

	return ds, report, nil
}

// headerColumns builds the column list from a header record, suffixing
// duplicate names with their 1-based position so uniqueness holds before
// conflict resolution.
func headerColumns(header []string) ([]Column, []string) {
	columns := make([]Column, 0, len(header))
	seen := make(map[string]bool, len(header))
	var renamed []string

	for i, raw := range header {
		name := cleanCell(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if seen[name] {
			unique := fmt.Sprintf("%s_%d", name, i+1)
			for n := 2; seen[unique]; n++ {
				unique = fmt.Sprintf("%s_%d_%d", name, i+1, n)
			}
			renamed = append(renamed, unique)
			name = unique
		}
		seen[name] = true
		columns = append(columns, Column{Name: name, Type: TypeUnknown})
	}
	return columns, renamed
}

func parseCSV(data []byte, sep rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// decode converts raw bytes to valid UTF-8 according to the declared
// encoding. Invalid UTF-8 sequences are replaced rather than rejected.
func decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingUTF8, EncodingUTF8BOM:
		data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		return sanitizeUTF8(data), nil
	case EncodingLatin1:
		return charmap.ISO8859_1.NewDecoder().Bytes(data)
	case EncodingWin1252:
		return charmap.Windows1252.NewDecoder().Bytes(data)
	default:
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// cleanCell trims whitespace, BOM remnants, and Excel formula prefixes
// (="value") from a header cell.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) > 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
