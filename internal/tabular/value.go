package tabular

import (
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Value is a single cell: text, number, date, or null.
//
// Null means the source file did not have this column for this row. It is
// NOT the same as Text(""): an empty cell in a file loads as empty text,
// while null only ever comes from projection fill. Values are immutable.
type Value struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

// Null returns the explicit null marker.
func Null() Value { return Value{kind: KindNull} }

// Text returns a text value. The empty string is a valid, non-null value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date returns a date value. Only the calendar date is significant; the
// time-of-day portion is truncated.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// TextValue returns the text payload. Valid only for KindText.
func (v Value) TextValue() string { return v.text }

// NumberValue returns the numeric payload. Valid only for KindNumber.
func (v Value) NumberValue() float64 { return v.num }

// DateValue returns the date payload. Valid only for KindDate.
func (v Value) DateValue() time.Time { return v.date }

// Equal reports value equality. Two nulls compare equal; a null never
// equals a non-null. Values of different kinds are unequal even when their
// renderings coincide (Text("5") != Number(5)).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return false
	}
}

// Render returns the cell's string form for export. Null renders as nullAs,
// which the exporter chooses (empty cell by default).
func (v Value) Render(nullAs string) string {
	switch v.kind {
	case KindNull:
		return nullAs
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format("2006-01-02")
	default:
		return ""
	}
}
