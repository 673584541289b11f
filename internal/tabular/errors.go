package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Reconciliation failures. Neither produces partial output; the caller
// keeps the prior stage's datasets and can pick a different strategy.
var (
	// ErrEmptyIntersection is returned when the Intersection strategy finds
	// no column common to every input file.
	ErrEmptyIntersection = errors.New("no common columns across all files")

	// ErrEmptyTemplate is returned when the CustomMapping strategy's
	// template file has no columns.
	ErrEmptyTemplate = errors.New("template file has no columns")
)

// LoadError indicates a file could not be turned into a dataset at all
// (unreadable, empty, undecodable). Row-level problems are recoverable and
// reported as MalformedRow entries instead.
type LoadError struct {
	Source string // file name or source identifier
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Source, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// AmbiguousConflict is returned when the Coerce policy is requested for a
// colliding column whose declared types differ across files. The caller
// must choose Rename or Drop instead; nothing is silently coerced.
type AmbiguousConflict struct {
	Column string
	Types  []ColumnType
}

func (e *AmbiguousConflict) Error() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = t.String()
	}
	return fmt.Sprintf("cannot coerce column %q: declared types differ (%s)",
		e.Column, strings.Join(names, ", "))
}

// InvalidDesignation is returned when the Drop policy's KeepSourceID does
// not name one of the files holding the colliding column. Drop keeps the
// column in exactly one designated file; without a valid designation it
// would vanish from all of them.
type InvalidDesignation struct {
	Column       string
	KeepSourceID string
}

func (e *InvalidDesignation) Error() string {
	if e.KeepSourceID == "" {
		return fmt.Sprintf("drop column %q: no file designated to keep it", e.Column)
	}
	return fmt.Sprintf("drop column %q: no file with source id %q holds it", e.Column, e.KeepSourceID)
}

// ExportError indicates the target format or encoding cannot represent the
// current dataset (unsupported format, unencodable characters).
type ExportError struct {
	Reason string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export: %s: %v", e.Reason, e.Err)
	}
	return "export: " + e.Reason
}

func (e *ExportError) Unwrap() error { return e.Err }
