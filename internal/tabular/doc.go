// Package tabular provides the dataset model and merge pipeline for CSV data.
//
// This package is the heart of the merge engine, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Pipeline
//
// Merging runs as a functional pipeline over immutable dataset snapshots.
// Each stage consumes the previous stage's output and produces a new
// [Dataset] or report; nothing is mutated in place, so a failed stage leaves
// the prior output intact and the caller can retry with different options:
//
//  1. [Load] parses raw file bytes into a Dataset, skipping malformed rows
//     and recording them in a [LoadReport].
//  2. [ResolveConflicts] renames, coerces, or drops columns that share a
//     name across files but carry different data.
//  3. [Reconcile] computes the target schema for a [MergeStrategy].
//  4. [Merge] projects every row onto the target schema and concatenates,
//     preserving file order then row order.
//  5. [Dedupe] groups rows by a null-aware equality key and applies a
//     [DuplicatePolicy].
//  6. [Export] serializes the result with a configurable separator,
//     character encoding, and null rendering.
//
// # Values
//
// Cells are modeled as a closed variant ([Value]): text, number, date, or
// null. The null marker means "column absent in the source file" and is
// distinct from an empty string; it is introduced only by row projection,
// never by the loader.
//
// # Error Handling
//
// Stage failures are typed: [LoadError], [AmbiguousConflict],
// [ErrEmptyIntersection], [ErrEmptyTemplate], and [ExportError]. Technical
// errors are mapped to user-friendly coded messages with [MapError].
package tabular
