// Package session holds per-user merge sessions and runs the pipeline
// over them.
//
// One session is one user's uploaded files and chosen options, isolated
// from other sessions. The original per-file datasets are retained for the
// whole session so the user can re-run reconciliation with a different
// strategy without re-uploading. Stage failures leave the previous stage's
// output untouched, so the UI can adjust options and retry.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/topdeck/cardforge/internal/tabular"
)

// Session is the explicit session-scoped context for the merge pipeline:
// uploaded files plus the latest output of each stage. Created on first
// upload, discarded on session end or TTL expiry.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time

	// Originals are retained for the whole session.
	files       []*tabular.Dataset
	loadReports []*tabular.LoadReport

	// Latest stage outputs. Recomputed, never edited in place.
	resolved       []*tabular.Dataset
	conflictReport *tabular.ConflictReport
	schema         tabular.Schema
	strategy       tabular.MergeStrategy
	reconcileNote  *tabular.ReconcileReport
	merged         *tabular.Dataset
	deduped        *tabular.Dataset
	dupReport      *tabular.DuplicateReport
}

// touch refreshes the TTL clock. Callers hold s.mu.
func (s *Session) touch() { s.lastSeen = time.Now() }

// AddFile loads raw file bytes into the session. Returns the load report;
// a LoadError leaves the session unchanged.
func (s *Session) AddFile(fileName string, data []byte, opts tabular.LoadOptions, sourceID string) (*tabular.LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	ds, report, err := tabular.Load(sourceID, fileName, data, opts)
	if err != nil {
		return nil, err
	}

	s.files = append(s.files, ds)
	s.loadReports = append(s.loadReports, report)

	// New input invalidates downstream stage outputs.
	s.resolved = nil
	s.conflictReport = nil
	s.schema = nil
	s.reconcileNote = nil
	s.merged = nil
	s.deduped = nil
	s.dupReport = nil

	return report, nil
}

// AddDataset inserts an already built dataset, such as a parsed decklist
// or enrichment output, as if it were an uploaded file.
func (s *Session) AddDataset(ds *tabular.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.files = append(s.files, ds.Clone())
	s.loadReports = append(s.loadReports, &tabular.LoadReport{
		SourceID:  ds.SourceID,
		FileName:  ds.Name,
		TotalRows: ds.RowCount(),
		Loaded:    ds.RowCount(),
	})

	s.resolved = nil
	s.conflictReport = nil
	s.schema = nil
	s.reconcileNote = nil
	s.merged = nil
	s.deduped = nil
	s.dupReport = nil
}

// Files returns the original datasets in upload order.
func (s *Session) Files() []*tabular.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return append([]*tabular.Dataset(nil), s.files...)
}

// LoadReports returns the per-file load reports in upload order.
func (s *Session) LoadReports() []*tabular.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*tabular.LoadReport(nil), s.loadReports...)
}

// ResolveConflicts applies conflict rules over the original files. On
// AmbiguousConflict the previously resolved datasets are kept.
func (s *Session) ResolveConflicts(rules []tabular.ConflictRule) (*tabular.ConflictReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.files) == 0 {
		return nil, fmt.Errorf("session has no files")
	}

	resolved, report, err := tabular.ResolveConflicts(s.files, rules)
	if err != nil {
		return nil, err
	}

	s.resolved = resolved
	s.conflictReport = report
	s.schema = nil
	s.reconcileNote = nil
	s.merged = nil
	s.deduped = nil
	s.dupReport = nil
	return report, nil
}

// inputs returns the conflict-resolved datasets, falling back to the
// originals when no conflict stage has run. Callers hold s.mu.
func (s *Session) inputs() []*tabular.Dataset {
	if s.resolved != nil {
		return s.resolved
	}
	return s.files
}

// Reconcile computes the target schema for the strategy. On failure the
// previous schema survives.
func (s *Session) Reconcile(strategy tabular.MergeStrategy) (tabular.Schema, *tabular.ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.files) == 0 {
		return nil, nil, fmt.Errorf("session has no files")
	}

	schema, report, err := tabular.Reconcile(s.inputs(), strategy)
	if err != nil {
		return nil, nil, err
	}

	s.schema = schema
	s.strategy = strategy
	s.reconcileNote = report
	s.merged = nil
	s.deduped = nil
	s.dupReport = nil
	return schema, report, nil
}

// ReconcileWithTemplate reconciles under the custom-mapping strategy with
// the named source as the template file. Merge order is unaffected.
func (s *Session) ReconcileWithTemplate(templateSourceID string) (tabular.Schema, *tabular.ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.files) == 0 {
		return nil, nil, fmt.Errorf("session has no files")
	}

	inputs := s.inputs()
	var template *tabular.Dataset
	rest := make([]*tabular.Dataset, 0, len(inputs))
	for _, ds := range inputs {
		if ds.SourceID == templateSourceID && template == nil {
			template = ds
		} else {
			rest = append(rest, ds)
		}
	}
	if template == nil {
		return nil, nil, fmt.Errorf("unknown template source %q", templateSourceID)
	}
	ordered := append([]*tabular.Dataset{template}, rest...)

	schema, report, err := tabular.Reconcile(ordered, tabular.StrategyCustomMapping)
	if err != nil {
		return nil, nil, err
	}

	s.schema = schema
	s.strategy = tabular.StrategyCustomMapping
	s.reconcileNote = report
	s.merged = nil
	s.deduped = nil
	s.dupReport = nil
	return schema, report, nil
}

// Merge projects and concatenates the inputs onto the reconciled schema.
func (s *Session) Merge() (*tabular.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.schema == nil {
		return nil, fmt.Errorf("no reconciled schema: run reconcile first")
	}

	s.merged = tabular.Merge(s.inputs(), s.schema)
	s.deduped = nil
	s.dupReport = nil
	return s.merged, nil
}

// Dedupe applies a duplicate policy to the merged dataset.
func (s *Session) Dedupe(policy tabular.DuplicatePolicy, keyColumns []string) (*tabular.Dataset, *tabular.DuplicateReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.merged == nil {
		return nil, nil, fmt.Errorf("no merged dataset: run merge first")
	}

	deduped, report, err := tabular.Dedupe(s.merged, policy, keyColumns)
	if err != nil {
		return nil, nil, err
	}

	s.deduped = deduped
	s.dupReport = report
	return deduped, report, nil
}

// Export serializes the current result: the deduped dataset if the dedupe
// stage ran, otherwise the merged dataset.
func (s *Session) Export(opts tabular.ExportOptions) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	result := s.deduped
	if result == nil {
		result = s.merged
	}
	if result == nil {
		return nil, fmt.Errorf("nothing to export: run merge first")
	}

	return tabular.Export(result, opts)
}

// Result returns the current pipeline result, or nil before merge.
func (s *Session) Result() *tabular.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deduped != nil {
		return s.deduped
	}
	return s.merged
}

// Schema returns the reconciled schema, or nil.
func (s *Session) Schema() tabular.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Summary describes the session for the UI.
type Summary struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"createdAt"`
	Files      []FileSummary `json:"files"`
	Strategy   string        `json:"strategy,omitempty"`
	Schema     []string      `json:"schema,omitempty"`
	MergedRows int           `json:"mergedRows,omitempty"`
	ResultRows int           `json:"resultRows,omitempty"`
}

// FileSummary describes one uploaded file.
type FileSummary struct {
	SourceID string   `json:"sourceId"`
	FileName string   `json:"fileName"`
	Columns  []string `json:"columns"`
	Rows     int      `json:"rows"`
}

// Summarize builds a Summary snapshot of the session.
func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	sum := Summary{ID: s.ID, CreatedAt: s.CreatedAt}
	for _, f := range s.files {
		sum.Files = append(sum.Files, FileSummary{
			SourceID: f.SourceID,
			FileName: f.Name,
			Columns:  f.ColumnNames(),
			Rows:     f.RowCount(),
		})
	}
	if s.schema != nil {
		sum.Strategy = s.strategy.String()
		sum.Schema = s.schema.Names()
	}
	if s.merged != nil {
		sum.MergedRows = s.merged.RowCount()
	}
	if s.deduped != nil {
		sum.ResultRows = s.deduped.RowCount()
	} else if s.merged != nil {
		sum.ResultRows = s.merged.RowCount()
	}
	return sum
}
