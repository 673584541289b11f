package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/topdeck/cardforge/internal/enrich"
	"github.com/topdeck/cardforge/internal/logging"
	"github.com/topdeck/cardforge/internal/session"
	"github.com/topdeck/cardforge/internal/tabular"
)

// previewLimit caps how many merged rows a preview response carries.
const previewLimit = 20

// handleHealth reports liveness and the live session count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// handleListSets returns the catalog's saleable sets, newest first.
func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.catalog.Sets(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

// handleCreateSession starts a new empty session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	logging.FromContext(r.Context()).Info("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": sess.ID,
		"createdAt": sess.CreatedAt,
	})
}

// session resolves the session named in the URL, responding 404 when it
// does not exist or has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "session not found",
			Message: "The session does not exist or has expired",
			Action:  "Create a new session and re-upload your files",
			Code:    "SES001",
		})
	}
	return sess, ok
}

// handleGetSession returns the session summary.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Summarize())
}

// handleDeleteSession ends the session and discards its datasets.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// parseSeparator maps a query or form separator name to its rune.
func parseSeparator(v string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "comma", ",":
		return tabular.SeparatorComma, nil
	case "semicolon", ";":
		return tabular.SeparatorSemicolon, nil
	case "tab", "\t":
		return tabular.SeparatorTab, nil
	case "pipe", "|":
		return tabular.SeparatorPipe, nil
	default:
		return 0, fmt.Errorf("unsupported separator %q", v)
	}
}

// handleUploadFiles loads one or more multipart files into the session.
// Form fields "separator" and "encoding" apply to all files in the request.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	limits := s.sessions.Limits()
	if err := r.ParseMultipartForm(limits.MaxFileSize); err != nil {
		s.respondError(w, r, &tabular.LoadError{Source: "upload", Reason: "invalid multipart request", Err: err}, http.StatusBadRequest)
		return
	}

	sep, err := parseSeparator(r.FormValue("separator"))
	if err != nil {
		s.respondError(w, r, &tabular.LoadError{Source: "upload", Reason: err.Error()}, http.StatusBadRequest)
		return
	}
	opts := tabular.LoadOptions{
		Separator: sep,
		Encoding:  r.FormValue("encoding"),
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		s.respondError(w, r, &tabular.LoadError{Source: "upload", Reason: "no files in request"}, http.StatusBadRequest)
		return
	}

	log := logging.WithFields(r.Context(), "session_id", sess.ID)
	var reports []*tabular.LoadReport
	for _, fh := range headers {
		if err := s.sessions.CheckUpload(sess, fh.Size); err != nil {
			s.respondError(w, r, err, http.StatusRequestEntityTooLarge)
			return
		}

		f, err := fh.Open()
		if err != nil {
			s.respondError(w, r, &tabular.LoadError{Source: fh.Filename, Reason: "could not read upload", Err: err}, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, r, &tabular.LoadError{Source: fh.Filename, Reason: "could not read upload", Err: err}, http.StatusBadRequest)
			return
		}

		report, err := sess.AddFile(fh.Filename, data, opts, s.sessions.NewSourceID())
		if err != nil {
			s.respondError(w, r, err, http.StatusUnprocessableEntity)
			return
		}
		log.Info("file loaded", "file", fh.Filename, "rows", report.Loaded, "malformed", len(report.Malformed))
		reports = append(reports, report)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// conflictRuleRequest is one per-column conflict decision.
type conflictRuleRequest struct {
	Column       string `json:"column"`
	Policy       string `json:"policy"`
	KeepSourceID string `json:"keepSourceId,omitempty"`
}

// handleResolveConflicts applies per-column conflict rules.
func (s *Server) handleResolveConflicts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Rules []conflictRuleRequest `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	rules := make([]tabular.ConflictRule, 0, len(req.Rules))
	for _, rr := range req.Rules {
		policy, err := tabular.ParseConflictPolicy(rr.Policy)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		rules = append(rules, tabular.ConflictRule{
			Column:       rr.Column,
			Policy:       policy,
			KeepSourceID: rr.KeepSourceID,
		})
	}

	report, err := sess.ResolveConflicts(rules)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleReconcile computes the target schema for the chosen strategy. For
// the custom-mapping strategy an optional templateSourceId picks which
// uploaded file supplies the schema; it defaults to the first file.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Strategy         string `json:"strategy"`
		TemplateSourceID string `json:"templateSourceId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	strategy, err := tabular.ParseMergeStrategy(req.Strategy)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var (
		schema tabular.Schema
		report *tabular.ReconcileReport
	)
	if strategy == tabular.StrategyCustomMapping && req.TemplateSourceID != "" {
		schema, report, err = sess.ReconcileWithTemplate(req.TemplateSourceID)
	} else {
		schema, report, err = sess.Reconcile(strategy)
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schema": schema,
		"report": report,
	})
}

// previewRows renders up to limit rows as strings for JSON transport.
func previewRows(d *tabular.Dataset, limit int) [][]string {
	n := d.RowCount()
	if n > limit {
		n = limit
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		cells := make([]string, len(d.Rows[i]))
		for j, v := range d.Rows[i] {
			cells[j] = v.Render("")
		}
		out[i] = cells
	}
	return out
}

// handleMerge runs the merge stage and returns a preview.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	merged, err := sess.Merge()
	if err != nil {
		s.respondError(w, r, err, http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns":   merged.ColumnNames(),
		"rows":      previewRows(merged, previewLimit),
		"totalRows": merged.RowCount(),
	})
}

// handleDedupe applies a duplicate policy to the merged dataset.
func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Policy  string   `json:"policy"`
		Columns []string `json:"columns,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	policy, err := tabular.ParseDuplicatePolicy(req.Policy)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	deduped, report, err := sess.Dedupe(policy, req.Columns)
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report":     report,
		"resultRows": deduped.RowCount(),
	})
}

// handleExport serializes the pipeline result as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	sep, err := parseSeparator(q.Get("separator"))
	if err != nil {
		s.respondError(w, r, &tabular.ExportError{Reason: err.Error()}, http.StatusBadRequest)
		return
	}
	format, err := tabular.ParseFormat(q.Get("format"))
	if err != nil {
		s.respondError(w, r, &tabular.ExportError{Reason: err.Error()}, http.StatusBadRequest)
		return
	}

	data, err := sess.Export(tabular.ExportOptions{
		Format:    format,
		Separator: sep,
		Encoding:  q.Get("encoding"),
		NullAs:    q.Get("nulls"),
	})
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset="+firstNonEmpty(q.Get("encoding"), tabular.EncodingUTF8))
	w.Header().Set("Content-Disposition", `attachment; filename="merged.csv"`)
	w.Write(data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// enrichRequest selects the enrichment input: an inline decklist, a whole
// catalog set, or a file already uploaded to the session.
type enrichRequest struct {
	Decklist string `json:"decklist,omitempty"`
	FileName string `json:"fileName,omitempty"`
	SetCode  string `json:"setCode,omitempty"`
	SourceID string `json:"sourceId,omitempty"`
}

// handleEnrich builds product rows and adds them to the session as a new
// file, ready for the merge pipeline and export.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	var (
		enriched *tabular.Dataset
		report   *enrich.Report
		err      error
	)
	switch {
	case req.SetCode != "":
		enriched, report, err = s.enricher.EnrichSet(r.Context(), s.sessions.NewSourceID(), req.SetCode)

	case req.Decklist != "":
		name := firstNonEmpty(req.FileName, "decklist.txt")
		ds := enrich.DecklistDataset(s.sessions.NewSourceID(), name, req.Decklist)
		enriched, report, err = s.enricher.Enrich(r.Context(), ds)

	case req.SourceID != "":
		var input *tabular.Dataset
		for _, f := range sess.Files() {
			if f.SourceID == req.SourceID {
				input = f
				break
			}
		}
		if input == nil {
			s.respondError(w, r, fmt.Errorf("unknown source %q", req.SourceID), http.StatusNotFound)
			return
		}
		enriched, report, err = s.enricher.Enrich(r.Context(), input)

	default:
		s.respondError(w, r, fmt.Errorf("enrich request needs a decklist, setCode, or sourceId"), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	sess.AddDataset(enriched)
	logging.WithFields(r.Context(), "session_id", sess.ID).Info("enrichment added",
		"rows", report.Rows, "missing", len(report.Missing))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sourceId": enriched.SourceID,
		"fileName": enriched.Name,
		"columns":  enriched.ColumnNames(),
		"rows":     enriched.RowCount(),
		"report":   report,
	})
}

// handleShopifyUpload pushes the session's pipeline result to the store.
func (s *Server) handleShopifyUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if s.uploader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "marketplace upload is not configured",
			Message: "Marketplace upload is not configured on this server",
			Action:  "Set the store domain and Admin API access token, then restart",
			Code:    "ENR003",
		})
		return
	}

	result := sess.Result()
	if result == nil {
		s.respondError(w, r, fmt.Errorf("nothing to upload: run merge first"), http.StatusConflict)
		return
	}

	results, err := s.uploader.Upload(r.Context(), result)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
