package session

import (
	"errors"
	"testing"
	"time"

	"github.com/topdeck/cardforge/internal/tabular"
)

func newTestSession(t *testing.T) (*Service, *Session) {
	t.Helper()
	svc := NewService(Limits{})
	return svc, svc.Create()
}

func addFile(t *testing.T, svc *Service, sess *Session, name, data string) {
	t.Helper()
	_, err := sess.AddFile(name, []byte(data), tabular.LoadOptions{}, svc.NewSourceID())
	if err != nil {
		t.Fatalf("AddFile %s: %v", name, err)
	}
}

func TestSession_FullPipeline(t *testing.T) {
	svc, sess := newTestSession(t)
	addFile(t, svc, sess, "file1.csv", "Name,Price\nBolt,5\n")
	addFile(t, svc, sess, "file2.csv", "Name,Qty\nBolt,2\n")

	schema, _, err := sess.Reconcile(tabular.StrategyUnion)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(schema) != 3 {
		t.Errorf("schema = %v", schema.Names())
	}

	merged, err := sess.Merge()
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.RowCount() != 2 {
		t.Errorf("merged rows = %d", merged.RowCount())
	}

	deduped, report, err := sess.Dedupe(tabular.KeepFirst, []string{"Name"})
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}
	if deduped.RowCount() != 1 || report.Removed != 1 {
		t.Errorf("deduped rows = %d, removed = %d", deduped.RowCount(), report.Removed)
	}

	out, err := sess.Export(tabular.ExportOptions{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(out) != "Name,Price,Qty\nBolt,5,\n" {
		t.Errorf("export = %q", out)
	}
}

func TestSession_StageFailureKeepsPriorOutput(t *testing.T) {
	svc, sess := newTestSession(t)
	addFile(t, svc, sess, "a.csv", "Name\nBolt\n")
	addFile(t, svc, sess, "b.csv", "Qty\n2\n")

	// Union succeeds and sets a schema.
	if _, _, err := sess.Reconcile(tabular.StrategyUnion); err != nil {
		t.Fatalf("Reconcile union: %v", err)
	}

	// Intersection fails; the union schema must survive so the user can
	// just pick another strategy.
	_, _, err := sess.Reconcile(tabular.StrategyIntersection)
	if !errors.Is(err, tabular.ErrEmptyIntersection) {
		t.Fatalf("expected ErrEmptyIntersection, got %v", err)
	}
	if sess.Schema() == nil {
		t.Error("failed reconcile discarded the previous schema")
	}
}

func TestSession_StrategyReselectionWithoutReupload(t *testing.T) {
	svc, sess := newTestSession(t)
	addFile(t, svc, sess, "file1.csv", "Name,Price\nBolt,5\n")
	addFile(t, svc, sess, "file2.csv", "Name,Qty\nBolt,2\n")

	union, _, err := sess.Reconcile(tabular.StrategyUnion)
	if err != nil {
		t.Fatalf("union: %v", err)
	}
	inter, _, err := sess.Reconcile(tabular.StrategyIntersection)
	if err != nil {
		t.Fatalf("intersection: %v", err)
	}

	if len(union) != 3 || len(inter) != 1 {
		t.Errorf("union=%v intersection=%v", union.Names(), inter.Names())
	}
	if len(sess.Files()) != 2 {
		t.Error("originals were not retained")
	}
}

func TestSession_MergeRequiresSchema(t *testing.T) {
	svc, sess := newTestSession(t)
	addFile(t, svc, sess, "a.csv", "Name\nBolt\n")

	if _, err := sess.Merge(); err == nil {
		t.Fatal("Merge without reconcile should fail")
	}
}

func TestSession_ConflictRenameFlowsDownstream(t *testing.T) {
	svc, sess := newTestSession(t)
	addFile(t, svc, sess, "inv.csv", "Name,Price\nBolt,5\n")
	addFile(t, svc, sess, "buy.csv", "Name,Price\nBolt,3\n")

	_, err := sess.ResolveConflicts([]tabular.ConflictRule{
		{Column: "Price", Policy: tabular.ConflictRename},
	})
	if err != nil {
		t.Fatalf("ResolveConflicts: %v", err)
	}

	schema, _, err := sess.Reconcile(tabular.StrategyUnion)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	want := map[string]bool{"Name": true, "Price_inv": true, "Price_buy": true}
	for _, name := range schema.Names() {
		if !want[name] {
			t.Errorf("unexpected schema column %q", name)
		}
	}
	if len(schema) != 3 {
		t.Errorf("schema = %v", schema.Names())
	}
}

func TestService_Lifecycle(t *testing.T) {
	svc := NewService(Limits{TTL: time.Hour})

	sess := svc.Create()
	if _, ok := svc.Get(sess.ID); !ok {
		t.Fatal("created session not found")
	}

	svc.Delete(sess.ID)
	if _, ok := svc.Get(sess.ID); ok {
		t.Fatal("deleted session still present")
	}
}

func TestService_Sweep(t *testing.T) {
	svc := NewService(Limits{TTL: time.Millisecond})
	sess := svc.Create()

	sess.mu.Lock()
	sess.lastSeen = time.Now().Add(-time.Minute)
	sess.mu.Unlock()

	svc.sweep()
	if _, ok := svc.Get(sess.ID); ok {
		t.Fatal("idle session not swept")
	}
}

func TestService_UploadLimits(t *testing.T) {
	svc := NewService(Limits{MaxFiles: 1, MaxFileSize: 10})
	sess := svc.Create()

	if err := svc.CheckUpload(sess, 100); err == nil {
		t.Error("oversize upload allowed")
	}

	addFile(t, svc, sess, "a.csv", "N\nx\n")
	if err := svc.CheckUpload(sess, 5); err == nil {
		t.Error("upload beyond max files allowed")
	}
}
