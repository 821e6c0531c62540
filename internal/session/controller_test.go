package session

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/revloop/internal/anchor"
	"github.com/sprite-ai/revloop/internal/export"
	"github.com/sprite-ai/revloop/internal/model"
)

const tsFile = `function tick() {
  counter++;
  render(counter);
}

setInterval(tick, 100);`

func testFiles() []model.Snapshot {
	return []model.Snapshot{
		{Path: "a.ts", Status: model.SnapshotModified, Before: "old", After: tsFile},
	}
}

func begin(t *testing.T, store *Store, files []model.Snapshot) *Controller {
	t.Helper()
	c, err := Begin(store, zerolog.Nop(), "s1", "/repo", "", files)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return c
}

func TestFirstRoundLifecycle(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())

	if c.Round() != 1 {
		t.Fatalf("prospective round = %d", c.Round())
	}

	v := c.View()
	if v.Round != 1 || len(v.Files) != 1 || len(v.Existing) != 0 {
		t.Errorf("view = %+v", v)
	}
	if len(v.Taxonomy.Categories) != 4 || len(v.Taxonomy.Severities) != 3 {
		t.Errorf("taxonomy = %+v", v.Taxonomy)
	}

	res, err := c.Submit("first pass", []model.DraftFinding{{
		File: "a.ts", Side: "additions", StartLine: 1, EndLine: 3,
		Category: "bug", Severity: "medium", Comment: "unbounded counter",
	}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Round != 1 || len(res.Skipped) != 0 {
		t.Errorf("result = %+v", res)
	}

	st := store.Load("s1")
	if st.Round != 1 {
		t.Errorf("stored round = %d", st.Round)
	}
	if len(st.Findings) != 1 || st.Findings[0].Status != model.StatusOpen {
		t.Errorf("findings = %+v", st.Findings)
	}
	if st.Draft != nil {
		t.Error("draft not cleared on submit")
	}

	for _, p := range []string{res.JSONExport, res.MarkdownExport} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("export missing: %v", err)
		}
	}
}

func TestSecondRoundReconciles(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())
	if _, err := c.Submit("", []model.DraftFinding{{
		File: "a.ts", Side: "additions", StartLine: 2, EndLine: 3,
		Category: "perf", Severity: "low", Comment: "render per tick",
	}}); err != nil {
		t.Fatal(err)
	}

	// Round 2: a line was inserted above the anchored range.
	shifted := []model.Snapshot{
		{Path: "a.ts", Status: model.SnapshotModified, After: "// header\n" + tsFile},
	}
	c2 := begin(t, store, shifted)

	if c2.Round() != 2 {
		t.Fatalf("prospective round = %d", c2.Round())
	}
	existing := c2.View().Existing
	if len(existing) != 1 {
		t.Fatalf("existing = %+v", existing)
	}
	if existing[0].StartLine != 3 || existing[0].EndLine != 4 {
		t.Errorf("expected shifted 3..4, got %d..%d", existing[0].StartLine, existing[0].EndLine)
	}
	if existing[0].Status != model.StatusOpen {
		t.Errorf("status = %s", existing[0].Status)
	}
}

func TestReconcileClosesOnRemovedFile(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())
	if _, err := c.Submit("", []model.DraftFinding{{
		File: "a.ts", Side: "additions", StartLine: 1, EndLine: 1,
		Category: "question", Severity: "low", Comment: "why a global?",
	}}); err != nil {
		t.Fatal(err)
	}

	other := []model.Snapshot{{Path: "b.ts", Status: model.SnapshotAdded, After: "x"}}
	c2 := begin(t, store, other)

	if got := c2.View().Existing; len(got) != 0 {
		t.Errorf("expected no open findings, got %+v", got)
	}

	st := store.Load("s1")
	if len(st.Findings) != 1 {
		t.Fatalf("finding dropped: %+v", st.Findings)
	}
	f := st.Findings[0]
	if f.Status != model.StatusClosedAuto || f.CloseReason != model.CloseFileRemoved {
		t.Errorf("finding = %+v", f)
	}
}

func TestCancelLeavesRoundUntouched(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())

	if err := c.SaveDraft(model.Draft{Notes: "half done"}); err != nil {
		t.Fatal(err)
	}
	c.Cancel()

	st := store.Load("s1")
	if st.Round != 0 {
		t.Errorf("cancel advanced round to %d", st.Round)
	}
	if st.Draft == nil || st.Draft.Notes != "half done" {
		t.Errorf("draft lost on cancel: %+v", st.Draft)
	}

	entries, err := os.ReadDir(store.Dir("s1"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "round-") {
			t.Errorf("cancel produced export %s", e.Name())
		}
	}
}

func TestDraftSavedVerbatim(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())

	// Deliberately malformed: drafts bypass sanitization until submit.
	d := model.Draft{
		Notes: "scratch",
		NewFindings: []model.DraftFinding{
			{File: "never-seen.ts", Side: "sideways", Category: "vibes", Comment: ""},
		},
	}
	if err := c.SaveDraft(d); err != nil {
		t.Fatal(err)
	}

	st := store.Load("s1")
	if st.Draft == nil || len(st.Draft.NewFindings) != 1 {
		t.Fatalf("draft = %+v", st.Draft)
	}
	if st.Draft.NewFindings[0].Side != "sideways" {
		t.Errorf("draft sanitized prematurely: %+v", st.Draft.NewFindings[0])
	}
}

func TestResolve(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())
	if _, err := c.Submit("", []model.DraftFinding{{
		ID: "keep-me", File: "a.ts", Side: "additions", StartLine: 1, EndLine: 1,
		Category: "style", Severity: "low", Comment: "nit",
	}}); err != nil {
		t.Fatal(err)
	}

	c2 := begin(t, store, testFiles())
	if err := c2.Resolve("keep-me"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	st := store.Load("s1")
	if st.Findings[0].Status != model.StatusResolved || st.Findings[0].ClosedAt == nil {
		t.Errorf("finding = %+v", st.Findings[0])
	}

	if err := c2.Resolve("keep-me"); !errors.Is(err, ErrFindingNotOpen) {
		t.Errorf("re-resolve error = %v", err)
	}
	if err := c2.Resolve("ghost"); !errors.Is(err, ErrFindingNotFound) {
		t.Errorf("unknown id error = %v", err)
	}
}

func TestSubmitMergesCarriedFindings(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())
	if _, err := c.Submit("", []model.DraftFinding{
		{ID: "old-open", File: "a.ts", Side: "additions", StartLine: 1, EndLine: 1,
			Category: "bug", Severity: "high", Comment: "stays open"},
	}); err != nil {
		t.Fatal(err)
	}

	// Round 2 removes the file for a second finding's anchor but keeps a.ts.
	c2 := begin(t, store, testFiles())
	res, err := c2.Submit("round two", []model.DraftFinding{
		{ID: "new-one", File: "a.ts", Side: "additions", StartLine: 5, EndLine: 6,
			Category: "perf", Severity: "medium", Comment: "tight interval"},
		{File: "missing.ts", Side: "additions", StartLine: 1, EndLine: 1,
			Category: "bug", Severity: "high", Comment: "dropped"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Round != 2 {
		t.Errorf("round = %d", res.Round)
	}
	if len(res.Skipped) != 1 {
		t.Errorf("skipped = %+v", res.Skipped)
	}

	st := store.Load("s1")
	ids := make(map[string]model.Finding)
	for _, f := range st.Findings {
		ids[f.ID] = f
	}
	if len(st.Findings) != 2 {
		t.Fatalf("findings = %+v", st.Findings)
	}
	if ids["old-open"].Status != model.StatusOpen || ids["old-open"].Round != 1 {
		t.Errorf("carried finding mangled: %+v", ids["old-open"])
	}
	if ids["new-one"].Round != 2 {
		t.Errorf("new finding round = %d", ids["new-one"].Round)
	}

	// Export payload carries the notes and the whole finding set.
	data, err := os.ReadFile(res.JSONExport)
	if err != nil {
		t.Fatal(err)
	}
	var payload export.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Notes != "round two" || payload.Round != 2 || len(payload.Findings) != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSubmitIsTerminal(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())

	if _, err := c.Submit("", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Submit("", nil); !errors.Is(err, ErrRoundClosed) {
		t.Errorf("second submit error = %v", err)
	}
	if err := c.SaveDraft(model.Draft{}); !errors.Is(err, ErrRoundClosed) {
		t.Errorf("draft after submit error = %v", err)
	}
	if err := c.Resolve("x"); !errors.Is(err, ErrRoundClosed) {
		t.Errorf("resolve after submit error = %v", err)
	}
}

func TestAnchorSurvivesStatePersistence(t *testing.T) {
	store := NewStore(t.TempDir())
	c := begin(t, store, testFiles())
	if _, err := c.Submit("", []model.DraftFinding{{
		ID: "f", File: "a.ts", Side: "additions", StartLine: 2, EndLine: 2,
		Category: "bug", Severity: "high", Comment: "x",
	}}); err != nil {
		t.Fatal(err)
	}

	st := store.Load("s1")
	a := st.Findings[0].Anchor
	if a.Selected != "  counter++;" {
		t.Errorf("anchor selected = %q", a.Selected)
	}
	if _, ok := anchor.Locate(a, tsFile); !ok {
		t.Error("persisted anchor no longer locates")
	}
}
