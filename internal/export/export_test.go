package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sprite-ai/revloop/internal/anchor"
	"github.com/sprite-ai/revloop/internal/model"
)

func testPayload() *Payload {
	now := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	return &Payload{
		SessionID: "s-1",
		Round:     2,
		Notes:     "second pass",
		Scope:     "/repo",
		BaseRef:   "main",
		Findings: []model.Finding{
			{
				ID: "f1", Round: 1, File: "a.ts", Side: model.SideAdditions,
				StartLine: 3, EndLine: 4, Category: model.CategoryBug,
				Severity: model.SeverityHigh, Comment: "leak",
				Status: model.StatusOpen,
				Anchor: anchor.Anchor{Selected: "setInterval(tick)"},
			},
			{
				ID: "f2", Round: 1, File: "b.ts", Side: model.SideAdditions,
				StartLine: 1, EndLine: 1, Category: model.CategoryStyle,
				Severity: model.SeverityLow, Comment: "rename",
				Status: model.StatusClosedAuto, CloseReason: model.CloseAnchorMissing,
			},
		},
		GeneratedAt: now,
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testPayload()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got Payload
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON produced: %v", err)
	}
	if got.Round != 2 || got.SessionID != "s-1" || len(got.Findings) != 2 {
		t.Errorf("payload mangled: %+v", got)
	}
	if got.Findings[0].Anchor.Selected != "setInterval(tick)" {
		t.Errorf("anchor lost: %+v", got.Findings[0])
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, testPayload()); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Review round 2",
		"second pass",
		"| Open   | 1",
		"| Closed | 1",
		"`a.ts:3-4` (bug/high)",
		"leak",
		"setInterval(tick)",
		"anchor_missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, out)
		}
	}
}

func TestWriteMarkdownEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := &Payload{SessionID: "s", Round: 1, Scope: "/repo", GeneratedAt: time.Now()}
	if err := WriteMarkdown(&buf, p); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if !strings.Contains(buf.String(), "No findings recorded.") {
		t.Errorf("missing empty marker:\n%s", buf.String())
	}
}
