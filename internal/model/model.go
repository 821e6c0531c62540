// Package model defines the core data types shared across revloop.
package model

import (
	"time"

	"github.com/sprite-ai/revloop/internal/anchor"
)

// Side identifies which half of a diff a line range belongs to.
type Side string

const (
	SideAdditions Side = "additions"
	SideDeletions Side = "deletions"
)

// Category classifies a finding.
type Category string

const (
	CategoryBug      Category = "bug"
	CategoryStyle    Category = "style"
	CategoryPerf     Category = "perf"
	CategoryQuestion Category = "question"
)

// Severity grades a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Status is the lifecycle state of a finding.
type Status string

const (
	StatusOpen       Status = "open"
	StatusClosedAuto Status = "closed_auto"
	StatusResolved   Status = "resolved"
)

// CloseReason explains an automatic close.
type CloseReason string

const (
	CloseFileRemoved   CloseReason = "file_removed"
	CloseAnchorMissing CloseReason = "anchor_missing"
)

// Categories and Severities enumerate the taxonomy in display order.
var (
	Categories = []Category{CategoryBug, CategoryStyle, CategoryPerf, CategoryQuestion}
	Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}
)

// ValidSide reports whether s is a known side.
func ValidSide(s Side) bool {
	return s == SideAdditions || s == SideDeletions
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryBug, CategoryStyle, CategoryPerf, CategoryQuestion:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Finding is one reviewer annotation on a line range of a changed file.
// Findings are append-only: once closed_auto or resolved they are never
// mutated again, and they are never deleted from a session.
type Finding struct {
	ID          string        `json:"id"`
	Round       int           `json:"round"`
	File        string        `json:"file"`
	Side        Side          `json:"side"`
	StartLine   int           `json:"start_line"`
	EndLine     int           `json:"end_line"`
	Category    Category      `json:"category"`
	Severity    Severity      `json:"severity"`
	Comment     string        `json:"comment"`
	Status      Status        `json:"status"`
	Anchor      anchor.Anchor `json:"anchor"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	CloseReason CloseReason   `json:"close_reason,omitempty"`
}

// Open returns the findings still awaiting reviewer attention.
func Open(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Status == StatusOpen {
			out = append(out, f)
		}
	}
	return out
}

// Closed returns the complement of Open.
func Closed(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Status != StatusOpen {
			out = append(out, f)
		}
	}
	return out
}

// DraftFinding is one unvalidated finding as authored in the UI. Line
// numbers are float64 because the payload arrives as JSON and has not been
// sanitized yet.
type DraftFinding struct {
	ID        string  `json:"id,omitempty"`
	File      string  `json:"file"`
	Side      string  `json:"side"`
	StartLine float64 `json:"start_line"`
	EndLine   float64 `json:"end_line"`
	Category  string  `json:"category"`
	Severity  string  `json:"severity"`
	Comment   string  `json:"comment"`
}

// Draft is the reviewer's scratch space between interactions. It is saved
// verbatim and only validated at submission.
type Draft struct {
	Notes       string         `json:"notes"`
	NewFindings []DraftFinding `json:"new_findings"`
}

// SnapshotStatus describes how a file changed in the reviewed diff.
type SnapshotStatus string

const (
	SnapshotAdded    SnapshotStatus = "added"
	SnapshotDeleted  SnapshotStatus = "deleted"
	SnapshotModified SnapshotStatus = "modified"
)

// Snapshot is the full before/after content of one changed file for the
// round being reviewed. Additions-side findings are matched against After,
// deletions-side findings against Before.
type Snapshot struct {
	Path   string         `json:"path"`
	Status SnapshotStatus `json:"status"`
	Before string         `json:"before"`
	After  string         `json:"after"`
}

// SideText returns the snapshot text a finding on the given side anchors to.
func (s Snapshot) SideText(side Side) string {
	if side == SideDeletions {
		return s.Before
	}
	return s.After
}

// IndexSnapshots keys snapshots by path for sanitizer and reconciler lookups.
func IndexSnapshots(files []Snapshot) map[string]Snapshot {
	idx := make(map[string]Snapshot, len(files))
	for _, f := range files {
		idx[f.Path] = f
	}
	return idx
}

// State is the sole durable record of one review session. It is loaded and
// saved as a whole at round boundaries and on every draft save.
type State struct {
	SessionID string    `json:"session_id"`
	Round     int       `json:"round"` // last completed round, 0 before the first submit
	Findings  []Finding `json:"findings"`
	Draft     *Draft    `json:"draft,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
