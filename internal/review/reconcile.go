// Package review implements the finding lifecycle engine: reconciling stored
// findings against freshly computed file snapshots, and sanitizing
// reviewer-submitted drafts into well-formed finding records.
package review

import (
	"time"

	"github.com/sprite-ai/revloop/internal/anchor"
	"github.com/sprite-ai/revloop/internal/model"
)

// Reconcile recomputes the position of every open finding against the
// current round's snapshots. Findings whose file vanished or whose anchored
// text no longer appears are transitioned to closed_auto; located findings
// get fresh line numbers. The anchor itself is never recaptured, so drift in
// later rounds is still detected against the originally selected text.
// Closed and resolved findings pass through unchanged. Reconcile never
// drops a finding.
func Reconcile(files []model.Snapshot, findings []model.Finding) []model.Finding {
	return reconcileAt(files, findings, time.Now().UTC())
}

func reconcileAt(files []model.Snapshot, findings []model.Finding, now time.Time) []model.Finding {
	idx := model.IndexSnapshots(files)

	out := make([]model.Finding, len(findings))
	for i, f := range findings {
		if f.Status != model.StatusOpen {
			out[i] = f
			continue
		}

		snap, ok := idx[f.File]
		if !ok {
			out[i] = closeAuto(f, model.CloseFileRemoved, now)
			continue
		}

		r, found := anchor.Locate(f.Anchor, snap.SideText(f.Side))
		if !found {
			out[i] = closeAuto(f, model.CloseAnchorMissing, now)
			continue
		}

		f.StartLine = r.StartLine
		f.EndLine = r.EndLine
		f.UpdatedAt = now
		out[i] = f
	}
	return out
}

func closeAuto(f model.Finding, reason model.CloseReason, now time.Time) model.Finding {
	f.Status = model.StatusClosedAuto
	f.CloseReason = reason
	f.UpdatedAt = now
	closedAt := now
	f.ClosedAt = &closedAt
	return f
}
