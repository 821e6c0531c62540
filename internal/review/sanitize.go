package review

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sprite-ai/revloop/internal/anchor"
	"github.com/sprite-ai/revloop/internal/model"
)

// Skip records why one draft item was dropped during sanitization.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Sanitize validates reviewer-submitted draft findings against the current
// round's file set and turns the well-formed ones into open findings stamped
// with the given round. Malformed items are skipped individually, never
// failing the batch; the returned skips say why each one was dropped. The UI
// is expected to submit only well-formed items, so this is a defense-in-depth
// boundary rather than the primary validation surface.
func Sanitize(items []model.DraftFinding, round int, fileIndex map[string]model.Snapshot) ([]model.Finding, []Skip) {
	return sanitizeAt(items, round, fileIndex, time.Now().UTC())
}

func sanitizeAt(items []model.DraftFinding, round int, fileIndex map[string]model.Snapshot, now time.Time) ([]model.Finding, []Skip) {
	var accepted []model.Finding
	var skipped []Skip

	skip := func(i int, reason string) {
		skipped = append(skipped, Skip{Index: i, Reason: reason})
	}

	for i, item := range items {
		if item.File == "" {
			skip(i, "missing file")
			continue
		}
		snap, ok := fileIndex[item.File]
		if !ok {
			skip(i, "file not part of this round: "+item.File)
			continue
		}

		comment := strings.TrimSpace(item.Comment)
		if comment == "" {
			skip(i, "empty comment")
			continue
		}

		side := model.Side(item.Side)
		if !model.ValidSide(side) {
			skip(i, "unknown side: "+item.Side)
			continue
		}
		category := model.Category(item.Category)
		if !model.ValidCategory(category) {
			skip(i, "unknown category: "+item.Category)
			continue
		}
		severity := model.Severity(item.Severity)
		if !model.ValidSeverity(severity) {
			skip(i, "unknown severity: "+item.Severity)
			continue
		}

		if !finite(item.StartLine) || !finite(item.EndLine) {
			skip(i, "non-finite line numbers")
			continue
		}

		start := int(math.Floor(math.Min(item.StartLine, item.EndLine)))
		end := int(math.Floor(math.Max(item.StartLine, item.EndLine)))
		if start < 1 {
			start = 1
		}
		if end < start {
			end = start
		}

		a := anchor.Capture(snap.SideText(side), start, end)
		if !a.Valid() {
			skip(i, "selected range resolved to no text")
			continue
		}

		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = newFindingID(round, i)
		}

		accepted = append(accepted, model.Finding{
			ID:        id,
			Round:     round,
			File:      item.File,
			Side:      side,
			StartLine: start,
			EndLine:   end,
			Category:  category,
			Severity:  severity,
			Comment:   comment,
			Status:    model.StatusOpen,
			Anchor:    a,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return accepted, skipped
}

// newFindingID is unique per (round, batch position) plus a random suffix so
// concurrent sessions cannot collide.
func newFindingID(round, pos int) string {
	return fmt.Sprintf("r%d-%d-%s", round, pos+1, uuid.NewString()[:8])
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
