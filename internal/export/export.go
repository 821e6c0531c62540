// Package export renders the per-round JSON and Markdown artifacts written
// after each submitted review round.
package export

import (
	"time"

	"github.com/sprite-ai/revloop/internal/model"
)

// Payload is everything a completed round exports. The JSON artifact is this
// struct verbatim; the Markdown artifact is a human-readable rendering of it.
type Payload struct {
	SessionID   string          `json:"session_id"`
	Round       int             `json:"round"`
	Notes       string          `json:"notes,omitempty"`
	Findings    []model.Finding `json:"findings"`
	Scope       string          `json:"scope"`
	BaseRef     string          `json:"base_ref,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}
