package session

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/revloop/internal/export"
	"github.com/sprite-ai/revloop/internal/model"
	"github.com/sprite-ai/revloop/internal/review"
)

// Controller errors.
var (
	ErrRoundClosed     = errors.New("round already submitted")
	ErrFindingNotOpen  = errors.New("finding is not open")
	ErrFindingNotFound = errors.New("finding not found")
)

// Controller drives one review round: reconcile stored findings against the
// current snapshots, serve the interactive session, then accept exactly one
// submission or a cancellation. One controller handles one round; the host
// guarantees a single controller per session id at a time.
type Controller struct {
	store   *Store
	log     zerolog.Logger
	scope   string
	baseRef string

	state *model.State
	files []model.Snapshot

	prospective int
	submitted   bool
}

// View is the read model served to the interactive UI.
type View struct {
	Round    int              `json:"round"` // prospective round number
	Files    []model.Snapshot `json:"files"`
	Existing []model.Finding  `json:"existing_findings"`
	Draft    *model.Draft     `json:"draft,omitempty"`
	Taxonomy Taxonomy         `json:"taxonomy"`
}

// Taxonomy lists the closed enumerations the UI may submit.
type Taxonomy struct {
	Categories []model.Category `json:"categories"`
	Severities []model.Severity `json:"severities"`
}

// SubmitResult reports a completed round.
type SubmitResult struct {
	Round          int           `json:"round"`
	JSONExport     string        `json:"json_export"`
	MarkdownExport string        `json:"markdown_export"`
	Skipped        []review.Skip `json:"skipped,omitempty"`
}

// Begin loads (or creates) the session state, reconciles every stored
// finding against the given snapshots, and persists the result immediately
// so the reconciliation survives an abandoned session. The returned
// controller is in the awaiting-review state.
func Begin(store *Store, log zerolog.Logger, sessionID, scope, baseRef string, files []model.Snapshot) (*Controller, error) {
	state := store.Load(sessionID)
	state.Findings = review.Reconcile(files, state.Findings)

	if err := store.Save(state); err != nil {
		return nil, fmt.Errorf("persisting reconciled state: %w", err)
	}

	c := &Controller{
		store:       store,
		log:         log,
		scope:       scope,
		baseRef:     baseRef,
		state:       state,
		files:       files,
		prospective: state.Round + 1,
	}

	log.Info().
		Str("session", sessionID).
		Int("round", c.prospective).
		Int("findings", len(state.Findings)).
		Int("open", len(model.Open(state.Findings))).
		Msg("round started")
	return c, nil
}

// Round returns the prospective round number being reviewed.
func (c *Controller) Round() int { return c.prospective }

// SessionID returns the session identifier.
func (c *Controller) SessionID() string { return c.state.SessionID }

// Files returns the snapshots of the round under review.
func (c *Controller) Files() []model.Snapshot { return c.files }

// View builds the read model for the UI: prospective round, file set, open
// findings with reconciled line numbers, and the saved draft if any.
func (c *Controller) View() View {
	return View{
		Round:    c.prospective,
		Files:    c.files,
		Existing: model.Open(c.state.Findings),
		Draft:    c.state.Draft,
		Taxonomy: Taxonomy{Categories: model.Categories, Severities: model.Severities},
	}
}

// SaveDraft persists the reviewer's scratch payload verbatim. Drafts are
// intentionally unsanitized; validation happens at submission.
func (c *Controller) SaveDraft(d model.Draft) error {
	if c.submitted {
		return ErrRoundClosed
	}
	c.state.Draft = &d
	return c.store.Save(c.state)
}

// Resolve transitions one open finding to resolved by explicit reviewer
// action. Closed findings and unknown ids are rejected.
func (c *Controller) Resolve(findingID string) error {
	if c.submitted {
		return ErrRoundClosed
	}

	for i := range c.state.Findings {
		f := &c.state.Findings[i]
		if f.ID != findingID {
			continue
		}
		if f.Status != model.StatusOpen {
			return fmt.Errorf("%w: %s is %s", ErrFindingNotOpen, findingID, f.Status)
		}

		now := time.Now().UTC()
		f.Status = model.StatusResolved
		f.UpdatedAt = now
		f.ClosedAt = &now

		c.log.Info().Str("finding", findingID).Msg("finding resolved")
		return c.store.Save(c.state)
	}
	return fmt.Errorf("%w: %s", ErrFindingNotFound, findingID)
}

// Submit sanitizes the incoming findings against the current file set,
// merges them with the carried-over findings, advances the round, clears the
// draft, persists, and writes the round's JSON and Markdown exports. A
// controller accepts at most one submission.
func (c *Controller) Submit(notes string, items []model.DraftFinding) (*SubmitResult, error) {
	if c.submitted {
		return nil, ErrRoundClosed
	}

	accepted, skipped := review.Sanitize(items, c.prospective, model.IndexSnapshots(c.files))
	for _, s := range skipped {
		c.log.Warn().Int("item", s.Index).Str("reason", s.Reason).Msg("draft finding skipped")
	}

	merged := append(model.Closed(c.state.Findings), model.Open(c.state.Findings)...)
	merged = append(merged, accepted...)

	c.state.Findings = merged
	c.state.Round = c.prospective
	c.state.Draft = nil

	if err := c.store.Save(c.state); err != nil {
		return nil, fmt.Errorf("persisting submitted round: %w", err)
	}

	jsonPath, mdPath, err := c.writeExports(notes)
	if err != nil {
		return nil, err
	}

	c.submitted = true
	c.log.Info().
		Int("round", c.prospective).
		Int("new", len(accepted)).
		Int("skipped", len(skipped)).
		Msg("round submitted")

	return &SubmitResult{
		Round:          c.prospective,
		JSONExport:     jsonPath,
		MarkdownExport: mdPath,
		Skipped:        skipped,
	}, nil
}

// Cancel ends the round without a submission. Reconciliation has already
// been persisted by Begin; nothing else may change, so this only logs.
func (c *Controller) Cancel() {
	if c.submitted {
		return
	}
	c.log.Info().Int("round", c.prospective).Msg("round cancelled without submission")
}

func (c *Controller) writeExports(notes string) (jsonPath, mdPath string, err error) {
	payload := &export.Payload{
		SessionID:   c.state.SessionID,
		Round:       c.state.Round,
		Notes:       notes,
		Findings:    c.state.Findings,
		Scope:       c.scope,
		BaseRef:     c.baseRef,
		GeneratedAt: time.Now().UTC(),
	}

	var jsonBuf bytes.Buffer
	if err := export.WriteJSON(&jsonBuf, payload); err != nil {
		return "", "", err
	}
	jsonPath, err = c.store.WriteExport(c.state.SessionID, fmt.Sprintf("round-%d.json", c.state.Round), jsonBuf.Bytes())
	if err != nil {
		return "", "", err
	}

	var mdBuf bytes.Buffer
	if err := export.WriteMarkdown(&mdBuf, payload); err != nil {
		return "", "", err
	}
	mdPath, err = c.store.WriteExport(c.state.SessionID, fmt.Sprintf("round-%d.md", c.state.Round), mdBuf.Bytes())
	if err != nil {
		return "", "", err
	}
	return jsonPath, mdPath, nil
}
