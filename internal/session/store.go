// Package session holds the durable review state for one session id and the
// round controller that drives a review round over it.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sprite-ai/revloop/internal/model"
)

// StateDir is the directory created under the repository root.
const StateDir = ".revloop"

const stateFile = "state.json"

// Store persists Session State and round exports on the filesystem,
// one subdirectory per session id.
type Store struct {
	root string
}

// NewStore creates a store rooted at the repository directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the session's directory, creating nothing.
func (s *Store) Dir(sessionID string) string {
	return filepath.Join(s.root, StateDir, sessionID)
}

// Load reads the session's state. A missing or unreadable state file yields
// a fresh session rather than an error: review history that cannot be parsed
// is treated as absent, and the next save starts over.
func (s *Store) Load(sessionID string) *model.State {
	fresh := &model.State{SessionID: sessionID}

	data, err := os.ReadFile(filepath.Join(s.Dir(sessionID), stateFile))
	if err != nil {
		return fresh
	}

	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return fresh
	}
	st.SessionID = sessionID
	return &st
}

// Save writes the whole state record. Write failures propagate to the caller.
func (s *Store) Save(st *model.State) error {
	dir := s.Dir(st.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	st.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, stateFile), data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// WriteExport stores a round artifact and returns its full path.
func (s *Store) WriteExport(sessionID, name string, data []byte) (string, error) {
	dir := s.Dir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating session dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
