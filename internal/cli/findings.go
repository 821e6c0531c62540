package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/revloop/internal/diff"
	"github.com/sprite-ai/revloop/internal/model"
	"github.com/sprite-ai/revloop/internal/session"
	"github.com/sprite-ai/revloop/internal/tui"
)

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Browse a session's finding history",
	Long: `Open a terminal browser over the findings recorded for a session:
open findings with their current line ranges, auto-closed findings with
their close reasons, and resolved ones. Read-only; resolving and editing
happen in the review UI.`,
	Args: cobra.NoArgs,
	RunE: runFindings,
}

func runFindings(cmd *cobra.Command, args []string) error {
	state, _, err := loadSessionState(cmd)
	if err != nil {
		return err
	}

	if len(state.Findings) == 0 {
		fmt.Fprintf(os.Stderr, "No findings recorded for session %q yet.\n", state.SessionID)
		return nil
	}

	return tui.Run(state)
}

func loadSessionState(cmd *cobra.Command) (*model.State, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	root, err := diff.RepoRoot(cwd)
	if err != nil {
		return nil, "", err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	return session.NewStore(root).Load(sessionID), root, nil
}
