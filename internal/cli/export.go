package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/revloop/internal/export"
	"github.com/sprite-ai/revloop/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-render a round export to stdout",
	Long: `Render the export payload for a completed round from the stored session
state. Useful when an export file was deleted or a different format is
needed after the fact.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntP("round", "r", 0, "round to export (default: last completed)")
	exportCmd.Flags().StringP("format", "f", "json", "output format: json, markdown")
}

func runExport(cmd *cobra.Command, args []string) error {
	state, root, err := loadSessionState(cmd)
	if err != nil {
		return err
	}

	round, _ := cmd.Flags().GetInt("round")
	if round == 0 {
		round = state.Round
	}
	if round < 1 || round > state.Round {
		return fmt.Errorf("round %d has not been completed (last completed: %d)", round, state.Round)
	}

	payload := &export.Payload{
		SessionID:   state.SessionID,
		Round:       round,
		Findings:    findingsAsOfRound(state.Findings, round),
		Scope:       root,
		GeneratedAt: time.Now().UTC(),
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "markdown", "md":
		return export.WriteMarkdown(os.Stdout, payload)
	case "json":
		return export.WriteJSON(os.Stdout, payload)
	default:
		return fmt.Errorf("unknown format %q (want json or markdown)", format)
	}
}

// findingsAsOfRound keeps the findings that existed by the given round.
// Statuses reflect the present state, not the historical snapshot; the
// original per-round files remain the authoritative record.
func findingsAsOfRound(findings []model.Finding, round int) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if f.Round <= round {
			out = append(out, f)
		}
	}
	return out
}
