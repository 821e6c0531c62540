package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sprite-ai/revloop/internal/model"
)

// WriteMarkdown renders the round export as a reviewer-facing report:
// a summary table, then findings grouped by severity, open first.
func WriteMarkdown(w io.Writer, p *Payload) error {
	fmt.Fprintf(w, "# Review round %d\n\n", p.Round)
	fmt.Fprintf(w, "Session `%s` — scope `%s`", p.SessionID, p.Scope)
	if p.BaseRef != "" {
		fmt.Fprintf(w, " vs `%s`", p.BaseRef)
	}
	fmt.Fprintf(w, " — generated %s\n\n", p.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if p.Notes != "" {
		fmt.Fprintf(w, "## Notes\n\n%s\n\n", strings.TrimSpace(p.Notes))
	}

	open := model.Open(p.Findings)
	closed := model.Closed(p.Findings)

	fmt.Fprintf(w, "| Status | Count |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Open   | %d    |\n", len(open))
	fmt.Fprintf(w, "| Closed | %d    |\n\n", len(closed))

	if len(p.Findings) == 0 {
		fmt.Fprintln(w, "No findings recorded.")
		return nil
	}

	if len(open) > 0 {
		fmt.Fprintf(w, "## Open findings\n\n")
		writeFindings(w, open)
	}
	if len(closed) > 0 {
		fmt.Fprintf(w, "## Closed findings\n\n")
		writeFindings(w, closed)
	}
	return nil
}

func writeFindings(w io.Writer, findings []model.Finding) {
	sorted := make([]model.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if a, b := severityRank(sorted[i].Severity), severityRank(sorted[j].Severity); a != b {
			return a > b
		}
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].StartLine < sorted[j].StartLine
	})

	for _, f := range sorted {
		fmt.Fprintf(w, "### %s `%s:%d-%d` (%s/%s)\n\n",
			statusBadge(f), f.File, f.StartLine, f.EndLine, f.Category, f.Severity)
		fmt.Fprintf(w, "%s\n\n", f.Comment)

		if f.Anchor.Selected != "" {
			fmt.Fprintf(w, "```\n%s\n```\n\n", f.Anchor.Selected)
		}
		if f.Status == model.StatusClosedAuto {
			fmt.Fprintf(w, "_Auto-closed in round %d (%s)._\n\n", f.Round, f.CloseReason)
		}
	}
}

func statusBadge(f model.Finding) string {
	switch f.Status {
	case model.StatusOpen:
		return "[open]"
	case model.StatusResolved:
		return "[resolved]"
	default:
		return "[closed]"
	}
}

func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityHigh:
		return 3
	case model.SeverityMedium:
		return 2
	case model.SeverityLow:
		return 1
	}
	return 0
}
