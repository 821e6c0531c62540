package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/revloop/internal/model"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	listWidth := m.width
	if m.showDetail {
		listWidth = m.width / 2
	}

	list := m.renderList(listWidth, m.height-2)

	main := list
	if m.showDetail {
		detail := m.renderDetail(m.width-listWidth-1, m.height-2)
		main = lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderList(width, height int) string {
	var b strings.Builder

	if len(m.visible) == 0 {
		b.WriteString(listItemStyle.Render("No findings match the filter."))
	}

	for i, f := range m.visible {
		line := fmt.Sprintf("%s %s %s:%d-%d  %s",
			severityMark(f.Severity), statusMark(f.Status), f.File, f.StartLine, f.EndLine,
			truncate(f.Comment, width-20))

		style := listItemStyle
		if i == m.cursor {
			style = listItemSelectedStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(m.visible)-1 {
			b.WriteByte('\n')
		}
	}

	return listStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderDetail(width, height int) string {
	f, ok := m.Selected()
	if !ok {
		return detailStyle.Width(width).Height(height - 2).Render("")
	}

	var b strings.Builder
	b.WriteString(detailHeaderStyle.Render(fmt.Sprintf("%s:%d-%d", f.File, f.StartLine, f.EndLine)))
	b.WriteByte('\n')

	b.WriteString(fmt.Sprintf("%s / %s / %s — round %d\n",
		f.Category, styledSeverity(f.Severity), styledStatus(f), f.Round))
	if f.Status == model.StatusClosedAuto {
		b.WriteString(statusClosedStyle.Render(fmt.Sprintf("auto-closed: %s", f.CloseReason)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(f.Comment)
	b.WriteString("\n\n")

	if f.Anchor.Selected != "" {
		if f.Anchor.Before != "" {
			b.WriteString(anchorContextStyle.Render(f.Anchor.Before))
			b.WriteByte('\n')
		}
		for _, line := range strings.Split(f.Anchor.Selected, "\n") {
			b.WriteString(anchorSelectedStyle.Render("> " + line))
			b.WriteByte('\n')
		}
		if f.Anchor.After != "" {
			b.WriteString(anchorContextStyle.Render(f.Anchor.After))
			b.WriteByte('\n')
		}
	}

	return detailStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderStatusBar() string {
	open := len(model.Open(m.state.Findings))
	total := len(m.state.Findings)

	left := fmt.Sprintf(" %s — round %d", m.state.SessionID, m.state.Round)
	right := fmt.Sprintf("%d open / %d total  filter: %s  ? help ", open, total, m.filter)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(detailHeaderStyle.Render("revloop findings — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Previous finding"},
		{"↓/j", "Next finding"},
		{"f/Tab", "Cycle filter (all/open/closed)"},
		{"Enter", "Toggle detail pane"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

func severityMark(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return severityHighStyle.Render("●")
	case model.SeverityMedium:
		return severityMediumStyle.Render("●")
	default:
		return severityLowStyle.Render("●")
	}
}

func statusMark(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return statusOpenStyle.Render("[open]")
	case model.StatusResolved:
		return statusResolvedStyle.Render("[done]")
	default:
		return statusClosedStyle.Render("[auto]")
	}
}

func styledSeverity(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return severityHighStyle.Render(string(s))
	case model.SeverityMedium:
		return severityMediumStyle.Render(string(s))
	default:
		return severityLowStyle.Render(string(s))
	}
}

func styledStatus(f model.Finding) string {
	switch f.Status {
	case model.StatusOpen:
		return statusOpenStyle.Render(string(f.Status))
	case model.StatusResolved:
		return statusResolvedStyle.Render(string(f.Status))
	default:
		return statusClosedStyle.Render(string(f.Status))
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
