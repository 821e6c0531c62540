// Package tui implements the Bubble Tea findings browser used by
// `revloop findings`: a read-only view over a session's finding history.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/revloop/internal/model"
)

// filter selects which findings are listed.
type filter int

const (
	filterAll filter = iota
	filterOpen
	filterClosed
)

func (f filter) String() string {
	switch f {
	case filterOpen:
		return "open"
	case filterClosed:
		return "closed"
	default:
		return "all"
	}
}

// Model is the top-level Bubble Tea model for the findings browser.
type Model struct {
	state *model.State

	// UI state
	width  int
	height int

	cursor  int
	filter  filter
	visible []model.Finding

	showDetail bool
	showHelp   bool
}

// New creates a findings browser over a loaded session state.
func New(state *model.State) Model {
	m := Model{state: state, showDetail: true}
	m.applyFilter()
	return m
}

func (m *Model) applyFilter() {
	switch m.filter {
	case filterOpen:
		m.visible = model.Open(m.state.Findings)
	case filterClosed:
		m.visible = model.Closed(m.state.Findings)
	default:
		m.visible = m.state.Findings
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, keys.Filter):
			m.filter = (m.filter + 1) % 3
			m.applyFilter()

		case key.Matches(msg, keys.Detail):
			m.showDetail = !m.showDetail

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

// Selected returns the finding under the cursor, if any.
func (m Model) Selected() (model.Finding, bool) {
	if len(m.visible) == 0 {
		return model.Finding{}, false
	}
	return m.visible[m.cursor], true
}

// Run starts the findings browser.
func Run(state *model.State) error {
	m := New(state)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
