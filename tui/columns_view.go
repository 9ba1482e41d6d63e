// ABOUTME: Column editor for the active list
// ABOUTME: Toggles visibility and reorders columns; changes persist through preferences
package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/crmgrid/grid"
)

func (m Model) renderColumnsView() string {
	var s strings.Builder

	l := m.list()
	s.WriteString(titleStyle.Render(strings.ToUpper(l.Module()) + " COLUMNS"))
	s.WriteString("\n\n")

	for i, c := range l.Columns() {
		prefix := "  "
		if i == m.colCursor {
			prefix = "> "
		}
		box := "[ ]"
		if c.Visible {
			box = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", prefix, box, c.Label)
		if i == m.colCursor {
			line = menuActiveStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	if toast := m.renderToast(); toast != "" {
		s.WriteString("\n")
		s.WriteString(toast)
	}
	s.WriteString("\n")

	help := []string{
		"↑/↓: Move",
		"Space: Show/hide",
		"K/J: Reorder",
		"r: Reset",
		"Esc: Back",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) handleColumnKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.list()
	cols := l.Columns()
	if len(cols) == 0 {
		m.viewMode = ViewList
		return m, nil
	}
	field := cols[m.colCursor].Field

	var err error
	switch msg.String() {
	case "up", "k":
		if m.colCursor > 0 {
			m.colCursor--
		}
	case "down", "j":
		if m.colCursor < len(cols)-1 {
			m.colCursor++
		}
	case " ":
		err = l.ToggleColumn(field)
	case "K":
		if err = l.MoveColumn(field, -1); err == nil && m.colCursor > 0 {
			m.colCursor--
		}
	case "J":
		if err = l.MoveColumn(field, 1); err == nil && m.colCursor < len(cols)-1 {
			m.colCursor++
		}
	case "r":
		err = l.ResetColumns()
		m.colCursor = 0
	case "esc", "q", "c":
		m.viewMode = ViewList
		if n := len(l.Header()); m.colFocus >= n {
			m.colFocus = max(n-1, 0)
		}
	}

	switch {
	case errors.Is(err, grid.ErrNoVisibleColumns):
		m.setToast(grid.Notice{Level: grid.LevelWarn, Message: "At least one column must stay visible"})
	case err != nil:
		m.setToast(grid.Notice{Level: grid.LevelError, Message: "Failed to save columns: " + err.Error()})
	}

	return m, nil
}
