// ABOUTME: Detail view listing every column of one record
// ABOUTME: Hidden columns are included; badge columns render coloured
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	l := m.list()
	s.WriteString(titleStyle.Render(strings.ToUpper(l.Title()) + " DETAILS"))
	s.WriteString("\n\n")

	row, ok := l.Detail(m.detailID)
	if !ok {
		s.WriteString(statusStyle.Render("This record no longer exists."))
	} else {
		for _, c := range row.Cells {
			value := fieldValueStyle.Render(c.Text)
			if c.Badge != "" {
				value = renderBadge(c.Text, c.Badge)
			}
			s.WriteString(fieldLabelStyle.Render(c.Label + ":"))
			s.WriteString(value)
			s.WriteString("\n")
		}
	}

	if toast := m.renderToast(); toast != "" {
		s.WriteString("\n")
		s.WriteString(toast)
	}
	s.WriteString("\n")

	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"e: Edit",
		"x: Actions",
		"d: Delete",
		"Esc: Back",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.list().Detail(m.detailID); !ok && msg.String() != "esc" && msg.String() != "q" {
		return m, nil
	}

	switch msg.String() {
	case "e":
		return m.openEditForm(m.detailID, ViewDetail)
	case "x":
		m.openActionMenu(m.detailID, ViewDetail)
	case "d":
		m.openConfirm([]string{m.detailID}, false)
	case "esc", "q":
		m.viewMode = ViewList
		m.detailID = ""
	}

	return m, nil
}
