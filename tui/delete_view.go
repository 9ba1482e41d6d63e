// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Confirms single and bulk deletes; leads can opt into deleting linked records
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/grid"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

type confirmState struct {
	ids    []string
	bulk   bool
	linked bool // delete notifications and tasks of leads too
	busy   bool
	back   ViewMode
}

func (m *Model) openConfirm(ids []string, bulk bool) {
	m.confirm = confirmState{ids: ids, bulk: bulk, back: m.viewMode}
	m.viewMode = ViewConfirmDelete
}

func (m Model) renderConfirmDeleteView() string {
	l := m.list()

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")

	var message, entityInfo string
	if m.confirm.bulk {
		message = fmt.Sprintf("Are you sure you want to delete %d %s?", len(m.confirm.ids), l.Module())
	} else {
		message = fmt.Sprintf("Are you sure you want to delete this %s?", strings.ToLower(l.Title()))
		if row, ok := l.Detail(m.confirm.ids[0]); ok && len(row.Cells) > 0 {
			entityInfo = fmt.Sprintf("\n%s: %s\n", strings.ToUpper(l.Title()), row.Cells[0].Text)
		}
	}

	lines := []string{title, "", message, entityInfo}
	if l.Module() == crm.ModuleLeads {
		box := "[ ]"
		if m.confirm.linked {
			box = "[x]"
		}
		lines = append(lines, box+" Also delete linked notifications and tasks (l)")
	}
	lines = append(lines, "\nThis action cannot be undone!", "")

	if m.confirm.busy {
		lines = append(lines, statusStyle.Render("Deleting..."))
	} else {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Left,
			confirmButtonStyle.Render("Yes, Delete (y)"),
			cancelButtonStyle.Render("Cancel (n/esc)"),
		))
	}

	box := confirmBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm.busy {
		return m, nil
	}

	switch msg.String() {
	case "y", "Y":
		m.confirm.busy = true
		l, ctx := m.list(), m.ctx
		ids, bulk := m.confirm.ids, m.confirm.bulk
		opts := grid.DeleteOptions{Bulk: bulk, DeleteLinkedRecords: m.confirm.linked}
		return m, func() tea.Msg {
			res, err := l.ExecDelete(ctx, ids, opts)
			return deletedMsg{module: l.Module(), res: res, bulk: bulk, err: err}
		}
	case "l":
		if m.list().Module() == crm.ModuleLeads {
			m.confirm.linked = !m.confirm.linked
		}
	case "n", "N", "esc":
		m.viewMode = m.confirm.back
		m.confirm = confirmState{}
	}

	return m, nil
}

func (m Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	l := m.listFor(msg.module)
	l.FinishDelete(msg.res, msg.err, msg.bulk)
	m.collectNotices()

	if m.viewMode == ViewConfirmDelete {
		m.viewMode = m.confirm.back
		if m.viewMode == ViewDetail && msg.err == nil && len(msg.res.Deleted) > 0 {
			m.viewMode = ViewList
		}
	}
	m.confirm = confirmState{}

	if msg.err != nil {
		m.logger.Warn("delete failed", "module", msg.module, "err", msg.err)
		return m, nil
	}
	return m, m.load(l)
}
