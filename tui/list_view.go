// ABOUTME: List view: tabs, search box, paged table and status bar
// ABOUTME: Keys drive the active list's filters, sort, paging and selection
package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/grid"
)

const maxColumnWidth = 28

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CRMGRID"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.list().Search() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderTable())
	s.WriteString("\n\n")

	s.WriteString(m.renderStatusBar())
	if toast := m.renderToast(); toast != "" {
		s.WriteString("\n")
		s.WriteString(toast)
	}
	s.WriteString("\n")

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, l := range m.reg.Lists() {
		label := fmt.Sprintf("%d %s", i+1, moduleTitle(l.Module()))
		if i == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	l := m.list()
	if l.Loading() && !l.Loaded() {
		return statusStyle.Render("Loading " + l.Module() + "...")
	}

	rows := l.Rows()
	if len(rows) == 0 {
		return statusStyle.Render("No " + l.Module() + " found")
	}

	header := l.Header()
	sortKey, sortDir := l.Sort()

	columns := []table.Column{{Title: " ", Width: 1}}
	widths := make([]int, len(header))
	for i, h := range header {
		title := h.Label
		switch {
		case h.Field == sortKey && sortDir == grid.SortAsc:
			title += " ▲"
		case h.Field == sortKey && sortDir == grid.SortDesc:
			title += " ▼"
		}
		if i == m.colFocus {
			title = "›" + title
		}
		widths[i] = utf8.RuneCountInString(title)
		columns = append(columns, table.Column{Title: title})
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		mark := " "
		if l.IsSelected(r.ID) {
			mark = "✓"
		}
		row := table.Row{mark}
		for i, c := range r.Cells {
			if n := utf8.RuneCountInString(c.Text); n > widths[i] {
				widths[i] = n
			}
			row = append(row, c.Text)
		}
		tableRows = append(tableRows, row)
	}
	for i := range header {
		columns[i+1].Width = min(widths[i], maxColumnWidth)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(len(tableRows)+1),
	)
	t.SetCursor(m.cursor)

	return t.View()
}

func (m Model) renderStatusBar() string {
	l := m.list()
	parts := []string{
		fmt.Sprintf("Page %d/%d", l.CurrentPage(), l.PageCount()),
		fmt.Sprintf("%d total", l.Total()),
		fmt.Sprintf("%d per page", l.PageSize()),
	}
	if n := l.SelectedCount(); n > 0 {
		sel := fmt.Sprintf("%d selected", n)
		if l.SelectionCapped() {
			sel += fmt.Sprintf(" (capped at %d)", grid.SelectAllCap)
		}
		parts = append(parts, sel)
	}
	if f := filterSummary(l.FilterDefs()); f != "" {
		parts = append(parts, f)
	}
	if l.Loading() && l.Loaded() {
		parts = append(parts, "refreshing")
	}
	return statusStyle.Render(strings.Join(parts, " • "))
}

func filterSummary(defs []crm.FilterDef) string {
	var active []string
	for _, f := range defs {
		if f.Value != "" {
			active = append(active, f.Key+"="+f.Value)
		}
	}
	return strings.Join(active, " ")
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Type to search • Enter: Done • Esc: Clear")
	}
	help := []string{
		"↑/↓: Navigate",
		"←/→: Column",
		"Tab/1-6: Switch tabs",
		"/: Search",
		"f/o: Filter/owner",
		"F: Clear filters",
		"s: Sort",
		"[/]: Page",
		"+/-: Page size",
		"Space/a: Select",
		"D: Delete selected",
		"Enter: Details",
		"e: Edit",
		"n: New",
		"x: Actions",
		"c: Columns",
		"g: Dashboard",
		"y: Sync",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	l := m.list()
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		return m.switchTab((m.tab + 1) % len(crm.Modules))
	case "shift+tab":
		return m.switchTab((m.tab + len(crm.Modules) - 1) % len(crm.Modules))
	case "1", "2", "3", "4", "5", "6":
		return m.switchTab(int(msg.String()[0] - '1'))

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(l.Rows())-1 {
			m.cursor++
		}
	case "left", "h":
		if m.colFocus > 0 {
			m.colFocus--
		}
	case "right", "l":
		if m.colFocus < len(l.Header())-1 {
			m.colFocus++
		}

	case "/":
		m.searching = true
		m.search.SetValue(l.Search())
		m.search.CursorEnd()
		return m, m.search.Focus()

	case "f":
		for _, f := range l.FilterDefs() {
			if f.Key != "owner" {
				l.CycleFilter(f.Key)
				break
			}
		}
		m.cursor = 0
	case "o":
		l.CycleFilter("owner")
		m.cursor = 0
	case "F":
		l.ClearFilters()
		m.search.SetValue("")
		m.cursor = 0

	case "s":
		if field, ok := m.focusedField(); ok {
			l.ToggleSort(field)
		}
	case "S":
		if field, ok := m.focusedField(); ok {
			l.SetSort(field, grid.SortNone)
		}

	case "[":
		l.PrevPage()
		m.cursor = 0
	case "]":
		l.NextPage()
		m.cursor = 0
	case "+", "=":
		l.StepPageSize(1)
		m.clampCursor()
	case "-":
		l.StepPageSize(-1)
		m.clampCursor()

	case " ":
		if id := m.currentID(); id != "" {
			l.ToggleSelected(id)
		}
	case "a":
		l.SelectAllVisible()
	case "esc":
		l.ClearSelection()

	case "D":
		if ids := l.Selected(); len(ids) > 0 {
			m.openConfirm(ids, true)
		}
	case "d":
		if id := m.currentID(); id != "" {
			m.openConfirm([]string{id}, false)
		}

	case "enter":
		if id := m.currentID(); id != "" {
			m.detailID = id
			m.viewMode = ViewDetail
		}
	case "e":
		if id := m.currentID(); id != "" {
			return m.openEditForm(id, ViewList)
		}
	case "n":
		return m.openCreateForm(ViewList)
	case "x":
		if id := m.currentID(); id != "" {
			m.openActionMenu(id, ViewList)
		}
	case "c":
		m.colCursor = 0
		m.viewMode = ViewColumns

	case "r":
		return m, m.load(l)
	case "g":
		m.viewMode = ViewDashboard
		return m, m.loadDashboard()
	case "y":
		m.viewMode = ViewSync
		return m, m.loadSyncStates()
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.debouncer.Next()
		m.list().SetSearch("")
		m.cursor = 0
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	seq, module := m.debouncer.Next(), m.list().Module()
	tick := tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchTickMsg{module: module, seq: seq}
	})
	return m, tea.Batch(cmd, tick)
}

func (m Model) switchTab(tab int) (tea.Model, tea.Cmd) {
	if tab < 0 || tab >= len(crm.Modules) {
		return m, nil
	}
	m.tab = tab
	m.cursor = 0
	m.colFocus = 0
	m.debouncer.Next()
	m.search.SetValue(m.list().Search())
	return m, nil
}

// focusedField returns the column under the column cursor.
func (m Model) focusedField() (string, bool) {
	header := m.list().Header()
	if m.colFocus < 0 || m.colFocus >= len(header) {
		return "", false
	}
	return header[m.colFocus].Field, true
}
