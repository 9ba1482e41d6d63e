// ABOUTME: Row action menu: view, edit, hand-off actions and delete for one record
// ABOUTME: The cursor skips separators and disabled items; items emit messages
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmgrid/grid"
)

// ActionItem is one entry of an ActionMenu. Separator items only draw a rule.
type ActionItem struct {
	Label       string
	Icon        string
	Disabled    bool
	Destructive bool
	Separator   bool
	Run         func() tea.Cmd
}

func (it ActionItem) selectable() bool {
	return !it.Separator && !it.Disabled && it.Run != nil
}

// ActionMenu is a vertical list of actions with a cursor.
type ActionMenu struct {
	Title  string
	Items  []ActionItem
	cursor int
	back   ViewMode
}

// NewActionMenu places the cursor on the first selectable item.
func NewActionMenu(title string, items []ActionItem) ActionMenu {
	menu := ActionMenu{Title: title, Items: items, cursor: -1}
	menu.move(1)
	return menu
}

// Cursor returns the index of the highlighted item, or -1 when none is selectable.
func (a ActionMenu) Cursor() int { return a.cursor }

func (a *ActionMenu) move(delta int) {
	n := len(a.Items)
	for i, pos := 0, a.cursor; i < n; i++ {
		pos = (pos + delta + n) % n
		if a.Items[pos].selectable() {
			a.cursor = pos
			return
		}
	}
}

// Update moves the cursor and reports the command of a chosen item. closed
// is true when the menu should be dismissed.
func (a ActionMenu) Update(msg tea.KeyMsg) (menu ActionMenu, cmd tea.Cmd, closed bool) {
	switch msg.String() {
	case "up", "k":
		a.move(-1)
	case "down", "j", "tab":
		a.move(1)
	case "enter":
		if a.cursor >= 0 && a.Items[a.cursor].selectable() {
			return a, a.Items[a.cursor].Run(), true
		}
	case "esc", "q", "x":
		return a, nil, true
	}
	return a, nil, false
}

var (
	menuBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(0, 1)

	menuActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	menuDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("238"))

	menuDestructiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))
)

func (a ActionMenu) View() string {
	var lines []string
	if a.Title != "" {
		lines = append(lines, titleStyle.Render(a.Title))
	}
	for i, it := range a.Items {
		if it.Separator {
			lines = append(lines, menuDisabledStyle.Render(strings.Repeat("─", 24)))
			continue
		}
		label := it.Label
		if it.Icon != "" {
			label = it.Icon + " " + label
		}
		prefix := "  "
		style := lipgloss.NewStyle()
		switch {
		case it.Disabled:
			style = menuDisabledStyle
		case i == a.cursor:
			prefix = "> "
			style = menuActiveStyle
		case it.Destructive:
			style = menuDestructiveStyle
		}
		if it.Destructive && !it.Disabled {
			style = style.Foreground(lipgloss.Color("9"))
		}
		lines = append(lines, prefix+style.Render(label))
	}
	return menuBoxStyle.Render(strings.Join(lines, "\n"))
}

type openKind int

const (
	openDetail openKind = iota
	openEdit
	openHandoff
	openDelete
)

// openMsg is emitted by menu items and applied on the UI goroutine.
type openMsg struct {
	kind   openKind
	id     string
	action string
}

func emit(msg tea.Msg) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return msg }
	}
}

func (m *Model) openActionMenu(id string, back ViewMode) {
	l := m.list()
	items := []ActionItem{
		{Label: "View details", Icon: "👁", Run: emit(openMsg{kind: openDetail, id: id})},
		{Label: "Edit", Icon: "✎", Run: emit(openMsg{kind: openEdit, id: id})},
	}
	if actions := l.Actions(id); len(actions) > 0 {
		items = append(items, ActionItem{Separator: true})
		for _, a := range actions {
			items = append(items, ActionItem{
				Label:       a.Label,
				Icon:        a.Icon,
				Disabled:    !a.Enabled,
				Destructive: a.Destructive,
				Run:         emit(openMsg{kind: openHandoff, id: id, action: a.Key}),
			})
		}
	}
	items = append(items,
		ActionItem{Separator: true},
		ActionItem{Label: "Delete", Icon: "🗑", Destructive: true, Run: emit(openMsg{kind: openDelete, id: id})},
	)

	title := l.Title()
	if row, ok := l.Detail(id); ok && len(row.Cells) > 0 {
		title = row.Cells[0].Text
	}
	m.menu = NewActionMenu(title, items)
	m.menu.back = back
	m.viewMode = ViewActions
}

func (m Model) renderActionsView() string {
	var s strings.Builder
	s.WriteString(m.menu.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: Move • Enter: Select • Esc: Close"))
	return s.String()
}

func (m Model) handleActionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu, cmd, closed := m.menu.Update(msg)
	m.menu = menu
	if closed {
		m.viewMode = m.menu.back
	}
	return m, cmd
}

func (m Model) handleOpen(msg openMsg) (tea.Model, tea.Cmd) {
	back := m.menu.back
	switch msg.kind {
	case openDetail:
		m.detailID = msg.id
		m.viewMode = ViewDetail
	case openEdit:
		return m.openEditForm(msg.id, back)
	case openDelete:
		m.viewMode = back
		m.openConfirm([]string{msg.id}, false)
	case openHandoff:
		h, err := m.list().Handoff(msg.action, msg.id)
		if err != nil {
			m.setToast(grid.Notice{Level: grid.LevelWarn, Message: err.Error()})
			return m, nil
		}
		return m.openHandoffForm(h, back)
	}
	return m, nil
}
