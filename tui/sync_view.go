// ABOUTME: TUI view for Google sync status and controls
// ABOUTME: Displays sync states and triggers calendar and contacts imports
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/db"
)

var syncServices = []string{"calendar", "contacts"}

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

type syncState struct {
	states     []db.SyncState
	selected   int
	inProgress map[string]bool
	messages   []string
}

func newSyncState() syncState {
	return syncState{inProgress: make(map[string]bool)}
}

type syncStatesMsg struct {
	states []db.SyncState
}

// SyncCompleteMsg is sent when a sync operation completes.
type SyncCompleteMsg struct {
	Service string
	Summary string
	Error   error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Google Sync Management"))
	s.WriteString("\n\n")

	if m.syncer == nil {
		s.WriteString(syncMessageStyle.Render("Google sync is not configured. Run 'crmgrid sync init' first."))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Esc: Back"))
		return s.String()
	}

	s.WriteString(syncHeaderStyle.Render("Service Status"))
	s.WriteString("\n\n")

	for i, service := range syncServices {
		var state *db.SyncState
		for j := range m.sync.states {
			if m.sync.states[j].Service == service {
				state = &m.sync.states[j]
				break
			}
		}

		var row strings.Builder
		if i == m.sync.selected {
			row.WriteString("▶ ")
		} else {
			row.WriteString("  ")
		}

		serviceName := moduleTitle(service)
		if i == m.sync.selected {
			row.WriteString(syncSelectedStyle.Render(syncServiceStyle.Render(serviceName)))
		} else {
			row.WriteString(syncServiceStyle.Render(serviceName))
		}

		switch {
		case m.sync.inProgress[service] || (state != nil && state.Status == db.SyncSyncing):
			row.WriteString(syncSyncingStyle.Render("  ⟳ Syncing..."))
		case state == nil:
			row.WriteString(syncMessageStyle.Render("  Not synced yet"))
		case state.Status == db.SyncError:
			row.WriteString(syncErrorStyle.Render("  ✗ Error"))
			if state.ErrorMessage != nil {
				row.WriteString(syncErrorStyle.Render(": " + *state.ErrorMessage))
			}
		default:
			row.WriteString(syncIdleStyle.Render("  ✓ Idle"))
			if state.LastSyncTime != nil {
				row.WriteString(syncMessageStyle.Render(" • Last synced " + formatTimeSince(*state.LastSyncTime)))
			}
		}

		s.WriteString(row.String())
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if len(m.sync.messages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		start := max(len(m.sync.messages)-5, 0)
		for _, line := range m.sync.messages[start:] {
			s.WriteString(syncMessageStyle.Render("  " + line))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderSyncHelp())

	return s.String()
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"↑/↓: Select service",
		"Enter: Sync selected",
		"a: Sync all",
		"r: Refresh status",
		"Esc: Back",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) loadSyncStates() tea.Cmd {
	ctx, client := m.ctx, m.reg.Client()
	return func() tea.Msg {
		states, err := db.GetAllSyncStates(ctx, client.DB)
		if err != nil {
			return syncStatesMsg{}
		}
		return syncStatesMsg{states: states}
	}
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.sync.selected > 0 {
			m.sync.selected--
		}
	case "down", "j":
		if m.sync.selected < len(syncServices)-1 {
			m.sync.selected++
		}
	case "enter":
		if m.syncer == nil {
			return m, nil
		}
		service := syncServices[m.sync.selected]
		if m.sync.inProgress[service] {
			return m, nil
		}
		m.sync.inProgress[service] = true
		m.addSyncMessage(fmt.Sprintf("Starting %s sync...", service))
		return m, m.syncService(service)
	case "a":
		if m.syncer == nil {
			return m, nil
		}
		var cmds []tea.Cmd
		for _, service := range syncServices {
			if m.sync.inProgress[service] {
				continue
			}
			m.sync.inProgress[service] = true
			m.addSyncMessage(fmt.Sprintf("Starting %s sync...", service))
			cmds = append(cmds, m.syncService(service))
		}
		return m, tea.Batch(cmds...)
	case "r":
		return m, m.loadSyncStates()
	case "esc", "q":
		m.viewMode = ViewList
	}

	return m, nil
}

// syncService runs one import off the UI goroutine.
func (m Model) syncService(service string) tea.Cmd {
	ctx, syncer := m.ctx, m.syncer
	return func() tea.Msg {
		summary, err := syncer(ctx, service)
		return SyncCompleteMsg{Service: service, Summary: summary, Error: err}
	}
}

func (m *Model) addSyncMessage(msg string) {
	timestamp := time.Now().Format("15:04:05")
	m.sync.messages = append(m.sync.messages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

// handleSyncComplete records the outcome and reloads the list the import wrote to.
func (m *Model) handleSyncComplete(msg SyncCompleteMsg) tea.Cmd {
	m.sync.inProgress[msg.Service] = false

	if msg.Error != nil {
		m.logger.Error("sync failed", "service", msg.Service, "err", msg.Error)
		m.addSyncMessage(fmt.Sprintf("✗ %s sync failed: %v", msg.Service, msg.Error))
		return m.loadSyncStates()
	}

	line := fmt.Sprintf("✓ %s sync completed", msg.Service)
	if msg.Summary != "" {
		line += ": " + msg.Summary
	}
	m.addSyncMessage(line)

	module := crm.ModuleMeetings
	if msg.Service == "contacts" {
		module = crm.ModuleContacts
	}
	return tea.Batch(m.loadSyncStates(), m.reload(module))
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute") + " ago"
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour") + " ago"
	}
	return plural(int(duration.Hours()/24), "day") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
