// ABOUTME: Dashboard view with summary statistics and the pipeline graph source
// ABOUTME: Both are built in a command from the backend, never from list state
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmgrid/viz"
)

type dashboardMsg struct {
	text string
	dot  string
	err  error
}

func (m Model) loadDashboard() tea.Cmd {
	ctx, client := m.ctx, m.reg.Client()
	return func() tea.Msg {
		stats, err := viz.GenerateDashboardStats(ctx, client, time.Now())
		if err != nil {
			return dashboardMsg{err: err}
		}
		dot, err := viz.NewGraphGenerator(client).PipelineGraph(ctx, viz.FormatDOT)
		return dashboardMsg{text: viz.RenderDashboard(stats), dot: dot, err: err}
	}
}

func (m Model) renderGraphView() string {
	var s strings.Builder

	if m.showPipeline {
		s.WriteString(titleStyle.Render("PIPELINE GRAPH"))
		s.WriteString("\n\n")
		body := m.pipelineDOT
		if body == "" {
			body = "Generating graph..."
		}
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render(body))
	} else if m.dashboard == "" {
		s.WriteString("Loading dashboard...")
	} else {
		s.WriteString(m.dashboard)
	}

	if toast := m.renderToast(); toast != "" {
		s.WriteString("\n")
		s.WriteString(toast)
	}
	s.WriteString("\n\n")

	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"p: Toggle pipeline graph",
		"r: Refresh",
		"Esc: Back",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "p":
		m.showPipeline = !m.showPipeline
	case "r":
		return m, m.loadDashboard()
	case "esc", "q", "g":
		m.viewMode = ViewList
		m.showPipeline = false
	}

	return m, nil
}
