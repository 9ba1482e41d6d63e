// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Tabbed list views over the CRM registry; every backend call runs as a tea.Cmd
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harperreed/crmgrid/applog"
	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewConfirmDelete
	ViewActions
	ViewColumns
	ViewDashboard
	ViewSync
)

// Syncer runs one Google import ("calendar" or "contacts") and returns a summary.
type Syncer func(ctx context.Context, service string) (string, error)

// Options tunes the model. Zero values fall back to defaults.
type Options struct {
	Debounce time.Duration
	Sync     Syncer
	Logger   *log.Logger
}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	reg      *crm.Registry
	notices  *grid.Recorder
	logger   *log.Logger
	debounce time.Duration
	syncer   Syncer

	viewMode ViewMode
	tab      int
	cursor   int // row on the current page
	colFocus int // index into the visible columns

	searching bool
	search    textinput.Model
	debouncer grid.Debouncer

	toast    grid.Notice
	hasToast bool

	detailID  string
	form      formState
	confirm   confirmState
	menu      ActionMenu
	colCursor int

	dashboard    string
	pipelineDOT  string
	showPipeline bool

	sync syncState

	width  int
	height int
}

// NewModel creates a new TUI model. reg must report through notices so
// the model can show controller notices as toasts.
func NewModel(ctx context.Context, reg *crm.Registry, notices *grid.Recorder, opts Options) Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"
	search.CharLimit = 100

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = grid.DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	return Model{
		ctx:      ctx,
		reg:      reg,
		notices:  notices,
		logger:   logger,
		debounce: debounce,
		syncer:   opts.Sync,
		viewMode: ViewList,
		search:   search,
		sync:     newSyncState(),
		width:    100,
		height:   30,
	}
}

// Messages produced by commands. Each carries the module it belongs to so a
// late result still lands on the right list.
type (
	loadedMsg struct {
		module string
		batch  crm.Batch
		err    error
	}
	mutatedMsg struct {
		module string
		verb   string
		err    error
	}
	deletedMsg struct {
		module string
		res    grid.DeleteResult
		bulk   bool
		err    error
	}
	submittedMsg struct {
		handoff grid.Handoff
		values  map[string]string
		err     error
	}
	searchTickMsg struct {
		module string
		seq    uint64
	}
)

func (m Model) Init() tea.Cmd {
	return m.loadAll()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case loadedMsg:
		if l, err := m.reg.List(msg.module); err == nil {
			l.ApplyLoad(msg.batch, msg.err)
			if msg.err != nil {
				m.logger.Error("load failed", "module", msg.module, "err", msg.err)
			}
		}
		m.clampCursor()
		m.collectNotices()
		return m, nil

	case mutatedMsg:
		return m.handleMutated(msg)

	case deletedMsg:
		return m.handleDeleted(msg)

	case submittedMsg:
		return m.handleSubmitted(msg)

	case searchTickMsg:
		if msg.module == m.list().Module() && m.debouncer.Current(msg.seq) {
			m.list().SetSearch(m.search.Value())
			m.cursor = 0
		}
		return m, nil

	case openMsg:
		return m.handleOpen(msg)

	case dashboardMsg:
		m.dashboard, m.pipelineDOT = msg.text, msg.dot
		if msg.err != nil {
			m.setToast(grid.Notice{Level: grid.LevelError, Message: "Dashboard failed: " + msg.err.Error()})
		}
		return m, nil

	case syncStatesMsg:
		m.sync.states = msg.states
		return m, nil

	case SyncCompleteMsg:
		cmd := m.handleSyncComplete(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	case ViewActions:
		return m.renderActionsView()
	case ViewColumns:
		return m.renderColumnsView()
	case ViewDashboard:
		return m.renderGraphView()
	case ViewSync:
		return m.renderSyncView()
	}
	return m.renderListView()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ViewActions:
		return m.handleActionKeys(msg)
	case ViewColumns:
		return m.handleColumnKeys(msg)
	case ViewDashboard:
		return m.handleGraphKeys(msg)
	case ViewSync:
		return m.handleSyncKeys(msg)
	}

	return m, nil
}

// list returns the list view of the active tab.
func (m Model) list() crm.List {
	return m.reg.Lists()[m.tab]
}

func (m Model) listFor(module string) crm.List {
	l, err := m.reg.List(module)
	if err != nil {
		return m.list()
	}
	return l
}

// load marks l loading and fetches it off the UI goroutine.
func (m Model) load(l crm.List) tea.Cmd {
	l.BeginLoad()
	ctx, module := m.ctx, l.Module()
	return func() tea.Msg {
		batch, err := l.Fetch(ctx)
		return loadedMsg{module: module, batch: batch, err: err}
	}
}

func (m Model) loadAll() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(crm.Modules))
	for _, l := range m.reg.Lists() {
		cmds = append(cmds, m.load(l))
	}
	return tea.Batch(cmds...)
}

func (m Model) reload(modules ...string) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(modules))
	for _, mod := range modules {
		if l, err := m.reg.List(mod); err == nil {
			cmds = append(cmds, m.load(l))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) collectNotices() {
	if m.notices == nil {
		return
	}
	for _, n := range m.notices.Drain() {
		m.setToast(n)
	}
}

func (m *Model) setToast(n grid.Notice) {
	m.toast = n
	m.hasToast = true
	if n.Level == grid.LevelError {
		m.logger.Warn(n.Message)
	}
}

func (m *Model) clampCursor() {
	n := len(m.list().Rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// currentID returns the record under the cursor, or "".
func (m Model) currentID() string {
	rows := m.list().Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return ""
	}
	return rows[m.cursor].ID
}

var titleCaser = cases.Title(language.English)

func moduleTitle(module string) string {
	return titleCaser.String(module)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	toastStyles = map[grid.Level]lipgloss.Style{
		grid.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		grid.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		grid.LevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		grid.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	badgeColors = map[string]lipgloss.Color{
		models.BadgeGray:   lipgloss.Color("245"),
		models.BadgeBlue:   lipgloss.Color("39"),
		models.BadgeGreen:  lipgloss.Color("10"),
		models.BadgeYellow: lipgloss.Color("11"),
		models.BadgeRed:    lipgloss.Color("9"),
		models.BadgePurple: lipgloss.Color("141"),
	}
)

func (m Model) renderToast() string {
	if !m.hasToast {
		return ""
	}
	return toastStyles[m.toast.Level].Render(m.toast.Message)
}

func renderBadge(text, color string) string {
	c, ok := badgeColors[color]
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(c).Render("● " + text)
}
