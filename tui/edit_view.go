// ABOUTME: Create, edit and hand-off forms built from the registry's form definitions
// ABOUTME: Submits run as commands; the form stays open with the error on failure
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/grid"
)

type formMode int

const (
	formCreate formMode = iota
	formEdit
	formHandoff
)

type formState struct {
	form    crm.Form
	mode    formMode
	id      string
	handoff grid.Handoff
	inputs  []textinput.Model
	focus   int
	err     string
	busy    bool
	back    ViewMode
}

func newFormState(form crm.Form, values map[string]string) formState {
	fs := formState{form: form, inputs: make([]textinput.Model, len(form.Fields))}
	for i, f := range form.Fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder(f)
		in.CharLimit = 500
		in.Width = 40
		if v, ok := values[f.Key]; ok {
			in.SetValue(v)
		} else {
			in.SetValue(f.Default)
		}
		fs.inputs[i] = in
	}
	fs.setFocus(0)
	return fs
}

func placeholder(f crm.FormField) string {
	switch f.Kind {
	case crm.FieldEnum:
		return strings.Join(f.Options, "|")
	case crm.FieldDate:
		return crm.DateLayout
	case crm.FieldDateTime:
		return crm.DateTimeLayout
	case crm.FieldMoney:
		return "0.00"
	case crm.FieldRef:
		return f.Ref + " id"
	}
	return f.Label
}

func (fs *formState) setFocus(i int) {
	if len(fs.inputs) == 0 {
		return
	}
	fs.focus = (i + len(fs.inputs)) % len(fs.inputs)
	for j := range fs.inputs {
		if j == fs.focus {
			fs.inputs[j].Focus()
		} else {
			fs.inputs[j].Blur()
		}
	}
}

func (fs formState) values() map[string]string {
	out := make(map[string]string, len(fs.inputs))
	for i, f := range fs.form.Fields {
		out[f.Key] = fs.inputs[i].Value()
	}
	return out
}

func (m Model) openCreateForm(back ViewMode) (tea.Model, tea.Cmd) {
	l := m.list()
	m.form = newFormState(l.Form(), nil)
	m.form.mode = formCreate
	m.form.back = back
	m.viewMode = ViewEdit
	return m, textinput.Blink
}

func (m Model) openEditForm(id string, back ViewMode) (tea.Model, tea.Cmd) {
	l := m.list()
	values, err := l.FormValues(id)
	if err != nil {
		m.setToast(grid.Notice{Level: grid.LevelError, Message: err.Error()})
		return m, nil
	}
	m.form = newFormState(l.Form(), values)
	m.form.mode = formEdit
	m.form.id = id
	m.form.back = back
	m.viewMode = ViewEdit
	return m, textinput.Blink
}

func (m Model) openHandoffForm(h grid.Handoff, back ViewMode) (tea.Model, tea.Cmd) {
	form, err := m.reg.Form(h.Target)
	if err != nil {
		m.setToast(grid.Notice{Level: grid.LevelError, Message: err.Error()})
		return m, nil
	}
	m.form = newFormState(form, h.Initial)
	m.form.mode = formHandoff
	m.form.handoff = h
	m.form.back = back
	m.viewMode = ViewEdit
	return m, textinput.Blink
}

func (m Model) renderEditView() string {
	var s strings.Builder

	title := "NEW "
	switch m.form.mode {
	case formEdit:
		title = "EDIT "
	case formHandoff:
		if m.form.handoff.Target == crm.ModuleEmail {
			title = "SEND "
		}
	}
	s.WriteString(titleStyle.Render(title + strings.ToUpper(m.form.form.Module)))
	s.WriteString("\n\n")

	labelWidth := 0
	for _, f := range m.form.form.Fields {
		labelWidth = max(labelWidth, len(f.Label)+1)
	}
	for i, f := range m.form.form.Fields {
		if i == m.form.focus {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		label := f.Label
		if f.Required {
			label += "*"
		}
		s.WriteString(label)
		s.WriteString(strings.Repeat(" ", labelWidth-len(label)+1))
		s.WriteString(m.form.inputs[i].View())
		s.WriteString("\n")
	}

	if m.form.busy {
		s.WriteString("\n")
		s.WriteString(statusStyle.Render("Saving..."))
	}
	if m.form.err != "" {
		s.WriteString("\n")
		s.WriteString(toastStyles[grid.LevelError].Render(m.form.err))
	}
	s.WriteString("\n")

	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab/↓: Next field",
		"Shift+Tab/↑: Previous",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = m.form.back
		m.form = formState{}
		return m, nil
	case "tab", "down":
		m.form.setFocus(m.form.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.form.setFocus(m.form.focus - 1)
		return m, nil
	case "enter":
		if m.form.busy {
			return m, nil
		}
		m.form.busy = true
		m.form.err = ""
		return m, m.submitForm()
	}

	if len(m.form.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// submitForm returns the command that writes the form to the backend.
func (m Model) submitForm() tea.Cmd {
	ctx, values := m.ctx, m.form.values()

	switch m.form.mode {
	case formHandoff:
		reg, h := m.reg, m.form.handoff
		return func() tea.Msg {
			return submittedMsg{handoff: h, values: values, err: reg.ExecSubmit(ctx, h, values)}
		}
	case formEdit:
		l, id := m.list(), m.form.id
		return func() tea.Msg {
			return mutatedMsg{module: l.Module(), verb: "update", err: l.ExecUpdate(ctx, id, values)}
		}
	}
	l := m.list()
	return func() tea.Msg {
		return mutatedMsg{module: l.Module(), verb: "create", err: l.ExecCreate(ctx, values)}
	}
}

func (m Model) handleMutated(msg mutatedMsg) (tea.Model, tea.Cmd) {
	l := m.listFor(msg.module)
	l.FinishMutation(msg.verb, msg.err)
	m.collectNotices()
	m.form.busy = false

	if msg.err != nil {
		m.logger.Warn("save failed", "module", msg.module, "verb", msg.verb, "err", msg.err)
		if m.viewMode == ViewEdit {
			m.form.err = msg.err.Error()
		}
		return m, nil
	}

	if m.viewMode == ViewEdit {
		m.viewMode = m.form.back
		m.form = formState{}
	}
	return m, m.load(l)
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	changed := m.reg.FinishSubmit(msg.handoff, msg.values, msg.err)
	m.collectNotices()
	m.form.busy = false

	if msg.err != nil {
		m.logger.Warn("hand-off failed", "action", msg.handoff.Action, "err", msg.err)
		if m.viewMode == ViewEdit {
			m.form.err = msg.err.Error()
		}
		return m, nil
	}

	if m.viewMode == ViewEdit {
		m.viewMode = m.form.back
		m.form = formState{}
	}
	return m, m.reload(changed...)
}
