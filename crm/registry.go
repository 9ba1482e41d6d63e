// ABOUTME: Registry of list controllers for the six CRM entities
// ABOUTME: Binds each entity config to its backend table, hooks and preferences
package crm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
)

// ErrUnknownModule is returned for a module name outside Modules.
var ErrUnknownModule = errors.New("unknown module")

// Options configures a Registry. Every field may be left zero.
type Options struct {
	Notifier grid.Notifier
	Prefs    grid.Preferences
	Owner    string // default owner on create forms
	PageSize int
	Logger   *log.Logger
}

// Registry owns one controller per entity. Like the controllers, it is
// meant for a single goroutine; build one per TUI session or request.
type Registry struct {
	client *db.Client
	notify grid.Notifier
	logger *log.Logger

	Meetings *grid.Controller[models.Meeting]
	Contacts *grid.Controller[models.Contact]
	Leads    *grid.Controller[models.Lead]
	Accounts *grid.Controller[models.Account]
	Deals    *grid.Controller[models.Deal]
	Tasks    *grid.Controller[models.Task]

	lists map[string]List
}

// NewRegistry builds the controllers over client.
func NewRegistry(client *db.Client, opts Options) *Registry {
	notify := opts.Notifier
	if notify == nil {
		notify = grid.NotifierFunc(func(grid.Notice) {})
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := &Registry{client: client, notify: notify, logger: logger}

	meetings := meetingConfig(client.Meetings)
	contacts := contactConfig(client.Contacts)
	leads := leadConfig(client.Leads)
	leads.BeforeDelete = cascadeLeadDelete(client.Notifications, client.Tasks, logger)
	accounts := accountConfig(client.Accounts)
	accounts.BeforeDelete = guardAccountDelete(client.Contacts, client.Leads)
	deals := dealConfig(client.Deals)
	tasks := taskConfig(client.Tasks)

	if opts.PageSize > 0 {
		meetings.PageSize, contacts.PageSize, leads.PageSize = opts.PageSize, opts.PageSize, opts.PageSize
		accounts.PageSize, deals.PageSize, tasks.PageSize = opts.PageSize, opts.PageSize, opts.PageSize
	}

	r.Meetings = grid.New(meetings, notify, opts.Prefs)
	r.Contacts = grid.New(contacts, notify, opts.Prefs)
	r.Leads = grid.New(leads, notify, opts.Prefs)
	r.Accounts = grid.New(accounts, notify, opts.Prefs)
	r.Deals = grid.New(deals, notify, opts.Prefs)
	r.Tasks = grid.New(tasks, notify, opts.Prefs)

	r.lists = map[string]List{
		ModuleMeetings: newList(r.Meetings, ownerDefault(meetingForm, opts.Owner)),
		ModuleContacts: newList(r.Contacts, ownerDefault(contactForm, opts.Owner)),
		ModuleLeads:    newList(r.Leads, ownerDefault(leadForm, opts.Owner)),
		ModuleAccounts: newList(r.Accounts, ownerDefault(accountForm, opts.Owner)),
		ModuleDeals:    newList(r.Deals, ownerDefault(dealForm, opts.Owner)),
		ModuleTasks:    newList(r.Tasks, ownerDefault(taskForm, opts.Owner)),
	}
	return r
}

// Client returns the backend client.
func (r *Registry) Client() *db.Client { return r.client }

// List returns the list view of module.
func (r *Registry) List(module string) (List, error) {
	l, ok := r.lists[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, module)
	}
	return l, nil
}

// Lists returns every list view in tab order.
func (r *Registry) Lists() []List {
	out := make([]List, 0, len(Modules))
	for _, m := range Modules {
		out = append(out, r.lists[m])
	}
	return out
}

// Form returns the create form of a module, including the email composer.
func (r *Registry) Form(module string) (Form, error) {
	if module == ModuleEmail {
		return EmailForm, nil
	}
	l, err := r.List(module)
	if err != nil {
		return Form{}, err
	}
	return l.Form(), nil
}

// ReloadAll fetches every entity, stopping at the first failure.
func (r *Registry) ReloadAll(ctx context.Context) error {
	for _, l := range r.Lists() {
		if err := l.Reload(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SendEmail records an outgoing email as a notification of kind email.
func (r *Registry) SendEmail(ctx context.Context, values map[string]string) error {
	err := r.execEmail(ctx, values)
	r.finishEmail(values, err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (r *Registry) execEmail(ctx context.Context, values map[string]string) error {
	patch, err := EmailForm.Patch(values, false)
	if err != nil {
		return err
	}
	n, err := decode[models.Notification](patch)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	n.Kind = models.NotificationEmail
	n.SentAt = &now
	return r.client.Notifications.Insert(ctx, &n)
}

func (r *Registry) finishEmail(values map[string]string, err error) {
	if err != nil {
		r.notify.Notify(grid.Notice{Level: grid.LevelError, Message: "Failed to send email: " + err.Error()})
		return
	}
	r.notify.Notify(grid.Notice{Level: grid.LevelSuccess, Message: "Email sent to " + values["recipient"]})
	r.logger.Info("email recorded", "recipient", values["recipient"])
}

// Submit runs the create form of a hand-off target and then any follow-up
// on the source record: a lead converted to a deal is marked converted.
func (r *Registry) Submit(ctx context.Context, h grid.Handoff, values map[string]string) error {
	if h.Target == ModuleEmail {
		return r.SendEmail(ctx, values)
	}
	target, err := r.List(h.Target)
	if err != nil {
		return err
	}
	if err := target.Create(ctx, values); err != nil {
		return err
	}
	if h.Action == "convert_deal" && h.SourceID != "" {
		if err := r.Leads.Update(ctx, h.SourceID, map[string]any{"status": models.LeadConverted}); err != nil {
			return err
		}
	}
	return nil
}

// ExecSubmit performs the backend writes of Submit without touching
// controller state. Safe off the UI goroutine; pair with FinishSubmit.
func (r *Registry) ExecSubmit(ctx context.Context, h grid.Handoff, values map[string]string) error {
	if h.Target == ModuleEmail {
		return r.execEmail(ctx, values)
	}
	target, err := r.List(h.Target)
	if err != nil {
		return err
	}
	if err := target.ExecCreate(ctx, values); err != nil {
		return err
	}
	if h.Action == "convert_deal" && h.SourceID != "" {
		return r.client.Leads.Update(ctx, h.SourceID, map[string]any{"status": models.LeadConverted})
	}
	return nil
}

// FinishSubmit reports an ExecSubmit outcome and returns the modules whose
// rows changed and need a reload.
func (r *Registry) FinishSubmit(h grid.Handoff, values map[string]string, err error) []string {
	if h.Target == ModuleEmail {
		r.finishEmail(values, err)
		return nil
	}
	target, lerr := r.List(h.Target)
	if lerr != nil {
		r.notify.Notify(grid.Notice{Level: grid.LevelError, Message: lerr.Error()})
		return nil
	}
	target.FinishMutation("create", err)
	if err != nil {
		return nil
	}
	changed := []string{h.Target}
	if h.Action == "convert_deal" && h.SourceID != "" {
		changed = append(changed, ModuleLeads)
	}
	return changed
}
