// ABOUTME: Tests for the entity registry, delete hooks and form conversion
// ABOUTME: Runs against an in-memory SQLite backend
package crm

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
)

func setupClient(t *testing.T) *db.Client {
	t.Helper()
	database, err := db.OpenDatabase(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return db.NewClient(database, "tester")
}

func strPtr(s string) *string { return &s }

type orderedDeleter struct {
	name string
	log  *[]string
	next linkedDeleter
}

func (d orderedDeleter) DeleteWhereIn(ctx context.Context, column string, values []string) error {
	*d.log = append(*d.log, d.name)
	return d.next.DeleteWhereIn(ctx, column, values)
}

type orderedLeads struct {
	*db.Table[models.Lead]
	log *[]string
}

func (s orderedLeads) Delete(ctx context.Context, ids ...string) error {
	*s.log = append(*s.log, "leads")
	return s.Table.Delete(ctx, ids...)
}

func TestLeadBulkDeleteCascadesFirst(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)

	var leadIDs []string
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		l := models.Lead{LeadName: name, Status: models.LeadNew}
		require.NoError(t, client.Leads.Insert(ctx, &l))
		leadIDs = append(leadIDs, l.ID)
		require.NoError(t, client.Notifications.Insert(ctx, &models.Notification{Kind: models.NotificationEmail, Subject: "hi", LeadID: strPtr(l.ID)}))
		require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "call", Status: models.TaskOpen, Priority: models.PriorityLow, LeadID: strPtr(l.ID)}))
	}
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "unrelated", Status: models.TaskOpen, Priority: models.PriorityLow}))

	var order []string
	cfg := leadConfig(orderedLeads{Table: client.Leads, log: &order})
	cfg.BeforeDelete = cascadeLeadDelete(
		orderedDeleter{name: "notifications", log: &order, next: client.Notifications},
		orderedDeleter{name: "action_items", log: &order, next: client.Tasks},
		log.New(io.Discard),
	)
	rec := &grid.Recorder{}
	ctl := grid.New(cfg, rec, nil)
	require.NoError(t, ctl.Reload(ctx))

	ctl.SelectAllVisible()
	require.Equal(t, 3, ctl.SelectedCount())

	res, err := ctl.BulkDelete(ctx, grid.DeleteOptions{DeleteLinkedRecords: true})
	require.NoError(t, err)
	assert.Len(t, res.Deleted, 3)
	assert.Equal(t, []string{"notifications", "action_items", "leads"}, order)
	assert.Zero(t, ctl.SelectedCount())
	assert.Empty(t, ctl.Rows())

	notes, err := client.Notifications.Select(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
	tasks, err := client.Tasks.Select(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "unrelated", tasks[0].Title)

	n, _ := rec.Last()
	assert.Equal(t, "3 leads deleted", n.Message)
}

func TestLeadDeleteWithoutCascadeKeepsLinkedRecords(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	r := NewRegistry(client, Options{})

	l := models.Lead{LeadName: "Ada", Status: models.LeadNew}
	require.NoError(t, client.Leads.Insert(ctx, &l))
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "call", Status: models.TaskOpen, Priority: models.PriorityLow, LeadID: strPtr(l.ID)}))
	require.NoError(t, r.Leads.Reload(ctx))

	_, err := r.Leads.Delete(ctx, l.ID, grid.DeleteOptions{})
	require.NoError(t, err)
	tasks, err := client.Tasks.Select(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestAccountGuard(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	rec := &grid.Recorder{}
	r := NewRegistry(client, Options{Notifier: rec})

	linked := models.Account{AccountName: "Acme", Status: models.AccountActive}
	free := models.Account{AccountName: "Globex", Status: models.AccountActive}
	viaLead := models.Account{AccountName: "Initech", Status: models.AccountActive}
	for _, a := range []*models.Account{&linked, &free, &viaLead} {
		require.NoError(t, client.Accounts.Insert(ctx, a))
	}
	require.NoError(t, client.Contacts.Insert(ctx, &models.Contact{ContactName: "Jane", AccountID: strPtr(linked.ID)}))
	require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: "Bob", Status: models.LeadNew, AccountID: strPtr(viaLead.ID)}))
	require.NoError(t, r.Accounts.Reload(ctx))

	_, err := r.Accounts.Delete(ctx, linked.ID, grid.DeleteOptions{})
	require.ErrorIs(t, err, ErrAccountLinked)
	n, _ := rec.Last()
	assert.Equal(t, grid.LevelWarn, n.Level)
	assert.Len(t, r.Accounts.Rows(), 3)

	_, err = r.Accounts.Delete(ctx, viaLead.ID, grid.DeleteOptions{})
	require.ErrorIs(t, err, ErrAccountLinked)

	r.Accounts.SelectAllVisible()
	res, err := r.Accounts.BulkDelete(ctx, grid.DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{free.ID}, res.Deleted)
	assert.Len(t, res.Skipped, 2)
	n, _ = rec.Last()
	assert.Equal(t, "1 account deleted, 2 skipped", n.Message)
	assert.Len(t, r.Accounts.Rows(), 2)
}

func TestContactSearchUsesJoinedCompany(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	r := NewRegistry(client, Options{})

	acme := models.Account{AccountName: "ACME Industries", Status: models.AccountActive}
	require.NoError(t, client.Accounts.Insert(ctx, &acme))
	require.NoError(t, client.Contacts.Insert(ctx, &models.Contact{ContactName: "Jane", AccountID: strPtr(acme.ID)}))
	require.NoError(t, client.Contacts.Insert(ctx, &models.Contact{ContactName: "Wile", CompanyName: "acme"}))
	require.NoError(t, client.Contacts.Insert(ctx, &models.Contact{ContactName: "Road Runner"}))

	l, err := r.List(ModuleContacts)
	require.NoError(t, err)
	require.NoError(t, l.Reload(ctx))

	l.SetSearch("acme")
	rows := l.Rows()
	require.Len(t, rows, 2)
	companies := []string{rows[0].Get("company_name"), rows[1].Get("company_name")}
	assert.ElementsMatch(t, []string{"ACME Industries", "acme"}, companies)

	l.SetSearch("road")
	rows = l.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, Placeholder, rows[0].Get("company_name"))
}

func TestListCreateUpdateThroughForms(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	rec := &grid.Recorder{}
	r := NewRegistry(client, Options{Notifier: rec, Owner: "sam"})

	deals, err := r.List(ModuleDeals)
	require.NoError(t, err)

	require.NoError(t, deals.Create(ctx, map[string]string{"deal_name": "Big one", "amount": "1,234.50", "expected_close": "2026-05-01"}))
	rows := deals.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "USD 1,234.50", rows[0].Get("amount"))
	assert.Equal(t, "2026-05-01", rows[0].Get("expected_close"))
	assert.Equal(t, "sam", rows[0].Get("owner"))

	stage := rows[0].Cells[2]
	assert.Equal(t, "prospecting", stage.Text)
	assert.Equal(t, models.BadgeGray, stage.Badge)

	id := rows[0].ID
	require.NoError(t, deals.Update(ctx, id, map[string]string{"stage": "closed_won"}))
	got, ok := deals.Record(id)
	require.True(t, ok)
	assert.Equal(t, "closed_won", got.(models.Deal).Stage)
	assert.Equal(t, int64(123450), got.(models.Deal).Amount, "partial update leaves other fields")

	vals, err := deals.FormValues(id)
	require.NoError(t, err)
	assert.Equal(t, "1234.50", vals["amount"])
	assert.Equal(t, "2026-05-01", vals["expected_close"])

	err = deals.Update(ctx, id, map[string]string{"stage": "won-ish"})
	require.ErrorIs(t, err, ErrInvalidValue)
	n, _ := rec.Last()
	assert.Equal(t, grid.LevelError, n.Level)

	err = deals.Create(ctx, map[string]string{"amount": "5"})
	require.ErrorIs(t, err, ErrRequired)
}

func TestHandoffConvertLeadToDeal(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	r := NewRegistry(client, Options{})

	lead := models.Lead{LeadName: "Ada", CompanyName: "Analytical", Status: models.LeadQualified}
	require.NoError(t, client.Leads.Insert(ctx, &lead))
	leads, err := r.List(ModuleLeads)
	require.NoError(t, err)
	require.NoError(t, leads.Reload(ctx))

	h, err := leads.Handoff("convert_deal", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, ModuleDeals, h.Target)
	assert.Equal(t, "Analytical deal", h.Initial["deal_name"])

	require.NoError(t, r.Submit(ctx, h, h.Initial))
	deals, err := r.List(ModuleDeals)
	require.NoError(t, err)
	require.Len(t, deals.Rows(), 1)

	got, ok := leads.Record(lead.ID)
	require.True(t, ok)
	assert.Equal(t, models.LeadConverted, got.(models.Lead).Status)

	_, err = leads.Handoff("convert_deal", lead.ID)
	assert.ErrorIs(t, err, grid.ErrActionDisabled)
}

func TestSendEmailRecordsNotification(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	rec := &grid.Recorder{}
	r := NewRegistry(client, Options{Notifier: rec})

	require.NoError(t, r.SendEmail(ctx, map[string]string{"recipient": "ada@example.com", "subject": "Hi"}))
	notes, err := client.Notifications.Select(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationEmail, notes[0].Kind)
	assert.NotNil(t, notes[0].SentAt)

	err = r.SendEmail(ctx, map[string]string{"subject": "no recipient"})
	assert.True(t, errors.Is(err, ErrRequired))
}

func TestUnknownModule(t *testing.T) {
	r := NewRegistry(setupClient(t), Options{})
	_, err := r.List("widgets")
	assert.ErrorIs(t, err, ErrUnknownModule)
	assert.Len(t, r.Lists(), 6)

	f, err := r.Form(ModuleEmail)
	require.NoError(t, err)
	assert.Equal(t, ModuleEmail, f.Module)
}

func TestFormPatch(t *testing.T) {
	p, err := taskForm.Patch(map[string]string{"title": " Call ", "due_date": "2026-02-03 09:30"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Call", p["title"])
	assert.Equal(t, models.TaskOpen, p["status"])
	assert.Nil(t, p["lead_id"])

	partial, err := taskForm.Patch(map[string]string{"priority": "high"}, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"priority": "high"}, partial)

	_, err = taskForm.Patch(map[string]string{"nope": "x"}, true)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = taskForm.Patch(map[string]string{"title": "x", "due_date": "someday"}, false)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = dealForm.Patch(map[string]string{"deal_name": "x", "amount": "-3"}, false)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestExecSubmitThenFinish(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	rec := &grid.Recorder{}
	r := NewRegistry(client, Options{Notifier: rec})

	lead := models.Lead{LeadName: "Grace", CompanyName: "Navy", Status: models.LeadNew}
	require.NoError(t, client.Leads.Insert(ctx, &lead))
	leads, err := r.List(ModuleLeads)
	require.NoError(t, err)
	require.NoError(t, leads.Reload(ctx))

	h, err := leads.Handoff("convert_deal", lead.ID)
	require.NoError(t, err)

	err = r.ExecSubmit(ctx, h, h.Initial)
	require.NoError(t, err)

	deals, err := r.List(ModuleDeals)
	require.NoError(t, err)
	assert.Empty(t, deals.Rows(), "exec leaves controller state alone")

	changed := r.FinishSubmit(h, h.Initial, nil)
	assert.Equal(t, []string{ModuleDeals, ModuleLeads}, changed)
	n, _ := rec.Last()
	assert.Equal(t, grid.LevelSuccess, n.Level)
	assert.Equal(t, "Deal created", n.Message)

	stored, err := client.Leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadConverted, stored.Status)

	email := grid.Handoff{Action: "send_email", Target: ModuleEmail}
	err = r.ExecSubmit(ctx, email, map[string]string{"subject": "missing recipient"})
	require.ErrorIs(t, err, ErrRequired)
	assert.Nil(t, r.FinishSubmit(email, nil, err))
	n, _ = rec.Last()
	assert.Equal(t, grid.LevelError, n.Level)
}

func TestDeleteMissingRecordReportsFailure(t *testing.T) {
	ctx := context.Background()
	client := setupClient(t)
	rec := &grid.Recorder{}
	r := NewRegistry(client, Options{Notifier: rec})

	kept := models.Lead{LeadName: "Ada", Status: models.LeadNew}
	gone := models.Lead{LeadName: "Grace", Status: models.LeadNew}
	require.NoError(t, client.Leads.Insert(ctx, &kept))
	require.NoError(t, client.Leads.Insert(ctx, &gone))

	leads, err := r.List(ModuleLeads)
	require.NoError(t, err)
	require.NoError(t, leads.Reload(ctx))

	res, err := leads.Delete(ctx, []string{"does-not-exist"}, grid.DeleteOptions{})
	require.ErrorIs(t, err, db.ErrNotFound)
	assert.Empty(t, res.Deleted)
	n, _ := rec.Last()
	assert.Equal(t, grid.LevelError, n.Level)

	// stale row: removed behind the list's back
	require.NoError(t, client.Leads.Delete(ctx, gone.ID))
	_, err = leads.Delete(ctx, []string{gone.ID}, grid.DeleteOptions{})
	require.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, leads.Reload(ctx))
	res, err = leads.Delete(ctx, []string{kept.ID, "does-not-exist"}, grid.DeleteOptions{Bulk: true})
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, res.Deleted)
	assert.Equal(t, []string{"does-not-exist"}, res.Skipped)
	n, _ = rec.Last()
	assert.Equal(t, "1 lead deleted, 1 skipped", n.Message)

	res, err = leads.Delete(ctx, []string{"x", "y"}, grid.DeleteOptions{Bulk: true})
	require.NoError(t, err)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"x", "y"}, res.Skipped)
	n, _ = rec.Last()
	assert.Equal(t, grid.LevelWarn, n.Level)
}
