// ABOUTME: Tests for the MCP tool, resource and prompt handlers
// ABOUTME: Handlers are called directly against an in-memory database
package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
	"github.com/harperreed/crmgrid/prefs"
)

func setupHandlers(t *testing.T) (*RecordHandlers, *db.Client, *prefs.KVStore) {
	t.Helper()
	database, err := db.OpenDatabase(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	client := db.NewClient(database, "tester")
	store := prefs.NewMemory()
	return NewRecordHandlers(client, Options{Prefs: store, Owner: "tester"}), client, store
}

func TestListRecords(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()
	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: name, Status: models.LeadNew, Owner: "sam"}))
	}
	require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: "Delta", Status: models.LeadQualified, Owner: "kim"}))

	_, out, err := h.ListRecords(ctx, nil, ListRecordsInput{
		Module:  "leads",
		Filters: map[string]string{"status": "new"},
		Sort:    "lead_name",
		Dir:     "desc",
		Size:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 10, out.PageSize)
	require.Len(t, out.Records, 3)
	assert.Equal(t, "Charlie", out.Records[0]["lead_name"])
	assert.Equal(t, "Alpha", out.Records[2]["lead_name"])
	assert.NotEmpty(t, out.Records[0]["id"])

	_, out, err = h.ListRecords(ctx, nil, ListRecordsInput{Module: "leads", Query: "del"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)

	_, out, err = h.ListRecords(ctx, nil, ListRecordsInput{Module: "leads", Size: 10, Page: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page, "page is clamped")
}

func TestListRecordsErrors(t *testing.T) {
	h, _, _ := setupHandlers(t)

	_, _, err := h.ListRecords(context.Background(), nil, ListRecordsInput{})
	assert.Error(t, err)

	_, _, err = h.ListRecords(context.Background(), nil, ListRecordsInput{Module: "widgets"})
	assert.Error(t, err)
}

func TestListRecordsSavedView(t *testing.T) {
	h, client, store := setupHandlers(t)
	ctx := context.Background()
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "urgent", Status: models.TaskOpen, Priority: models.PriorityHigh}))
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "later", Status: models.TaskOpen, Priority: models.PriorityLow}))

	view, err := store.SaveView(prefs.SavedView{Module: "tasks", Name: "Hot", Query: map[string]string{"priority": "high"}})
	require.NoError(t, err)

	_, out, err := h.ListRecords(ctx, nil, ListRecordsInput{Module: "tasks", ViewID: view.ID})
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "urgent", out.Records[0]["title"])

	_, out, err = h.ListRecords(ctx, nil, ListRecordsInput{Module: "tasks", ViewID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	require.NotEmpty(t, out.Notices)
	assert.Contains(t, out.Notices[0], "failed to load view")
}

func TestGetRecord(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()
	lead := models.Lead{LeadName: "Ada", CompanyName: "Acme", Status: models.LeadNew}
	require.NoError(t, client.Leads.Insert(ctx, &lead))

	_, out, err := h.GetRecord(ctx, nil, GetRecordInput{Module: "leads", ID: lead.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out.Record["lead_name"])

	enabled := map[string]bool{}
	for _, a := range out.Actions {
		enabled[a.Key] = a.Enabled
	}
	assert.False(t, enabled["send_email"], "no email on the lead")
	assert.True(t, enabled["convert_deal"])

	_, _, err = h.GetRecord(ctx, nil, GetRecordInput{Module: "leads", ID: "nope"})
	assert.Error(t, err)
}

func TestCreateAndUpdateRecord(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()

	_, out, err := h.CreateRecord(ctx, nil, CreateRecordInput{
		Module: "tasks",
		Values: map[string]string{"title": "Call Ada", "priority": "high"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tasks", out.Module)

	tasks, err := client.Tasks.Select(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskOpen, tasks[0].Status)
	assert.Equal(t, "tester", tasks[0].Owner)

	_, _, err = h.UpdateRecord(ctx, nil, UpdateRecordInput{
		Module: "tasks",
		ID:     tasks[0].ID,
		Values: map[string]string{"status": models.TaskDone},
	})
	require.NoError(t, err)

	got, err := client.Tasks.Get(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskDone, got.Status)
	assert.Equal(t, "Call Ada", got.Title)

	_, _, err = h.CreateRecord(ctx, nil, CreateRecordInput{Module: "tasks", Values: map[string]string{}})
	assert.Error(t, err, "title is required")

	_, _, err = h.UpdateRecord(ctx, nil, UpdateRecordInput{Module: "tasks", ID: "nope", Values: map[string]string{"title": "x"}})
	assert.Error(t, err)
}

func TestDeleteRecords(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()

	lead := models.Lead{LeadName: "Ada", Status: models.LeadNew}
	require.NoError(t, client.Leads.Insert(ctx, &lead))
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "follow up", Status: models.TaskOpen, Priority: models.PriorityLow, LeadID: &lead.ID}))

	_, out, err := h.DeleteRecords(ctx, nil, DeleteRecordsInput{Module: "leads", IDs: []string{lead.ID}, DeleteLinked: true})
	require.NoError(t, err)
	assert.Equal(t, []string{lead.ID}, out.Deleted)

	tasks, err := client.Tasks.Select(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "linked tasks are deleted with the lead")
}

func TestDeleteLinkedAccount(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()

	linked := models.Account{AccountName: "Acme", Status: models.AccountActive}
	free := models.Account{AccountName: "Globex", Status: models.AccountActive}
	require.NoError(t, client.Accounts.Insert(ctx, &linked))
	require.NoError(t, client.Accounts.Insert(ctx, &free))
	require.NoError(t, client.Contacts.Insert(ctx, &models.Contact{ContactName: "Ada", AccountID: &linked.ID}))

	_, _, err := h.DeleteRecords(ctx, nil, DeleteRecordsInput{Module: "accounts", IDs: []string{linked.ID}})
	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrRefused)

	_, out, err := h.DeleteRecords(ctx, nil, DeleteRecordsInput{Module: "accounts", IDs: []string{linked.ID, free.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{free.ID}, out.Deleted)
	assert.Equal(t, []string{linked.ID}, out.Skipped)
}

func TestRunActionConvertsLead(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()
	lead := models.Lead{LeadName: "Ada", CompanyName: "Acme", Status: models.LeadQualified}
	require.NoError(t, client.Leads.Insert(ctx, &lead))

	_, out, err := h.RunAction(ctx, nil, RunActionInput{
		Module: "leads",
		ID:     lead.ID,
		Action: "convert_deal",
		Values: map[string]string{"amount": "1200"},
	})
	require.NoError(t, err)
	assert.Equal(t, "deals", out.Target)
	assert.Equal(t, "Acme deal", out.Values["deal_name"])

	deals, err := client.Deals.Select(ctx)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "Acme deal", deals[0].DealName)

	got, err := client.Leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadConverted, got.Status)

	_, _, err = h.RunAction(ctx, nil, RunActionInput{Module: "leads", ID: lead.ID, Action: "convert_deal"})
	assert.ErrorIs(t, err, grid.ErrActionDisabled)
}

func TestGenerateGraph(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()
	require.NoError(t, client.Deals.Insert(ctx, &models.Deal{DealName: "Big", Stage: models.StageProposal, Amount: 500000}))

	v := NewVizHandlers(h.client)
	_, out, err := v.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "graph")
	assert.Contains(t, out.DOTSource, "Big")
	assert.Positive(t, out.NodeCount)

	_, _, err = v.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "contact"})
	assert.Error(t, err)

	_, _, err = v.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "bogus"})
	assert.Error(t, err)
}

func TestReadResource(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()
	c := models.Contact{ContactName: "Ada", Email: "ada@example.com"}
	require.NoError(t, client.Contacts.Insert(ctx, &c))

	r := NewResourceHandlers(h)
	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return r.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("crm://contacts")
	require.NoError(t, err)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "ada@example.com", rows[0]["email"])

	res, err = read("crm://contacts/" + c.ID)
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Ada")

	res, err = read("crm://pipeline")
	require.NoError(t, err)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	_, err = read("crm://contacts/nope")
	assert.Error(t, err)
	_, err = read("http://contacts")
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	h, client, _ := setupHandlers(t)
	ctx := context.Background()
	lead := models.Lead{LeadName: "Ada", CompanyName: "Acme", Status: models.LeadNew, Owner: "sam"}
	require.NoError(t, client.Leads.Insert(ctx, &lead))
	require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: "Done", Status: models.LeadConverted, Owner: "sam"}))

	p := NewPromptHandlers(h)
	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return p.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name, Arguments: args}})
	}
	text := func(res *mcp.GetPromptResult) string {
		return res.Messages[0].Content.(*mcp.TextContent).Text
	}

	res, err := get("record-summary", map[string]string{"module": "leads", "id": lead.ID})
	require.NoError(t, err)
	assert.Contains(t, text(res), "Name: Ada")
	assert.Contains(t, text(res), "Convert to deal")

	res, err = get("lead-follow-up", map[string]string{"owner": "sam"})
	require.NoError(t, err)
	assert.Contains(t, text(res), "Ada")
	assert.NotContains(t, text(res), "Done")

	_, err = get("pipeline-review", nil)
	require.NoError(t, err)

	_, err = get("record-summary", nil)
	assert.Error(t, err)
	_, err = get("nope", nil)
	assert.Error(t, err)
}

func TestNewServer(t *testing.T) {
	_, client, store := setupHandlers(t)
	assert.NotNil(t, NewServer(client, Options{Prefs: store}))
}
