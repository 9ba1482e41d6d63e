// ABOUTME: HTTP tests for the web UI against an in-memory database
// ABOUTME: Covers URL seeding, saved views, detail partials and deletes
package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/models"
	"github.com/harperreed/crmgrid/prefs"
)

func setupServer(t *testing.T) (*httptest.Server, *db.Client, *prefs.KVStore) {
	t.Helper()
	database, err := db.OpenDatabase(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	client := db.NewClient(database, "tester")

	store := prefs.NewMemory()
	srv, err := NewServer(client, Options{Prefs: store, Owner: "tester"})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, client, store
}

func get(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := http.PostForm(ts.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDashboard(t *testing.T) {
	ts, client, _ := setupServer(t)
	require.NoError(t, client.Deals.Insert(context.Background(), &models.Deal{DealName: "Big", Stage: models.StageProposal, Amount: 500000}))

	status, body := get(t, ts, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "CRM DASHBOARD")
	assert.Contains(t, body, "/graphs/pipeline.svg")
}

func TestListSeededFromQuery(t *testing.T) {
	ts, client, _ := setupServer(t)
	ctx := context.Background()
	require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: "Ada", Status: models.LeadNew, Owner: "sam"}))
	require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: "Grace", Status: models.LeadQualified, Owner: "sam"}))
	require.NoError(t, client.Leads.Insert(ctx, &models.Lead{LeadName: "Linus", Status: models.LeadNew, Owner: "kim"}))

	status, body := get(t, ts, "/leads?status=new&owner=sam")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Ada")
	assert.NotContains(t, body, "Grace")
	assert.NotContains(t, body, "Linus")
	assert.Contains(t, body, "1 total")

	_, body = get(t, ts, "/leads?q=lin")
	assert.Contains(t, body, "Linus")
	assert.NotContains(t, body, "Ada")
}

func TestListSortAndPaging(t *testing.T) {
	ts, client, _ := setupServer(t)
	ctx := context.Background()
	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		require.NoError(t, client.Accounts.Insert(ctx, &models.Account{AccountName: name, Status: models.AccountActive}))
	}

	_, body := get(t, ts, "/accounts?sort=account_name&dir=desc&size=10")
	c, b, a := strings.Index(body, "Charlie"), strings.Index(body, "Bravo"), strings.Index(body, "Alpha")
	require.True(t, c > 0 && b > 0 && a > 0)
	assert.Less(t, c, b)
	assert.Less(t, b, a)
	assert.Contains(t, body, "▼")

	_, body = get(t, ts, "/accounts?sort=account_name&size=10&page=9")
	assert.Contains(t, body, "Page 1/1", "page is clamped")
}

func TestSavedViewSeedsList(t *testing.T) {
	ts, client, store := setupServer(t)
	ctx := context.Background()
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "urgent", Status: models.TaskOpen, Priority: models.PriorityHigh}))
	require.NoError(t, client.Tasks.Insert(ctx, &models.Task{Title: "later", Status: models.TaskOpen, Priority: models.PriorityLow}))

	view, err := store.SaveView(prefs.SavedView{Module: "tasks", Name: "Hot", Query: map[string]string{"priority": "high"}})
	require.NoError(t, err)

	_, body := get(t, ts, "/tasks?viewId="+view.ID)
	assert.Contains(t, body, "urgent")
	assert.NotContains(t, body, "later")
	assert.Contains(t, body, "Hot")

	_, body = get(t, ts, "/tasks?viewId=missing")
	assert.Contains(t, body, "failed to load view")
	assert.Contains(t, body, "later")
}

func TestDetailPartial(t *testing.T) {
	ts, client, _ := setupServer(t)
	c := models.Contact{ContactName: "Ada", Email: "ada@example.com"}
	require.NoError(t, client.Contacts.Insert(context.Background(), &c))

	status, body := get(t, ts, "/contacts/"+c.ID)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "ada@example.com")
	assert.NotContains(t, body, "<html", "detail is a partial")

	status, _ = get(t, ts, "/contacts/nope")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, ts, "/widgets")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBulkDelete(t *testing.T) {
	ts, client, _ := setupServer(t)
	ctx := context.Background()
	form := url.Values{}
	for _, title := range []string{"a", "b"} {
		task := models.Task{Title: title, Status: models.TaskOpen, Priority: models.PriorityLow}
		require.NoError(t, client.Tasks.Insert(ctx, &task))
		form.Add("id", task.ID)
	}

	status, body := postForm(t, ts, "/tasks/delete", form)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "2 tasks deleted")
	assert.Contains(t, body, "No tasks found")

	status, _ = postForm(t, ts, "/tasks/delete", url.Values{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAccountDeleteRefused(t *testing.T) {
	ts, client, _ := setupServer(t)
	ctx := context.Background()
	acct := models.Account{AccountName: "Acme", Status: models.AccountActive}
	require.NoError(t, client.Accounts.Insert(ctx, &acct))
	require.NoError(t, client.Contacts.Insert(ctx, &models.Contact{ContactName: "Ada", AccountID: &acct.ID}))

	status, body := postForm(t, ts, "/accounts/delete", url.Values{"id": {acct.ID}})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "notice-warn")
	assert.Contains(t, body, "Cannot delete account")
	assert.Contains(t, body, "Acme")
}
