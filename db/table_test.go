// ABOUTME: Tests for the generic table client
// ABOUTME: Covers insert/select with joins, partial updates, batched deletes and counts
package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmgrid/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func strPtr(s string) *string { return &s }

func TestInsertAssignsIDAndAudit(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	acct := &models.Account{AccountName: "Acme Corp", Status: models.AccountActive}
	require.NoError(t, client.Accounts.Insert(ctx, acct))

	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, "alice", acct.CreatedBy)
	assert.False(t, acct.CreatedTime.IsZero())

	got, err := client.Accounts.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.AccountName)
	assert.Equal(t, "alice", got.ModifiedBy)
}

func TestSelectJoinsAccountName(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	acct := &models.Account{AccountName: "Acme Corp", Status: models.AccountActive}
	require.NoError(t, client.Accounts.Insert(ctx, acct))

	linked := &models.Contact{ContactName: "Jane Doe", AccountID: &acct.ID}
	orphan := &models.Contact{ContactName: "Bob Roe", CompanyName: "Typed Inc", AccountID: strPtr("missing")}
	require.NoError(t, client.Contacts.Insert(ctx, linked))
	require.NoError(t, client.Contacts.Insert(ctx, orphan))

	contacts, err := client.Contacts.Select(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	byName := map[string]models.Contact{}
	for _, c := range contacts {
		byName[c.ContactName] = c
	}
	assert.Equal(t, "Acme Corp", byName["Jane Doe"].Company())
	assert.Equal(t, "Typed Inc", byName["Bob Roe"].Company())
}

func TestNullableTimesRoundTrip(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	start := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	withTime := &models.Meeting{Title: "Kickoff", Status: models.MeetingScheduled, StartTime: &start}
	without := &models.Meeting{Title: "TBD", Status: models.MeetingScheduled}
	require.NoError(t, client.Meetings.Insert(ctx, withTime))
	require.NoError(t, client.Meetings.Insert(ctx, without))

	got, err := client.Meetings.Get(ctx, withTime.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartTime)
	assert.True(t, start.Equal(*got.StartTime))

	got, err = client.Meetings.Get(ctx, without.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartTime)
	assert.Nil(t, got.LeadID)
}

func TestUpdatePartial(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	lead := &models.Lead{LeadName: "Jane", Status: models.LeadNew, Owner: "alice"}
	require.NoError(t, client.Leads.Insert(ctx, lead))

	require.NoError(t, client.Leads.Update(ctx, lead.ID, map[string]any{"status": models.LeadQualified}))

	got, err := client.Leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadQualified, got.Status)
	assert.Equal(t, "Jane", got.LeadName)
	assert.Equal(t, "alice", got.Owner)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	lead := &models.Lead{LeadName: "Jane", Status: models.LeadNew}
	require.NoError(t, client.Leads.Insert(ctx, lead))

	err := client.Leads.Update(ctx, lead.ID, map[string]any{"id": "x"})
	assert.True(t, errors.Is(err, ErrUnknownField))

	err = client.Leads.Update(ctx, lead.ID, map[string]any{})
	assert.True(t, errors.Is(err, ErrEmptyPatch))
}

func TestUpdateMissingRecord(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")

	err := client.Leads.Update(context.Background(), "nope", map[string]any{"status": models.LeadNew})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveFullWrite(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	deal := &models.Deal{DealName: "Renewal", Stage: models.StageProposal, Amount: 500000}
	require.NoError(t, client.Deals.Insert(ctx, deal))
	assert.Equal(t, "USD", deal.Currency)

	deal.Stage = models.StageClosedWon
	deal.Amount = 750000
	require.NoError(t, client.Deals.Save(ctx, deal))

	got, err := client.Deals.Get(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageClosedWon, got.Stage)
	assert.Equal(t, int64(750000), got.Amount)
}

func TestDeleteBatch(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		task := &models.Task{Title: name, Status: models.TaskOpen, Priority: models.PriorityLow}
		require.NoError(t, client.Tasks.Insert(ctx, task))
		ids = append(ids, task.ID)
	}

	require.NoError(t, client.Tasks.Delete(ctx, ids[0], ids[2]))

	tasks, err := client.Tasks.Select(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, ids[1], tasks[0].ID)

	require.NoError(t, client.Tasks.Delete(ctx))

	err = client.Tasks.Delete(ctx, ids[0])
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteAndCountWhereIn(t *testing.T) {
	client := NewClient(setupTestDB(t), "alice")
	ctx := context.Background()

	leadA, leadB := "lead-a", "lead-b"
	for _, id := range []*string{&leadA, &leadA, &leadB} {
		n := &models.Notification{Kind: models.NotificationEmail, Subject: "hi", LeadID: id}
		require.NoError(t, client.Notifications.Insert(ctx, n))
	}

	counts, err := client.Notifications.CountWhereIn(ctx, "lead_id", []string{leadA, leadB, "lead-c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{leadA: 2, leadB: 1}, counts)

	require.NoError(t, client.Notifications.DeleteWhereIn(ctx, "lead_id", []string{leadA}))

	rest, err := client.Notifications.Select(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, leadB, *rest[0].LeadID)

	_, err = client.Notifications.CountWhereIn(ctx, "bogus", []string{leadA})
	assert.True(t, errors.Is(err, ErrUnknownField))
}
