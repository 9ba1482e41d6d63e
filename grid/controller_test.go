// ABOUTME: Tests for the generic list controller
// ABOUTME: Uses an in-memory source to check search, sort, paging and deletes
package grid

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/crmgrid/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID      string
	Name    string
	Status  string
	Company string
	Amount  int64
	When    *time.Time
}

func (i item) RecordID() string { return i.ID }

type fakeSource struct {
	rows        []item
	selectErr   error
	deleteErr   error
	selects     int
	deleteCalls [][]string
}

func (f *fakeSource) Select(ctx context.Context) ([]item, error) {
	f.selects++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return append([]item(nil), f.rows...), nil
}

func (f *fakeSource) Insert(ctx context.Context, rec *item) error {
	rec.ID = fmt.Sprintf("new-%d", len(f.rows))
	f.rows = append(f.rows, *rec)
	return nil
}

func (f *fakeSource) Update(ctx context.Context, id string, patch map[string]any) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			if name, ok := patch["name"].(string); ok {
				f.rows[i].Name = name
			}
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeSource) Delete(ctx context.Context, ids ...string) error {
	f.deleteCalls = append(f.deleteCalls, ids)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	gone := map[string]bool{}
	for _, id := range ids {
		gone[id] = true
	}
	var keep []item
	for _, r := range f.rows {
		if !gone[r.ID] {
			keep = append(keep, r)
		}
	}
	f.rows = keep
	return nil
}

func itemConfig(src Source[item]) Config[item] {
	return Config[item]{
		Module:   "items",
		Singular: "item",
		Source:   src,
		Columns: []Column[item]{
			{Key: "name", Label: "Name", Value: func(i item) any { return i.Name }},
			{Key: "status", Label: "Status", Value: func(i item) any { return i.Status }},
			{Key: "company_name", Label: "Company", Value: func(i item) any { return i.Company }},
			{Key: "amount", Label: "Amount", Kind: KindNumber, Value: func(i item) any { return i.Amount }},
			{Key: "when", Label: "When", Kind: KindDate, Value: func(i item) any { return i.When }, Hidden: true},
		},
		SearchFields: []string{"name", "company_name"},
		Filters: []Filter[item]{
			{Key: "status", Label: "Status", Options: []string{"scheduled", "completed"}},
			{Key: "company_name", Label: "Company"},
		},
		DateField: "when",
		Actions: []Action[item]{
			{Key: "create_task", Label: "Create task", Target: "tasks", Prefill: func(i item) map[string]string {
				return map[string]string{"lead_id": i.ID}
			}},
			{Key: "convert", Label: "Convert", Target: "deals", Enabled: func(i item) bool { return i.Status != "completed" }},
		},
	}
}

func newItems(n int) []item {
	rows := make([]item, n)
	for i := range rows {
		rows[i] = item{ID: fmt.Sprintf("id-%02d", i), Name: fmt.Sprintf("Item %02d", i), Status: "scheduled"}
	}
	return rows
}

func loaded(t *testing.T, rows []item) (*Controller[item], *fakeSource, *Recorder) {
	t.Helper()
	src := &fakeSource{rows: rows}
	rec := &Recorder{}
	c := New(itemConfig(src), rec, nil)
	require.NoError(t, c.Reload(context.Background()))
	return c, src, rec
}

func TestStatusFilterNarrowsToOnePage(t *testing.T) {
	rows := newItems(30)
	for i := 0; i < 10; i++ {
		rows[i*3].Status = "completed"
	}
	c, _, _ := loaded(t, rows)
	assert.Equal(t, 25, c.PageSize())
	assert.Equal(t, 2, c.PageCount())

	c.SetFilter("status", "completed")
	assert.Len(t, c.Page(), 10)
	assert.Equal(t, 1, c.PageCount())
	for _, r := range c.Page() {
		assert.Equal(t, "completed", r.Status)
	}
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	c, _, _ := loaded(t, []item{
		{ID: "1", Name: "Jane", Company: "Acme Corp"},
		{ID: "2", Name: "John", Company: "Globex"},
		{ID: "3", Name: "ACME liaison"},
	})

	c.SetSearch("acme")
	got := c.Filtered()
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	c.SetSearch("  ")
	assert.Len(t, c.Filtered(), 3, "blank search matches everything")
}

func TestSearchAndFiltersCombine(t *testing.T) {
	c, _, _ := loaded(t, []item{
		{ID: "1", Name: "Acme kickoff", Status: "completed"},
		{ID: "2", Name: "Acme review", Status: "scheduled"},
		{ID: "3", Name: "Globex", Status: "completed"},
	})
	c.SetSearch("acme")
	c.SetFilter("status", "completed")
	got := c.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	c.ClearFilters()
	assert.Len(t, c.Filtered(), 3)
}

func TestDerivedFilterOptions(t *testing.T) {
	c, _, _ := loaded(t, []item{
		{ID: "1", Company: "globex"},
		{ID: "2", Company: "Acme"},
		{ID: "3", Company: "Acme"},
		{ID: "4"},
	})
	assert.Equal(t, []string{"Acme", "globex"}, c.FilterOptions("company_name"))
	assert.Equal(t, []string{"scheduled", "completed"}, c.FilterOptions("status"))
	assert.Nil(t, c.FilterOptions("nope"))

	assert.Equal(t, "scheduled", c.CycleFilter("status"))
	assert.Equal(t, "completed", c.CycleFilter("status"))
	assert.Equal(t, "", c.CycleFilter("status"))
}

func TestDateRangeExcludesUndated(t *testing.T) {
	day := func(d int) *time.Time {
		t := time.Date(2026, 3, d, 12, 0, 0, 0, time.Local)
		return &t
	}
	c, _, _ := loaded(t, []item{
		{ID: "1", When: day(1)},
		{ID: "2", When: day(10)},
		{ID: "3"},
	})
	c.SetDateRange(*day(5), time.Time{})
	got := c.Filtered()
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestToggleSortCycles(t *testing.T) {
	c, _, _ := loaded(t, []item{
		{ID: "1", Name: "beta", Amount: 100},
		{ID: "2", Name: "Alpha", Amount: 20},
		{ID: "3", Name: "gamma", Amount: 3},
	})
	ids := func() []string {
		var out []string
		for _, r := range c.Filtered() {
			out = append(out, r.ID)
		}
		return out
	}

	c.ToggleSort("name")
	_, dir := c.Sort()
	assert.Equal(t, SortAsc, dir)
	assert.Equal(t, []string{"2", "1", "3"}, ids(), "collation ignores case")

	c.ToggleSort("name")
	_, dir = c.Sort()
	assert.Equal(t, SortDesc, dir)
	assert.Equal(t, []string{"3", "1", "2"}, ids())

	c.ToggleSort("name")
	_, dir = c.Sort()
	assert.Equal(t, SortAsc, dir)

	c.ToggleSort("amount")
	key, dir := c.Sort()
	assert.Equal(t, "amount", key)
	assert.Equal(t, SortAsc, dir)
	assert.Equal(t, []string{"3", "2", "1"}, ids(), "numbers compare numerically")

	c.ToggleSort("unknown")
	key, _ = c.Sort()
	assert.Equal(t, "amount", key)
}

func TestDateSortTreatsNilAsZero(t *testing.T) {
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, _, _ := loaded(t, []item{
		{ID: "1", When: &when},
		{ID: "2"},
	})
	c.ToggleSort("when")
	got := c.Filtered()
	assert.Equal(t, "2", got[0].ID)
}

func TestStateChangesResetPage(t *testing.T) {
	c, _, _ := loaded(t, newItems(60))
	changes := []func(){
		func() { c.SetSearch("Item") },
		func() { c.SetFilter("status", "scheduled") },
		func() { c.ToggleSort("name") },
		func() { c.SetPageSize(10) },
		func() { c.SetDateRange(time.Time{}, time.Time{}) },
	}
	for i, change := range changes {
		c.SetPage(2)
		require.Equal(t, 2, c.CurrentPage())
		change()
		assert.Equal(t, 1, c.CurrentPage(), "change %d", i)
	}
}

func TestPagination(t *testing.T) {
	c, _, _ := loaded(t, newItems(60))
	assert.Equal(t, 3, c.PageCount())

	c.SetPage(10)
	assert.Equal(t, 3, c.CurrentPage())
	assert.Len(t, c.Page(), 10)
	assert.Equal(t, "id-50", c.Page()[0].ID)

	c.SetPage(-1)
	assert.Equal(t, 1, c.CurrentPage())

	c.StepPageSize(1)
	assert.Equal(t, 50, c.PageSize())
	c.StepPageSize(5)
	assert.Equal(t, 100, c.PageSize())
	c.StepPageSize(-9)
	assert.Equal(t, 10, c.PageSize())

	c.SetSearch("no such thing")
	assert.Equal(t, 1, c.PageCount())
	assert.Empty(t, c.Page())
}

func TestSelectAllIsCapped(t *testing.T) {
	c, _, _ := loaded(t, newItems(120))
	c.SetPageSize(100)

	c.SelectAllVisible()
	assert.Equal(t, SelectAllCap, c.SelectedCount())
	assert.True(t, c.SelectionCapped())
	assert.True(t, c.IsAllSelected(), "the capped rows count as the whole page")

	c.ClearSelection()
	c.SetPageSize(25)
	c.SelectAllVisible()
	assert.Equal(t, 25, c.SelectedCount())
	assert.False(t, c.SelectionCapped())
	assert.True(t, c.IsAllSelected())

	c.SelectAllVisible()
	assert.Zero(t, c.SelectedCount(), "select-all on a full page deselects it")
}

func TestSelectAllTogglesPastTheCap(t *testing.T) {
	c, _, _ := loaded(t, newItems(100))
	c.SetPageSize(100)

	c.SelectAllVisible()
	require.Equal(t, SelectAllCap, c.SelectedCount())

	c.SelectAllVisible()
	assert.Zero(t, c.SelectedCount(), "second press clears the capped page")
	assert.False(t, c.SelectionCapped())
	assert.False(t, c.IsAllSelected())

	c.SelectAllVisible()
	c.ToggleSelected("id-00")
	assert.False(t, c.IsAllSelected())
	c.SelectAllVisible()
	assert.Equal(t, SelectAllCap, c.SelectedCount(), "a gap in the capped rows selects again")
}

func TestIsAllSelectedEmptyPage(t *testing.T) {
	c, _, _ := loaded(t, nil)
	assert.False(t, c.IsAllSelected())
}

func TestToggleSelected(t *testing.T) {
	c, _, _ := loaded(t, newItems(3))
	c.ToggleSelected("id-01")
	assert.True(t, c.IsSelected("id-01"))
	assert.Equal(t, []string{"id-01"}, c.Selected())
	c.ToggleSelected("id-01")
	assert.False(t, c.IsSelected("id-01"))
}

func TestBulkDeleteSuccessClearsSelection(t *testing.T) {
	c, src, rec := loaded(t, newItems(5))
	c.ToggleSelected("id-01")
	c.ToggleSelected("id-03")

	res, err := c.BulkDelete(context.Background(), DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-01", "id-03"}, res.Deleted)
	require.Len(t, src.deleteCalls, 1, "one batched call")
	assert.Zero(t, c.SelectedCount())
	assert.Len(t, c.Rows(), 3, "reloaded after delete")

	n, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, LevelSuccess, n.Level)
	assert.Equal(t, "2 items deleted", n.Message)
}

func TestBulkDeleteFailureKeepsSelection(t *testing.T) {
	c, src, rec := loaded(t, newItems(5))
	c.ToggleSelected("id-01")
	c.ToggleSelected("id-02")
	src.deleteErr = errors.New("backend down")

	_, err := c.BulkDelete(context.Background(), DeleteOptions{})
	require.Error(t, err)
	assert.Equal(t, 2, c.SelectedCount())

	notices := rec.Drain()
	var errs int
	for _, n := range notices {
		if n.Level == LevelError {
			errs++
			assert.Contains(t, n.Message, "backend down")
		}
	}
	assert.Equal(t, 1, errs)
}

func TestBeforeDeleteSkipsAndRefuses(t *testing.T) {
	src := &fakeSource{rows: newItems(3)}
	rec := &Recorder{}
	cfg := itemConfig(src)
	cfg.BeforeDelete = func(ctx context.Context, ids []string, opts DeleteOptions) ([]string, error) {
		var ok []string
		for _, id := range ids {
			if id == "id-00" {
				if !opts.Bulk {
					return nil, fmt.Errorf("item is linked: %w", ErrRefused)
				}
				continue
			}
			ok = append(ok, id)
		}
		return ok, nil
	}
	c := New(cfg, rec, nil)
	require.NoError(t, c.Reload(context.Background()))

	_, err := c.Delete(context.Background(), "id-00", DeleteOptions{})
	require.ErrorIs(t, err, ErrRefused)
	assert.Empty(t, src.deleteCalls, "refusal happens before any delete call")
	n, _ := rec.Last()
	assert.Equal(t, LevelWarn, n.Level)

	for _, id := range []string{"id-00", "id-01", "id-02"} {
		c.ToggleSelected(id)
	}
	res, err := c.BulkDelete(context.Background(), DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-00"}, res.Skipped)
	n, _ = rec.Last()
	assert.Equal(t, "2 items deleted, 1 skipped", n.Message)
}

func TestReloadFailureKeepsRows(t *testing.T) {
	c, src, rec := loaded(t, newItems(4))
	src.selectErr = errors.New("timeout")

	err := c.Reload(context.Background())
	require.Error(t, err)
	assert.Len(t, c.Rows(), 4)
	assert.False(t, c.Loading())
	n, _ := rec.Last()
	assert.Equal(t, LevelError, n.Level)
}

func TestCreateAndUpdateReload(t *testing.T) {
	c, src, rec := loaded(t, nil)
	require.NoError(t, c.Create(context.Background(), &item{Name: "fresh"}))
	assert.Len(t, c.Rows(), 1)
	assert.Equal(t, 2, src.selects)
	n, _ := rec.Last()
	assert.Equal(t, "Item created", n.Message)

	id := c.Rows()[0].ID
	require.NoError(t, c.Update(context.Background(), id, map[string]any{"name": "renamed"}))
	got, ok := c.Find(id)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)

	err := c.Update(context.Background(), "missing", map[string]any{"name": "x"})
	require.Error(t, err)
	n, _ = rec.Last()
	assert.Equal(t, "Failed to update item: record not found", n.Message)
	assert.Equal(t, 3, src.selects, "no reload after a failed mutation")
}

func TestColumnsDefaultsAndPersistence(t *testing.T) {
	store := prefs.NewMemory()
	src := &fakeSource{}
	c := New(itemConfig(src), nil, store)

	cols := c.Columns()
	require.Len(t, cols, 5)
	assert.False(t, cols[4].Visible, "hidden by default")
	assert.Len(t, c.VisibleColumns(), 4)

	require.NoError(t, c.ToggleColumn("when"))
	require.NoError(t, c.MoveColumn("when", -4))
	assert.Equal(t, "when", c.VisibleColumns()[0].Key)

	// a new controller picks up the stored order
	again := New(itemConfig(src), nil, store)
	assert.Equal(t, "when", again.Columns()[0].Field)

	none := again.Columns()
	for i := range none {
		none[i].Visible = false
	}
	assert.ErrorIs(t, again.SetColumns(none), ErrNoVisibleColumns)

	require.NoError(t, again.ResetColumns())
	assert.Equal(t, "name", again.Columns()[0].Field)
}

func TestStoredColumnsMergeWithCurrentFields(t *testing.T) {
	store := prefs.NewMemory()
	require.NoError(t, store.SetColumns("items", []prefs.ColumnPref{
		{Field: "gone", Visible: true},
		{Field: "amount", Visible: true},
	}))
	c := New(itemConfig(&fakeSource{}), nil, store)
	cols := c.Columns()
	require.Len(t, cols, 5)
	assert.Equal(t, "amount", cols[0].Field)
	assert.Equal(t, "Amount", cols[0].Label)
}

func TestHandoff(t *testing.T) {
	c, _, _ := loaded(t, []item{{ID: "L1", Status: "completed"}})
	row := c.Rows()[0]

	h, err := c.Handoff("create_task", row)
	require.NoError(t, err)
	assert.Equal(t, "tasks", h.Target)
	assert.Equal(t, "L1", h.Initial["lead_id"])

	_, err = c.Handoff("convert", row)
	assert.ErrorIs(t, err, ErrActionDisabled)
	_, err = c.Handoff("nope", row)
	assert.ErrorIs(t, err, ErrUnknownAction)

	actions := c.Actions(row)
	require.Len(t, actions, 2)
	assert.True(t, actions[0].Enabled)
	assert.False(t, actions[1].Enabled)
}

func TestDebouncer(t *testing.T) {
	var d Debouncer
	first := d.Next()
	second := d.Next()
	assert.False(t, d.Current(first))
	assert.True(t, d.Current(second))
}

func TestRefuseMatchesSentinel(t *testing.T) {
	err := Refuse("nope")
	assert.ErrorIs(t, err, ErrRefused)
	assert.Equal(t, "nope", err.Error())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), err)
}
