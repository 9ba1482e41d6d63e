// ABOUTME: Tests for the preferences service over charm test clients
// ABOUTME: Verifies column round-trips, defaults and saved view listing
package prefs

import (
	"testing"

	"github.com/harperreed/crmgrid/charm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsMissingModule(t *testing.T) {
	s := NewKVStore(charm.NewTestClient(t))

	cols, ok, err := s.Columns("leads")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, cols)
}

func TestColumnsRoundTrip(t *testing.T) {
	s := NewKVStore(charm.NewTestClient(t))
	want := []ColumnPref{
		{Field: "lead_name", Label: "Name", Visible: true},
		{Field: "phone", Label: "Phone", Visible: false},
	}
	require.NoError(t, s.SetColumns("leads", want))

	got, ok, err := s.Columns("leads")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = s.Columns("deals")
	require.NoError(t, err)
	assert.False(t, ok, "modules are keyed independently")
}

func TestSaveViewAssignsULID(t *testing.T) {
	s := NewKVStore(charm.NewTestClient(t))

	v, err := s.SaveView(SavedView{Module: "meetings", Name: "Done", Query: map[string]string{"status": "completed"}})
	require.NoError(t, err)
	assert.Len(t, v.ID, 26)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := s.SavedView(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Query["status"])

	_, err = s.SavedView("nope")
	assert.ErrorIs(t, err, ErrViewNotFound)

	_, err = s.SaveView(SavedView{Name: "no module"})
	assert.Error(t, err)
}

func TestViewsFilterByModule(t *testing.T) {
	s := NewMemory()
	first, err := s.SaveView(SavedView{Module: "leads", Name: "New"})
	require.NoError(t, err)
	second, err := s.SaveView(SavedView{Module: "leads", Name: "Qualified"})
	require.NoError(t, err)
	_, err = s.SaveView(SavedView{Module: "deals", Name: "Won"})
	require.NoError(t, err)

	views, err := s.Views("leads")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)

	all, err := s.Views("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteView(first.ID))
	views, err = s.Views("leads")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}
