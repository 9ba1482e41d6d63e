// ABOUTME: Tests for contact and account matching
// ABOUTME: Email matching ignores case and whitespace; account names ignore case
package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmgrid/models"
)

func TestMatchContactByEmail(t *testing.T) {
	matcher := NewContactMatcher([]models.Contact{
		{ID: "c1", ContactName: "Alice", Email: "alice@example.com"},
		{ID: "c2", ContactName: "Bob", Email: "Bob@Example.com"},
		{ID: "c3", ContactName: "No Email"},
	}, nil)

	match, found := matcher.FindMatch("  ALICE@example.com ")
	require.True(t, found)
	assert.Equal(t, "c1", match.ID)

	match, found = matcher.FindMatch("bob@example.com")
	require.True(t, found)
	assert.Equal(t, "c2", match.ID)

	_, found = matcher.FindMatch("charlie@example.com")
	assert.False(t, found)

	_, found = matcher.FindMatch("")
	assert.False(t, found)
}

func TestMatcherAddContact(t *testing.T) {
	matcher := NewContactMatcher(nil, nil)
	matcher.AddContact(&models.Contact{ID: "new", Email: "dana@example.com"})

	match, found := matcher.FindMatch("dana@example.com")
	require.True(t, found)
	assert.Equal(t, "new", match.ID)
}

func TestMatcherFindAccount(t *testing.T) {
	matcher := NewContactMatcher(nil, []models.Account{
		{ID: "a1", AccountName: "Acme  Corp"},
	})

	id, ok := matcher.FindAccount("acme corp")
	assert.True(t, ok)
	assert.Equal(t, "a1", id)

	_, ok = matcher.FindAccount("Globex")
	assert.False(t, ok)

	_, ok = matcher.FindAccount("")
	assert.False(t, ok)
}

func TestNormalizeEmail(t *testing.T) {
	tests := map[string]string{
		"Alice@Example.com":       "alice@example.com",
		"alice.smith@example.com": "alice.smith@example.com",
		" ALICE@EXAMPLE.COM\t":    "alice@example.com",
	}

	for input, want := range tests {
		assert.Equal(t, want, normalizeEmail(input), input)
	}
}
