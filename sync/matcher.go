// ABOUTME: Contact deduplication and matching logic
// ABOUTME: Finds existing contacts by email and accounts by name to prevent duplicates during sync
package sync

import (
	"strings"

	"github.com/harperreed/crmgrid/models"
)

type ContactMatcher struct {
	byEmail   map[string]*models.Contact
	byAccount map[string]string
}

// NewContactMatcher creates a matcher from existing contacts and accounts.
func NewContactMatcher(contacts []models.Contact, accounts []models.Account) *ContactMatcher {
	m := &ContactMatcher{
		byEmail:   make(map[string]*models.Contact),
		byAccount: make(map[string]string),
	}

	for i := range contacts {
		m.AddContact(&contacts[i])
	}
	for _, a := range accounts {
		if key := normalizeName(a.AccountName); key != "" {
			m.byAccount[key] = a.ID
		}
	}

	return m
}

// FindMatch looks for an existing contact by email.
func (m *ContactMatcher) FindMatch(email string) (*models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, false
	}

	contact, found := m.byEmail[normalized]
	return contact, found
}

// FindAccount returns the ID of the account whose name matches company, ignoring case.
func (m *ContactMatcher) FindAccount(company string) (string, bool) {
	id, ok := m.byAccount[normalizeName(company)]
	return id, ok && id != ""
}

// AddContact registers a contact so later rows in the same import match it.
func (m *ContactMatcher) AddContact(contact *models.Contact) {
	email := normalizeEmail(contact.Email)
	if email != "" {
		m.byEmail[email] = contact
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
