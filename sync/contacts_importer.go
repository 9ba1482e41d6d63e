// ABOUTME: Google Contacts API importer
// ABOUTME: Creates or fills in Contacts from the People API, deduplicated by email
package sync

import (
	"context"
	"fmt"

	"google.golang.org/api/people/v1"

	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/models"
)

// GoogleContact is the subset of a People API person the importer keeps.
type GoogleContact struct {
	ResourceName string
	Name         string
	Email        string
	Phone        string
	Company      string
}

// convertPerson flattens a People API person, preferring primary values.
func convertPerson(person *people.Person) *GoogleContact {
	gc := &GoogleContact{ResourceName: person.ResourceName}

	if len(person.Names) > 0 {
		gc.Name = person.Names[0].DisplayName
	}

	for _, email := range person.EmailAddresses {
		if email.Value == "" {
			continue
		}
		if gc.Email == "" {
			gc.Email = email.Value
		}
		if email.Metadata != nil && email.Metadata.Primary {
			gc.Email = email.Value
			break
		}
	}

	for _, phone := range person.PhoneNumbers {
		if phone.Value == "" {
			continue
		}
		if gc.Phone == "" {
			gc.Phone = phone.Value
		}
		if phone.Metadata != nil && phone.Metadata.Primary {
			gc.Phone = phone.Value
			break
		}
	}

	if len(person.Organizations) > 0 {
		gc.Company = person.Organizations[0].Name
	}

	return gc
}

// ImportContacts pages connections from src. A person whose email matches an
// existing contact only fills that contact's empty fields.
func (im *Importer) ImportContacts(ctx context.Context, src PersonSource) (Stats, error) {
	stats := newStats()

	im.logger.Info("syncing google contacts")
	if err := db.UpdateSyncStatus(ctx, im.client.DB, contactsService, db.SyncSyncing, nil); err != nil {
		return stats, err
	}

	contacts, err := im.client.Contacts.Select(ctx)
	if err != nil {
		return stats, im.fail(ctx, contactsService, "failed to load existing contacts", err)
	}
	accounts, err := im.client.Accounts.Select(ctx)
	if err != nil {
		return stats, im.fail(ctx, contactsService, "failed to load accounts", err)
	}
	matcher := NewContactMatcher(contacts, accounts)

	pageToken := ""
	for {
		resp, err := src.Connections(ctx, pageToken)
		if err != nil {
			return stats, im.fail(ctx, contactsService, "failed to fetch contacts", err)
		}
		if resp == nil {
			break
		}

		stats.Fetched += len(resp.Connections)
		for _, person := range resp.Connections {
			gc := convertPerson(person)
			if gc.Email == "" || gc.Name == "" {
				stats.Skipped["missing name or email"]++
				continue
			}

			created, updated, err := im.importContact(ctx, gc, matcher)
			if err != nil {
				stats.Failed++
				im.logger.Warn("failed to import contact", "name", gc.Name, "err", err)
				continue
			}
			switch {
			case created:
				stats.Created++
			case updated:
				stats.Updated++
			default:
				stats.Skipped["up to date"]++
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
		im.logger.Debug("contacts page done", "fetched", stats.Fetched)
	}

	if err := db.UpdateSyncStatus(ctx, im.client.DB, contactsService, db.SyncIdle, nil); err != nil {
		return stats, err
	}

	im.logger.Info("contacts sync complete", "summary", stats.String())
	return stats, nil
}

func (im *Importer) importContact(ctx context.Context, gc *GoogleContact, matcher *ContactMatcher) (created, updated bool, err error) {
	accountID, hasAccount := matcher.FindAccount(gc.Company)

	if existing, found := matcher.FindMatch(gc.Email); found {
		// only blanks are filled in
		changed := false
		if gc.Phone != "" && existing.Phone == "" {
			existing.Phone = gc.Phone
			changed = true
		}
		if gc.Company != "" && existing.CompanyName == "" {
			existing.CompanyName = gc.Company
			changed = true
		}
		if hasAccount && existing.AccountID == nil {
			existing.AccountID = &accountID
			changed = true
		}

		if changed {
			if err := im.client.Contacts.Save(ctx, existing); err != nil {
				return false, false, fmt.Errorf("failed to update contact: %w", err)
			}
		}
		if err := db.RecordSync(ctx, im.client.DB, contactsService, gc.ResourceName, "contact", existing.ID); err != nil {
			return false, false, err
		}
		return false, changed, nil
	}

	contact := &models.Contact{
		ContactName: gc.Name,
		Email:       gc.Email,
		Phone:       gc.Phone,
		CompanyName: gc.Company,
		Owner:       im.owner,
		Source:      models.SourceGoogleContacts,
	}
	if hasAccount {
		contact.AccountID = &accountID
	}

	if err := im.client.Contacts.Insert(ctx, contact); err != nil {
		return false, false, fmt.Errorf("failed to create contact: %w", err)
	}
	if err := db.RecordSync(ctx, im.client.DB, contactsService, gc.ResourceName, "contact", contact.ID); err != nil {
		return false, false, err
	}

	matcher.AddContact(contact)
	return true, false, nil
}
