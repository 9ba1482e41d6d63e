// ABOUTME: Delete hooks: the lead cascade and the account referential guard
// ABOUTME: Both run before the batched delete call is issued
package crm

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmgrid/grid"
)

// ErrAccountLinked refuses deleting an account that contacts or leads still reference.
var ErrAccountLinked = grid.Refuse("Cannot delete account: contacts or leads are still linked to it")

type linkedDeleter interface {
	DeleteWhereIn(ctx context.Context, column string, values []string) error
}

type linkCounter interface {
	CountWhereIn(ctx context.Context, column string, values []string) (map[string]int, error)
}

// cascadeLeadDelete removes the notifications and then the tasks of the
// leads about to be deleted, when the caller asked for it.
func cascadeLeadDelete(notifications, tasks linkedDeleter, logger *log.Logger) grid.BeforeDeleteFunc {
	return func(ctx context.Context, ids []string, opts grid.DeleteOptions) ([]string, error) {
		if !opts.DeleteLinkedRecords {
			return ids, nil
		}
		if err := notifications.DeleteWhereIn(ctx, "lead_id", ids); err != nil {
			return nil, fmt.Errorf("failed to delete linked notifications: %w", err)
		}
		if err := tasks.DeleteWhereIn(ctx, "lead_id", ids); err != nil {
			return nil, fmt.Errorf("failed to delete linked tasks: %w", err)
		}
		logger.Debug("cascaded lead delete", "leads", len(ids))
		return ids, nil
	}
}

// guardAccountDelete refuses a single delete of a linked account and skips
// linked accounts in a bulk delete.
func guardAccountDelete(contacts, leads linkCounter) grid.BeforeDeleteFunc {
	return func(ctx context.Context, ids []string, opts grid.DeleteOptions) ([]string, error) {
		byContacts, err := contacts.CountWhereIn(ctx, "account_id", ids)
		if err != nil {
			return nil, fmt.Errorf("failed to check linked contacts: %w", err)
		}
		byLeads, err := leads.CountWhereIn(ctx, "account_id", ids)
		if err != nil {
			return nil, fmt.Errorf("failed to check linked leads: %w", err)
		}

		var free []string
		for _, id := range ids {
			if byContacts[id] > 0 || byLeads[id] > 0 {
				if !opts.Bulk {
					return nil, ErrAccountLinked
				}
				continue
			}
			free = append(free, id)
		}
		return free, nil
	}
}
