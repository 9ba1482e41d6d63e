// ABOUTME: Shared importer state for Google sync runs
// ABOUTME: Holds the backend client, logger and per-run counters
package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/crmgrid/db"
)

// Service names used in sync_state and sync_log.
const (
	calendarService = "calendar"
	contactsService = "contacts"
)

// Importer writes Google data into the CRM tables.
type Importer struct {
	client *db.Client
	logger *log.Logger
	owner  string
	now    func() time.Time
}

// NewImporter creates an importer. owner is stamped on records it creates.
func NewImporter(client *db.Client, logger *log.Logger, owner string) *Importer {
	return &Importer{
		client: client,
		logger: logger,
		owner:  owner,
		now:    time.Now,
	}
}

// Stats counts what one run did.
type Stats struct {
	Fetched int
	Created int
	Updated int
	Failed  int
	Skipped map[string]int
}

func newStats() Stats {
	return Stats{Skipped: make(map[string]int)}
}

// SkippedTotal sums the skip counts over every reason.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// String renders a one-line summary with skip reasons in a stable order.
func (s Stats) String() string {
	out := fmt.Sprintf("fetched %d, created %d, updated %d", s.Fetched, s.Created, s.Updated)
	if s.Failed > 0 {
		out += fmt.Sprintf(", failed %d", s.Failed)
	}
	if len(s.Skipped) == 0 {
		return out
	}

	reasons := make([]string, 0, len(s.Skipped))
	for r := range s.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = fmt.Sprintf("%d %s", s.Skipped[r], r)
	}
	return out + ", skipped " + strings.Join(parts, ", ")
}

// fail records err against service and returns it wrapped.
func (im *Importer) fail(ctx context.Context, service, msg string, err error) error {
	errMsg := fmt.Sprintf("%s: %v", msg, err)
	if uerr := db.UpdateSyncStatus(ctx, im.client.DB, service, db.SyncError, &errMsg); uerr != nil {
		im.logger.Warn("failed to record sync error", "service", service, "err", uerr)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
