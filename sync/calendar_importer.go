// ABOUTME: Calendar event importer from Google Calendar API
// ABOUTME: Turns events into Meetings with pagination, sync tokens and a 410 fallback
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/models"
)

const untitledMeeting = "(no title)"

// shouldSkipEvent reports whether event is not a meeting worth importing, and why.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil event"
	}

	if event.Start == nil {
		return true, "missing start time"
	}

	// all-day events carry Date instead of DateTime
	if event.Start.Date != "" || event.Start.DateTime == "" {
		return true, "all-day event"
	}

	if event.Status == "cancelled" {
		return true, "cancelled"
	}

	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, "declined"
		}
	}

	if n := len(event.Attendees); n <= 1 {
		return true, fmt.Sprintf("solo event (%d attendee%s)", n, pluralize(n))
	}

	return false, ""
}

// meetingFromEvent maps an importable event onto a Meeting. The first attendee
// other than self that matches a known contact is linked.
func meetingFromEvent(event *calendar.Event, self string, matcher *ContactMatcher, now time.Time) (models.Meeting, error) {
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("event %s start: %w", event.Id, err)
	}

	m := models.Meeting{
		Title:       event.Summary,
		Status:      models.MeetingScheduled,
		StartTime:   &start,
		Location:    event.Location,
		Description: event.Description,
		Source:      models.SourceGoogleCalendar,
	}
	if m.Title == "" {
		m.Title = untitledMeeting
	}

	ends := start
	if event.End != nil && event.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
			m.EndTime = &end
			ends = end
		}
	}
	if ends.Before(now) {
		m.Status = models.MeetingCompleted
	}

	for _, a := range event.Attendees {
		if a.Self || a.Resource || normalizeEmail(a.Email) == normalizeEmail(self) {
			continue
		}
		if c, ok := matcher.FindMatch(a.Email); ok {
			id := c.ID
			m.ContactID = &id
			break
		}
	}

	return m, nil
}

// ImportCalendar pages events from src and writes them as Meetings. initial
// forces a time-based sync over the last six months; otherwise the stored
// sync token is used when there is one.
func (im *Importer) ImportCalendar(ctx context.Context, src EventSource, initial bool) (Stats, error) {
	stats := newStats()

	im.logger.Info("syncing google calendar")
	if err := db.UpdateSyncStatus(ctx, im.client.DB, calendarService, db.SyncSyncing, nil); err != nil {
		return stats, err
	}

	self, err := src.Self(ctx)
	if err != nil {
		return stats, im.fail(ctx, calendarService, "failed to get user calendar info", err)
	}

	state, err := db.GetSyncState(ctx, im.client.DB, calendarService)
	if err != nil {
		return stats, im.fail(ctx, calendarService, "failed to get sync state", err)
	}

	contacts, err := im.client.Contacts.Select(ctx)
	if err != nil {
		return stats, im.fail(ctx, calendarService, "failed to load contacts", err)
	}
	matcher := NewContactMatcher(contacts, nil)

	sixMonthsAgo := im.now().AddDate(0, -6, 0)
	q := EventQuery{TimeMin: sixMonthsAgo}
	switch {
	case initial:
		im.logger.Info("initial sync", "since", sixMonthsAgo.Format(time.DateOnly))
	case state != nil && state.LastSyncToken != nil && *state.LastSyncToken != "":
		q.SyncToken = *state.LastSyncToken
		im.logger.Info("incremental sync")
	default:
		im.logger.Info("no previous sync found", "since", sixMonthsAgo.Format(time.DateOnly))
	}

	page := 0
	for {
		events, err := src.Events(ctx, q)
		if err != nil {
			var apiErr *googleapi.Error
			if q.SyncToken != "" && errors.As(err, &apiErr) && apiErr.Code == http.StatusGone {
				fallback := sixMonthsAgo
				if state != nil && state.LastSyncTime != nil {
					fallback = *state.LastSyncTime
				}
				im.logger.Warn("sync token invalid, falling back to time-based sync", "since", fallback.Format(time.RFC3339))
				q = EventQuery{TimeMin: fallback}
				page = 0
				continue
			}
			return stats, im.fail(ctx, calendarService, "failed to fetch calendar events", err)
		}

		page++
		stats.Fetched += len(events.Items)
		if len(events.Items) > 0 {
			im.logger.Debug("fetched events", "count", len(events.Items), "page", page)
		}

		for _, event := range events.Items {
			if skip, reason := shouldSkipEvent(event); skip {
				stats.Skipped[reason]++
				continue
			}
			created, err := im.importEvent(ctx, event, self, matcher)
			if err != nil {
				stats.Failed++
				im.logger.Warn("failed to import event", "event", event.Id, "err", err)
				continue
			}
			if created {
				stats.Created++
			} else {
				stats.Updated++
			}
		}

		q.PageToken = events.NextPageToken
		if q.PageToken != "" {
			continue
		}

		if events.NextSyncToken != "" {
			if err := db.UpdateSyncToken(ctx, im.client.DB, calendarService, events.NextSyncToken); err != nil {
				return stats, im.fail(ctx, calendarService, "failed to update sync token", err)
			}
		}
		break
	}

	if err := db.UpdateSyncStatus(ctx, im.client.DB, calendarService, db.SyncIdle, nil); err != nil {
		return stats, err
	}

	im.logger.Info("calendar sync complete", "summary", stats.String())
	return stats, nil
}

// importEvent creates the Meeting for event, or refreshes the one a previous
// run created. It reports whether a new record was inserted.
func (im *Importer) importEvent(ctx context.Context, event *calendar.Event, self string, matcher *ContactMatcher) (bool, error) {
	meeting, err := meetingFromEvent(event, self, matcher, im.now())
	if err != nil {
		return false, err
	}

	existing, err := db.FindSyncedEntity(ctx, im.client.DB, calendarService, event.Id)
	if err != nil {
		return false, err
	}

	if existing != "" {
		err := im.client.Meetings.Update(ctx, existing, map[string]any{
			"title":       meeting.Title,
			"status":      meeting.Status,
			"start_time":  meeting.StartTime,
			"end_time":    meeting.EndTime,
			"location":    meeting.Location,
			"description": meeting.Description,
		})
		if err == nil {
			return false, nil
		}
		// deleted locally since the last run: import it again
		if !errors.Is(err, db.ErrNotFound) {
			return false, err
		}
	}

	meeting.Owner = im.owner
	if err := im.client.Meetings.Insert(ctx, &meeting); err != nil {
		return false, err
	}
	if err := db.RecordSync(ctx, im.client.DB, calendarService, event.Id, "meeting", meeting.ID); err != nil {
		return false, err
	}

	return true, nil
}
