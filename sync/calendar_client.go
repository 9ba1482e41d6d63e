// ABOUTME: Calendar API client setup for Google Calendar integration
// ABOUTME: Wraps the Calendar service behind the small EventSource interface the importer pages through
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Google Calendar API max per page.
const maxResults = 250

var errNilToken = errors.New("token cannot be nil")

// EventQuery selects one page of events. SyncToken wins over TimeMin.
type EventQuery struct {
	TimeMin   time.Time
	SyncToken string
	PageToken string
}

// EventSource is the slice of the Calendar API the importer needs.
type EventSource interface {
	// Self returns the account's primary calendar ID, which is its email.
	Self(ctx context.Context) (string, error)
	Events(ctx context.Context, q EventQuery) (*calendar.Events, error)
}

// NewCalendarClient creates a Google Calendar API service from an OAuth token.
func NewCalendarClient(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	if token == nil {
		return nil, errNilToken
	}

	client := NewOAuthConfig().Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return service, nil
}

// CalendarEvents adapts a Calendar service to EventSource.
type CalendarEvents struct {
	Service *calendar.Service
}

func (c CalendarEvents) Self(ctx context.Context) (string, error) {
	info, err := c.Service.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return info.Id, nil
}

func (c CalendarEvents) Events(ctx context.Context, q EventQuery) (*calendar.Events, error) {
	call := c.Service.Events.List("primary").
		Context(ctx).
		MaxResults(maxResults).
		SingleEvents(true)

	if q.SyncToken != "" {
		call = call.SyncToken(q.SyncToken)
	} else {
		call = call.OrderBy("startTime").TimeMin(q.TimeMin.Format(time.RFC3339))
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}

	return call.Do()
}
