// ABOUTME: Google People API client for contacts sync
// ABOUTME: Wraps the People service behind the PersonSource interface the importer pages through
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const personFields = "names,emailAddresses,phoneNumbers,organizations"

// PersonSource is the slice of the People API the importer needs.
type PersonSource interface {
	Connections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error)
}

// NewPeopleClient creates a new Google People API client.
func NewPeopleClient(ctx context.Context, token *oauth2.Token) (*people.Service, error) {
	if token == nil {
		return nil, errNilToken
	}

	client := NewOAuthConfig().Client(ctx, token)
	service, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return service, nil
}

// PeopleConnections adapts a People service to PersonSource.
type PeopleConnections struct {
	Service *people.Service
}

func (p PeopleConnections) Connections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	call := p.Service.People.Connections.List("people/me").
		Context(ctx).
		PageSize(1000).
		PersonFields(personFields)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
