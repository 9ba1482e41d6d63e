// ABOUTME: Tests for the Google API client constructors
// ABOUTME: Services build offline from a token and reject a nil one
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "test-access-token",
		TokenType:    "Bearer",
		RefreshToken: "test-refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestNewCalendarClient(t *testing.T) {
	service, err := NewCalendarClient(context.Background(), testToken())
	require.NoError(t, err)
	assert.NotNil(t, service)

	_, err = NewCalendarClient(context.Background(), nil)
	assert.ErrorIs(t, err, errNilToken)
}

func TestNewPeopleClient(t *testing.T) {
	service, err := NewPeopleClient(context.Background(), testToken())
	require.NoError(t, err)
	assert.NotNil(t, service)

	_, err = NewPeopleClient(context.Background(), nil)
	assert.ErrorIs(t, err, errNilToken)
}
