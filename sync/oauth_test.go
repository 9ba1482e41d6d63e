// ABOUTME: Tests for OAuth configuration and token storage
// ABOUTME: Checks scopes, the XDG token path and owner-only token files
package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthConfigScopes(t *testing.T) {
	config := NewOAuthConfig()

	assert.ElementsMatch(t, []string{ScopeContacts, ScopeCalendar}, config.Scopes)
	assert.Equal(t, "http://localhost:8080/oauth/callback", config.RedirectURL)
}

func TestOAuthConfigRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	_, err := OAuthConfig()
	assert.ErrorIs(t, err, ErrNoCredentials)

	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	config, err := OAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "id", config.ClientID)
}

func TestTokenPathXDG(t *testing.T) {
	path := TokenPath()

	assert.True(t, strings.HasPrefix(path, filepath.Join(xdg.DataHome, "crmgrid")))
	assert.Equal(t, "google-credentials.json", filepath.Base(path))
}

func TestSaveTokenIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, SaveToken(path, token))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestLoadTokenMissing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
