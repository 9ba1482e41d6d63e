// ABOUTME: OAuth configuration and token management for Google APIs
// ABOUTME: Runs the installed-app flow and stores the token under the XDG data dir
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ScopeContacts = "https://www.googleapis.com/auth/contacts.readonly"
	ScopeCalendar = "https://www.googleapis.com/auth/calendar.readonly"

	// CallbackAddr is where the installed-app flow listens for the redirect.
	CallbackAddr = "localhost:8080"
	callbackPath = "/oauth/callback"
)

var ErrNoCredentials = errors.New("google OAuth credentials not configured; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

// NewOAuthConfig builds the OAuth2 config from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://" + CallbackAddr + callbackPath,
		Scopes:       []string{ScopeContacts, ScopeCalendar},
		Endpoint:     google.Endpoint,
	}
}

// OAuthConfig returns the config, or ErrNoCredentials when the env is not set.
func OAuthConfig() (*oauth2.Config, error) {
	config := NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	return config, nil
}

// TokenPath returns the XDG path for the stored OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "crmgrid", "google-credentials.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// Authorize runs the installed-app flow: it serves the redirect on CallbackAddr,
// hands the consent URL to open and waits for the code exchange.
func Authorize(ctx context.Context, config *oauth2.Config, open func(url string) error) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}

	tokens := make(chan *oauth2.Token, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errs <- errors.New("no authorization code received")
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errs <- fmt.Errorf("failed to exchange code: %w", err)
			http.Error(w, "exchange failed", http.StatusBadGateway)
			return
		}

		tokens <- token
		_, _ = fmt.Fprint(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	if err := open(config.AuthCodeURL("state", oauth2.AccessTypeOffline)); err != nil {
		return nil, fmt.Errorf("failed to open consent page: %w", err)
	}

	select {
	case token := <-tokens:
		return token, nil
	case err := <-errs:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
