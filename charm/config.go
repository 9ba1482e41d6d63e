// ABOUTME: Connection settings for the Charm KV preferences store
// ABOUTME: Built from the application config rather than a separate file

package charm

import (
	"time"

	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the Charm KV database.
	AppName = "crmgrid"
)

// Config holds charm connection settings.
type Config struct {
	Host           string
	AutoSync       bool
	StaleThreshold time.Duration
}

// DefaultConfig returns a config pointing at the default host with auto-sync on.
func DefaultConfig() Config {
	return Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultCharmHost
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = kv.DefaultStaleThreshold
	}
	return c
}
