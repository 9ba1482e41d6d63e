// ABOUTME: Application configuration from .env, a JSON file and CRMGRID_* variables
// ABOUTME: Later sources override earlier ones; paths default to XDG locations
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the XDG directories.
const AppName = "crmgrid"

// ErrUnknownKey is returned by Get and Set for keys not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds every runtime setting.
type Config struct {
	DBPath         string        `json:"db_path"`
	PageSize       int           `json:"page_size"`
	SearchDebounce time.Duration `json:"search_debounce"`
	LogLevel       string        `json:"log_level"`
	WebPort        int           `json:"web_port"`
	Owner          string        `json:"owner"`
	CharmHost      string        `json:"charm_host"`
	AutoSync       bool          `json:"auto_sync"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:         filepath.Join(xdg.DataHome, AppName, AppName+".db"),
		PageSize:       25,
		SearchDebounce: 300 * time.Millisecond,
		LogLevel:       "info",
		WebPort:        8080,
		Owner:          os.Getenv("USER"),
		CharmHost:      "charm.2389.dev",
		AutoSync:       true,
	}
}

// Path is the JSON config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.json")
}

// Load reads .env (if present), then the JSON file at path (if present),
// then CRMGRID_* environment overrides. An empty path means Path().
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads only the JSON file over the defaults, without environment
// overrides. It is what `crmgrid config set` edits and saves back.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Keys lists the settable keys in display order.
var Keys = []string{"db_path", "page_size", "search_debounce", "log_level", "web_port", "owner", "charm_host", "auto_sync"}

// Get returns the value of key as text.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "page_size":
		return strconv.Itoa(c.PageSize), nil
	case "search_debounce":
		return c.SearchDebounce.String(), nil
	case "log_level":
		return c.LogLevel, nil
	case "web_port":
		return strconv.Itoa(c.WebPort), nil
	case "owner":
		return c.Owner, nil
	case "charm_host":
		return c.CharmHost, nil
	case "auto_sync":
		return strconv.FormatBool(c.AutoSync), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set parses value into key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "db_path":
		c.DBPath = value
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("page_size: invalid value %q", value)
		}
		c.PageSize = n
	case "search_debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("search_debounce: %w", err)
		}
		c.SearchDebounce = d
	case "log_level":
		c.LogLevel = value
	case "web_port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("web_port: invalid value %q", value)
		}
		c.WebPort = n
	case "owner":
		c.Owner = value
	case "charm_host":
		c.CharmHost = value
	case "auto_sync":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auto_sync: %w", err)
		}
		c.AutoSync = b
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CRMGRID_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("CRMGRID_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CRMGRID_OWNER"); v != "" {
		c.Owner = v
	}
	if v := os.Getenv("CRMGRID_CHARM_HOST"); v != "" {
		c.CharmHost = v
	}
	if v := os.Getenv("CRMGRID_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("CRMGRID_PAGE_SIZE: invalid value %q", v)
		}
		c.PageSize = n
	}
	if v := os.Getenv("CRMGRID_WEB_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CRMGRID_WEB_PORT: invalid value %q", v)
		}
		c.WebPort = n
	}
	if v := os.Getenv("CRMGRID_SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CRMGRID_SEARCH_DEBOUNCE: %w", err)
		}
		c.SearchDebounce = d
	}
	if v := os.Getenv("CRMGRID_AUTO_SYNC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CRMGRID_AUTO_SYNC: %w", err)
		}
		c.AutoSync = b
	}
	return nil
}

// Save writes the config as JSON to path, or Path() when empty.
func (c Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// StateDir is where logs and OAuth tokens live.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}
