// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment
// variables.
type Config struct {
	ListenAddr     string
	DBPath         string
	SyncInterval   time.Duration
	RequestTimeout time.Duration

	// SecretKey is the 32-byte AES key for credential storage at rest, nil
	// when storage is disabled.
	SecretKey []byte

	// Delegated OAuth credential fields.
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRefreshToken string
	OAuthAccessToken  string

	// ServiceAccountKeyPath points at a service-account key file; mutually
	// exclusive with the delegated fields.
	ServiceAccountKeyPath string

	// SyncLocations lists "account/location" pairs whose reviews are kept in
	// sync, e.g. "accounts/123/locations/456" or "123/456".
	SyncLocations []SyncLocation
}

// SyncLocation is one parsed sync target.
type SyncLocation struct {
	Account  string
	Location string
}

// HasDelegatedCredentials reports whether enough delegated OAuth material is
// configured to authenticate.
func (c *Config) HasDelegatedCredentials() bool {
	return c.OAuthRefreshToken != "" || c.OAuthAccessToken != ""
}

// Load reads configuration from environment variables and returns a
// validated Config. Credentials are optional; without them the app starts
// but syncing stays inactive until credentials are provided. Optional
// variables with defaults: BRANDPANEL_SYNC_INTERVAL (15m),
// BRANDPANEL_REQUEST_TIMEOUT (30s), BRANDPANEL_LISTEN_ADDR (127.0.0.1:8080),
// BRANDPANEL_DB_PATH (brandpanel.db).
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:            "127.0.0.1:8080",
		DBPath:                "brandpanel.db",
		SyncInterval:          15 * time.Minute,
		RequestTimeout:        30 * time.Second,
		OAuthClientID:         os.Getenv("BRANDPANEL_OAUTH_CLIENT_ID"),
		OAuthClientSecret:     os.Getenv("BRANDPANEL_OAUTH_CLIENT_SECRET"),
		OAuthRefreshToken:     os.Getenv("BRANDPANEL_OAUTH_REFRESH_TOKEN"),
		OAuthAccessToken:      os.Getenv("BRANDPANEL_OAUTH_ACCESS_TOKEN"),
		ServiceAccountKeyPath: os.Getenv("BRANDPANEL_SERVICE_ACCOUNT_KEY"),
	}

	if v, ok := os.LookupEnv("BRANDPANEL_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("BRANDPANEL_DB_PATH"); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("BRANDPANEL_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("BRANDPANEL_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		cfg.SyncInterval = parsed
	}

	if v, ok := os.LookupEnv("BRANDPANEL_REQUEST_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("BRANDPANEL_REQUEST_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.RequestTimeout = parsed
	}

	if v, ok := os.LookupEnv("BRANDPANEL_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("BRANDPANEL_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("BRANDPANEL_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	if cfg.ServiceAccountKeyPath != "" && cfg.HasDelegatedCredentials() {
		return nil, fmt.Errorf("BRANDPANEL_SERVICE_ACCOUNT_KEY and delegated OAuth variables are mutually exclusive")
	}

	if v, ok := os.LookupEnv("BRANDPANEL_SYNC_LOCATIONS"); ok && v != "" {
		locations, err := parseSyncLocations(v)
		if err != nil {
			return nil, err
		}
		cfg.SyncLocations = locations
	}
	if cfg.SyncLocations == nil {
		cfg.SyncLocations = []SyncLocation{}
	}

	return cfg, nil
}

// parseSyncLocations parses a comma-separated list of "account/location"
// pairs. Full resource names and bare numeric IDs are both accepted.
func parseSyncLocations(raw string) ([]SyncLocation, error) {
	var locations []SyncLocation
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var account, location string
		switch parts := strings.Split(entry, "/"); {
		case len(parts) == 2:
			// "123/456"
			account, location = parts[0], parts[1]
		case len(parts) == 4 && parts[0] == "accounts" && parts[2] == "locations":
			// "accounts/123/locations/456"
			account, location = parts[1], parts[3]
		default:
			return nil, fmt.Errorf("BRANDPANEL_SYNC_LOCATIONS entry %q: expected account/location", entry)
		}

		if account == "" || location == "" {
			return nil, fmt.Errorf("BRANDPANEL_SYNC_LOCATIONS entry %q: empty account or location", entry)
		}
		locations = append(locations, SyncLocation{Account: account, Location: location})
	}
	return locations, nil
}
