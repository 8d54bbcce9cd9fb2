package config

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv removes every configuration variable so a test starts from the
// documented defaults regardless of the developer's shell. t.Setenv first
// registers restoration of the original values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"BRANDPANEL_LISTEN_ADDR",
		"BRANDPANEL_DB_PATH",
		"BRANDPANEL_SYNC_INTERVAL",
		"BRANDPANEL_REQUEST_TIMEOUT",
		"BRANDPANEL_SECRET_KEY",
		"BRANDPANEL_OAUTH_CLIENT_ID",
		"BRANDPANEL_OAUTH_CLIENT_SECRET",
		"BRANDPANEL_OAUTH_REFRESH_TOKEN",
		"BRANDPANEL_OAUTH_ACCESS_TOKEN",
		"BRANDPANEL_SERVICE_ACCOUNT_KEY",
		"BRANDPANEL_SYNC_LOCATIONS",
	} {
		t.Setenv(name, "")
		if err := os.Unsetenv(name); err != nil {
			t.Fatalf("unset %s: %v", name, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "brandpanel.db", cfg.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Nil(t, cfg.SecretKey)
	assert.Empty(t, cfg.SyncLocations)
	assert.NotNil(t, cfg.SyncLocations)
	assert.False(t, cfg.HasDelegatedCredentials())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("BRANDPANEL_DB_PATH", "/tmp/test.db")
	t.Setenv("BRANDPANEL_SYNC_INTERVAL", "5m")
	t.Setenv("BRANDPANEL_REQUEST_TIMEOUT", "10s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_SYNC_INTERVAL", "often")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecretKey(t *testing.T) {
	clearEnv(t)
	key := strings.Repeat("ab", 32)
	t.Setenv("BRANDPANEL_SECRET_KEY", key)

	cfg, err := Load()
	require.NoError(t, err)
	want, _ := hex.DecodeString(key)
	assert.Equal(t, want, cfg.SecretKey)
}

func TestLoad_SecretKeyWrongLength(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_SECRET_KEY", "abcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecretKeyNotHex(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_SECRET_KEY", strings.Repeat("zz", 32))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CredentialModesMutuallyExclusive(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_SERVICE_ACCOUNT_KEY", "/etc/brandpanel/key.json")
	t.Setenv("BRANDPANEL_OAUTH_REFRESH_TOKEN", "1//0refresh")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DelegatedCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("BRANDPANEL_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("BRANDPANEL_OAUTH_REFRESH_TOKEN", "1//0refresh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.HasDelegatedCredentials())
	assert.Equal(t, "client-id", cfg.OAuthClientID)
}

func TestLoad_SyncLocations(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_SYNC_LOCATIONS", "123/456, accounts/789/locations/1011")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.SyncLocations, 2)
	assert.Equal(t, SyncLocation{Account: "123", Location: "456"}, cfg.SyncLocations[0])
	assert.Equal(t, SyncLocation{Account: "789", Location: "1011"}, cfg.SyncLocations[1])
}

func TestLoad_SyncLocationsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRANDPANEL_SYNC_LOCATIONS", "just-a-location")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseSyncLocations(t *testing.T) {
	locations, err := parseSyncLocations("123/456,,accounts/7/locations/8")
	require.NoError(t, err)
	assert.Equal(t, []SyncLocation{
		{Account: "123", Location: "456"},
		{Account: "7", Location: "8"},
	}, locations)

	_, err = parseSyncLocations("accounts/1/reviews/2")
	assert.Error(t, err)

	_, err = parseSyncLocations("/456")
	assert.Error(t, err)
}
