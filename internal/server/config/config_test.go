package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"hipokrates"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	setArgs(t)

	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, "hipokrates", cfg.S3Bucket)
	assert.Equal(t, "badania.csv", cfg.CatalogObjectKey)
	assert.Equal(t, "platnosci.csv", cfg.PaymentsObjectKey)
	assert.Equal(t, 12*time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, 5, cfg.LoginMaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.LoginLockoutWindow)
	assert.Equal(t, int64(1<<20), cfg.MaxSavePayloadBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	setArgs(t, "-a", ":9999", "-e", "", "-t", "60", "-d", "/tmp/hipo")

	cfg := LoadConfig()

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "", cfg.S3Endpoint, "empty endpoint selects local-only mode")
	assert.Equal(t, time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, "/tmp/hipo", cfg.DataDir)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"endpoint_addr": ":7070",
		"s3_bucket": "przychodnia",
		"request_timeout": "10s",
		"login_lockout_window": "5m",
		"cors_allowed_origins": ["https://example.test"]
	}`), 0o600))
	setArgs(t, "-c", file)

	cfg := LoadConfig()

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "przychodnia", cfg.S3Bucket)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.LoginLockoutWindow)
	assert.Equal(t, []string{"https://example.test"}, cfg.CORSAllowedOrigins)
	// Untouched fields keep their defaults.
	assert.Equal(t, "badania.csv", cfg.CatalogObjectKey)
}

func TestLoadConfig_FlagsWinOverJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"endpoint_addr": ":7070"}`), 0o600))
	setArgs(t, "-c", file, "-a", ":6060")

	cfg := LoadConfig()

	assert.Equal(t, ":6060", cfg.EndpointAddr)
}
