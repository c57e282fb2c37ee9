package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"tiny timeout", func(c *Config) { c.API.Timeout = 100 * time.Millisecond }},
		{"negative retries", func(c *Config) { c.API.RetryCount = -1 }},
		{"refresh delay too short", func(c *Config) { c.Broadcast.RefreshDelay = 10 * time.Millisecond }},
		{"refresh delay too long", func(c *Config) { c.Broadcast.RefreshDelay = 10 * time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  base_url: https://market.example.com/api
  timeout: 5s
client:
  id: "42"
  display_name: Ismael
broadcast:
  refresh_delay: 300ms
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://market.example.com/api", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, "42", cfg.Client.ID)
	require.Equal(t, 300*time.Millisecond, cfg.Broadcast.RefreshDelay)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	require.Equal(t, 2, cfg.API.RetryCount)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.DataDir = "/tmp/motochat-test"

	require.Equal(t, "/tmp/motochat-test/broadcast.json", cfg.SignalPath())
	require.Equal(t, "/tmp/motochat-test/cache.db", cfg.CachePath())
	require.Equal(t, "/tmp/motochat-test/session.json", cfg.SessionPath())

	cfg.Broadcast.SignalPath = "/elsewhere/sig.json"
	require.Equal(t, "/elsewhere/sig.json", cfg.SignalPath())
}
