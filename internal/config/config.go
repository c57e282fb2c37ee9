// Package config handles motochat configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for motochat.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// API settings for the marketplace backend
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Client identifies the current user of this instance
	Client ClientConfig `yaml:"client" mapstructure:"client"`

	// Broadcast settings for cross-instance signaling
	Broadcast BroadcastConfig `yaml:"broadcast" mapstructure:"broadcast"`

	// Cache settings for the local message cache
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// GlobalConfig contains global motochat settings.
type GlobalConfig struct {
	// DataDir is where motochat stores its data (default: ~/.local/share/motochat).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/motochat).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// APIConfig contains settings for the marketplace REST backend.
type APIConfig struct {
	// BaseURL is the root of the marketplace API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RetryCount is how many times transient requests are retried.
	RetryCount int `yaml:"retry_count" mapstructure:"retry_count"`

	// RetryWait is the base wait between retries.
	RetryWait time.Duration `yaml:"retry_wait" mapstructure:"retry_wait"`

	// AuthToken is the bearer token for authenticated endpoints.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
}

// ClientConfig identifies the current user.
type ClientConfig struct {
	// ID is the backend client id of the current user.
	ID string `yaml:"id" mapstructure:"id"`

	// DisplayName is the user's own display name (never shown as a
	// conversation title).
	DisplayName string `yaml:"display_name" mapstructure:"display_name"`

	// Admin enables the moderation commands.
	Admin bool `yaml:"admin" mapstructure:"admin"`
}

// BroadcastConfig contains settings for cross-instance signaling.
type BroadcastConfig struct {
	// SignalPath is the shared signal file watched by every instance
	// (default: <data_dir>/broadcast.json).
	SignalPath string `yaml:"signal_path" mapstructure:"signal_path"`

	// RefreshDelay is the bounded delay before the full reconciliation
	// refresh that follows a received signal.
	RefreshDelay time.Duration `yaml:"refresh_delay" mapstructure:"refresh_delay"`
}

// CacheConfig contains settings for the local message cache.
type CacheConfig struct {
	// Path is the SQLite cache file path (default: <data_dir>/cache.db).
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "motochat")
	configDir := filepath.Join(home, ".config", "motochat")

	return &Config{
		Global: GlobalConfig{
			DataDir:   dataDir,
			ConfigDir: configDir,
		},
		API: APIConfig{
			BaseURL:    "http://localhost:8080/api",
			Timeout:    10 * time.Second,
			RetryCount: 2,
			RetryWait:  250 * time.Millisecond,
		},
		Broadcast: BroadcastConfig{
			RefreshDelay: 400 * time.Millisecond,
		},
		Cache: CacheConfig{
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout < time.Second {
		return fmt.Errorf("api.timeout must be at least 1s")
	}
	if c.API.RetryCount < 0 {
		return fmt.Errorf("api.retry_count must not be negative")
	}
	if c.Broadcast.RefreshDelay < 100*time.Millisecond || c.Broadcast.RefreshDelay > 2*time.Second {
		return fmt.Errorf("broadcast.refresh_delay must be between 100ms and 2s")
	}
	if c.Cache.BusyTimeoutMs < 0 {
		return fmt.Errorf("cache.busy_timeout_ms must not be negative")
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SignalPath returns the full broadcast signal file path.
func (c *Config) SignalPath() string {
	if c.Broadcast.SignalPath != "" {
		return c.Broadcast.SignalPath
	}
	return filepath.Join(c.Global.DataDir, "broadcast.json")
}

// CachePath returns the full message cache path.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.Global.DataDir, "cache.db")
}

// SessionPath returns the per-instance session state file path.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Global.DataDir, "session.json")
}
