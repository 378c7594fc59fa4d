package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all CuePoint configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// SQLite storage
	Storage StorageConfig `yaml:"storage"`

	// Visitor sessions
	Sessions SessionsConfig `yaml:"sessions"`

	// CRM booking delivery
	CRM CRMConfig `yaml:"crm"`

	// Content catalog
	Content ContentConfig `yaml:"content"`

	// Chat rulebook
	Chat ChatConfig `yaml:"chat"`

	// CMS seed content
	CMS CMSConfig `yaml:"cms"`

	// Performance monitor
	Perf PerfConfig `yaml:"perf"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig configures SQLite storage.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SessionsConfig configures visitor session lifecycle.
type SessionsConfig struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// CRMConfig configures booking delivery to the external CRM endpoint.
type CRMConfig struct {
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	RetryInterval string `yaml:"retry_interval"`
}

// ContentConfig configures the content-module catalog.
type ContentConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

// ChatConfig configures the chat rulebook.
type ChatConfig struct {
	RulebookPath string `yaml:"rulebook_path"`
}

// CMSConfig configures the editable content store.
type CMSConfig struct {
	SeedPath  string `yaml:"seed_path"`
	WatchSeed bool   `yaml:"watch_seed"`
}

// PerfConfig configures the in-memory API performance monitor.
type PerfConfig struct {
	BufferSize    int    `yaml:"buffer_size"`
	SlowThreshold string `yaml:"slow_threshold"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "CuePoint",
		Version: "1.2.0",

		Server: ServerConfig{
			Addr:            ":8090",
			ShutdownTimeout: "10s",
		},

		Storage: StorageConfig{
			DatabasePath: "data/cuepoint.db",
		},

		Sessions: SessionsConfig{
			TTL:           "30m",
			SweepInterval: "5m",
		},

		CRM: CRMConfig{
			BaseURL:       "http://localhost:9000",
			Timeout:       "15s",
			RetryInterval: "30s",
		},

		Content: ContentConfig{
			CatalogPath: "",
		},

		Chat: ChatConfig{
			RulebookPath: "",
		},

		CMS: CMSConfig{
			SeedPath:  "",
			WatchSeed: false,
		},

		Perf: PerfConfig{
			BufferSize:    1024,
			SlowThreshold: "500ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies CUEPOINT_* environment overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CUEPOINT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("CUEPOINT_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if url := os.Getenv("CUEPOINT_CRM_URL"); url != "" {
		c.CRM.BaseURL = url
	}
	if ttl := os.Getenv("CUEPOINT_SESSION_TTL"); ttl != "" {
		c.Sessions.TTL = ttl
	}
	if path := os.Getenv("CUEPOINT_CATALOG"); path != "" {
		c.Content.CatalogPath = path
	}
	if path := os.Getenv("CUEPOINT_RULEBOOK"); path != "" {
		c.Chat.RulebookPath = path
	}
}

// GetShutdownTimeout returns the server shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetSessionTTL returns the session TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Sessions.TTL)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// GetSweepInterval returns the session sweep interval as a duration.
func (c *Config) GetSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Sessions.SweepInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetCRMTimeout returns the CRM delivery timeout as a duration.
func (c *Config) GetCRMTimeout() time.Duration {
	d, err := time.ParseDuration(c.CRM.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetRetryInterval returns the booking retry-loop interval as a duration.
func (c *Config) GetRetryInterval() time.Duration {
	d, err := time.ParseDuration(c.CRM.RetryInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetSlowThreshold returns the slow-request threshold as a duration.
func (c *Config) GetSlowThreshold() time.Duration {
	d, err := time.ParseDuration(c.Perf.SlowThreshold)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	if c.CRM.BaseURL == "" {
		return fmt.Errorf("crm.base_url is required")
	}
	if c.Perf.BufferSize <= 0 {
		return fmt.Errorf("perf.buffer_size must be positive")
	}
	return nil
}
