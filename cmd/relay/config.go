// Package main provides the alertrelay server CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the relay configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Notifier NotifierConfig `yaml:"notifier"`
	Answer   AnswerConfig   `yaml:"answer"`
	Chat     ChatConfig     `yaml:"chat"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address          string `yaml:"address"`            // API listen address (default: :8080)
	MetricsAddress   string `yaml:"metrics_address"`    // Prometheus listen address (default: :9090)
	RateLimitPerIP   int    `yaml:"rate_limit_per_ip"`  // requests/s on /alert per source IP (0 = disabled)
	DefaultSinceDays int    `yaml:"default_since_days"` // query window without since: filter (default: 7)
}

// StoreConfig contains alert storage settings.
type StoreConfig struct {
	MaxRecords int    `yaml:"max_records"` // in-memory ring capacity (default: 1000)
	SQLitePath string `yaml:"sqlite_path"` // durable mirror path (empty = mirror disabled)
}

// NotifierConfig contains chat notification settings.
type NotifierConfig struct {
	WebhookURL     string `yaml:"webhook_url"`     // Google Chat incoming webhook (env: CHAT_WEBHOOK_URL)
	MaxPerMinute   int    `yaml:"max_per_minute"`  // notification rate limit (default: 30)
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per-delivery timeout (default: 10)
}

// AnswerConfig contains answer generator settings.
type AnswerConfig struct {
	APIURL         string `yaml:"api_url"`         // generateContent endpoint (env: ANSWER_API_URL)
	APIKey         string `yaml:"api_key"`         // API key (env: ANSWER_API_KEY)
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per-request timeout (default: 10)
}

// ChatConfig contains inbound chat event settings.
type ChatConfig struct {
	// VerifyToken is the chat platform's event token (env:
	// VERIFY_TOKEN). Carried in config; inbound tokens are treated as
	// opaque and not checked against it.
	VerifyToken string `yaml:"verify_token"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values, with
// environment overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.applyEnv()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Server.DefaultSinceDays == 0 {
		c.Server.DefaultSinceDays = 7
	}
	if c.Store.MaxRecords == 0 {
		c.Store.MaxRecords = 1000
	}
	if c.Notifier.MaxPerMinute == 0 {
		c.Notifier.MaxPerMinute = 30
	}
	if c.Notifier.TimeoutSeconds == 0 {
		c.Notifier.TimeoutSeconds = 10
	}
	if c.Answer.TimeoutSeconds == 0 {
		c.Answer.TimeoutSeconds = 10
	}
}

// applyEnv overrides secrets and endpoints from the environment. Env
// values win over the file so deployments never need secrets on disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("CHAT_WEBHOOK_URL"); v != "" {
		c.Notifier.WebhookURL = v
	}
	if v := os.Getenv("ANSWER_API_URL"); v != "" {
		c.Answer.APIURL = v
	}
	if v := os.Getenv("ANSWER_API_KEY"); v != "" {
		c.Answer.APIKey = v
	}
	if v := os.Getenv("VERIFY_TOKEN"); v != "" {
		c.Chat.VerifyToken = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Server.DefaultSinceDays < 0 {
		return fmt.Errorf("server.default_since_days must be >= 0")
	}
	if c.Server.RateLimitPerIP < 0 {
		return fmt.Errorf("server.rate_limit_per_ip must be >= 0")
	}
	if c.Store.MaxRecords < 1 {
		return fmt.Errorf("store.max_records must be >= 1")
	}
	if c.Notifier.WebhookURL != "" && !strings.HasPrefix(c.Notifier.WebhookURL, "https://") {
		return fmt.Errorf("notifier.webhook_url must use HTTPS")
	}
	return nil
}
