// Package config provides unified configuration for the onair normalizer.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (ONAIR_ prefix)
//  4. Per-vendor defaults for unset provider fields
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import (
	"time"

	"github.com/shinshin86/aituber-onair-sub001/pkg/negotiate"
)

// Vendor names accepted in providers[*].vendor.
const (
	VendorOpenAI           = "openai"
	VendorOpenAICompatible = "openai-compatible"
	VendorAnthropic        = "anthropic"
	VendorGoogle           = "google"
)

// DefaultTimeout applies to providers without a timeout.
const DefaultTimeout = 120 * time.Second

// Config holds all configuration for the normalizer.
type Config struct {
	// DefaultProvider names the provider used when a call names none.
	// Defaults to the first provider.
	DefaultProvider string           `yaml:"default_provider"`
	Logging         LoggingConfig    `yaml:"logging"`
	Metrics         MetricsConfig    `yaml:"metrics"`
	Providers       []ProviderConfig `yaml:"providers"`
}

// LoggingConfig holds log level and debug category settings. The
// ONAIR_LOG_LEVEL and ONAIR_DEBUG environment variables win over both.
type LoggingConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated categories
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // default: true
}

// ProviderConfig describes one vendor backend.
type ProviderConfig struct {
	Name         string            `yaml:"name"`
	Vendor       string            `yaml:"vendor"`
	BaseURL      string            `yaml:"base_url"`      // default: vendor endpoint
	APIKey       string            `yaml:"api_key"`       // optional
	APIKeyFile   string            `yaml:"api_key_file"`  // _file variant for api_key
	DefaultModel string            `yaml:"default_model"` // optional
	Timeout      time.Duration     `yaml:"timeout"`       // default: 120s
	ModelMapping map[string]string `yaml:"model_mapping"`

	// APIVersion overrides the vendor's version policy.
	APIVersion negotiate.Policy `yaml:"api_version"`

	ToolServers []ToolServerConfig `yaml:"tool_servers"`
}

// ToolServerConfig describes a remote tool server the vendor calls.
type ToolServerConfig struct {
	Name                   string `yaml:"name" json:"name"`
	URL                    string `yaml:"url" json:"url"`
	AuthorizationToken     string `yaml:"authorization_token" json:"authorization_token"`
	AuthorizationTokenFile string `yaml:"authorization_token_file" json:"authorization_token_file"` // _file variant
}

// vendorBaseURLs are the public endpoints used when base_url is unset.
var vendorBaseURLs = map[string]string{
	VendorOpenAI:    "https://api.openai.com",
	VendorAnthropic: "https://api.anthropic.com",
	VendorGoogle:    "https://generativelanguage.googleapis.com",
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Provider returns the provider named name, or the default provider when
// name is empty.
func (c *Config) Provider(name string) (*ProviderConfig, bool) {
	if name == "" {
		name = c.DefaultProvider
	}
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], true
		}
	}
	return nil, false
}
