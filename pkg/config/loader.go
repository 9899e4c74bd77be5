package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ONAIR_CONFIG env, ./config.yaml, /etc/onair/config.yaml)
//  3. Environment variable overrides
//  4. Vendor defaults (base_url, timeout, default_provider)
//  5. File reference resolution (_file suffix)
//  6. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	applyProviderDefaults(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	debug.Log("config", "configuration ready",
		"providers", len(cfg.Providers), "default_provider", cfg.DefaultProvider)
	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. ONAIR_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/onair/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("ONAIR_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/onair/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps ONAIR_* environment variables to config fields.
// Provider-level variables apply to the default provider. When no provider
// is configured and ONAIR_PROVIDER names a vendor, a provider for that
// vendor is created so a config file is optional.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ONAIR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ONAIR_DEBUG"); v != "" {
		cfg.Logging.Debug = v
	}

	if v := os.Getenv("ONAIR_PROVIDER"); v != "" {
		cfg.DefaultProvider = v
		if _, ok := cfg.Provider(v); !ok && len(cfg.Providers) == 0 {
			cfg.Providers = append(cfg.Providers, ProviderConfig{Name: v, Vendor: v})
		}
	}

	p := defaultProvider(cfg)
	if p == nil {
		return nil
	}
	if v := os.Getenv("ONAIR_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv("ONAIR_API_KEY"); v != "" {
		p.APIKey = v
	}
	if v := os.Getenv("ONAIR_MODEL"); v != "" {
		p.DefaultModel = v
	}

	// ONAIR_TOOL_SERVERS: JSON array of tool server configs.
	if v := os.Getenv("ONAIR_TOOL_SERVERS"); v != "" {
		servers, err := parseToolServersJSON(v)
		if err != nil {
			return err
		}
		p.ToolServers = servers
	}
	return nil
}

// defaultProvider returns the provider env overrides apply to: the one
// named by default_provider, else the first.
func defaultProvider(cfg *Config) *ProviderConfig {
	if p, ok := cfg.Provider(""); ok {
		return p
	}
	if cfg.DefaultProvider == "" && len(cfg.Providers) > 0 {
		return &cfg.Providers[0]
	}
	return nil
}

// parseToolServersJSON parses a JSON array of tool server configurations.
func parseToolServersJSON(jsonStr string) ([]ToolServerConfig, error) {
	var servers []ToolServerConfig
	if err := json.Unmarshal([]byte(jsonStr), &servers); err != nil {
		return nil, fmt.Errorf("parsing ONAIR_TOOL_SERVERS JSON: %w", err)
	}
	return servers, nil
}

// applyProviderDefaults fills vendor endpoints, timeouts, provider names
// and the default provider.
func applyProviderDefaults(cfg *Config) {
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.Name == "" {
			p.Name = p.Vendor
		}
		if p.BaseURL == "" {
			p.BaseURL = vendorBaseURLs[p.Vendor]
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultTimeout
		}
	}
	if cfg.DefaultProvider == "" && len(cfg.Providers) > 0 {
		cfg.DefaultProvider = cfg.Providers[0].Name
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	for i := range cfg.Providers {
		p := &cfg.Providers[i]

		// providers[*].api_key_file -> providers[*].api_key
		if p.APIKeyFile != "" && p.APIKey == "" {
			val, err := readSecretFile(p.APIKeyFile)
			if err != nil {
				return fmt.Errorf("providers[%d].api_key_file: %w", i, err)
			}
			p.APIKey = val
		}

		// providers[*].tool_servers[*].authorization_token_file
		for j := range p.ToolServers {
			s := &p.ToolServers[j]
			if s.AuthorizationTokenFile != "" && s.AuthorizationToken == "" {
				val, err := readSecretFile(s.AuthorizationTokenFile)
				if err != nil {
					return fmt.Errorf("providers[%d].tool_servers[%d].authorization_token_file: %w", i, j, err)
				}
				s.AuthorizationToken = val
			}
		}
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
