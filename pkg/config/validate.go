package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Providers) == 0 {
		errs = append(errs, fmt.Errorf("providers: at least one provider is required"))
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		path := fmt.Sprintf("providers[%d]", i)

		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", path))
		} else if seen[p.Name] {
			errs = append(errs, fmt.Errorf("%s.name %q is used twice", path, p.Name))
		}
		seen[p.Name] = true

		switch p.Vendor {
		case VendorOpenAI, VendorOpenAICompatible, VendorAnthropic, VendorGoogle:
			// valid
		default:
			errs = append(errs, fmt.Errorf("%s.vendor must be \"openai\", \"openai-compatible\", \"anthropic\", or \"google\", got %q", path, p.Vendor))
		}

		if p.BaseURL == "" {
			errs = append(errs, fmt.Errorf("%s.base_url is required for vendor %q", path, p.Vendor))
		} else if !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			errs = append(errs, fmt.Errorf("%s.base_url must be an http(s) URL, got %q", path, p.BaseURL))
		}

		if p.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s.timeout must be >= 0, got %v", path, p.Timeout))
		}

		if err := p.APIVersion.ValidateOverride(); err != nil {
			errs = append(errs, fmt.Errorf("%s.api_version: %w", path, err))
		}

		for j, s := range p.ToolServers {
			if s.Name == "" || s.URL == "" {
				errs = append(errs, fmt.Errorf("%s.tool_servers[%d]: name and url are required", path, j))
			}
		}
		if len(p.ToolServers) > 0 && (p.Vendor == VendorGoogle || p.Vendor == VendorOpenAICompatible) {
			errs = append(errs, fmt.Errorf("%s.tool_servers: vendor %q cannot call remote tool servers", path, p.Vendor))
		}
	}

	if c.DefaultProvider != "" && len(c.Providers) > 0 {
		if _, ok := c.Provider(c.DefaultProvider); !ok {
			errs = append(errs, fmt.Errorf("default_provider %q does not name a provider", c.DefaultProvider))
		}
	}

	switch strings.ToUpper(c.Logging.Level) {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be TRACE, DEBUG, INFO, WARN, or ERROR, got %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}
