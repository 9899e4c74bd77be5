// Package chat is the single call surface over every configured provider.
// It picks the provider, applies configured tool servers, and for OpenAI
// chooses between Chat Completions and Responses once per call.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/config"
	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
	"github.com/shinshin86/aituber-onair-sub001/pkg/negotiate"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider/anthropic"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider/google"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider/openaicompat"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider/responses"
)

// Service dispatches calls to configured providers. It is safe for
// concurrent use; calls share nothing but HTTP connection pools.
type Service struct {
	defaultProvider string
	entries         map[string]*entry
}

// entry is one configured provider. responses is set only for the openai
// vendor, which serves both endpoint families.
type entry struct {
	chat        provider.Provider
	responses   provider.Provider
	toolServers []provider.ToolServer
}

// Option configures a Service.
type Option func(*options)

type options struct {
	transport http.RoundTripper
}

// WithTransport sets the base round tripper for every provider.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New builds one provider per configured entry.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{
		defaultProvider: cfg.DefaultProvider,
		entries:         make(map[string]*entry, len(cfg.Providers)),
	}
	for _, pc := range cfg.Providers {
		e, err := newEntry(pc, o)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		s.entries[pc.Name] = e
		debug.Log("providers", "provider configured",
			"name", pc.Name, "vendor", pc.Vendor, "base_url", pc.BaseURL,
			"tool_servers", len(pc.ToolServers))
	}
	return s, nil
}

func newEntry(pc config.ProviderConfig, o options) (*entry, error) {
	pcfg := provider.Config{
		Name:         pc.Name,
		BaseURL:      pc.BaseURL,
		APIKey:       pc.APIKey,
		DefaultModel: pc.DefaultModel,
		Timeout:      pc.Timeout,
		ModelMapping: pc.ModelMapping,
		APIVersion:   pc.APIVersion,
		Transport:    o.transport,
	}

	e := &entry{}
	for _, ts := range pc.ToolServers {
		e.toolServers = append(e.toolServers, provider.ToolServer{
			Name:               ts.Name,
			URL:                ts.URL,
			AuthorizationToken: ts.AuthorizationToken,
		})
	}

	var err error
	switch pc.Vendor {
	case config.VendorOpenAI:
		if e.chat, err = openaicompat.New(pcfg); err != nil {
			return nil, err
		}
		e.responses, err = responses.New(pcfg)
	case config.VendorOpenAICompatible:
		e.chat, err = openaicompat.New(pcfg)
	case config.VendorAnthropic:
		e.chat, err = anthropic.New(pcfg)
	case config.VendorGoogle:
		e.chat, err = google.New(pcfg)
	default:
		err = fmt.Errorf("unknown vendor %q", pc.Vendor)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Providers returns the configured provider names, sorted.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete runs one call on the named provider, or the default provider
// when name is empty. Configured tool servers are used when req names
// none. req is not modified.
func (s *Service) Complete(ctx context.Context, name string, req *provider.ChatRequest, hooks engine.Hooks) (*api.ToolChatCompletion, error) {
	if name == "" {
		name = s.defaultProvider
	}
	e, ok := s.entries[name]
	if !ok {
		return nil, api.NewNotFoundError(fmt.Sprintf("provider %q is not configured", name))
	}

	call := *req
	if len(call.ToolServers) == 0 {
		call.ToolServers = e.toolServers
	}

	p := e.chat
	if e.responses != nil {
		style := negotiate.SelectStyle(len(call.ToolServers))
		if style == negotiate.StyleResponses {
			p = e.responses
		}
		debug.Log("negotiate", "selected endpoint style",
			"provider", name, "style", style.String(), "tool_servers", len(call.ToolServers))
	}

	return p.Complete(ctx, &call, hooks)
}

// Close releases every provider.
func (s *Service) Close() error {
	var errs []error
	for _, e := range s.entries {
		for _, p := range []provider.Provider{e.chat, e.responses} {
			if p == nil {
				continue
			}
			if err := p.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
