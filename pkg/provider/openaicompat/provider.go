package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect/openaichat"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
	"github.com/shinshin86/aituber-onair-sub001/pkg/negotiate"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// DefaultName is the provider name used when the config has none.
const DefaultName = "openai"

// DefaultPolicy keeps every model on /v1.
var DefaultPolicy = negotiate.Policy{Primary: "v1"}

// Provider implements provider.Provider for Chat Completions backends.
type Provider struct {
	*provider.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a Chat Completions provider.
func New(cfg provider.Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openaicompat: BaseURL is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	return &Provider{Client: provider.NewClient(cfg, DefaultPolicy)}, nil
}

// Capabilities reports streaming and function tools; remote tool servers
// need the Responses API.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, ToolCalling: true}
}

// Complete sends one chat completion request.
func (p *Provider) Complete(ctx context.Context, req *provider.ChatRequest, hooks engine.Hooks) (*api.ToolChatCompletion, error) {
	if apiErr := provider.ValidateCapabilities(p.Capabilities(), req); apiErr != nil {
		return nil, apiErr
	}
	model, err := p.Model(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(TranslateToChat(req, model))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	header := http.Header{}
	if key := p.APIKey(); key != "" {
		header.Set("Authorization", "Bearer "+key)
	}

	return p.Do(ctx, provider.Call{
		Model:  model,
		Body:   body,
		Stream: req.Stream,
		URL: func(version string) string {
			return p.BaseURL() + "/" + version + "/chat/completions"
		},
		Header: header,
	}, openaichat.New(), hooks)
}
