package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	dialect "github.com/shinshin86/aituber-onair-sub001/pkg/dialect/google"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
	"github.com/shinshin86/aituber-onair-sub001/pkg/negotiate"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// DefaultName is the provider name used when the config has none.
const DefaultName = "gemini"

// DefaultPolicy tries the stable API first and falls back to v1beta for
// models or fields only the beta serves. Preview and experimental models
// are only published on v1beta, so they are pinned there.
var DefaultPolicy = negotiate.Policy{
	Primary:   "v1",
	Alternate: "v1beta",
	Pins: []negotiate.Pin{
		{Pattern: "*-preview*", Version: "v1beta"},
		{Pattern: "*-exp*", Version: "v1beta"},
	},
}

// Provider implements provider.Provider for Gemini.
type Provider struct {
	*provider.Client
	dialectOpts []dialect.Option
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithDialectOptions passes options to every dialect the provider builds.
func WithDialectOptions(opts ...dialect.Option) Option {
	return func(p *Provider) { p.dialectOpts = append(p.dialectOpts, opts...) }
}

// New creates a Gemini provider.
func New(cfg provider.Config, opts ...Option) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("google: BaseURL is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	p := &Provider{Client: provider.NewClient(cfg, DefaultPolicy)}
	p.SetRewrite(rewriteForVersion)
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Capabilities reports streaming and function tools. Gemini has no remote
// tool server support.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, ToolCalling: true}
}

// Complete sends one generateContent request.
func (p *Provider) Complete(ctx context.Context, req *provider.ChatRequest, hooks engine.Hooks) (*api.ToolChatCompletion, error) {
	if apiErr := provider.ValidateCapabilities(p.Capabilities(), req); apiErr != nil {
		return nil, apiErr
	}
	model, err := p.Model(req)
	if err != nil {
		return nil, err
	}

	conv := conversationFor(req)
	body, err := buildRequest(req, conv)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to build request: %s", err.Error()))
	}
	if sel := p.Policy().Select(model); sel.Version == "v1" {
		if body, err = rewriteForVersion(sel.Version, body); err != nil {
			return nil, api.NewServerError(fmt.Sprintf("failed to build request: %s", err.Error()))
		}
	}

	header := http.Header{}
	if key := p.APIKey(); key != "" {
		header.Set("x-goog-api-key", key)
	}

	return p.Do(ctx, provider.Call{
		Model:  model,
		Body:   body,
		Stream: req.Stream,
		URL: func(version string) string {
			return endpoint(p.BaseURL(), version, model, req.Stream)
		},
		Header: header,
	}, dialect.New(conv, p.dialectOpts...), hooks)
}

// conversationFor records every tool call in the history so replayed
// results can name their function.
func conversationFor(req *provider.ChatRequest) *dialect.Conversation {
	conv := dialect.NewConversation()
	for _, m := range req.Messages {
		for _, b := range m.Blocks {
			if tu, ok := b.(api.ToolUseBlock); ok {
				conv.Record(tu.ID, tu.Name)
			}
		}
	}
	return conv
}

func endpoint(baseURL, version, model string, stream bool) string {
	u := baseURL + "/" + version + "/models/" + url.PathEscape(model)
	if stream {
		return u + ":streamGenerateContent?alt=sse"
	}
	return u + ":generateContent"
}
