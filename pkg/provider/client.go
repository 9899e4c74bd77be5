package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
	"github.com/shinshin86/aituber-onair-sub001/pkg/negotiate"
	"github.com/shinshin86/aituber-onair-sub001/pkg/observability"
)

// Client performs the HTTP side of a call for every adapter: version
// negotiation, headers, instrumentation, and handing the body to the
// engine. Adapters embed it and supply the vendor wire format.
type Client struct {
	name         string
	baseURL      string
	apiKey       string
	defaultModel string

	httpClient   *http.Client
	streamClient *http.Client
	negotiator   *negotiate.Negotiator

	// ModelMapper is an optional function that transforms the model name
	// before sending it to the backend. If nil, the model name is used as-is.
	ModelMapper func(string) string
}

// NewClient creates a Client. policy is the adapter's default version
// policy; cfg.APIVersion is merged onto it with negotiate.Policy.Merge.
func NewClient(cfg Config, policy negotiate.Policy) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	policy = policy.Merge(cfg.APIVersion)

	transport := observability.InstrumentTransport(cfg.Transport, cfg.Name)

	c := &Client{
		name:         cfg.Name,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		// No timeout for streaming; the context controls the lifetime.
		streamClient: &http.Client{
			Transport: transport,
		},
		negotiator: &negotiate.Negotiator{
			Provider: cfg.Name,
			Policy:   policy,
		},
	}

	if len(cfg.ModelMapping) > 0 {
		mapping := cfg.ModelMapping
		c.ModelMapper = func(model string) string {
			if mapped, ok := mapping[model]; ok {
				return mapped
			}
			return model
		}
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// BaseURL returns the vendor root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// APIKey returns the configured credential.
func (c *Client) APIKey() string { return c.apiKey }

// Policy returns the version policy in effect.
func (c *Client) Policy() negotiate.Policy { return c.negotiator.Policy }

// SetRewrite installs the body rewrite applied before an alternate-version
// attempt.
func (c *Client) SetRewrite(fn negotiate.RewriteFunc) { c.negotiator.Rewrite = fn }

// Model resolves the model for req: the request's model or the default,
// passed through ModelMapper.
func (c *Client) Model(req *ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	if model == "" {
		return "", api.NewInvalidRequestError("model", "no model in request and no default model configured")
	}
	if c.ModelMapper != nil {
		model = c.ModelMapper(model)
	}
	return model, nil
}

// Call describes one vendor request.
type Call struct {
	Model  string
	Body   []byte
	Stream bool

	// URL returns the endpoint for an API version.
	URL func(version string) string

	// Header holds vendor headers (auth, beta flags). Content-Type and
	// Accept are set by Do.
	Header http.Header
}

// Do sends call through the negotiator and converts the response with d.
func (c *Client) Do(ctx context.Context, call Call, d dialect.Dialect, hooks engine.Hooks) (*api.ToolChatCompletion, error) {
	send := func(ctx context.Context, version string, body []byte) (*http.Response, error) {
		url := call.URL(version)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
		}
		for k, vs := range call.Header {
			for _, v := range vs {
				httpReq.Header.Add(k, v)
			}
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if call.Stream {
			httpReq.Header.Set("Accept", "text/event-stream")
		}
		httpReq.Header.Set(observability.ModelHeader, call.Model)

		debug.Log("providers", "sending request",
			"provider", c.name, "model", call.Model, "url", url, "stream", call.Stream)
		if debug.TraceIsEnabled("providers") {
			debug.Trace("providers", "request body", "provider", c.name, "body", string(body))
		}

		if call.Stream {
			return c.streamClient.Do(httpReq)
		}
		return c.httpClient.Do(httpReq)
	}

	resp, sel, err := c.negotiator.Do(ctx, call.Model, call.Body, send)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	debug.Log("providers", "response received",
		"provider", c.name, "model", call.Model,
		"status", resp.StatusCode, "version", sel.Version, "fallback", sel.Fallback)

	if call.Stream {
		return engine.Stream(ctx, resp.Body, d, hooks)
	}
	return engine.Parse(resp.Body, d)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
