package openaicompat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect/dialecttest"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// --- test helpers ---

type captured struct {
	path   string
	header http.Header
	body   ChatCompletionRequest
}

func newBackend(t *testing.T, status int, contentType, respBody string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.header = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &got.body); err != nil {
			t.Errorf("request body: %v", err)
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newProvider(t *testing.T, srv *httptest.Server, mutate ...func(*provider.Config)) *Provider {
	t.Helper()
	cfg := provider.Config{
		Name:         "openai-test",
		BaseURL:      srv.URL + "/",
		APIKey:       "sk-test",
		DefaultModel: "gpt-4o-mini",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// --- construction ---

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(provider.Config{}); err == nil {
		t.Fatal("expected error for empty BaseURL")
	}
}

func TestNewDefaultName(t *testing.T) {
	p, err := New(provider.Config{BaseURL: "http://localhost"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != DefaultName {
		t.Errorf("Name() = %q, want %q", p.Name(), DefaultName)
	}
}

// --- streaming ---

func TestCompleteStreamingText(t *testing.T) {
	body := dialecttest.SSE(
		`{"choices":[{"delta":{"content":"Hello"}}]}`,
		`{"choices":[{"delta":{"content":" world"}}]}`,
		`{"choices":[],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
	)
	srv, got := newBackend(t, http.StatusOK, "text/event-stream", body)
	p := newProvider(t, srv)

	var partials []string
	hooks := engine.Hooks{OnPartial: func(s string) { partials = append(partials, s) }}
	c, err := p.Complete(t.Context(), &provider.ChatRequest{
		Messages: []provider.Message{provider.SystemMessage("be brief"), provider.UserMessage("hi")},
		Stream:   true,
	}, hooks)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if c.Text() != "Hello world" || c.StopReason != api.StopReasonEnd {
		t.Errorf("completion = %+v", c)
	}
	if !reflect.DeepEqual(partials, []string{"Hello", " world"}) {
		t.Errorf("partials = %q", partials)
	}
	if c.Usage == nil || c.Usage.TotalTokens != 5 {
		t.Errorf("usage = %+v", c.Usage)
	}

	if got.path != "/v1/chat/completions" {
		t.Errorf("path = %q", got.path)
	}
	if auth := got.header.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if accept := got.header.Get("Accept"); accept != "text/event-stream" {
		t.Errorf("Accept = %q", accept)
	}
	if got.header.Get("X-Onair-Model") != "" {
		t.Error("model header leaked to the backend")
	}
	if got.body.Model != "gpt-4o-mini" || !got.body.Stream {
		t.Errorf("request = %+v", got.body)
	}
	if got.body.StreamOptions == nil || !got.body.StreamOptions.IncludeUsage {
		t.Error("stream_options.include_usage not set")
	}
	if len(got.body.Messages) != 2 || got.body.Messages[0].Role != "system" || got.body.Messages[1].Content != "hi" {
		t.Errorf("messages = %+v", got.body.Messages)
	}
}

func TestCompleteStreamingTruncatedArguments(t *testing.T) {
	body := dialecttest.SSE(
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"getWeather","arguments":"{\"city\":"}}]}}]}`,
	)
	srv, _ := newBackend(t, http.StatusOK, "text/event-stream", body)
	p := newProvider(t, srv)

	_, err := p.Complete(t.Context(), &provider.ChatRequest{
		Messages: []provider.Message{provider.UserMessage("weather?")},
		Stream:   true,
	}, engine.Hooks{})

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidToolArguments || apiErr.Param != "call_1" {
		t.Fatalf("err = %v, want invalid_tool_arguments for call_1", err)
	}
}

// --- one-shot ---

func TestCompleteNonStreamingToolCall(t *testing.T) {
	resp := `{"choices":[{"index":0,"message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"getWeather","arguments":"{\"city\":\"Tokyo\"}"}}]},"finish_reason":"tool_calls"}]}`
	srv, got := newBackend(t, http.StatusOK, "application/json", resp)
	p := newProvider(t, srv)

	c, err := p.Complete(t.Context(), &provider.ChatRequest{
		Model:     "gpt-4o",
		Messages:  []provider.Message{provider.UserMessage("weather in Tokyo?")},
		Tools:     []provider.Tool{{Name: "getWeather", Description: "weather lookup"}},
		MaxTokens: 64,
	}, engine.Hooks{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.StopReason != api.StopReasonToolUse {
		t.Errorf("StopReason = %q", c.StopReason)
	}
	uses := c.ToolUses()
	if len(uses) != 1 {
		t.Fatalf("tool uses = %#v", uses)
	}
	if in := dialecttest.Input(t, uses[0]); in["city"] != "Tokyo" {
		t.Errorf("input = %v", in)
	}

	if got.body.Stream || got.body.StreamOptions != nil {
		t.Errorf("non-streaming request carried stream settings: %+v", got.body)
	}
	if got.body.MaxTokens == nil || *got.body.MaxTokens != 64 {
		t.Errorf("max_tokens = %v", got.body.MaxTokens)
	}
	if len(got.body.Tools) != 1 || got.body.Tools[0].Type != "function" || got.body.Tools[0].Function.Name != "getWeather" {
		t.Fatalf("tools = %+v", got.body.Tools)
	}
	if string(got.body.Tools[0].Function.Parameters) != `{"type":"object","properties":{}}` {
		t.Errorf("parameters = %s", got.body.Tools[0].Function.Parameters)
	}
}

func TestCompleteModelMapping(t *testing.T) {
	srv, got := newBackend(t, http.StatusOK, "application/json", `{"choices":[{"message":{"content":"ok"}}]}`)
	p := newProvider(t, srv, func(c *provider.Config) {
		c.ModelMapping = map[string]string{"fast": "glm-4.5-flash"}
	})

	if _, err := p.Complete(t.Context(), &provider.ChatRequest{
		Model:    "fast",
		Messages: []provider.Message{provider.UserMessage("hi")},
	}, engine.Hooks{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.body.Model != "glm-4.5-flash" {
		t.Errorf("model = %q, want glm-4.5-flash", got.body.Model)
	}
}

func TestCompleteCustomVersion(t *testing.T) {
	srv, got := newBackend(t, http.StatusOK, "application/json", `{"choices":[{"message":{"content":"ok"}}]}`)
	p := newProvider(t, srv, func(c *provider.Config) {
		c.APIVersion.Primary = "api/paas/v4"
	})

	if _, err := p.Complete(t.Context(), &provider.ChatRequest{
		Messages: []provider.Message{provider.UserMessage("hi")},
	}, engine.Hooks{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.path != "/api/paas/v4/chat/completions" {
		t.Errorf("path = %q", got.path)
	}
}

// --- errors ---

func TestCompleteHTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType api.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, api.ErrorTypeAuthentication},
		{"rate limited", http.StatusTooManyRequests, api.ErrorTypeTooManyRequests},
		{"not found", http.StatusNotFound, api.ErrorTypeNotFound},
		{"server error", http.StatusInternalServerError, api.ErrorTypeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newBackend(t, tt.status, "application/json", `{"error":{"message":"nope"}}`)
			p := newProvider(t, srv)

			_, err := p.Complete(t.Context(), &provider.ChatRequest{
				Messages: []provider.Message{provider.UserMessage("hi")},
			}, engine.Hooks{})

			var apiErr *api.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *api.APIError", err)
			}
			if apiErr.Type != tt.wantType || apiErr.StatusCode != tt.status {
				t.Errorf("err = %+v, want type %s status %d", apiErr, tt.wantType, tt.status)
			}
		})
	}
}

func TestCompleteRejectsToolServers(t *testing.T) {
	p, err := New(provider.Config{BaseURL: "http://localhost:1", DefaultModel: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Complete(t.Context(), &provider.ChatRequest{
		Messages:    []provider.Message{provider.UserMessage("hi")},
		ToolServers: []provider.ToolServer{{Name: "weather", URL: "http://localhost/mcp"}},
	}, engine.Hooks{})

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Param != "tool_servers" {
		t.Fatalf("err = %v, want invalid tool_servers", err)
	}
}

func TestCompleteRequiresModel(t *testing.T) {
	p, err := New(provider.Config{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Complete(t.Context(), &provider.ChatRequest{
		Messages: []provider.Message{provider.UserMessage("hi")},
	}, engine.Hooks{})

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Param != "model" {
		t.Fatalf("err = %v, want invalid model", err)
	}
}
