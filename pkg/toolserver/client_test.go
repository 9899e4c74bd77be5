package toolserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// --- test helpers ---

type weatherArgs struct {
	Location string `json:"location"`
}

func newTestServer(prefix string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        prefix + "weather",
		Description: "Weather for a city",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in weatherArgs) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{
			&mcp.TextContent{Text: "sunny"},
			&mcp.TextContent{Text: "in " + in.Location},
		}}, nil, nil
	})
	server.AddTool(&mcp.Tool{
		Name:        prefix + "broken",
		Description: "Always fails",
		InputSchema: map[string]any{"type": "object"},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "backend down"}},
			IsError: true,
		}, nil
	})
	return server
}

func connectInMemory(t *testing.T, name string, server *mcp.Server) *Client {
	t.Helper()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	c := New(provider.ToolServer{Name: name}, WithTransport(clientTransport))
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// --- client ---

func TestTools(t *testing.T) {
	c := connectInMemory(t, "weather", newTestServer(""))

	tools, err := c.Tools(t.Context())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	byName := map[string]provider.Tool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	w, ok := byName["weather"]
	if !ok || len(byName) != 2 {
		t.Fatalf("tools = %+v", tools)
	}
	if w.Description != "Weather for a city" {
		t.Errorf("description = %q", w.Description)
	}

	var schema struct {
		Type       string                     `json:"type"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(w.Parameters, &schema); err != nil {
		t.Fatalf("parameters %s: %v", w.Parameters, err)
	}
	if schema.Type != "object" || schema.Properties["location"] == nil {
		t.Errorf("schema = %s", w.Parameters)
	}

	again, err := c.Tools(t.Context())
	if err != nil || len(again) != len(tools) {
		t.Errorf("second Tools = %d, %v", len(again), err)
	}
}

func TestResolve(t *testing.T) {
	c := connectInMemory(t, "weather", newTestServer(""))

	res, err := c.Resolve(t.Context(), api.ToolUseBlock{
		ID: "call_1", Name: "weather", Input: json.RawMessage(`{"location":"Osaka"}`),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.ToolUseID != "call_1" || res.Content != "sunny\nin Osaka" {
		t.Errorf("result = %+v", res)
	}
}

func TestResolveToolError(t *testing.T) {
	c := connectInMemory(t, "weather", newTestServer(""))

	res, err := c.Resolve(t.Context(), api.ToolUseBlock{ID: "call_2", Name: "broken"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Content != "error: backend down" {
		t.Errorf("content = %q", res.Content)
	}
}

func TestNotConnected(t *testing.T) {
	c := New(provider.ToolServer{Name: "idle"})
	if _, err := c.Tools(t.Context()); err == nil {
		t.Error("Tools: expected error")
	}
	if _, err := c.Resolve(t.Context(), api.ToolUseBlock{ID: "x", Name: "y"}); err == nil {
		t.Error("Resolve: expected error")
	}
	if err := New(provider.ToolServer{Name: "nourl"}).Connect(t.Context()); err == nil {
		t.Error("Connect without url: expected error")
	}
}

func TestBearerToken(t *testing.T) {
	var mu sync.Mutex
	var auth []string
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return newTestServer("")
	}, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := New(provider.ToolServer{Name: "remote", URL: srv.URL, AuthorizationToken: "tok"})
	if err := c.Connect(t.Context()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if _, err := c.Tools(t.Context()); err != nil {
		t.Fatalf("Tools: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(auth) == 0 {
		t.Fatal("no requests seen")
	}
	for _, a := range auth {
		if a != "Bearer tok" {
			t.Errorf("Authorization = %q", a)
		}
	}
}

// --- set ---

func TestSetRoutesByTool(t *testing.T) {
	a := connectInMemory(t, "a", newTestServer("a_"))
	b := connectInMemory(t, "b", newTestServer("b_"))
	set := NewSet(a, b)

	tools, err := set.Tools(t.Context())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	if len(tools) != 4 {
		t.Fatalf("tools = %d, want 4", len(tools))
	}

	blocks := []api.Block{
		api.TextBlock{Text: "checking"},
		api.ToolUseBlock{ID: "call_1", Name: "b_weather", Input: json.RawMessage(`{"location":"Kyoto"}`)},
		api.RemoteToolUseBlock{ID: "mcp_1", Name: "remote", ServerName: "elsewhere"},
		api.ToolUseBlock{ID: "call_2", Name: "a_broken"},
	}
	results, err := set.Resolve(t.Context(), blocks)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []api.ToolResultBlock{
		{ToolUseID: "call_1", Content: "sunny\nin Kyoto"},
		{ToolUseID: "call_2", Content: "error: backend down"},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %+v", results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestSetDuplicateTool(t *testing.T) {
	set := NewSet(
		connectInMemory(t, "one", newTestServer("")),
		connectInMemory(t, "two", newTestServer("")),
	)
	_, err := set.Tools(t.Context())
	if err == nil || !strings.Contains(err.Error(), `tool "`) {
		t.Errorf("err = %v, want duplicate tool error", err)
	}
}

func TestSetUnknownTool(t *testing.T) {
	set := NewSet(connectInMemory(t, "one", newTestServer("")))
	if _, err := set.Tools(t.Context()); err != nil {
		t.Fatal(err)
	}
	_, err := set.Resolve(t.Context(), []api.Block{api.ToolUseBlock{ID: "c", Name: "missing"}})
	if err == nil {
		t.Error("expected error for unknown tool")
	}
}
