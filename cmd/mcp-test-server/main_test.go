package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = newServer().Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(t.Context(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if len(res.Content) == 0 {
		return "", res.IsError
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	return tc.Text, res.IsError
}

func TestTools(t *testing.T) {
	session := connect(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"echo", map[string]any{"message": "ping"}, "Echo: ping"},
		{"get_weather", map[string]any{"location": "Tokyo"}, "Sunny, 22°C in Tokyo"},
		{"get_weather", map[string]any{"location": "Boston", "unit": "fahrenheit"}, "Sunny, 72°F in Boston"},
	}
	for _, tt := range tests {
		got, isErr := callText(t, session, tt.name, tt.args)
		if isErr || got != tt.want {
			t.Errorf("%s(%v) = %q (error %v), want %q", tt.name, tt.args, got, isErr, tt.want)
		}
	}
}

func TestWeatherRequiresLocation(t *testing.T) {
	session := connect(t)

	if _, isErr := callText(t, session, "get_weather", map[string]any{}); !isErr {
		t.Error("expected a tool error without location")
	}
}

func TestListTools(t *testing.T) {
	session := connect(t)

	names := map[string]bool{}
	for tool, err := range session.Tools(t.Context(), nil) {
		if err != nil {
			t.Fatalf("Tools: %v", err)
		}
		names[tool.Name] = true
	}
	if !names["echo"] || !names["get_weather"] || len(names) != 2 {
		t.Errorf("tools = %v", names)
	}
}

func TestRequireToken(t *testing.T) {
	srv := httptest.NewServer(newMux(newServer(), "secret"))
	defer srv.Close()

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req, _ := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/mcp", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("Authorization %q: status = %d, want %d", tt.header, resp.StatusCode, tt.want)
		}
	}

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestAuthenticatedClient(t *testing.T) {
	srv := httptest.NewServer(newMux(newServer(), "secret"))
	defer srv.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	transport := &mcp.StreamableClientTransport{
		Endpoint:   srv.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: "secret"}},
	}
	session, err := client.Connect(t.Context(), transport, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close()

	if got, _ := callText(t, session, "echo", map[string]any{"message": "hi"}); got != "Echo: hi" {
		t.Errorf("echo = %q", got)
	}
}

type bearer struct{ token string }

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(r)
}
