package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// Client is a session with one MCP server.
type Client struct {
	server    provider.ToolServer
	transport mcp.Transport

	session *mcp.ClientSession

	mu     sync.Mutex
	tools  []provider.Tool
	listed bool
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the streamable HTTP transport built from the
// server URL.
func WithTransport(t mcp.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// New returns a Client for server. Call Connect before use.
func New(server provider.ToolServer, opts ...Option) *Client {
	c := &Client{server: server}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the server name.
func (c *Client) Name() string { return c.server.Name }

// Connect performs the MCP handshake.
func (c *Client) Connect(ctx context.Context) error {
	transport := c.transport
	if transport == nil {
		if c.server.URL == "" {
			return fmt.Errorf("tool server %q has no url", c.server.Name)
		}
		t := &mcp.StreamableClientTransport{Endpoint: c.server.URL}
		if c.server.AuthorizationToken != "" {
			t.HTTPClient = &http.Client{Transport: &headerTransport{
				base:    http.DefaultTransport,
				headers: map[string]string{"Authorization": "Bearer " + c.server.AuthorizationToken},
			}}
		}
		transport = t
	}

	client := mcp.NewClient(
		&mcp.Implementation{Name: "onair", Version: "1.0.0"},
		&mcp.ClientOptions{Capabilities: &mcp.ClientCapabilities{}},
	)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to tool server %q: %w", c.server.Name, err)
	}
	c.session = session
	debug.Log("providers", "tool server connected", "server", c.server.Name)
	return nil
}

// Tools lists the server's tools as function definitions. The list is
// fetched once per Client.
func (c *Client) Tools(ctx context.Context) ([]provider.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listed {
		return c.tools, nil
	}
	if c.session == nil {
		return nil, fmt.Errorf("tool server %q not connected", c.server.Name)
	}

	var out []provider.Tool
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools from %q: %w", c.server.Name, err)
		}
		t, err := convertTool(tool)
		if err != nil {
			return nil, fmt.Errorf("converting tool %q from %q: %w", tool.Name, c.server.Name, err)
		}
		out = append(out, t)
	}

	c.tools = out
	c.listed = true
	return out, nil
}

// Resolve runs use on the server. A tool that fails is reported in the
// result content, not as an error; errors are reserved for calls that
// could not be made.
func (c *Client) Resolve(ctx context.Context, use api.ToolUseBlock) (api.ToolResultBlock, error) {
	if c.session == nil {
		return api.ToolResultBlock{}, fmt.Errorf("tool server %q not connected", c.server.Name)
	}

	var args map[string]any
	if len(use.Input) > 0 {
		if err := json.Unmarshal(use.Input, &args); err != nil {
			return api.ToolResultBlock{}, fmt.Errorf("decoding input of call %s: %w", use.ID, err)
		}
	}

	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: use.Name, Arguments: args})
	if err != nil {
		return api.ToolResultBlock{}, fmt.Errorf("calling %s on %q: %w", use.Name, c.server.Name, err)
	}

	content := resultText(res)
	if res.IsError {
		content = "error: " + content
	}
	debug.Log("providers", "tool resolved", "server", c.server.Name, "tool", use.Name,
		"is_error", res.IsError, "content", debug.Truncate(content, 200))
	return api.ToolResultBlock{ToolUseID: use.ID, Content: content}, nil
}

// Close ends the session.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func convertTool(t *mcp.Tool) (provider.Tool, error) {
	var params json.RawMessage
	if t.InputSchema != nil {
		data, err := json.Marshal(t.InputSchema)
		if err != nil {
			return provider.Tool{}, fmt.Errorf("marshaling input schema: %w", err)
		}
		params = data
	}
	return provider.Tool{Name: t.Name, Description: t.Description, Parameters: params}, nil
}

// resultText joins the text content of a result, one part per line.
func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
