package responses

import "encoding/json"

// request is the wire format for POST /{version}/responses.
type request struct {
	Model           string `json:"model"`
	Instructions    string `json:"instructions,omitempty"`
	Input           []any  `json:"input"`
	Tools           []tool `json:"tools,omitempty"`
	MaxOutputTokens *int   `json:"max_output_tokens,omitempty"`
	Stream          bool   `json:"stream,omitempty"`
	Store           bool   `json:"store"`
}

type inputMessage struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type functionCall struct {
	Type      string `json:"type"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type functionCallOutput struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// tool is either a function tool or an mcp tool server.
type tool struct {
	Type string `json:"type"`

	// function
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`

	// mcp
	ServerLabel     string            `json:"server_label,omitempty"`
	ServerURL       string            `json:"server_url,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	RequireApproval string            `json:"require_approval,omitempty"`
}
