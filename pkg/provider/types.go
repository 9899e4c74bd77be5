package provider

import (
	"encoding/json"
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// Role is the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Blocks let earlier tool calls and their
// results be replayed: assistant turns carry ToolUseBlocks, user turns
// carry ToolResultBlocks answering them.
type Message struct {
	Role   Role        `json:"role"`
	Blocks []api.Block `json:"blocks"`
}

// Text returns the concatenated text of the message.
func (m Message) Text() string {
	return api.FlattenText(m.Blocks)
}

// SystemMessage returns a system turn holding text.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Blocks: []api.Block{api.TextBlock{Text: text}}}
}

// UserMessage returns a user turn holding text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Blocks: []api.Block{api.TextBlock{Text: text}}}
}

// AssistantMessage returns the completion as an assistant turn, ready to be
// appended to the history of the next request.
func AssistantMessage(c *api.ToolChatCompletion) Message {
	return Message{Role: RoleAssistant, Blocks: c.Blocks}
}

// ToolResultMessage returns a user turn answering a tool call.
func ToolResultMessage(toolUseID, content string) Message {
	return Message{Role: RoleUser, Blocks: []api.Block{api.ToolResultBlock{ToolUseID: toolUseID, Content: content}}}
}

// Tool is a function the model may call. Parameters is a JSON Schema
// object.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Schema returns Parameters, or an empty object schema when none is set.
func (t Tool) Schema() json.RawMessage {
	if len(t.Parameters) == 0 {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return t.Parameters
}

// ToolServer is a remote tool server the vendor calls directly.
type ToolServer struct {
	Name               string `json:"name" yaml:"name"`
	URL                string `json:"url" yaml:"url"`
	AuthorizationToken string `json:"authorization_token,omitempty" yaml:"authorization_token"`
}

// ChatRequest is the vendor-neutral request for one call.
type ChatRequest struct {
	// Model overrides the provider's default model when set.
	Model       string       `json:"model,omitempty"`
	Messages    []Message    `json:"messages"`
	Tools       []Tool       `json:"tools,omitempty"`
	ToolServers []ToolServer `json:"tool_servers,omitempty"`
	Stream      bool         `json:"stream,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

// SystemPrompt joins the text of every system message. Vendors that take
// the system prompt outside the message list use this.
func (r *ChatRequest) SystemPrompt() string {
	var parts []string
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			if t := m.Text(); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
