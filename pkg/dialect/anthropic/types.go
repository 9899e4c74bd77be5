package anthropic

import "encoding/json"

// Stream event names.
const (
	eventMessageStart      = "message_start"
	eventContentBlockStart = "content_block_start"
	eventContentBlockDelta = "content_block_delta"
	eventContentBlockStop  = "content_block_stop"
	eventMessageDelta      = "message_delta"
	eventMessageStop       = "message_stop"
	eventPing              = "ping"
	eventError             = "error"
)

// Content block types.
const (
	blockText                = "text"
	blockThinking            = "thinking"
	blockToolUse             = "tool_use"
	blockServerToolUse       = "server_tool_use"
	blockMCPToolUse          = "mcp_tool_use"
	blockToolResult          = "tool_result"
	blockMCPToolResult       = "mcp_tool_result"
	blockWebSearchToolResult = "web_search_tool_result"
)

// Delta types.
const (
	deltaText      = "text_delta"
	deltaInputJSON = "input_json_delta"
)

// serverToolProvenance labels tools Anthropic runs itself, such as web
// search, which carry no server name of their own.
const serverToolProvenance = "anthropic"

// Message is the non-streaming Messages API body and the "message" field
// of message_start.
type Message struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *Usage         `json:"usage,omitempty"`
}

// ContentBlock is one content block. Fields are populated by Type.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// Tool use variants.
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	ServerName string          `json:"server_name,omitempty"`

	// Tool result variants. Content is a string or an array of blocks.
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Usage is Messages API token usage.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ErrorBody is the payload of an error event and of a non-2xx reply.
type ErrorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- event payloads ---

type messageStartData struct {
	Message Message `json:"message"`
}

type blockStartData struct {
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

type blockDeltaData struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
}

type blockStopData struct {
	Index int `json:"index"`
}

type messageDeltaData struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage *Usage `json:"usage,omitempty"`
}
