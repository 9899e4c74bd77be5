package responses

import "encoding/json"

// Event names of the Responses streaming protocol that change state.
const (
	eventOutputItemAdded   = "response.output_item.added"
	eventOutputItemDone    = "response.output_item.done"
	eventTextDelta         = "response.output_text.delta"
	eventTextDone          = "response.output_text.done"
	eventFuncCallArgsDelta = "response.function_call_arguments.delta"
	eventFuncCallArgsDone  = "response.function_call_arguments.done"
	eventMCPCallArgsDelta  = "response.mcp_call_arguments.delta"
	eventMCPCallArgsDone   = "response.mcp_call_arguments.done"
	eventResponseCompleted = "response.completed"
	eventResponseFailed    = "response.failed"
	eventError             = "error"
)

// Output item types.
const (
	itemMessage      = "message"
	itemFunctionCall = "function_call"
	itemMCPCall      = "mcp_call"
)

// Response is the body of a non-streaming POST /v1/responses and the
// "response" field of terminal events.
type Response struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Model  string         `json:"model"`
	Output []OutputItem   `json:"output"`
	Usage  *Usage         `json:"usage,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// OutputItem is one entry of Response.Output. Fields are populated
// according to Type.
type OutputItem struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`

	// Set on mcp_call items.
	ServerLabel string          `json:"server_label,omitempty"`
	Output      *string         `json:"output,omitempty"`
	Error       json.RawMessage `json:"error,omitempty"`
}

// ContentPart is a part of a message item.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage is token usage in Responses naming.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ResponseError is the error object of a failed response or error event.
type ResponseError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// --- event payloads ---

type outputItemData struct {
	OutputIndex int        `json:"output_index"`
	Item        OutputItem `json:"item"`
}

type textDeltaData struct {
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

type textDoneData struct {
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Text         string `json:"text"`
}

type argsDeltaData struct {
	OutputIndex int    `json:"output_index"`
	Delta       string `json:"delta"`
}

type argsDoneData struct {
	OutputIndex int    `json:"output_index"`
	Arguments   string `json:"arguments"`
}

type responseData struct {
	Response Response `json:"response"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
