// Package anthropic reads Anthropic Messages API output.
//
// A stream announces each content block with content_block_start, fills
// it with deltas and closes it with content_block_stop; the block index is
// the assembler key. Tool use blocks (tool_use, server_tool_use,
// mcp_tool_use) go through the assembler. Result blocks arrive complete
// and are appended as they are.
package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/completion"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// Name is the dialect label.
const Name = "anthropic"

// Dialect implements dialect.Dialect for the Messages API.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

// New returns the Messages dialect.
func New() Dialect { return Dialect{} }

func (Dialect) Name() string   { return Name }
func (Dialect) Mode() sse.Mode { return sse.ModeEventData }

// Reduce applies one event.
func (Dialect) Reduce(st *completion.State, f sse.Frame) error {
	ev, err := decode(f)
	if err != nil {
		return dialect.Malformed(Name, f, err)
	}

	switch ev := ev.(type) {
	case messageStart:
		mergeUsage(st, ev.usage)
	case blockStart:
		startBlock(st, ev.index, ev.block)
	case textDelta:
		st.AppendText(ev.text)
	case inputDelta:
		st.Tools.AppendArgs(ev.index, ev.partial)
	case blockStop:
		if _, err := st.Tools.Finish(ev.index); err != nil {
			return err
		}
	case messageDelta:
		mergeUsage(st, ev.usage)
	case streamFailure:
		return ev.err
	case ignored:
	}
	return nil
}

// startBlock routes a block by kind. Text carried on the start event is
// appended; tool uses are opened, seeded with any non-empty input the
// start event already carries.
func startBlock(st *completion.State, index int, b ContentBlock) {
	switch b.Type {
	case blockText:
		st.AppendText(b.Text)
	case blockToolUse, blockServerToolUse, blockMCPToolUse:
		st.Tools.Start(index, b.ID, b.Name, provenance(b))
		if in := strings.TrimSpace(string(b.Input)); in != "" && in != "{}" && in != "null" {
			st.Tools.AppendArgs(index, in)
		}
	case blockToolResult, blockMCPToolResult, blockWebSearchToolResult:
		st.AppendBlock(resultBlock(b))
	}
}

func provenance(b ContentBlock) string {
	switch b.Type {
	case blockMCPToolUse:
		return b.ServerName
	case blockServerToolUse:
		return serverToolProvenance
	default:
		return ""
	}
}

func resultBlock(b ContentBlock) api.Block {
	content := resultText(b.Content)
	switch b.Type {
	case blockToolResult:
		return api.ToolResultBlock{ToolUseID: b.ToolUseID, Content: content}
	case blockMCPToolResult:
		return api.RemoteToolResultBlock{ToolUseID: b.ToolUseID, Content: content, ServerName: b.ServerName}
	default:
		return api.RemoteToolResultBlock{ToolUseID: b.ToolUseID, Content: content, ServerName: serverToolProvenance}
	}
}

// resultText flattens result content: a string is used as is, an array of
// text blocks is joined, anything else is kept as raw JSON.
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []ContentBlock
	if err := json.Unmarshal(raw, &parts); err == nil {
		var sb strings.Builder
		allText := len(parts) > 0
		for _, p := range parts {
			if p.Type != blockText {
				allText = false
				break
			}
			sb.WriteString(p.Text)
		}
		if allText {
			return sb.String()
		}
	}
	return string(raw)
}

// mergeUsage keeps input tokens from message_start and output tokens from
// the latest message_delta.
func mergeUsage(st *completion.State, u *Usage) {
	if u == nil {
		return
	}
	if st.Usage == nil {
		st.Usage = &api.Usage{}
	}
	if u.InputTokens > 0 {
		st.Usage.InputTokens = u.InputTokens
	}
	if u.OutputTokens > 0 {
		st.Usage.OutputTokens = u.OutputTokens
	}
	st.Usage.TotalTokens = st.Usage.InputTokens + st.Usage.OutputTokens
}

// Parse converts a non-streaming Messages API body.
func (Dialect) Parse(body []byte) (*api.ToolChatCompletion, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, dialect.MalformedBody(Name, err)
	}
	if msg.Type == eventError {
		var e ErrorBody
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, dialect.MalformedBody(Name, err)
		}
		return nil, api.NewStreamError(e.Error.Type, e.Error.Message)
	}

	st := completion.NewState(nil)
	for i, b := range msg.Content {
		startBlock(st, i, b)
		if _, err := st.Tools.Finish(i); err != nil {
			return nil, err
		}
	}
	mergeUsage(st, msg.Usage)
	return completion.Finalize(st)
}
