package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BlockType is the wire tag of a canonical completion block.
type BlockType string

const (
	BlockTypeText             BlockType = "text"
	BlockTypeToolUse          BlockType = "tool_use"
	BlockTypeToolResult       BlockType = "tool_result"
	BlockTypeRemoteToolUse    BlockType = "mcp_tool_use"
	BlockTypeRemoteToolResult BlockType = "mcp_tool_result"
)

// Block is one vendor-neutral unit of completion output. The set of
// implementations is closed; switch on the concrete type to handle each kind.
type Block interface {
	BlockType() BlockType
	isBlock()
}

// TextBlock is emitted text. A finalized block sequence never contains two
// adjacent TextBlocks.
type TextBlock struct {
	Text string `json:"text"`
}

// ToolUseBlock is a fully resolved tool invocation. Input is always a JSON
// object.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultBlock is an already-resolved tool result echoed back by a vendor.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

// RemoteToolUseBlock is a tool invocation executed by a vendor-side tool
// server. ServerName records which server handled it.
type RemoteToolUseBlock struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Input      json.RawMessage `json:"input"`
	ServerName string          `json:"server_name"`
}

// RemoteToolResultBlock is the result of a RemoteToolUseBlock.
type RemoteToolResultBlock struct {
	ToolUseID  string `json:"tool_use_id"`
	Content    string `json:"content"`
	ServerName string `json:"server_name,omitempty"`
}

func (TextBlock) BlockType() BlockType             { return BlockTypeText }
func (ToolUseBlock) BlockType() BlockType          { return BlockTypeToolUse }
func (ToolResultBlock) BlockType() BlockType       { return BlockTypeToolResult }
func (RemoteToolUseBlock) BlockType() BlockType    { return BlockTypeRemoteToolUse }
func (RemoteToolResultBlock) BlockType() BlockType { return BlockTypeRemoteToolResult }

func (TextBlock) isBlock()             {}
func (ToolUseBlock) isBlock()          {}
func (ToolResultBlock) isBlock()       {}
func (RemoteToolUseBlock) isBlock()    {}
func (RemoteToolResultBlock) isBlock() {}

// IsToolUse reports whether b asks the caller (or a tool server) to run a tool.
func IsToolUse(b Block) bool {
	switch b.(type) {
	case ToolUseBlock, RemoteToolUseBlock:
		return true
	default:
		return false
	}
}

// emptyInput is substituted when a tool use carries no input.
var emptyInput = json.RawMessage(`{}`)

// MarshalJSON adds the "type" discriminator.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	type wire TextBlock
	return marshalTagged(BlockTypeText, wire(b))
}

// MarshalJSON adds the "type" discriminator and normalizes a nil input to {}.
func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	type wire ToolUseBlock
	if len(b.Input) == 0 {
		b.Input = emptyInput
	}
	return marshalTagged(BlockTypeToolUse, wire(b))
}

// MarshalJSON adds the "type" discriminator.
func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	type wire ToolResultBlock
	return marshalTagged(BlockTypeToolResult, wire(b))
}

// MarshalJSON adds the "type" discriminator and normalizes a nil input to {}.
func (b RemoteToolUseBlock) MarshalJSON() ([]byte, error) {
	type wire RemoteToolUseBlock
	if len(b.Input) == 0 {
		b.Input = emptyInput
	}
	return marshalTagged(BlockTypeRemoteToolUse, wire(b))
}

// MarshalJSON adds the "type" discriminator.
func (b RemoteToolResultBlock) MarshalJSON() ([]byte, error) {
	type wire RemoteToolResultBlock
	return marshalTagged(BlockTypeRemoteToolResult, wire(b))
}

// marshalTagged encodes v as a JSON object and prepends the type field.
func marshalTagged(t BlockType, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head := fmt.Sprintf(`{"type":%q`, t)
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	return []byte(head + "," + string(body[1:])), nil
}

// UnmarshalBlock decodes one tagged block.
func UnmarshalBlock(data []byte) (Block, error) {
	var head struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case BlockTypeText:
		var b TextBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case BlockTypeToolUse:
		var b ToolUseBlock
		err := json.Unmarshal(data, &b)
		if len(b.Input) == 0 {
			b.Input = emptyInput
		}
		return b, err
	case BlockTypeToolResult:
		var b ToolResultBlock
		err := json.Unmarshal(data, &b)
		return b, err
	case BlockTypeRemoteToolUse:
		var b RemoteToolUseBlock
		err := json.Unmarshal(data, &b)
		if len(b.Input) == 0 {
			b.Input = emptyInput
		}
		return b, err
	case BlockTypeRemoteToolResult:
		var b RemoteToolResultBlock
		err := json.Unmarshal(data, &b)
		return b, err
	default:
		return nil, fmt.Errorf("unknown block type %q", head.Type)
	}
}

// UnmarshalBlocks decodes a JSON array of tagged blocks.
func UnmarshalBlocks(data []byte) ([]Block, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	blocks := make([]Block, 0, len(raw))
	for i, r := range raw {
		b, err := UnmarshalBlock(r)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// FlattenText concatenates the text of every TextBlock in order.
func FlattenText(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		if t, ok := b.(TextBlock); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}
