package api

import (
	"encoding/json"
	"fmt"
)

// StopReason is the terminal classification of a completion.
type StopReason string

const (
	StopReasonEnd     StopReason = "end"
	StopReasonToolUse StopReason = "tool_use"
)

// Usage holds token counts reported by the vendor, when it reports them.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ToolChatCompletion is the canonical result of one call, identical in shape
// whether it was produced by streaming or by one-shot ingestion.
type ToolChatCompletion struct {
	Blocks     []Block    `json:"blocks"`
	StopReason StopReason `json:"stop_reason"`

	// Usage is populated when the vendor reports token counts.
	Usage *Usage `json:"usage,omitempty"`
}

// NewToolChatCompletion builds a completion and derives its stop reason.
func NewToolChatCompletion(blocks []Block) *ToolChatCompletion {
	return &ToolChatCompletion{
		Blocks:     blocks,
		StopReason: StopReasonFor(blocks),
	}
}

// StopReasonFor returns tool_use when blocks contain at least one tool-use
// kind block, end otherwise.
func StopReasonFor(blocks []Block) StopReason {
	for _, b := range blocks {
		if IsToolUse(b) {
			return StopReasonToolUse
		}
	}
	return StopReasonEnd
}

// Text returns the concatenated text of the completion.
func (c *ToolChatCompletion) Text() string {
	return FlattenText(c.Blocks)
}

// ToolUses returns the tool-use kind blocks in order.
func (c *ToolChatCompletion) ToolUses() []Block {
	var out []Block
	for _, b := range c.Blocks {
		if IsToolUse(b) {
			out = append(out, b)
		}
	}
	return out
}

// MarshalJSON ensures blocks is always an array, never null.
func (c ToolChatCompletion) MarshalJSON() ([]byte, error) {
	type wire struct {
		Blocks     []Block    `json:"blocks"`
		StopReason StopReason `json:"stop_reason"`
		Usage      *Usage     `json:"usage,omitempty"`
	}
	w := wire{Blocks: c.Blocks, StopReason: c.StopReason, Usage: c.Usage}
	if w.Blocks == nil {
		w.Blocks = []Block{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the tagged block union.
func (c *ToolChatCompletion) UnmarshalJSON(data []byte) error {
	var w struct {
		Blocks     json.RawMessage `json:"blocks"`
		StopReason StopReason      `json:"stop_reason"`
		Usage      *Usage          `json:"usage,omitempty"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	c.Blocks = nil
	if len(w.Blocks) > 0 && string(w.Blocks) != "null" {
		blocks, err := UnmarshalBlocks(w.Blocks)
		if err != nil {
			return fmt.Errorf("blocks: %w", err)
		}
		c.Blocks = blocks
	}
	c.StopReason = w.StopReason
	c.Usage = w.Usage
	return nil
}
