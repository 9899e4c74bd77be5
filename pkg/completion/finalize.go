package completion

import "github.com/shinshin86/aituber-onair-sub001/pkg/api"

// Finalize force-finishes any open tool calls and builds the completion:
// text and result blocks first, then tool uses in ascending key order.
// The stop reason is tool_use iff a tool-use block is present.
func Finalize(s *State) (*api.ToolChatCompletion, error) {
	if _, err := s.Tools.FinishAll(); err != nil {
		return nil, err
	}

	blocks := append([]api.Block{}, s.Blocks()...)
	blocks = append(blocks, s.Tools.Blocks()...)

	c := api.NewToolChatCompletion(blocks)
	c.Usage = s.Usage
	return c, nil
}
