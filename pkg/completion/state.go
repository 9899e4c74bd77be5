package completion

import (
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// State is what a dialect reducer folds frames into: text and resolved
// result blocks in arrival order, plus the tool calls being assembled.
type State struct {
	// Tools holds tool calls keyed by the dialect's stream index.
	Tools *Assembler

	// Usage is the latest token accounting the vendor reported.
	Usage *api.Usage

	blocks    []api.Block
	run       strings.Builder
	delivered int
	perItem   map[string]int
	onPartial func(string)
}

// NewState returns an empty State. onPartial, when non-nil, receives every
// piece of text as it is appended.
func NewState(onPartial func(string)) *State {
	return &State{
		Tools:     NewAssembler(),
		onPartial: onPartial,
	}
}

// AppendText extends the current text run and reports the fragment to the
// partial callback. Empty text is ignored.
func (s *State) AppendText(text string) {
	if text == "" {
		return
	}
	s.run.WriteString(text)
	s.delivered += len(text)
	if s.onPartial != nil {
		s.onPartial(text)
	}
}

// AppendBlock closes the current text run and appends b after it. Text
// blocks are routed through AppendText so runs still merge.
func (s *State) AppendBlock(b api.Block) {
	if t, ok := b.(api.TextBlock); ok {
		s.AppendText(t.Text)
		return
	}
	s.flush()
	s.blocks = append(s.blocks, b)
}

// AppendItemText is AppendText for vendors that later resend the whole
// text of an item. It records how much of item has been delivered.
func (s *State) AppendItemText(item, text string) {
	if text == "" {
		return
	}
	if s.perItem == nil {
		s.perItem = make(map[string]int)
	}
	s.perItem[item] += len(text)
	s.AppendText(text)
}

// CompleteItemText takes the cumulative text of item and appends only the
// part not yet delivered through AppendItemText. A full text that does not
// extend what was delivered is ignored.
func (s *State) CompleteItemText(item, full string) {
	sent := s.perItem[item]
	if sent >= len(full) {
		return
	}
	s.AppendItemText(item, full[sent:])
}

// Delivered returns the number of text bytes appended so far.
func (s *State) Delivered() int {
	return s.delivered
}

// Blocks returns the text and result blocks appended so far.
func (s *State) Blocks() []api.Block {
	s.flush()
	return s.blocks
}

func (s *State) flush() {
	if s.run.Len() == 0 {
		return
	}
	s.blocks = AppendText(s.blocks, s.run.String())
	s.run.Reset()
}
