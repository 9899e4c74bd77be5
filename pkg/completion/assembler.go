package completion

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// pendingCall is one tool call whose arguments are still arriving.
type pendingCall struct {
	id         string
	name       string
	provenance string
	args       strings.Builder
}

// Assembler rebuilds tool calls from fragments keyed by a stream-local
// index. Keys are whatever the dialect uses to tell calls apart: the
// tool_calls index, a content block index, an output index.
type Assembler struct {
	open map[int]*pendingCall
	done map[int]api.Block
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		open: make(map[int]*pendingCall),
		done: make(map[int]api.Block),
	}
}

// Start opens a call under key. A non-empty provenance marks the call as
// executed by a remote tool server and yields a RemoteToolUseBlock.
// Starting a key that is already open replaces it.
func (a *Assembler) Start(key int, id, name, provenance string) {
	a.open[key] = &pendingCall{id: id, name: name, provenance: provenance}
}

// AppendArgs concatenates fragment onto the call's argument buffer.
// Fragments for keys that are not open are dropped.
func (a *Assembler) AppendArgs(key int, fragment string) {
	call, ok := a.open[key]
	if !ok {
		return
	}
	call.args.WriteString(fragment)
}

// IsOpen reports whether key names a call that has not been finished.
func (a *Assembler) IsOpen(key int) bool {
	_, ok := a.open[key]
	return ok
}

// ArgsLen returns the number of argument bytes buffered under key.
func (a *Assembler) ArgsLen(key int) int {
	if call, ok := a.open[key]; ok {
		return call.args.Len()
	}
	return 0
}

// SetIdentity fills in the id and name of an open call when they were not
// known at Start. Empty values leave the current ones alone.
func (a *Assembler) SetIdentity(key int, id, name string) {
	call, ok := a.open[key]
	if !ok {
		return
	}
	if id != "" {
		call.id = id
	}
	if name != "" {
		call.name = name
	}
}

// Finish closes the call under key and parses its buffered arguments.
// An empty buffer becomes {}. A buffer that is not a JSON object yields an
// invalid_tool_arguments error naming the call id. Finishing a key that is
// not open returns (nil, nil).
func (a *Assembler) Finish(key int) (api.Block, error) {
	call, ok := a.open[key]
	if !ok {
		return nil, nil
	}
	delete(a.open, key)

	input, err := parseArgs(call.args.String())
	if err != nil {
		return nil, api.NewInvalidToolArgumentsError(call.id, err.Error())
	}

	var b api.Block
	if call.provenance != "" {
		b = api.RemoteToolUseBlock{ID: call.id, Name: call.name, Input: input, ServerName: call.provenance}
	} else {
		b = api.ToolUseBlock{ID: call.id, Name: call.name, Input: input}
	}
	a.done[key] = b
	return b, nil
}

// FinishAll finishes every open call in ascending key order and returns the
// blocks it produced. It stops at the first invalid call.
func (a *Assembler) FinishAll() ([]api.Block, error) {
	var out []api.Block
	for _, key := range a.Open() {
		b, err := a.Finish(key)
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Open returns the keys of unfinished calls in ascending order.
func (a *Assembler) Open() []int {
	keys := make([]int, 0, len(a.open))
	for k := range a.open {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NextKey returns one more than the largest key seen, for dialects whose
// calls carry no index of their own.
func (a *Assembler) NextKey() int {
	next := 0
	for k := range a.open {
		next = max(next, k+1)
	}
	for k := range a.done {
		next = max(next, k+1)
	}
	return next
}

// Blocks returns the finished calls in ascending key order.
func (a *Assembler) Blocks() []api.Block {
	keys := make([]int, 0, len(a.done))
	for k := range a.done {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]api.Block, 0, len(keys))
	for _, k := range keys {
		out = append(out, a.done[k])
	}
	return out
}

// parseArgs validates a complete argument buffer and returns it compacted.
func parseArgs(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return json.RawMessage(`{}`), nil
	}
	if trimmed[0] != '{' {
		return nil, errNotObject
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
