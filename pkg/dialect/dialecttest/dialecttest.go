// Package dialecttest provides helpers for testing dialect implementations
// against recorded stream bodies.
package dialecttest

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
)

// Result is what one streamed run produced.
type Result struct {
	Completion *api.ToolChatCompletion
	Err        error
	Partials   []string
	Malformed  []error
}

// Text joins every partial fragment in delivery order.
func (r Result) Text() string {
	return strings.Join(r.Partials, "")
}

// Run streams body through d via engine.Stream.
func Run(t *testing.T, d dialect.Dialect, body io.Reader) Result {
	t.Helper()
	var res Result
	hooks := engine.Hooks{
		OnPartial:   func(s string) { res.Partials = append(res.Partials, s) },
		OnMalformed: func(err error) { res.Malformed = append(res.Malformed, err) },
	}
	res.Completion, res.Err = engine.Stream(t.Context(), body, d, hooks)
	return res
}

// RunString is Run over a string body.
func RunString(t *testing.T, d dialect.Dialect, body string) Result {
	t.Helper()
	return Run(t, d, strings.NewReader(body))
}

// Stream runs body and fails the test on error.
func Stream(t *testing.T, d dialect.Dialect, body string) Result {
	t.Helper()
	res := RunString(t, d, body)
	if res.Err != nil {
		t.Fatalf("Stream: %v", res.Err)
	}
	return res
}

// CheckChunkBoundaries splits body at every byte offset and verifies that
// each split yields the same completion JSON and the same concatenated
// partial text as the unsplit body. newDialect is called once per run so
// dialects holding per-conversation state start fresh.
func CheckChunkBoundaries(t *testing.T, newDialect func() dialect.Dialect, body string) {
	t.Helper()

	base := Stream(t, newDialect(), body)
	want := MustJSON(t, base.Completion)

	for offset := 0; offset <= len(body); offset++ {
		r := io.MultiReader(strings.NewReader(body[:offset]), strings.NewReader(body[offset:]))
		got := Run(t, newDialect(), r)
		if got.Err != nil {
			t.Fatalf("split at %d: %v", offset, got.Err)
		}
		if js := MustJSON(t, got.Completion); js != want {
			t.Fatalf("split at %d: completion = %s, want %s", offset, js, want)
		}
		if got.Text() != base.Text() {
			t.Fatalf("split at %d: partial text = %q, want %q", offset, got.Text(), base.Text())
		}
	}
}

// MustJSON marshals v for comparison.
func MustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// Input decodes the input of a tool-use block.
func Input(t *testing.T, b api.Block) map[string]any {
	t.Helper()
	var raw json.RawMessage
	switch v := b.(type) {
	case api.ToolUseBlock:
		raw = v.Input
	case api.RemoteToolUseBlock:
		raw = v.Input
	default:
		t.Fatalf("block %#v is not a tool use", b)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("input %s: %v", raw, err)
	}
	return m
}

// SSE renders data-only frames followed by [DONE].
func SSE(payloads ...string) string {
	var sb strings.Builder
	for _, p := range payloads {
		sb.WriteString("data: ")
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}
	sb.WriteString("data: [DONE]\n\n")
	return sb.String()
}

// Events renders event/data pairs. Pass name, payload, name, payload, ...
func Events(pairs ...string) string {
	var sb strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		sb.WriteString("event: ")
		sb.WriteString(pairs[i])
		sb.WriteString("\ndata: ")
		sb.WriteString(pairs[i+1])
		sb.WriteString("\n\n")
	}
	return sb.String()
}
