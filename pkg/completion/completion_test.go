package completion

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// inputOf decodes a tool-use block's input for comparison.
func inputOf(t *testing.T, b api.Block) map[string]any {
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

// --- text ---

func TestAppendTextMerges(t *testing.T) {
	var blocks []api.Block
	blocks = AppendText(blocks, "a")
	blocks = AppendText(blocks, "")
	blocks = AppendText(blocks, "b")

	want := []api.Block{api.TextBlock{Text: "ab"}}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("blocks = %#v, want %#v", blocks, want)
	}
}

func TestAppendTextAfterNonText(t *testing.T) {
	blocks := []api.Block{api.ToolResultBlock{ToolUseID: "x", Content: "y"}}
	blocks = AppendText(blocks, "after")

	if len(blocks) != 2 {
		t.Fatalf("len = %d, want 2", len(blocks))
	}
	if blocks[1] != (api.TextBlock{Text: "after"}) {
		t.Errorf("blocks[1] = %#v", blocks[1])
	}
}

func TestAppendTextEmptyNeverCreatesBlock(t *testing.T) {
	if blocks := AppendText(nil, ""); len(blocks) != 0 {
		t.Errorf("blocks = %#v, want none", blocks)
	}
}

func TestFlatten(t *testing.T) {
	blocks := []api.Block{
		api.TextBlock{Text: "one "},
		api.ToolResultBlock{ToolUseID: "x", Content: "ignored"},
		api.TextBlock{Text: "two"},
	}
	if got := Flatten(blocks); got != "one two" {
		t.Errorf("Flatten = %q", got)
	}
}

// --- assembler ---

func TestAssemblerReassemblesFragments(t *testing.T) {
	a := NewAssembler()
	a.Start(0, "call_1", "getWeather", "")
	a.AppendArgs(0, `{"city":"To`)
	a.AppendArgs(0, `kyo"}`)

	b, err := a.Finish(0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	use, ok := b.(api.ToolUseBlock)
	if !ok {
		t.Fatalf("block = %#v, want ToolUseBlock", b)
	}
	if use.ID != "call_1" || use.Name != "getWeather" {
		t.Errorf("id/name = %q/%q", use.ID, use.Name)
	}
	if got := inputOf(t, b); got["city"] != "Tokyo" {
		t.Errorf("input = %v, want city Tokyo", got)
	}
}

func TestAssemblerEmptyArgs(t *testing.T) {
	a := NewAssembler()
	a.Start(3, "call_x", "noop", "")

	b, err := a.Finish(3)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if string(b.(api.ToolUseBlock).Input) != "{}" {
		t.Errorf("input = %s, want {}", b.(api.ToolUseBlock).Input)
	}
}

func TestAssemblerInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"truncated", `{"city":`},
		{"array", `[1,2]`},
		{"string", `"hello"`},
		{"trailing garbage", `{"a":1}{"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler()
			a.Start(0, "call_1", "getWeather", "")
			a.AppendArgs(0, tt.args)

			b, err := a.Finish(0)
			if b != nil {
				t.Errorf("block = %#v, want nil", b)
			}
			var apiErr *api.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *api.APIError", err)
			}
			if apiErr.Type != api.ErrorTypeInvalidToolArguments || apiErr.Param != "call_1" {
				t.Errorf("err = %+v", apiErr)
			}
			if !strings.Contains(apiErr.Message, "call_1") {
				t.Errorf("message %q does not name the call", apiErr.Message)
			}
		})
	}
}

func TestAssemblerUnknownKey(t *testing.T) {
	a := NewAssembler()
	a.AppendArgs(9, `{"stray":true}`)

	b, err := a.Finish(9)
	if b != nil || err != nil {
		t.Errorf("Finish(unknown) = %#v, %v; want nil, nil", b, err)
	}
	if len(a.Blocks()) != 0 {
		t.Error("stray fragments must not create blocks")
	}
}

func TestAssemblerAppendAfterFinishDropped(t *testing.T) {
	a := NewAssembler()
	a.Start(0, "call_1", "f", "")
	a.AppendArgs(0, `{}`)
	if _, err := a.Finish(0); err != nil {
		t.Fatal(err)
	}
	a.AppendArgs(0, `garbage`)
	if a.IsOpen(0) {
		t.Error("key 0 should be closed")
	}
}

func TestAssemblerBlocksSortedByKey(t *testing.T) {
	a := NewAssembler()
	a.Start(2, "c2", "two", "")
	a.Start(0, "c0", "zero", "")
	a.Start(1, "c1", "one", "")
	a.AppendArgs(1, `{"n":1}`)
	a.AppendArgs(2, `{"n":2}`)
	a.AppendArgs(0, `{"n":0}`)

	// Finish out of order.
	for _, k := range []int{2, 0, 1} {
		if _, err := a.Finish(k); err != nil {
			t.Fatal(err)
		}
	}

	var ids []string
	for _, b := range a.Blocks() {
		ids = append(ids, b.(api.ToolUseBlock).ID)
	}
	if strings.Join(ids, ",") != "c0,c1,c2" {
		t.Errorf("order = %v, want c0,c1,c2", ids)
	}
}

func TestAssemblerProvenance(t *testing.T) {
	a := NewAssembler()
	a.Start(0, "mcp_1", "search", "docs")
	a.AppendArgs(0, `{"q":"go"}`)

	b, err := a.Finish(0)
	if err != nil {
		t.Fatal(err)
	}
	remote, ok := b.(api.RemoteToolUseBlock)
	if !ok || remote.ServerName != "docs" {
		t.Errorf("block = %#v, want RemoteToolUseBlock from docs", b)
	}
}

func TestAssemblerOpenAndFinishAll(t *testing.T) {
	a := NewAssembler()
	a.Start(5, "c5", "f", "")
	a.Start(1, "c1", "f", "")

	if got := a.Open(); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("Open() = %v, want [1 5]", got)
	}

	blocks, err := a.FinishAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 || len(a.Open()) != 0 {
		t.Errorf("FinishAll produced %d blocks, %d still open", len(blocks), len(a.Open()))
	}
}

func TestAssemblerSetIdentity(t *testing.T) {
	a := NewAssembler()
	a.Start(0, "", "", "")
	a.SetIdentity(0, "call_late", "")
	a.SetIdentity(0, "", "lookup")

	b, err := a.Finish(0)
	if err != nil {
		t.Fatal(err)
	}
	use := b.(api.ToolUseBlock)
	if use.ID != "call_late" || use.Name != "lookup" {
		t.Errorf("block = %#v", use)
	}
}

// --- state and finalize ---

func TestStatePartialCallback(t *testing.T) {
	var partials []string
	st := NewState(func(s string) { partials = append(partials, s) })
	st.AppendText("Hello")
	st.AppendText("")
	st.AppendText(" world")

	if !reflect.DeepEqual(partials, []string{"Hello", " world"}) {
		t.Errorf("partials = %q", partials)
	}
	if st.Delivered() != len("Hello world") {
		t.Errorf("Delivered = %d", st.Delivered())
	}
}

func TestFinalizeOrdering(t *testing.T) {
	st := NewState(nil)
	st.AppendText("Let me check. ")
	st.Tools.Start(1, "call_b", "second", "")
	st.Tools.Start(0, "call_a", "first", "")
	st.AppendBlock(api.ToolResultBlock{ToolUseID: "prev", Content: "done"})
	st.AppendText("More text.")

	c, err := Finalize(st)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(c.Blocks) != 5 {
		t.Fatalf("blocks = %#v", c.Blocks)
	}
	if c.Blocks[0] != (api.TextBlock{Text: "Let me check. "}) {
		t.Errorf("blocks[0] = %#v", c.Blocks[0])
	}
	if _, ok := c.Blocks[1].(api.ToolResultBlock); !ok {
		t.Errorf("blocks[1] = %#v, want ToolResultBlock", c.Blocks[1])
	}
	if c.Blocks[2] != (api.TextBlock{Text: "More text."}) {
		t.Errorf("blocks[2] = %#v", c.Blocks[2])
	}
	if c.Blocks[3].(api.ToolUseBlock).ID != "call_a" || c.Blocks[4].(api.ToolUseBlock).ID != "call_b" {
		t.Errorf("tool order = %#v, %#v", c.Blocks[3], c.Blocks[4])
	}
	if c.StopReason != api.StopReasonToolUse {
		t.Errorf("StopReason = %q", c.StopReason)
	}
}

func TestFinalizeTextOnly(t *testing.T) {
	st := NewState(nil)
	st.AppendText("a")
	st.AppendText("b")
	st.Usage = &api.Usage{TotalTokens: 3}

	c, err := Finalize(st)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Blocks, []api.Block{api.TextBlock{Text: "ab"}}) {
		t.Errorf("blocks = %#v", c.Blocks)
	}
	if c.StopReason != api.StopReasonEnd || c.Usage.TotalTokens != 3 {
		t.Errorf("completion = %+v", c)
	}
}

func TestFinalizeInvalidArgs(t *testing.T) {
	st := NewState(nil)
	st.Tools.Start(0, "call_1", "getWeather", "")
	st.Tools.AppendArgs(0, `{"city":`)

	c, err := Finalize(st)
	if c != nil {
		t.Errorf("completion = %+v, want nil", c)
	}
	if err == nil || !strings.Contains(err.Error(), "call_1") {
		t.Errorf("err = %v, want error naming call_1", err)
	}
}

func TestCompleteItemTextAppendsOnlySuffix(t *testing.T) {
	var partials []string
	st := NewState(func(s string) { partials = append(partials, s) })

	st.AppendItemText("msg_1:0", "Hel")
	st.CompleteItemText("msg_1:0", "Hello")
	st.CompleteItemText("msg_1:0", "Hello")
	st.CompleteItemText("msg_2:0", "Bye")

	if !reflect.DeepEqual(partials, []string{"Hel", "lo", "Bye"}) {
		t.Errorf("partials = %q", partials)
	}
	if got := Flatten(st.Blocks()); got != "HelloBye" {
		t.Errorf("text = %q, want HelloBye", got)
	}
}

func TestAssemblerNextKey(t *testing.T) {
	a := NewAssembler()
	if a.NextKey() != 0 {
		t.Errorf("NextKey() = %d, want 0", a.NextKey())
	}
	a.Start(0, "a", "f", "")
	if _, err := a.Finish(0); err != nil {
		t.Fatal(err)
	}
	a.Start(4, "b", "f", "")
	if a.NextKey() != 5 {
		t.Errorf("NextKey() = %d, want 5", a.NextKey())
	}
}
