package google

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect/dialecttest"
)

// sequentialIDs returns a generator yielding call_1, call_2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("call_%d", n)
	}
}

func newTestDialect(conv *Conversation) *Dialect {
	return New(conv, WithIDGenerator(sequentialIDs()))
}

var callStream = dialecttest.SSE(
	`{"candidates":[{"content":{"role":"model","parts":[{"text":"札幌の"}]}}]}`,
	`{"candidates":[{"content":{"role":"model","parts":[{"thought":true,"text":"planning"},{"text":"天気です。"}]}}]}`,
	`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"getWeather","args":{"city":"Sapporo"}}},{"functionCall":{"name":"getTime","args":{}}}]}}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":9,"totalTokenCount":13}}`,
)

func TestStreamTextAndFunctionCalls(t *testing.T) {
	conv := NewConversation()
	res := dialecttest.Stream(t, newTestDialect(conv), callStream)

	c := res.Completion
	want := []api.Block{
		api.TextBlock{Text: "札幌の天気です。"},
		api.ToolUseBlock{ID: "call_1", Name: "getWeather", Input: []byte(`{"city":"Sapporo"}`)},
		api.ToolUseBlock{ID: "call_2", Name: "getTime", Input: []byte(`{}`)},
	}
	if got := dialecttest.MustJSON(t, c.Blocks); got != dialecttest.MustJSON(t, want) {
		t.Errorf("blocks = %s", got)
	}
	if c.StopReason != api.StopReasonToolUse || c.Usage.TotalTokens != 13 {
		t.Errorf("completion = %+v", c)
	}
	if !reflect.DeepEqual(res.Partials, []string{"札幌の", "天気です。"}) {
		t.Errorf("partials = %q", res.Partials)
	}

	if name, ok := conv.FunctionName("call_1"); !ok || name != "getWeather" {
		t.Errorf("conversation lookup = %q, %v", name, ok)
	}
	if conv.Len() != 2 {
		t.Errorf("conversation size = %d, want 2", conv.Len())
	}
}

func TestStreamVendorIDKept(t *testing.T) {
	body := dialecttest.SSE(`{"candidates":[{"content":{"parts":[{"functionCall":{"id":"fc_vendor","name":"f","args":{"a":1}}}]}}]}`)
	res := dialecttest.Stream(t, newTestDialect(nil), body)

	if id := res.Completion.Blocks[0].(api.ToolUseBlock).ID; id != "fc_vendor" {
		t.Errorf("id = %q, want fc_vendor", id)
	}
}

func TestStreamSynthesizedIDsAreUnique(t *testing.T) {
	body := dialecttest.SSE(
		`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"f","args":{}}}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"f","args":{}}}]}}]}`,
	)
	res := dialecttest.Stream(t, New(NewConversation()), body)

	uses := res.Completion.ToolUses()
	if len(uses) != 2 {
		t.Fatalf("uses = %#v", uses)
	}
	a, b := uses[0].(api.ToolUseBlock).ID, uses[1].(api.ToolUseBlock).ID
	if a == b || !api.ValidateToolCallID(a) || !api.ValidateToolCallID(b) {
		t.Errorf("ids = %q, %q", a, b)
	}
}

func TestStreamFunctionResponseResolvedThroughConversation(t *testing.T) {
	conv := NewConversation()
	conv.Record("call_prev", "getWeather")

	body := dialecttest.SSE(
		`{"candidates":[{"content":{"parts":[{"functionResponse":{"name":"getWeather","response":{"content":"Snow"}}}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"functionResponse":{"name":"unknownFn","response":{"temp":-3}}}]}}]}`,
	)
	res := dialecttest.Stream(t, newTestDialect(conv), body)

	want := []api.Block{
		api.ToolResultBlock{ToolUseID: "call_prev", Content: "Snow"},
		api.ToolResultBlock{ToolUseID: "unknownFn", Content: `{"temp":-3}`},
	}
	if !reflect.DeepEqual(res.Completion.Blocks, want) {
		t.Errorf("blocks = %#v", res.Completion.Blocks)
	}
	if res.Completion.StopReason != api.StopReasonEnd {
		t.Errorf("StopReason = %q, results alone are not tool use", res.Completion.StopReason)
	}
}

func TestStreamErrorFrame(t *testing.T) {
	body := dialecttest.SSE(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)
	res := dialecttest.RunString(t, newTestDialect(nil), body)

	var apiErr *api.APIError
	if !errors.As(res.Err, &apiErr) || apiErr.Code != "RESOURCE_EXHAUSTED" {
		t.Errorf("err = %v", res.Err)
	}
}

func TestStreamMalformedFrame(t *testing.T) {
	body := dialecttest.SSE(
		`{"candidates":[{"content":{"parts":[{"text":"a"}]}}]}`,
		`{"candidates":[`,
		`[1,2]`,
		`{"candidates":[{"content":{"parts":[{"text":"b"}]}}]}`,
	)
	res := dialecttest.Stream(t, newTestDialect(nil), body)

	if res.Completion.Text() != "ab" || len(res.Malformed) != 2 {
		t.Errorf("text = %q, malformed = %d", res.Completion.Text(), len(res.Malformed))
	}
}

func TestStreamChunkBoundaries(t *testing.T) {
	dialecttest.CheckChunkBoundaries(t, func() dialect.Dialect {
		return newTestDialect(NewConversation())
	}, callStream)
}

// --- one-shot ---

func TestParse(t *testing.T) {
	body := `{
		"candidates": [{
			"content": {"role": "model", "parts": [
				{"text": "Calling."},
				{"functionCall": {"name": "getWeather", "args": {"city": "Naha"}}}
			]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 1, "candidatesTokenCount": 2, "totalTokenCount": 3}
	}`
	conv := NewConversation()
	c, err := newTestDialect(conv).Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Text() != "Calling." || len(c.ToolUses()) != 1 || c.Usage.TotalTokens != 3 {
		t.Errorf("completion = %+v", c)
	}
	if _, ok := conv.FunctionName("call_1"); !ok {
		t.Error("synthesized id should be recorded")
	}
}

func TestParseArrayBody(t *testing.T) {
	body := `[
		{"candidates":[{"content":{"parts":[{"text":"one "}]}}]},
		{"candidates":[{"content":{"parts":[{"text":"two"}]}}]}
	]`
	c, err := newTestDialect(nil).Parse([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if c.Text() != "one two" {
		t.Errorf("text = %q", c.Text())
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := newTestDialect(nil).Parse([]byte(`not json`))
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("err = %v", err)
	}
}

// --- conversation ---

func TestConversationIsolation(t *testing.T) {
	a, b := NewConversation(), NewConversation()
	a.Record("call_1", "fromA")

	if _, ok := b.FunctionName("call_1"); ok {
		t.Error("conversations must not share ids")
	}
}

func TestConversationConcurrentUse(t *testing.T) {
	conv := NewConversation()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.Record(fmt.Sprintf("call_%d", i), "f")
			conv.LatestID("f")
		}()
	}
	wg.Wait()

	if conv.Len() != 50 {
		t.Errorf("Len() = %d, want 50", conv.Len())
	}
}

func TestConversationZeroValue(t *testing.T) {
	var conv Conversation
	if _, ok := conv.FunctionName("call_1"); ok || conv.Len() != 0 {
		t.Fatal("empty conversation reported a recorded call")
	}

	body := dialecttest.SSE(`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"f","args":{}}}]}}]}`)
	dialecttest.Stream(t, newTestDialect(&conv), body)

	if name, ok := conv.FunctionName("call_1"); !ok || name != "f" {
		t.Errorf("FunctionName = %q, %v", name, ok)
	}
	if id, ok := conv.LatestID("f"); !ok || id != "call_1" {
		t.Errorf("LatestID = %q, %v", id, ok)
	}
}
