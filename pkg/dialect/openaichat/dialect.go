// Package openaichat reads OpenAI Chat Completions responses and those of
// compatible vendors (OpenRouter, Z.ai, Kimi).
//
// Streaming frames are plain data: lines. Tool call fragments are keyed by
// their index in delta.tool_calls; the first fragment for an index carries
// the id and function name. The format has no per-call completion signal,
// so every call is finished when the stream ends.
package openaichat

import (
	"encoding/json"
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/completion"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// Name is the dialect label.
const Name = "openai-chat"

// Dialect implements dialect.Dialect for Chat Completions.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

// New returns the Chat Completions dialect.
func New() Dialect { return Dialect{} }

func (Dialect) Name() string   { return Name }
func (Dialect) Mode() sse.Mode { return sse.ModeData }

// Reduce applies one chunk.
func (Dialect) Reduce(st *completion.State, f sse.Frame) error {
	events, err := decode(f.Data)
	if err != nil {
		return dialect.Malformed(Name, f, err)
	}

	for _, ev := range events {
		switch ev := ev.(type) {
		case textDelta:
			st.AppendText(ev.text)
		case toolDelta:
			if !st.Tools.IsOpen(ev.index) {
				st.Tools.Start(ev.index, ev.id, ev.name, "")
			} else {
				st.Tools.SetIdentity(ev.index, ev.id, ev.name)
			}
			st.Tools.AppendArgs(ev.index, ev.args)
		case usageReport:
			u := ev.usage
			st.Usage = &u
		case streamFailure:
			return ev.err
		}
	}
	return nil
}

// Parse converts a non-streaming /v1/chat/completions body.
func (Dialect) Parse(body []byte) (*api.ToolChatCompletion, error) {
	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, dialect.MalformedBody(Name, err)
	}
	if resp.Error != nil {
		return nil, chatError(resp.Error)
	}

	st := completion.NewState(nil)
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		st.AppendText(messageText(msg.Content))
		for i, tc := range msg.ToolCalls {
			st.Tools.Start(i, tc.ID, tc.Function.Name, "")
			st.Tools.AppendArgs(i, tc.Function.Arguments)
			if _, err := st.Tools.Finish(i); err != nil {
				return nil, err
			}
		}
	}
	if resp.Usage != nil {
		u := usageOf(resp.Usage)
		st.Usage = &u
	}
	return completion.Finalize(st)
}

// messageText accepts string, null, or an array of text parts.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []chatContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Type == "text" || p.Type == "output_text" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
