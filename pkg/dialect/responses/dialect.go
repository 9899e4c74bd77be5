// Package responses reads OpenAI Responses API output.
//
// Streams are event:/data: pairs. Function and MCP calls are keyed by
// output_index. Text deltas are tracked per content part so that the
// cumulative output_text.done event only contributes text the deltas did
// not already deliver.
package responses

import (
	"encoding/json"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/completion"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// Name is the dialect label.
const Name = "openai-responses"

// defaultServerLabel names MCP calls whose item carries no server_label.
const defaultServerLabel = "mcp"

// Dialect implements dialect.Dialect for the Responses API.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

// New returns the Responses dialect.
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
	case itemAdded:
		return startItem(st, ev.index, ev.item)
	case argsDelta:
		st.Tools.AppendArgs(ev.index, ev.delta)
	case argsDone:
		return finishCall(st, ev.index, ev.arguments)
	case itemDone:
		return finishItem(st, ev.index, ev.item)
	case textDelta:
		st.AppendItemText(ev.item, ev.delta)
	case textDone:
		st.CompleteItemText(ev.item, ev.text)
	case completed:
		if ev.usage != nil {
			st.Usage = usageOf(ev.usage)
		}
	case failed:
		return ev.err
	case ignored:
	}
	return nil
}

// startItem opens a call for function_call and mcp_call items. An item
// that already carries its arguments is finished at once.
func startItem(st *completion.State, index int, item OutputItem) error {
	switch item.Type {
	case itemFunctionCall:
		st.Tools.Start(index, callID(item), item.Name, "")
	case itemMCPCall:
		st.Tools.Start(index, item.ID, item.Name, serverLabel(item))
	default:
		return nil
	}
	if item.Arguments == "" {
		return nil
	}
	st.Tools.AppendArgs(index, item.Arguments)
	_, err := st.Tools.Finish(index)
	return err
}

// finishCall closes the call at index. arguments fill the buffer only when
// no deltas arrived.
func finishCall(st *completion.State, index int, arguments string) error {
	if !st.Tools.IsOpen(index) {
		return nil
	}
	if st.Tools.ArgsLen(index) == 0 {
		st.Tools.AppendArgs(index, arguments)
	}
	_, err := st.Tools.Finish(index)
	return err
}

func finishItem(st *completion.State, index int, item OutputItem) error {
	switch item.Type {
	case itemFunctionCall:
		return finishCall(st, index, item.Arguments)
	case itemMCPCall:
		if err := finishCall(st, index, item.Arguments); err != nil {
			return err
		}
		if res, ok := mcpResult(item); ok {
			st.AppendBlock(res)
		}
	case itemMessage:
		for i, part := range item.Content {
			if part.Type == "output_text" {
				st.CompleteItemText(textKey(index, i), part.Text)
			}
		}
	}
	return nil
}

// Parse converts a non-streaming /v1/responses body.
func (Dialect) Parse(body []byte) (*api.ToolChatCompletion, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, dialect.MalformedBody(Name, err)
	}
	if resp.Error != nil || resp.Status == "failed" {
		return nil, responseError(resp.Error)
	}

	st := completion.NewState(nil)
	for i, item := range resp.Output {
		switch item.Type {
		case itemMessage:
			for _, part := range item.Content {
				if part.Type == "output_text" {
					st.AppendText(part.Text)
				}
			}
		case itemFunctionCall, itemMCPCall:
			if err := startItem(st, i, item); err != nil {
				return nil, err
			}
			if err := finishItem(st, i, item); err != nil {
				return nil, err
			}
		}
	}
	if resp.Usage != nil {
		st.Usage = usageOf(resp.Usage)
	}
	return completion.Finalize(st)
}

func callID(item OutputItem) string {
	if item.CallID != "" {
		return item.CallID
	}
	return item.ID
}

func serverLabel(item OutputItem) string {
	if item.ServerLabel != "" {
		return item.ServerLabel
	}
	return defaultServerLabel
}

// mcpResult builds the result block of a finished mcp_call item.
func mcpResult(item OutputItem) (api.RemoteToolResultBlock, bool) {
	res := api.RemoteToolResultBlock{ToolUseID: item.ID, ServerName: serverLabel(item)}
	switch {
	case item.Output != nil:
		res.Content = *item.Output
	case len(item.Error) > 0 && string(item.Error) != "null":
		var msg string
		if err := json.Unmarshal(item.Error, &msg); err != nil {
			msg = string(item.Error)
		}
		res.Content = msg
	default:
		return res, false
	}
	return res, true
}

func usageOf(u *Usage) *api.Usage {
	return &api.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}
