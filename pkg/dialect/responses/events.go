package responses

import (
	"encoding/json"
	"fmt"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// event is the closed set of Responses stream events that change state.
type event interface{ isEvent() }

type itemAdded struct {
	index int
	item  OutputItem
}

type itemDone struct {
	index int
	item  OutputItem
}

type textDelta struct {
	item  string
	delta string
}

type textDone struct {
	item string
	text string
}

type argsDelta struct {
	index int
	delta string
}

type argsDone struct {
	index     int
	arguments string
}

type completed struct{ usage *Usage }

type failed struct{ err *api.APIError }

// ignored stands for lifecycle events with nothing to apply.
type ignored struct{}

func (itemAdded) isEvent() {}
func (itemDone) isEvent()  {}
func (textDelta) isEvent() {}
func (textDone) isEvent()  {}
func (argsDelta) isEvent() {}
func (argsDone) isEvent()  {}
func (completed) isEvent() {}
func (failed) isEvent()    {}
func (ignored) isEvent()   {}

// decode maps a frame to its event by the SSE event name.
func decode(f sse.Frame) (event, error) {
	data := []byte(f.Data)
	switch f.Event {
	case eventOutputItemAdded, eventOutputItemDone:
		var d outputItemData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if f.Event == eventOutputItemAdded {
			return itemAdded{index: d.OutputIndex, item: d.Item}, nil
		}
		return itemDone{index: d.OutputIndex, item: d.Item}, nil

	case eventTextDelta:
		var d textDeltaData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return textDelta{item: textKey(d.OutputIndex, d.ContentIndex), delta: d.Delta}, nil

	case eventTextDone:
		var d textDoneData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return textDone{item: textKey(d.OutputIndex, d.ContentIndex), text: d.Text}, nil

	case eventFuncCallArgsDelta, eventMCPCallArgsDelta:
		var d argsDeltaData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return argsDelta{index: d.OutputIndex, delta: d.Delta}, nil

	case eventFuncCallArgsDone, eventMCPCallArgsDone:
		var d argsDoneData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return argsDone{index: d.OutputIndex, arguments: d.Arguments}, nil

	case eventResponseCompleted:
		var d responseData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return completed{usage: d.Response.Usage}, nil

	case eventResponseFailed:
		var d responseData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return failed{err: responseError(d.Response.Error)}, nil

	case eventError:
		var d errorData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return failed{err: api.NewStreamError(d.Code, d.Message)}, nil

	default:
		return ignored{}, nil
	}
}

// textKey identifies one content part across delta and done events. The
// item id is left out since vendors omit it on some events.
func textKey(outputIndex, contentIndex int) string {
	return fmt.Sprintf("%d:%d", outputIndex, contentIndex)
}

func responseError(e *ResponseError) *api.APIError {
	if e == nil {
		return api.NewStreamError("response_failed", "response failed")
	}
	code := e.Code
	if code == "" {
		code = e.Type
	}
	return api.NewStreamError(code, e.Message)
}
