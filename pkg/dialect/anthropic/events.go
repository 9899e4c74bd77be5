package anthropic

import (
	"encoding/json"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// event is the closed set of Messages stream events.
type event interface{ isEvent() }

type messageStart struct{ usage *Usage }

type blockStart struct {
	index int
	block ContentBlock
}

type textDelta struct{ text string }

type inputDelta struct {
	index   int
	partial string
}

type blockStop struct{ index int }

type messageDelta struct{ usage *Usage }

type streamFailure struct{ err *api.APIError }

// ignored covers ping, message_stop, thinking deltas and unknown events.
type ignored struct{}

func (messageStart) isEvent()  {}
func (blockStart) isEvent()    {}
func (textDelta) isEvent()     {}
func (inputDelta) isEvent()    {}
func (blockStop) isEvent()     {}
func (messageDelta) isEvent()  {}
func (streamFailure) isEvent() {}
func (ignored) isEvent()       {}

func decode(f sse.Frame) (event, error) {
	data := []byte(f.Data)
	switch f.Event {
	case eventMessageStart:
		var d messageStartData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return messageStart{usage: d.Message.Usage}, nil

	case eventContentBlockStart:
		var d blockStartData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return blockStart{index: d.Index, block: d.ContentBlock}, nil

	case eventContentBlockDelta:
		var d blockDeltaData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		switch d.Delta.Type {
		case deltaText:
			return textDelta{text: d.Delta.Text}, nil
		case deltaInputJSON:
			return inputDelta{index: d.Index, partial: d.Delta.PartialJSON}, nil
		default:
			return ignored{}, nil
		}

	case eventContentBlockStop:
		var d blockStopData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return blockStop{index: d.Index}, nil

	case eventMessageDelta:
		var d messageDeltaData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return messageDelta{usage: d.Usage}, nil

	case eventError:
		var d ErrorBody
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return streamFailure{err: api.NewStreamError(d.Error.Type, d.Error.Message)}, nil

	default:
		return ignored{}, nil
	}
}
