package openaichat

import (
	"encoding/json"
	"fmt"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// event is the closed set of signals one chunk can carry.
type event interface{ isEvent() }

type textDelta struct{ text string }

type toolDelta struct {
	index int
	id    string
	name  string
	args  string
}

type usageReport struct{ usage api.Usage }

type streamFailure struct{ err *api.APIError }

func (textDelta) isEvent()     {}
func (toolDelta) isEvent()     {}
func (usageReport) isEvent()   {}
func (streamFailure) isEvent() {}

// decode turns one chunk into its events, in the order they apply.
// Reasoning deltas and role-only deltas produce nothing.
func decode(data string) ([]event, error) {
	var chunk ChatCompletionChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, err
	}

	if chunk.Error != nil {
		return []event{streamFailure{err: chatError(chunk.Error)}}, nil
	}

	var events []event
	if len(chunk.Choices) > 0 {
		delta := chunk.Choices[0].Delta
		if delta.Content != nil && *delta.Content != "" {
			events = append(events, textDelta{text: *delta.Content})
		}
		for _, tc := range delta.ToolCalls {
			events = append(events, toolDelta{
				index: tc.Index,
				id:    tc.ID,
				name:  tc.Function.Name,
				args:  tc.Function.Arguments,
			})
		}
	}
	if chunk.Usage != nil {
		events = append(events, usageReport{usage: usageOf(chunk.Usage)})
	}
	return events, nil
}

func usageOf(u *ChatUsage) api.Usage {
	return api.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func chatError(e *ChatError) *api.APIError {
	code := e.Type
	if e.Code != nil {
		code = fmt.Sprint(e.Code)
	}
	return api.NewStreamError(code, e.Message)
}
