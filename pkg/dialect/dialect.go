// Package dialect defines the contract shared by the vendor wire formats.
//
// A dialect decodes each frame into one of its own closed set of event
// types and folds it into a completion.State. The same dialect parses a
// whole non-streaming body into the same canonical completion.
//
// Subpackages: openaichat (Chat Completions), responses (OpenAI Responses
// events), anthropic (content blocks), google (candidate parts).
package dialect

import (
	"fmt"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/completion"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// Dialect is one vendor wire format.
type Dialect interface {
	// Name is a short stable label used in logs and metrics.
	Name() string

	// Mode tells the frame reader how to group SSE lines.
	Mode() sse.Mode

	// Reduce folds one frame into st. A *FrameError means the frame was
	// skipped and the stream can continue; any other error is fatal.
	Reduce(st *completion.State, f sse.Frame) error

	// Parse converts a complete non-streaming body.
	Parse(body []byte) (*api.ToolChatCompletion, error)
}

// FrameError reports a frame whose payload could not be decoded.
type FrameError struct {
	Dialect string
	Event   string
	Data    string
	Err     error
}

// Malformed wraps err as a FrameError for f.
func Malformed(dialect string, f sse.Frame, err error) *FrameError {
	return &FrameError{Dialect: dialect, Event: f.Event, Data: f.Data, Err: err}
}

func (e *FrameError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: malformed %s frame: %v", e.Dialect, e.Event, e.Err)
	}
	return fmt.Sprintf("%s: malformed frame: %v", e.Dialect, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// MalformedBody returns the error for a non-streaming body that is not the
// JSON document the dialect expects.
func MalformedBody(dialect string, err error) *api.APIError {
	return api.NewServerError(fmt.Sprintf("%s: malformed response body: %v", dialect, err))
}
