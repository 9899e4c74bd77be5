package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/completion"
	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
	"github.com/shinshin86/aituber-onair-sub001/pkg/dialect"
	"github.com/shinshin86/aituber-onair-sub001/pkg/observability"
	"github.com/shinshin86/aituber-onair-sub001/pkg/sse"
)

// Hooks are optional callbacks invoked synchronously from the read loop.
// A hook that blocks stalls the stream.
type Hooks struct {
	// OnPartial receives each newly decoded text fragment, never text
	// that was already delivered.
	OnPartial func(text string)

	// OnMalformed receives a *dialect.FrameError for each skipped frame.
	OnMalformed func(err error)
}

// Stream reduces every frame of body with d and finalizes the result.
// Malformed frames are skipped and reported to OnMalformed. Invalid tool
// arguments, vendor error events, read errors and context cancellation
// end the call with an error and no completion.
func Stream(ctx context.Context, body io.Reader, d dialect.Dialect, hooks Hooks, opts ...sse.Option) (*api.ToolChatCompletion, error) {
	observability.StreamsActive.Inc()
	defer observability.StreamsActive.Dec()

	name := d.Name()
	st := completion.NewState(hooks.OnPartial)
	reader := sse.NewReader(body, d.Mode(), opts...)

	frames := 0
	for f, err := range reader.All() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}

		frames++
		observability.FramesTotal.WithLabelValues(name).Inc()
		if debug.TraceIsEnabled("streaming") {
			debug.Trace("streaming", "frame", "dialect", name, "event", f.Event, "data", f.Data)
		}

		if err := d.Reduce(st, f); err != nil {
			var frameErr *dialect.FrameError
			if errors.As(err, &frameErr) {
				observability.FramesMalformedTotal.WithLabelValues(name).Inc()
				slog.Warn("skipping malformed stream frame",
					"dialect", name,
					"error", frameErr.Err.Error(),
					"data", debug.Truncate(frameErr.Data, 200),
				)
				if hooks.OnMalformed != nil {
					hooks.OnMalformed(err)
				}
				continue
			}
			return nil, fail(name, err)
		}
	}

	c, err := completion.Finalize(st)
	if err != nil {
		return nil, fail(name, err)
	}
	countToolCalls(name, c)

	debug.Log("engine", "stream finalized",
		"dialect", name,
		"frames", frames,
		"blocks", len(c.Blocks),
		"stop_reason", c.StopReason,
	)
	return c, nil
}

// Parse converts a complete non-streaming body with d.
func Parse(body io.Reader, d dialect.Dialect) (*api.ToolChatCompletion, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", d.Name(), err)
	}
	if debug.TraceIsEnabled("engine") {
		debug.Trace("engine", "response body", "dialect", d.Name(), "body", string(data))
	}

	c, err := d.Parse(data)
	if err != nil {
		return nil, fail(d.Name(), err)
	}
	countToolCalls(d.Name(), c)
	return c, nil
}

// fail records invalid tool arguments before handing the error back.
func fail(name string, err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Type == api.ErrorTypeInvalidToolArguments {
		observability.ToolCallsTotal.WithLabelValues(name, "invalid").Inc()
		slog.Warn("tool call arguments are not valid JSON",
			"dialect", name,
			"call_id", apiErr.Param,
		)
	}
	return err
}

func countToolCalls(name string, c *api.ToolChatCompletion) {
	if n := len(c.ToolUses()); n > 0 {
		observability.ToolCallsTotal.WithLabelValues(name, "ok").Add(float64(n))
	}
}
