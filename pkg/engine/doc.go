// Package engine drives one vendor response through a dialect and returns
// the canonical completion.
//
// Stream reads SSE frames from a body and reduces them one at a time in
// the caller's goroutine; Hooks.OnPartial sees each text fragment as soon
// as it is decoded. Parse handles a complete non-streaming body. Neither
// starts goroutines or timers: cancelling the context or closing the body
// is how a caller stops a stream.
package engine
