package negotiate

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
	"github.com/shinshin86/aituber-onair-sub001/pkg/observability"
)

// SendFunc issues one attempt with the given API version and request body.
type SendFunc func(ctx context.Context, version string, body []byte) (*http.Response, error)

// RewriteFunc adapts a request body to the alternate version, for fields
// the primary version accepts and the alternate one does not.
type RewriteFunc func(version string, body []byte) ([]byte, error)

// Negotiator runs the version selection for one provider. It holds no
// per-call state and is safe for concurrent use.
type Negotiator struct {
	// Provider labels logs and metrics.
	Provider string

	Policy Policy

	// Rewrite, when set, is applied to the body before the alternate
	// attempt.
	Rewrite RewriteFunc
}

// state of one negotiated call.
type state int

const (
	stateSelecting state = iota
	stateSent
	stateRetryable
)

// Do sends the request and, if the primary attempt fails in the retryable
// class and the model is not pinned, sends it once more on the alternate
// version. On success the caller owns the returned response body. The
// returned Selection describes the attempt that produced the result.
func (n *Negotiator) Do(ctx context.Context, model string, body []byte, send SendFunc) (*http.Response, Selection, error) {
	sel := n.Policy.Select(model)
	st := stateSelecting

	for {
		switch st {
		case stateSelecting:
			debug.Log("negotiate", "selected version",
				"provider", n.Provider, "model", model,
				"version", sel.Version, "pinned", sel.Pinned, "fallback", sel.Fallback,
			)
			st = stateSent

		case stateSent:
			resp, err := send(ctx, sel.Version, body)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, sel, ctxErr
				}
				n.recordFallback(sel, "error")
				return nil, sel, MapNetworkError(err)
			}
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				n.recordFallback(sel, "success")
				return resp, sel, nil
			}

			data := readErrorBody(resp)
			drainAndClose(resp)

			if !Retryable(resp.StatusCode, data) || !n.Policy.canFallBack(sel) {
				n.recordFallback(sel, "failure")
				return nil, sel, MapStatus(resp.StatusCode, data)
			}

			slog.Info("falling back to alternate API version",
				"provider", n.Provider,
				"model", model,
				"from", sel.Version,
				"to", n.Policy.Alternate,
				"status", resp.StatusCode,
				"error", debug.Truncate(ExtractErrorMessage(data), 200),
			)
			st = stateRetryable

		case stateRetryable:
			sel = Selection{Version: n.Policy.Alternate, Fallback: true}
			if n.Rewrite != nil {
				rewritten, err := n.Rewrite(sel.Version, body)
				if err != nil {
					n.recordFallback(sel, "error")
					return nil, sel, err
				}
				body = rewritten
			}
			st = stateSelecting
		}
	}
}

func (n *Negotiator) recordFallback(sel Selection, outcome string) {
	if !sel.Fallback {
		return
	}
	observability.NegotiationFallbacksTotal.WithLabelValues(n.Provider, outcome).Inc()
}

func drainAndClose(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
