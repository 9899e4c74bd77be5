package provider

import (
	"context"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/engine"
)

// Provider is one configured vendor backend.
type Provider interface {
	// Name returns the configured provider name (e.g. "openai", "gemini").
	Name() string

	// Capabilities reports which request features the backend accepts.
	Capabilities() Capabilities

	// Complete performs one call. When req.Stream is set, hooks.OnPartial
	// receives text as it is decoded; the returned completion is the same
	// either way.
	Complete(ctx context.Context, req *ChatRequest, hooks engine.Hooks) (*api.ToolChatCompletion, error)

	// Close releases idle connections.
	Close() error
}
