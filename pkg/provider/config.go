package provider

import (
	"net/http"
	"time"

	"github.com/shinshin86/aituber-onair-sub001/pkg/negotiate"
)

// DefaultTimeout bounds non-streaming requests when Config.Timeout is zero.
const DefaultTimeout = 120 * time.Second

// Config holds the settings shared by every adapter.
type Config struct {
	// Name labels logs and metrics. Defaults to the adapter's vendor name.
	Name string

	// BaseURL is the vendor root without the version segment
	// (e.g. "https://api.openai.com").
	BaseURL string

	APIKey string

	// DefaultModel is used when a request does not name one.
	DefaultModel string

	// Timeout for non-streaming requests. Streaming requests are bounded
	// by the caller's context only.
	Timeout time.Duration

	// ModelMapping maps requested model names to vendor model identifiers.
	// Models not in the map pass through unchanged.
	ModelMapping map[string]string

	// APIVersion overrides the adapter's default version policy when its
	// Primary is set.
	APIVersion negotiate.Policy

	// Transport is the base round tripper. Nil means http.DefaultTransport.
	Transport http.RoundTripper
}
