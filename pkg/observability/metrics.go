// Package observability provides Prometheus metrics for the completion
// engine and the vendor calls that feed it.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets covers inference latencies from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// FramesTotal counts frames handed to a dialect.
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_frames_total",
			Help: "Stream frames reduced",
		},
		[]string{"dialect"},
	)

	// FramesMalformedTotal counts frames skipped because they did not decode.
	FramesMalformedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_frames_malformed_total",
			Help: "Stream frames skipped as malformed",
		},
		[]string{"dialect"},
	)

	// ToolCallsTotal counts finalized tool calls by outcome (ok, invalid).
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_tool_calls_total",
			Help: "Tool calls assembled",
		},
		[]string{"dialect", "status"},
	)

	// NegotiationFallbacksTotal counts retries against an alternate API
	// version, by outcome of the retry.
	NegotiationFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_negotiation_fallbacks_total",
			Help: "API version fallbacks",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderRequestsTotal counts HTTP requests sent to vendors.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onair_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records time to response headers in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onair_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// StreamsActive tracks streams currently being reduced.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "onair_streams_active",
			Help: "Active streams",
		},
	)
)

func init() {
	prometheus.MustRegister(
		FramesTotal,
		FramesMalformedTotal,
		ToolCallsTotal,
		NegotiationFallbacksTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		StreamsActive,
	)
}
