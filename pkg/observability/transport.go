package observability

import (
	"net/http"
	"strconv"
	"time"
)

// ModelHeader carries the model name from a provider to the instrumented
// transport. It is stripped before the request leaves the process.
const ModelHeader = "X-Onair-Model"

// InstrumentTransport wraps rt so each request records
// onair_provider_requests_total and onair_provider_latency_seconds under
// the given provider label. A nil rt means http.DefaultTransport.
func InstrumentTransport(rt http.RoundTripper, provider string) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &instrumentedTransport{next: rt, provider: provider}
}

type instrumentedTransport struct {
	next     http.RoundTripper
	provider string
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	model := req.Header.Get(ModelHeader)
	if model != "" {
		req = req.Clone(req.Context())
		req.Header.Del(ModelHeader)
	} else {
		model = "unknown"
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	ProviderLatency.WithLabelValues(t.provider, model).Observe(time.Since(start).Seconds())

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode/100) + "xx"
	}
	ProviderRequestsTotal.WithLabelValues(t.provider, model, status).Inc()
	return resp, err
}
