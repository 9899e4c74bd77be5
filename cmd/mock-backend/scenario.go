package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// scenario is what a request will be answered with.
type scenario struct {
	tokens []string

	// toolArgs, when set, replaces the text with a get_weather call whose
	// arguments arrive in these pieces.
	toolArgs []string

	// remote, when set, prefixes the text with a remote tool call served
	// by this tool server.
	remote string
}

var (
	helloTokens = []string{"Hello", ", ", "nice", " ", "day", "!"}
	countTokens = []string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"}
	weatherArgs = []string{`{"location":`, `"San Fran`, `cisco","unit":"cel`, `sius"}`}
)

const (
	weatherTool   = "get_weather"
	remoteTool    = "echo"
	remoteInput   = `{"message":"ping"}`
	remoteResult  = "Echo: ping"
	toolCallID    = "call_mock_1"
	remoteCallID  = "mcp_mock_1"
	promptTokens  = 10
	toolArgsJoint = `{"location":"San Francisco","unit":"celsius"}`
)

func pick(lastUser string, hasTools bool, toolServer string) scenario {
	if hasTools {
		return scenario{toolArgs: weatherArgs}
	}
	s := scenario{tokens: helloTokens, remote: toolServer}
	if strings.Contains(strings.ToLower(lastUser), "count from 1 to 5") {
		s.tokens = countTokens
	}
	return s
}

func (s scenario) text() string { return strings.Join(s.tokens, "") }

// lastUser returns the last user text in the list at path. content names
// the field holding either a string or an array of parts with "text".
func lastUser(body []byte, path, content string) string {
	var text string
	gjson.GetBytes(body, path).ForEach(func(_, m gjson.Result) bool {
		if m.Get("role").String() != "user" {
			return true
		}
		c := m.Get(content)
		if c.Type == gjson.String {
			text = c.String()
			return true
		}
		c.ForEach(func(_, part gjson.Result) bool {
			if t := part.Get("text"); t.Exists() {
				text = t.String()
			}
			return true
		})
		return true
	})
	return text
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil || !gjson.ValidBytes(data) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "invalid request", "type": "invalid_request_error"},
		})
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sseWriter writes frames and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) data(v any) {
	payload, _ := json.Marshal(v)
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

func (s *sseWriter) event(name string, v any) {
	payload, _ := json.Marshal(v)
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, payload)
	s.flusher.Flush()
}

func (s *sseWriter) done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
