package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// handleGeminiV1 rejects every model so clients fall back to v1beta.
func handleGeminiV1(w http.ResponseWriter, r *http.Request) {
	model, _, _ := strings.Cut(r.PathValue("call"), ":")
	writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{
		"code":    404,
		"message": "models/" + model + " is not found for API version v1, or is not supported for generateContent.",
		"status":  "NOT_FOUND",
	}})
}

func handleGemini(w http.ResponseWriter, r *http.Request) {
	_, method, _ := strings.Cut(r.PathValue("call"), ":")
	if method != "generateContent" && method != "streamGenerateContent" {
		http.NotFound(w, r)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	hasTools := len(gjson.GetBytes(body, "tools.0.functionDeclarations").Array()) > 0
	sc := pick(lastUser(body, "contents", "parts"), hasTools, "")

	frames := geminiFrames(sc)
	if method == "generateContent" {
		writeJSON(w, http.StatusOK, geminiResponse(mergeParts(frames), sc))
		return
	}

	sw, ok := newSSEWriter(w)
	if !ok {
		return
	}
	for i, parts := range frames {
		resp := map[string]any{"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": parts},
		}}}
		if i == len(frames)-1 {
			resp = geminiResponse(parts, sc)
		}
		sw.data(resp)
	}
}

// geminiFrames returns the parts of each streamed frame. Function calls
// always arrive whole.
func geminiFrames(sc scenario) [][]any {
	var frames [][]any
	for _, token := range sc.tokens {
		frames = append(frames, []any{map[string]any{"text": token}})
	}
	if sc.toolArgs != nil {
		frames = append(frames, []any{map[string]any{
			"functionCall": map[string]any{"name": weatherTool, "args": json.RawMessage(toolArgsJoint)},
		}})
	}
	return frames
}

func mergeParts(frames [][]any) []any {
	var text strings.Builder
	var out []any
	for _, parts := range frames {
		for _, p := range parts {
			m := p.(map[string]any)
			if t, ok := m["text"].(string); ok {
				text.WriteString(t)
				continue
			}
			out = append(out, p)
		}
	}
	if text.Len() > 0 {
		out = append([]any{map[string]any{"text": text.String()}}, out...)
	}
	return out
}

func geminiResponse(parts []any, sc scenario) map[string]any {
	out := len(sc.tokens) + len(sc.toolArgs)
	return map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": parts},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     promptTokens,
			"candidatesTokenCount": out,
			"totalTokenCount":      promptTokens + out,
		},
	}
}
