// Package google is the provider adapter for the Gemini generateContent
// API. The request is built with sjson, the API version (v1 or v1beta) is
// negotiated per model (preview and experimental models are pinned to
// v1beta), and function names for replayed tool results are
// resolved from the tool calls in the request history.
package google
