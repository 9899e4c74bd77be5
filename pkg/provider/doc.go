// Package provider defines the vendor-neutral call surface for LLM
// backends. Each adapter translates a ChatRequest into its vendor's wire
// format, sends it through the API version negotiator, and hands the
// response body to the engine with the matching dialect, so every adapter
// returns the same api.ToolChatCompletion shape.
package provider
