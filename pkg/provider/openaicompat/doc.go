// Package openaicompat is the provider adapter for OpenAI Chat Completions
// and the vendors that copy its wire format (OpenRouter, Z.ai, Kimi).
// Responses are read by the openaichat dialect.
package openaicompat
