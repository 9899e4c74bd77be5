// Package toolserver connects to MCP tool servers from the client side.
//
// Vendors with remote tool support (Responses API, Anthropic Messages) call
// tool servers themselves; the provider only forwards their address. For
// the other vendors the same server can still be used: Tools lists its
// tools as provider.Tool definitions to offer the model, and Resolve runs
// one ToolUseBlock the model returned and yields the ToolResultBlock to
// send back on the next call. Driving further turns is up to the caller.
//
// The package wraps the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk) over streamable HTTP.
package toolserver
