// Package api defines the canonical, vendor-neutral completion types.
//
// Every dialect adapter produces the same [ToolChatCompletion]: an ordered
// list of [Block] values plus a [StopReason]. Block is a closed tagged union:
//   - [TextBlock]: merged text output
//   - [ToolUseBlock]: a resolved tool invocation with JSON object input
//   - [ToolResultBlock]: a tool result echoed back by the vendor
//   - [RemoteToolUseBlock], [RemoteToolResultBlock]: tool-server variants
//     carrying the server name
//
// Blocks serialize with a "type" discriminator so completions round-trip
// through JSON. [APIError] is the single structured error type callers
// inspect to distinguish transport, negotiation, and tool-argument failures.
package api
