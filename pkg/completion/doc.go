// Package completion accumulates canonical blocks for one call.
//
// AppendText and Flatten handle text merging. Assembler buffers tool-call
// argument fragments by stream-local key and resolves them into tool-use
// blocks. State bundles both for a dialect reducer, and Finalize turns a
// State into an api.ToolChatCompletion.
//
// Nothing here is shared between calls and nothing is safe for concurrent
// use: a call owns one State for its lifetime.
package completion
