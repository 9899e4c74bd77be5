// Package anthropic is the provider adapter for the Anthropic Messages API.
// Remote tool servers are sent as mcp_servers under the MCP client beta.
package anthropic
