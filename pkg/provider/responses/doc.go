// Package responses is the provider adapter for the OpenAI Responses API
// (/v1/responses). It is the only OpenAI route that accepts remote tool
// servers, which are sent as "mcp" tools. Responses are read by the
// responses dialect.
package responses
