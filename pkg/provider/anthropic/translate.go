package anthropic

import (
	"encoding/json"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

func translate(req *provider.ChatRequest, model string, maxTokens int) request {
	r := request{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt(),
		Stream:    req.Stream,
	}
	if req.MaxTokens > 0 {
		r.MaxTokens = req.MaxTokens
	}

	for _, m := range req.Messages {
		if m.Role == provider.RoleSystem {
			continue
		}
		content := contentBlocks(m.Blocks)
		if len(content) == 0 {
			continue
		}
		// The API wants alternating roles; fold consecutive turns together.
		if n := len(r.Messages); n > 0 && r.Messages[n-1].Role == string(m.Role) {
			r.Messages[n-1].Content = resultsFirst(append(r.Messages[n-1].Content, content...))
			continue
		}
		r.Messages = append(r.Messages, message{Role: string(m.Role), Content: content})
	}
	if r.Messages == nil {
		r.Messages = []message{}
	}

	for _, t := range req.Tools {
		r.Tools = append(r.Tools, tool{Name: t.Name, Description: t.Description, InputSchema: t.Schema()})
	}
	for _, s := range req.ToolServers {
		r.MCPServers = append(r.MCPServers, mcpServer{
			Type:               "url",
			URL:                s.URL,
			Name:               s.Name,
			AuthorizationToken: s.AuthorizationToken,
		})
	}
	return r
}

// contentBlocks maps canonical blocks to Messages API content. Tool
// results go first, as the API requires for user turns.
func contentBlocks(blocks []api.Block) []contentBlock {
	var out []contentBlock
	for _, b := range blocks {
		switch b := b.(type) {
		case api.TextBlock:
			if b.Text != "" {
				out = append(out, contentBlock{Type: "text", Text: b.Text})
			}
		case api.ToolUseBlock:
			out = append(out, contentBlock{Type: "tool_use", ID: b.ID, Name: b.Name, Input: input(b.Input)})
		case api.ToolResultBlock:
			out = append(out, contentBlock{Type: "tool_result", ToolUseID: b.ToolUseID, Content: b.Content})
		case api.RemoteToolUseBlock:
			out = append(out, contentBlock{Type: "mcp_tool_use", ID: b.ID, Name: b.Name, Input: input(b.Input), ServerName: b.ServerName})
		case api.RemoteToolResultBlock:
			out = append(out, contentBlock{
				Type:      "mcp_tool_result",
				ToolUseID: b.ToolUseID,
				Content:   []contentBlock{{Type: "text", Text: b.Content}},
			})
		}
	}
	return resultsFirst(out)
}

// resultsFirst moves tool_result blocks to the front, keeping the order
// within each group.
func resultsFirst(blocks []contentBlock) []contentBlock {
	out := make([]contentBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "tool_result" {
			out = append(out, b)
		}
	}
	for _, b := range blocks {
		if b.Type != "tool_result" {
			out = append(out, b)
		}
	}
	return out
}

func input(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}
