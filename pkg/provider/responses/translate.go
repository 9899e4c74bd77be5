package responses

import (
	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

func translate(req *provider.ChatRequest, model string) request {
	r := request{
		Model:        model,
		Instructions: req.SystemPrompt(),
		Stream:       req.Stream,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		r.MaxOutputTokens = &maxTokens
	}

	for _, m := range req.Messages {
		if m.Role == provider.RoleSystem {
			continue
		}
		r.Input = append(r.Input, inputItems(m)...)
	}
	if r.Input == nil {
		r.Input = []any{}
	}

	for _, t := range req.Tools {
		r.Tools = append(r.Tools, tool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema(),
		})
	}
	for _, s := range req.ToolServers {
		r.Tools = append(r.Tools, mcpTool(s))
	}
	return r
}

// inputItems flattens one turn into input items, keeping block order so a
// function_call_output always follows its function_call.
func inputItems(m provider.Message) []any {
	var items []any
	role := string(m.Role)
	for _, b := range m.Blocks {
		switch b := b.(type) {
		case api.TextBlock:
			if b.Text == "" {
				continue
			}
			items = append(items, inputMessage{Type: "message", Role: role, Content: b.Text})
		case api.ToolUseBlock:
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			items = append(items, functionCall{Type: "function_call", CallID: b.ID, Name: b.Name, Arguments: args})
		case api.ToolResultBlock:
			items = append(items, functionCallOutput{Type: "function_call_output", CallID: b.ToolUseID, Output: b.Content})
		}
	}
	return items
}

func mcpTool(s provider.ToolServer) tool {
	t := tool{
		Type:            "mcp",
		ServerLabel:     s.Name,
		ServerURL:       s.URL,
		RequireApproval: "never",
	}
	if s.AuthorizationToken != "" {
		t.Headers = map[string]string{"Authorization": "Bearer " + s.AuthorizationToken}
	}
	return t
}
