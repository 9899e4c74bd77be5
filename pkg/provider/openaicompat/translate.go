package openaicompat

import (
	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// TranslateToChat converts a ChatRequest into a ChatCompletionRequest
// suitable for the chat completions endpoint.
func TranslateToChat(req *provider.ChatRequest, model string) ChatCompletionRequest {
	cr := ChatCompletionRequest{
		Model:  model,
		Stream: req.Stream,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		cr.MaxTokens = &maxTokens
	}

	// When streaming, enable usage reporting in the stream.
	if req.Stream {
		cr.StreamOptions = &ChatStreamOptions{IncludeUsage: true}
	}

	for _, m := range req.Messages {
		cr.Messages = append(cr.Messages, translateMessage(m)...)
	}

	for _, t := range req.Tools {
		cr.Tools = append(cr.Tools, ChatTool{
			Type: "function",
			Function: ChatFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema(),
			},
		})
	}

	return cr
}

// translateMessage maps one turn to chat messages. Tool results become
// separate "tool" messages; remote tool blocks were executed vendor-side
// and are not replayed.
func translateMessage(m provider.Message) []ChatMessage {
	switch m.Role {
	case provider.RoleAssistant:
		cm := ChatMessage{Role: "assistant"}
		if text := m.Text(); text != "" {
			cm.Content = text
		}
		for _, b := range m.Blocks {
			if tu, ok := b.(api.ToolUseBlock); ok {
				cm.ToolCalls = append(cm.ToolCalls, ChatToolCall{
					ID:   tu.ID,
					Type: "function",
					Function: ChatFunctionCall{
						Name:      tu.Name,
						Arguments: string(inputOrEmpty(tu.Input)),
					},
				})
			}
		}
		return []ChatMessage{cm}

	case provider.RoleUser:
		var out []ChatMessage
		for _, b := range m.Blocks {
			if tr, ok := b.(api.ToolResultBlock); ok {
				out = append(out, ChatMessage{Role: "tool", Content: tr.Content, ToolCallID: tr.ToolUseID})
			}
		}
		if text := m.Text(); text != "" {
			out = append(out, ChatMessage{Role: "user", Content: text})
		}
		return out

	default:
		return []ChatMessage{{Role: string(m.Role), Content: m.Text()}}
	}
}

func inputOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
