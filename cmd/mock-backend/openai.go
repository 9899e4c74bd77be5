package main

import (
	"net/http"

	"github.com/tidwall/gjson"
)

// --- Chat Completions ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	model := modelOf(body)
	sc := pick(lastUser(body, "messages", "content"), len(gjson.GetBytes(body, "tools").Array()) > 0, "")

	if !gjson.GetBytes(body, "stream").Bool() {
		writeJSON(w, http.StatusOK, chatResponse(model, sc))
		return
	}

	sw, ok := newSSEWriter(w)
	if !ok {
		return
	}
	sw.data(chatChunk(model, map[string]any{"role": "assistant"}, nil))

	finish := "stop"
	if sc.toolArgs != nil {
		finish = "tool_calls"
		for i, piece := range sc.toolArgs {
			call := map[string]any{"index": 0, "function": map[string]any{"arguments": piece}}
			if i == 0 {
				call["id"] = toolCallID
				call["type"] = "function"
				call["function"].(map[string]any)["name"] = weatherTool
			}
			sw.data(chatChunk(model, map[string]any{"tool_calls": []any{call}}, nil))
		}
	}
	for _, token := range sc.tokens {
		sw.data(chatChunk(model, map[string]any{"content": token}, nil))
	}

	sw.data(chatChunk(model, map[string]any{}, &finish))
	sw.data(map[string]any{
		"id":      "chatcmpl-mock-stream",
		"object":  "chat.completion.chunk",
		"model":   model,
		"choices": []any{},
		"usage":   chatUsage(len(sc.tokens) + len(sc.toolArgs)),
	})
	sw.done()
}

func chatChunk(model string, delta map[string]any, finish *string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         delta,
			"finish_reason": finish,
		}},
	}
}

func chatResponse(model string, sc scenario) map[string]any {
	msg := map[string]any{"role": "assistant", "content": nil}
	finish := "stop"
	if sc.toolArgs != nil {
		finish = "tool_calls"
		msg["tool_calls"] = []any{map[string]any{
			"id":       toolCallID,
			"type":     "function",
			"function": map[string]any{"name": weatherTool, "arguments": toolArgsJoint},
		}}
	} else {
		msg["content"] = sc.text()
	}
	return map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"model":   model,
		"choices": []any{map[string]any{"index": 0, "message": msg, "finish_reason": finish}},
		"usage":   chatUsage(len(sc.tokens) + len(sc.toolArgs)),
	}
}

func chatUsage(completion int) map[string]any {
	return map[string]any{
		"prompt_tokens":     promptTokens,
		"completion_tokens": completion,
		"total_tokens":      promptTokens + completion,
	}
}

// --- Responses ---

func handleResponses(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	hasFunctions := gjson.GetBytes(body, `tools.#(type=="function")`).Exists()
	server := gjson.GetBytes(body, `tools.#(type=="mcp").server_label`).String()
	sc := pick(lastUser(body, "input", "content"), hasFunctions, server)

	if !gjson.GetBytes(body, "stream").Bool() {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     "resp_mock",
			"object": "response",
			"status": "completed",
			"model":  modelOf(body),
			"output": responseOutput(sc),
			"usage":  responsesUsage(sc),
		})
		return
	}

	sw, ok := newSSEWriter(w)
	if !ok {
		return
	}
	sw.event("response.created", map[string]any{"response": map[string]any{"id": "resp_mock", "status": "in_progress"}})

	index := 0
	if sc.remote != "" {
		item := map[string]any{"id": remoteCallID, "type": "mcp_call", "server_label": sc.remote, "name": remoteTool, "arguments": ""}
		sw.event("response.output_item.added", map[string]any{"output_index": index, "item": item})
		sw.event("response.mcp_call_arguments.delta", map[string]any{"output_index": index, "delta": remoteInput})
		sw.event("response.mcp_call_arguments.done", map[string]any{"output_index": index, "arguments": remoteInput})
		sw.event("response.output_item.done", map[string]any{"output_index": index, "item": mcpCallItem(sc.remote)})
		index++
	}

	if sc.toolArgs != nil {
		item := map[string]any{"id": "fc_mock_1", "type": "function_call", "call_id": toolCallID, "name": weatherTool, "arguments": ""}
		sw.event("response.output_item.added", map[string]any{"output_index": index, "item": item})
		for _, piece := range sc.toolArgs {
			sw.event("response.function_call_arguments.delta", map[string]any{"output_index": index, "delta": piece})
		}
		sw.event("response.function_call_arguments.done", map[string]any{"output_index": index, "arguments": toolArgsJoint})
		item["arguments"] = toolArgsJoint
		sw.event("response.output_item.done", map[string]any{"output_index": index, "item": item})
	}

	if len(sc.tokens) > 0 {
		sw.event("response.output_item.added", map[string]any{
			"output_index": index,
			"item":         map[string]any{"id": "msg_mock", "type": "message", "role": "assistant", "content": []any{}},
		})
		for _, token := range sc.tokens {
			sw.event("response.output_text.delta", map[string]any{
				"item_id": "msg_mock", "output_index": index, "content_index": 0, "delta": token,
			})
		}
		sw.event("response.output_text.done", map[string]any{
			"item_id": "msg_mock", "output_index": index, "content_index": 0, "text": sc.text(),
		})
		sw.event("response.output_item.done", map[string]any{"output_index": index, "item": messageItem(sc.text())})
	}

	sw.event("response.completed", map[string]any{"response": map[string]any{
		"id": "resp_mock", "status": "completed", "usage": responsesUsage(sc),
	}})
}

func responseOutput(sc scenario) []any {
	var out []any
	if sc.remote != "" {
		out = append(out, mcpCallItem(sc.remote))
	}
	if sc.toolArgs != nil {
		out = append(out, map[string]any{
			"id": "fc_mock_1", "type": "function_call", "call_id": toolCallID, "name": weatherTool, "arguments": toolArgsJoint,
		})
	}
	if len(sc.tokens) > 0 {
		out = append(out, messageItem(sc.text()))
	}
	return out
}

func mcpCallItem(server string) map[string]any {
	return map[string]any{
		"id": remoteCallID, "type": "mcp_call", "server_label": server,
		"name": remoteTool, "arguments": remoteInput, "output": remoteResult,
	}
}

func messageItem(text string) map[string]any {
	return map[string]any{
		"id": "msg_mock", "type": "message", "role": "assistant",
		"content": []any{map[string]any{"type": "output_text", "text": text}},
	}
}

func responsesUsage(sc scenario) map[string]any {
	out := len(sc.tokens) + len(sc.toolArgs)
	return map[string]any{"input_tokens": promptTokens, "output_tokens": out, "total_tokens": promptTokens + out}
}

func modelOf(body []byte) string {
	if m := gjson.GetBytes(body, "model").String(); m != "" {
		return m
	}
	return "mock-model"
}
