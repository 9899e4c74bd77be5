package main

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
)

func handleMessages(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	server := gjson.GetBytes(body, "mcp_servers.0.name").String()
	sc := pick(lastUser(body, "messages", "content"), len(gjson.GetBytes(body, "tools").Array()) > 0, server)

	stop := "end_turn"
	if sc.toolArgs != nil {
		stop = "tool_use"
	}
	outputTokens := len(sc.tokens) + len(sc.toolArgs)

	if !gjson.GetBytes(body, "stream").Bool() {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          "msg_mock",
			"type":        "message",
			"role":        "assistant",
			"model":       modelOf(body),
			"content":     messageContent(sc),
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": promptTokens, "output_tokens": outputTokens},
		})
		return
	}

	sw, ok := newSSEWriter(w)
	if !ok {
		return
	}
	sw.event("message_start", map[string]any{"type": "message_start", "message": map[string]any{
		"id": "msg_mock", "type": "message", "role": "assistant", "model": modelOf(body),
		"content": []any{}, "usage": map[string]any{"input_tokens": promptTokens, "output_tokens": 1},
	}})

	index := 0
	block := func(start map[string]any, deltas ...map[string]any) {
		sw.event("content_block_start", map[string]any{"type": "content_block_start", "index": index, "content_block": start})
		for _, d := range deltas {
			sw.event("content_block_delta", map[string]any{"type": "content_block_delta", "index": index, "delta": d})
		}
		sw.event("content_block_stop", map[string]any{"type": "content_block_stop", "index": index})
		index++
	}

	if sc.remote != "" {
		block(remoteUseBlock(sc.remote))
		block(remoteResultBlock(sc.remote))
	}
	if len(sc.tokens) > 0 {
		var deltas []map[string]any
		for _, token := range sc.tokens {
			deltas = append(deltas, map[string]any{"type": "text_delta", "text": token})
		}
		block(map[string]any{"type": "text", "text": ""}, deltas...)
	}
	if sc.toolArgs != nil {
		var deltas []map[string]any
		for _, piece := range sc.toolArgs {
			deltas = append(deltas, map[string]any{"type": "input_json_delta", "partial_json": piece})
		}
		block(map[string]any{"type": "tool_use", "id": "toolu_mock_1", "name": weatherTool, "input": map[string]any{}}, deltas...)
	}

	sw.event("message_delta", map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": stop},
		"usage": map[string]any{"output_tokens": outputTokens},
	})
	sw.event("message_stop", map[string]any{"type": "message_stop"})
}

func messageContent(sc scenario) []any {
	var out []any
	if sc.remote != "" {
		out = append(out, remoteUseBlock(sc.remote), remoteResultBlock(sc.remote))
	}
	if len(sc.tokens) > 0 {
		out = append(out, map[string]any{"type": "text", "text": sc.text()})
	}
	if sc.toolArgs != nil {
		out = append(out, map[string]any{
			"type": "tool_use", "id": "toolu_mock_1", "name": weatherTool, "input": json.RawMessage(toolArgsJoint),
		})
	}
	return out
}

func remoteUseBlock(server string) map[string]any {
	return map[string]any{
		"type": "mcp_tool_use", "id": remoteCallID, "name": remoteTool,
		"server_name": server, "input": json.RawMessage(remoteInput),
	}
}

func remoteResultBlock(server string) map[string]any {
	return map[string]any{
		"type": "mcp_tool_result", "tool_use_id": remoteCallID, "is_error": false,
		"content": []any{map[string]any{"type": "text", "text": remoteResult}},
	}
}
