package google

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
	dialect "github.com/shinshin86/aituber-onair-sub001/pkg/dialect/google"
	"github.com/shinshin86/aituber-onair-sub001/pkg/provider"
)

// buildRequest renders req as a generateContent body. conv supplies the
// function name for each replayed tool result.
func buildRequest(req *provider.ChatRequest, conv *dialect.Conversation) ([]byte, error) {
	body := []byte(`{"contents":[]}`)
	var err error

	for _, m := range req.Messages {
		if m.Role == provider.RoleSystem {
			continue
		}
		content, ok, err := buildContent(m, conv)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if body, err = sjson.SetRawBytes(body, "contents.-1", content); err != nil {
			return nil, err
		}
	}

	if sys := req.SystemPrompt(); sys != "" {
		instr, err := sjson.SetBytes([]byte(`{"parts":[{"text":""}]}`), "parts.0.text", sys)
		if err != nil {
			return nil, err
		}
		if body, err = sjson.SetRawBytes(body, "systemInstruction", instr); err != nil {
			return nil, err
		}
	}

	if len(req.Tools) > 0 {
		decls := []byte(`{"functionDeclarations":[]}`)
		for _, t := range req.Tools {
			decl, err := functionDeclaration(t)
			if err != nil {
				return nil, err
			}
			if decls, err = sjson.SetRawBytes(decls, "functionDeclarations.-1", decl); err != nil {
				return nil, err
			}
		}
		if body, err = sjson.SetRawBytes(body, "tools", append(append([]byte("["), decls...), ']')); err != nil {
			return nil, err
		}
	}

	if req.MaxTokens > 0 {
		if body, err = sjson.SetBytes(body, "generationConfig.maxOutputTokens", req.MaxTokens); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// buildContent renders one turn. ok is false when the turn has nothing
// Gemini can replay.
func buildContent(m provider.Message, conv *dialect.Conversation) (content []byte, ok bool, err error) {
	role := "user"
	if m.Role == provider.RoleAssistant {
		role = "model"
	}
	content, err = sjson.SetBytes([]byte(`{"parts":[]}`), "role", role)
	if err != nil {
		return nil, false, err
	}

	for _, b := range m.Blocks {
		var part []byte
		switch b := b.(type) {
		case api.TextBlock:
			if b.Text == "" {
				continue
			}
			part, err = sjson.SetBytes([]byte(`{}`), "text", b.Text)
		case api.ToolUseBlock:
			part, err = functionCall(b)
		case api.ToolResultBlock:
			part, err = functionResponse(b, conv)
		default:
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if content, err = sjson.SetRawBytes(content, "parts.-1", part); err != nil {
			return nil, false, err
		}
		ok = true
	}
	return content, ok, nil
}

func functionCall(b api.ToolUseBlock) ([]byte, error) {
	args := []byte(b.Input)
	if len(args) == 0 {
		args = []byte(`{}`)
	}
	part, err := sjson.SetBytes([]byte(`{"functionCall":{}}`), "functionCall.name", b.Name)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(part, "functionCall.args", args)
}

func functionResponse(b api.ToolResultBlock, conv *dialect.Conversation) ([]byte, error) {
	name, ok := conv.FunctionName(b.ToolUseID)
	if !ok {
		name = b.ToolUseID
	}
	part, err := sjson.SetBytes([]byte(`{"functionResponse":{}}`), "functionResponse.name", name)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(part, "functionResponse.response.content", b.Content)
}

func functionDeclaration(t provider.Tool) ([]byte, error) {
	decl, err := sjson.SetBytes([]byte(`{}`), "name", t.Name)
	if err != nil {
		return nil, err
	}
	if t.Description != "" {
		if decl, err = sjson.SetBytes(decl, "description", t.Description); err != nil {
			return nil, err
		}
	}
	return sjson.SetRawBytes(decl, "parameters", t.Schema())
}

// rewriteForVersion adapts a body for v1, which does not take
// systemInstruction: the instruction is folded into the first user turn.
// Other versions pass through unchanged.
func rewriteForVersion(version string, body []byte) ([]byte, error) {
	if version != "v1" {
		return body, nil
	}
	sys := gjson.GetBytes(body, "systemInstruction.parts.0.text")
	if !sys.Exists() {
		return body, nil
	}

	out, err := sjson.DeleteBytes(body, "systemInstruction")
	if err != nil {
		return nil, err
	}

	first := gjson.GetBytes(out, "contents.0")
	if first.Get("role").String() == "user" && first.Get("parts.0.text").Exists() {
		return sjson.SetBytes(out, "contents.0.parts.0.text", sys.String()+"\n\n"+first.Get("parts.0.text").String())
	}

	turn, err := sjson.SetBytes([]byte(`{"role":"user","parts":[{"text":""}]}`), "parts.0.text", sys.String())
	if err != nil {
		return nil, err
	}
	contents := []byte("[" + string(turn))
	gjson.GetBytes(out, "contents").ForEach(func(_, v gjson.Result) bool {
		contents = append(contents, ',')
		contents = append(contents, v.Raw...)
		return true
	})
	contents = append(contents, ']')
	return sjson.SetRawBytes(out, "contents", contents)
}
