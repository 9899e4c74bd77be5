package provider

import (
	"fmt"

	"github.com/shinshin86/aituber-onair-sub001/pkg/api"
)

// Capabilities declares what a backend supports. Used for early request
// validation, before anything is sent.
type Capabilities struct {
	// Streaming indicates whether the provider can stream.
	Streaming bool

	// ToolCalling indicates whether the provider accepts function tools.
	ToolCalling bool

	// ToolServers indicates whether the vendor can call remote tool
	// servers on the caller's behalf.
	ToolServers bool
}

// ValidateCapabilities checks whether req is compatible with caps. It
// returns an APIError naming the unsupported feature, or nil.
func ValidateCapabilities(caps Capabilities, req *ChatRequest) *api.APIError {
	if req.Stream && !caps.Streaming {
		return api.NewInvalidRequestError("stream",
			"the configured provider does not support streaming responses")
	}

	if len(req.Tools) > 0 && !caps.ToolCalling {
		return api.NewInvalidRequestError("tools",
			"the configured provider does not support tool calling")
	}

	if len(req.ToolServers) > 0 && !caps.ToolServers {
		return api.NewInvalidRequestError("tool_servers",
			"the configured provider does not support remote tool servers")
	}

	for i, m := range req.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return api.NewInvalidRequestError("messages",
				fmt.Sprintf("message %d has unknown role %q", i, m.Role))
		}
	}

	return nil
}
