package api

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const toolCallIDPrefix = "call_"

var toolCallIDPattern = regexp.MustCompile(`^call_[a-f0-9]{32}$`)

// NewToolCallID generates a tool call ID for vendors that do not issue one.
// The format is "call_" followed by 32 lowercase hex characters.
func NewToolCallID() string {
	return toolCallIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateToolCallID reports whether id was produced by NewToolCallID.
func ValidateToolCallID(id string) bool {
	return toolCallIDPattern.MatchString(id)
}
