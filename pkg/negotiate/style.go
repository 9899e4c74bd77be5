package negotiate

// Style is the endpoint family used for OpenAI calls.
type Style int

const (
	// StyleChat is /v1/chat/completions.
	StyleChat Style = iota

	// StyleResponses is /v1/responses, required for remote tool servers.
	StyleResponses
)

func (s Style) String() string {
	if s == StyleResponses {
		return "responses"
	}
	return "chat"
}

// SelectStyle picks the endpoint family once, before the call. It never
// changes mid-call.
func SelectStyle(toolServers int) Style {
	if toolServers > 0 {
		return StyleResponses
	}
	return StyleChat
}
