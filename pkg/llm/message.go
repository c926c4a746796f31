package llm

import "encoding/json"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in the outbound chat-completion request.
// Content holds the raw JSON of the caller's text: an empty Content omits the
// key entirely, a JSON null is forwarded as null.
type Message struct {
	Role    string          `json:"role"`              // "user" or "assistant"
	Content json.RawMessage `json:"content,omitempty"` // Verbatim copy of the turn's text
}
