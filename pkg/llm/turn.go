package llm

import "encoding/json"

// ConversationTurn is one entry of the caller-supplied history.
// Both fields are kept as raw JSON so that text is relayed untouched and
// a role of any JSON type can be inspected.
type ConversationTurn struct {
	Role json.RawMessage `json:"role,omitempty"`
	Text json.RawMessage `json:"text,omitempty"`
}

// NewTurn builds a turn from plain strings.
func NewTurn(role, text string) ConversationTurn {
	r, _ := json.Marshal(role)
	t, _ := json.Marshal(text)
	return ConversationTurn{Role: r, Text: t}
}

// ParseTurn decodes a single history entry. Entries that are not JSON objects
// yield a zero turn.
func ParseTurn(raw json.RawMessage) ConversationTurn {
	var turn ConversationTurn
	_ = turn.UnmarshalJSON(raw)
	return turn
}

// UnmarshalJSON reads only the exact "role" and "text" keys, so "ROLE" or
// "Text" are ignored rather than folded onto them.
func (t *ConversationTurn) UnmarshalJSON(data []byte) error {
	*t = ConversationTurn{
		Role: Field(data, "role"),
		Text: Field(data, "text"),
	}
	return nil
}

// Message folds the turn into an upstream message. The role is "user" only
// when the turn's role is exactly the JSON string "user"; everything else,
// including a missing role, becomes "assistant".
func (t ConversationTurn) Message() Message {
	role := RoleAssistant

	var s string
	if len(t.Role) > 0 && json.Unmarshal(t.Role, &s) == nil && s == RoleUser {
		role = RoleUser
	}

	return Message{Role: role, Content: t.Text}
}
