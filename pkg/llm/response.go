package llm

import "encoding/json"

// FallbackText is returned when the upstream reply carries no usable content.
const FallbackText = "Sorry, I couldn't generate a response."

// Completion is the subset of a chat-completion response the proxy consumes.
type Completion struct {
	Choices []Choice `json:"choices"`
}

// Choice is one generated alternative.
type Choice struct {
	Message ChoiceMessage `json:"message"`
}

// ChoiceMessage holds the generated content of a choice.
type ChoiceMessage struct {
	Content any `json:"content"`
}

// UnmarshalJSON follows choices[].message.content by exact key. A body of any
// other shape decodes to a completion without choices.
func (c *Completion) UnmarshalJSON(data []byte) error {
	*c = Completion{}

	var choices []json.RawMessage
	if err := json.Unmarshal(Field(data, "choices"), &choices); err != nil {
		return nil
	}

	c.Choices = make([]Choice, 0, len(choices))
	for _, raw := range choices {
		var choice Choice
		_ = json.Unmarshal(Field(raw, "message", "content"), &choice.Message.Content)
		c.Choices = append(c.Choices, choice)
	}
	return nil
}

// Text returns the first choice's content, or FallbackText when that path is
// absent, empty or not a string.
func (c *Completion) Text() string {
	if c == nil || len(c.Choices) == 0 {
		return FallbackText
	}

	if s, ok := c.Choices[0].Message.Content.(string); ok && s != "" {
		return s
	}

	return FallbackText
}

// TextResponse is the body written to the caller on success.
type TextResponse struct {
	Text string `json:"text"`
}
