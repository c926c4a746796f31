package llm

// DefaultModel is used when the caller does not name a model.
const DefaultModel = "openai/gpt-3.5-turbo"

// CompletionRequest is the body sent to the upstream chat-completion endpoint.
type CompletionRequest struct {
	Model    string    `json:"model"`    // Upstream model identifier, e.g. "openai/gpt-3.5-turbo"
	Messages []Message `json:"messages"` // Conversation history in caller order
}

// ProxyRequest is the body a caller posts to the proxy.
type ProxyRequest struct {
	History []ConversationTurn `json:"history"`
	Model   string             `json:"model,omitempty"`
}
