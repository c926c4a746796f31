package proxy

import (
	"bytes"
	"encoding/json"

	"github.com/papercomputeco/chatproxy/pkg/llm"
)

// buildCompletionRequest turns a caller body into the upstream request. It
// reports false when the body carries no "history" array. A body that is not
// a JSON object is read as an empty object.
func buildCompletionRequest(body []byte, defaultModel string) (*llm.CompletionRequest, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}

	rawHistory := bytes.TrimSpace(fields["history"])
	if !bytes.HasPrefix(rawHistory, []byte("[")) {
		return nil, false
	}

	var history []json.RawMessage
	if err := json.Unmarshal(rawHistory, &history); err != nil {
		return nil, false
	}

	messages := make([]llm.Message, 0, len(history))
	for _, entry := range history {
		messages = append(messages, llm.ParseTurn(entry).Message())
	}

	return &llm.CompletionRequest{
		Model:    selectModel(fields["model"], defaultModel),
		Messages: messages,
	}, true
}

// selectModel returns the caller's model when it is a non-empty JSON string.
func selectModel(raw json.RawMessage, defaultModel string) string {
	var model string
	if len(raw) > 0 && json.Unmarshal(raw, &model) == nil && model != "" {
		return model
	}
	return defaultModel
}
