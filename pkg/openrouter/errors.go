package openrouter

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/chatproxy/pkg/llm"
)

// UpstreamError is returned when the upstream responds with a non-2xx status.
// Message is empty when the body carried no error message.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// TransportError is returned when the call could not produce a decodable response.
type TransportError struct {
	Op  string // "send", "read" or "decode"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("openrouter %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// extractErrorMessage pulls error.message out of an upstream error body by
// exact key. It returns "" if that path is missing or not a string.
func extractErrorMessage(body []byte) string {
	var msg string
	if err := json.Unmarshal(llm.Field(body, "error", "message"), &msg); err != nil {
		return ""
	}
	return msg
}
