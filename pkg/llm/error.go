// Package llm provides the wire representations exchanged between callers,
// the proxy and the upstream chat-completion API.
package llm

// ErrorResponse is the body written to the caller on any failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
