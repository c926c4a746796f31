package proxy

import "time"

// Config is the proxy server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Route the completion handler is mounted on (e.g., "/api/openrouter")
	Route string

	// APIKey is the upstream credential. Empty means the server is
	// misconfigured; every completion request then fails with a 500.
	APIKey string

	// Upstream chat-completion endpoint
	UpstreamURL string

	// DefaultModel is used when a request names no model.
	DefaultModel string

	// UpstreamTimeout bounds a single upstream call.
	UpstreamTimeout time.Duration

	// Inbound connection timeouts. Zero means no timeout.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}
