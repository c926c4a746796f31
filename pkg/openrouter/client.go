package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/chatproxy/pkg/llm"
)

const (
	// DefaultURL is the OpenRouter chat-completion endpoint.
	DefaultURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultTimeout bounds a single upstream call when no timeout is configured.
	DefaultTimeout = 2 * time.Minute
)

// Options configures a Client.
type Options struct {
	// URL of the chat-completion endpoint. Defaults to DefaultURL.
	URL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Timeout for the whole call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client sends chat-completion requests to a single upstream endpoint.
// It is safe for concurrent use.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		url:        opts.URL,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
	}
}

// Complete performs one chat-completion call.
func (c *Client) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "send", Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &UpstreamError{
			StatusCode: httpResp.StatusCode,
			Message:    extractErrorMessage(body),
		}
	}

	// A well-formed body of an unexpected shape decodes to an empty
	// completion; only malformed JSON fails here.
	var completion llm.Completion
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, &TransportError{Op: "decode", Err: err}
	}

	return &completion, nil
}
