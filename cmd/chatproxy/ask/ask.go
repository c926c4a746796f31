package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/chatproxy/pkg/config"
	"github.com/papercomputeco/chatproxy/pkg/llm"
)

const askLongDesc string = `Send a prompt to a running chatproxy server and print the reply.

Prior turns can be supplied as a JSON array of {"role","text"} objects;
the prompt is appended as the final user turn. Replies are rendered as
markdown when stdout is a terminal.

Examples:
  chatproxy ask "What is a Merkle tree?"
  chatproxy ask --model anthropic/claude-3-haiku "Summarize Go's memory model"
  chatproxy ask --history convo.json --server http://10.0.0.5:8080 "And then?"`

const askShortDesc string = "Ask a running chatproxy server"

const defaultServer = "http://localhost:8080"

type askCommander struct {
	server      string
	route       string
	model       string
	historyPath string
	plain       bool
	timeout     time.Duration
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&cmder.server, "server", defaultServer, "Base URL of the chatproxy server")
	cmd.Flags().StringVar(&cmder.route, "route", config.DefaultRoute, "Completion route on the server")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Upstream model identifier (server default if empty)")
	cmd.Flags().StringVar(&cmder.historyPath, "history", "", "Path to a JSON file with prior turns")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the reply without markdown rendering")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 3*time.Minute, "Request timeout")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, prompt string) error {
	history, err := c.loadHistory()
	if err != nil {
		return err
	}
	history = append(history, llm.NewTurn(llm.RoleUser, prompt))

	text, err := c.post(ctx, &llm.ProxyRequest{History: history, Model: c.model})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !c.plain {
		if width, ok := terminalWidth(out); ok {
			rendered, err := render(text, width)
			if err == nil {
				text = rendered
			}
		}
	}

	fmt.Fprintln(out, strings.TrimRight(text, "\n"))
	return nil
}

func (c *askCommander) loadHistory() ([]llm.ConversationTurn, error) {
	if c.historyPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.historyPath)
	if err != nil {
		return nil, fmt.Errorf("could not read history: %w", err)
	}

	var history []llm.ConversationTurn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("history must be a JSON array of turns: %w", err)
	}

	return history, nil
}

func (c *askCommander) post(ctx context.Context, req *llm.ProxyRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	url := strings.TrimRight(c.server, "/") + c.route
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp llm.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result llm.TextResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("could not decode response: %w", err)
	}

	return result.Text, nil
}

// terminalWidth reports the width of w if it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	return width, true
}

func render(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
