// Package proxy provides a single-endpoint chat-completion proxy that keeps the
// upstream credential on the server.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatproxy/pkg/llm"
	"github.com/papercomputeco/chatproxy/pkg/merkle"
	"github.com/papercomputeco/chatproxy/pkg/openrouter"
)

// Completer performs one upstream chat-completion call.
type Completer interface {
	Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error)
}

// Proxy relays conversation histories to the upstream chat-completion API.
// It holds no per-request state; every invocation is independent.
type Proxy struct {
	config   Config
	upstream Completer
	logger   *zap.Logger
	server   *fiber.App
}

// New creates a new Proxy talking to the OpenRouter endpoint in config.
func New(config Config, logger *zap.Logger) (*Proxy, error) {
	if config.Route == "" {
		return nil, errors.New("route must not be empty")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = llm.DefaultModel
	}

	upstream := openrouter.New(openrouter.Options{
		URL:     config.UpstreamURL,
		APIKey:  config.APIKey,
		Timeout: config.UpstreamTimeout,
	})

	return newProxy(config, upstream, logger), nil
}

func newProxy(config Config, upstream Completer, logger *zap.Logger) *Proxy {
	p := &Proxy{
		config:   config,
		upstream: upstream,
		logger:   logger,
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		ErrorHandler:          p.handleError,
	})

	app.Use(requestid.New())
	app.Use(p.accessLog)
	app.Use(recover.New())

	// Every method reaches the handler so that wrong methods get a JSON 405.
	app.All(config.Route, p.handleCompletion)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	p.server = app
	return p
}

// Run starts the proxy server on the given listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server",
		zap.String("listen", p.config.ListenAddr),
		zap.String("route", p.config.Route),
		zap.String("upstream", p.config.UpstreamURL),
		zap.Bool("api_key_set", p.config.APIKey != ""),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (p *Proxy) Shutdown(ctx context.Context) error {
	return p.server.ShutdownWithContext(ctx)
}

// HTTPHandler exposes the proxy as a net/http handler, for hosting it inside
// another server or a serverless runtime.
func (p *Proxy) HTTPHandler() http.HandlerFunc {
	return adaptor.FiberApp(p.server)
}

// handleCompletion validates the caller's request, forwards it upstream once
// and translates the outcome. Validation failures are not logged.
func (p *Proxy) handleCompletion(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return writeFailure(c, errMethodNotAllowed)
	}

	if p.config.APIKey == "" {
		return writeFailure(c, errAPIKeyNotSet)
	}

	req, ok := buildCompletionRequest(c.Body(), p.config.DefaultModel)
	if !ok {
		return writeFailure(c, errInvalidHistory)
	}

	requestID := c.GetRespHeader(fiber.HeaderXRequestID)
	if ce := p.logger.Check(zap.DebugLevel, "forwarding completion request"); ce != nil {
		ce.Write(
			zap.String("request_id", requestID),
			zap.String("model", req.Model),
			zap.Int("message_count", len(req.Messages)),
			zap.String("fingerprint", truncate(merkle.Fingerprint(req.Messages), 16)),
		)
	}

	startTime := time.Now()
	completion, err := p.upstream.Complete(c.UserContext(), req)
	if err != nil {
		return writeFailure(c, p.upstreamFailure(requestID, err))
	}

	text := completion.Text()
	p.logger.Debug("received completion",
		zap.String("request_id", requestID),
		zap.Bool("fallback", text == llm.FallbackText),
		zap.String("content_preview", truncate(text, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return c.Status(fiber.StatusOK).JSON(llm.TextResponse{Text: text})
}

// upstreamFailure logs err and maps it to the caller-visible failure. Only the
// upstream's own error message is ever surfaced; transport details stay in the log.
func (p *Proxy) upstreamFailure(requestID string, err error) Failure {
	var upErr *openrouter.UpstreamError
	if errors.As(err, &upErr) {
		p.logger.Warn("upstream returned error",
			zap.String("request_id", requestID),
			zap.Int("status", upErr.StatusCode),
			zap.String("message", upErr.Message),
		)
		return upstreamFailure(upErr.Message)
	}

	p.logger.Error("upstream request failed",
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	return errUpstream
}

// handleError is the last resort for errors escaping a handler, including
// recovered panics. The caller always gets a JSON body.
func (p *Proxy) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeFailure(c, Failure{fe.Code, fe.Message})
	}

	p.logger.Error("unhandled error",
		zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return writeFailure(c, errInternal)
}

// accessLog writes one line per request once the response is final.
func (p *Proxy) accessLog(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := p.handleError(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	p.logger.Info("request",
		zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)

	return nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
