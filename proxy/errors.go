package proxy

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatproxy/pkg/llm"
)

// Failure is a terminal outcome of a completion request, written to the
// caller as {"error": Message} with Status.
type Failure struct {
	Status  int
	Message string
}

const genericUpstreamMessage = "OpenRouter API error"

var (
	errMethodNotAllowed = Failure{fiber.StatusMethodNotAllowed, "Method not allowed"}
	errAPIKeyNotSet     = Failure{fiber.StatusInternalServerError, "API key not set"}
	errInvalidHistory   = Failure{fiber.StatusBadRequest, "Missing or invalid 'history' array in request body."}
	errUpstream         = Failure{fiber.StatusInternalServerError, genericUpstreamMessage}
	errInternal         = Failure{fiber.StatusInternalServerError, "Internal server error"}
)

// upstreamFailure carries the upstream's own message when it supplied one.
func upstreamFailure(message string) Failure {
	if message == "" {
		return errUpstream
	}
	return Failure{fiber.StatusInternalServerError, message}
}

func writeFailure(c *fiber.Ctx, f Failure) error {
	return c.Status(f.Status).JSON(llm.ErrorResponse{Error: f.Message})
}
