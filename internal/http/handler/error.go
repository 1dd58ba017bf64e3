package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"tt2import/internal/http/middleware"
	"tt2import/internal/validate"
)

// errorPayload is the body of every non-2xx response.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var payloadTooLargeMessage = fmt.Sprintf(
	"request body too large; each TT2 file must be under %d MiB", validate.MaxFileSize>>20)

func requestIDFromCtx(c *fiber.Ctx) string {
	s, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return s
}

// writeError writes the error envelope. message must be safe to show to clients;
// code is a short machine-readable token such as "INVALID_ID" or "ORG_REQUIRED".
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// ErrorHandler maps errors that escape the import handlers and Fiber's own routing
// errors onto the error envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if errors.Is(err, context.DeadlineExceeded) {
			return writeError(c, fiber.StatusGatewayTimeout, "TIMEOUT", "import did not finish in time")
		}

		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", payloadTooLargeMessage)
		case fiber.StatusUnsupportedMediaType:
			return writeError(c, status, "UNSUPPORTED_MEDIA_TYPE", "expected multipart/form-data")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
