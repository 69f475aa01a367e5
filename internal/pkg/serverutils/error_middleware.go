package serverutils

import (
	"errors"

	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrChatNotFound), errors.Is(err, service.ErrPersonaNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by later handlers into
// {"error": msg} responses.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusFor(err)
		message := err.Error()

		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
			if !errors.Is(err, service.ErrUpstream) && !errors.Is(err, service.ErrRunNotCompleted) {
				var fiberErr *fiber.Error
				if !errors.As(err, &fiberErr) {
					message = "internal server error"
				}
			}
		}

		return ctx.Status(status).JSON(ErrorResponse(message))
	}
}
