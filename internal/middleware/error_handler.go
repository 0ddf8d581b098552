package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"catalog/internal/repositories"
)

// ErrorHandler returns the Fiber error handler that normalizes every
// failure into the uniform error envelope. It is the single place failure
// presentation is decided: validation errors become a 400 listing every
// violation, not-found a 404, duplicate keys a 400 with a field message,
// and anything else a 500. Outside development mode, 500 responses carry a
// generic message instead of the internal one.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *repositories.ValidationError
		if errors.As(err, &verr) {
			return respond(c, fiber.StatusBadRequest, fiber.Map{
				"status":  "error",
				"message": "Validation failed",
				"errors":  verr.Errors,
			})
		}

		var cerr *repositories.ConflictError
		if errors.As(err, &cerr) {
			return respond(c, fiber.StatusBadRequest, fiber.Map{
				"status":  "error",
				"message": cerr.Message(),
			})
		}

		if errors.Is(err, repositories.ErrNotFound) {
			return respond(c, fiber.StatusNotFound, fiber.Map{
				"status":  "error",
				"message": "Product not found",
			})
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return respond(c, ferr.Code, fiber.Map{
				"status":  "error",
				"message": ferr.Message,
			})
		}

		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unhandled error")

		message := "Something went wrong on the server"
		if development {
			message = err.Error()
		}
		return respond(c, fiber.StatusInternalServerError, fiber.Map{
			"status":  "error",
			"message": message,
		})
	}
}

// respond writes the envelope and falls back to a bare status when even the
// body cannot be written. The error handler itself must never fail.
func respond(c *fiber.Ctx, code int, body fiber.Map) error {
	if err := c.Status(code).JSON(body); err != nil {
		return c.SendStatus(code)
	}
	return nil
}

// NotFoundHandler is the catch-all for unmatched routes, producing the
// standard 404 error envelope.
func NotFoundHandler(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, "Can't find "+c.OriginalURL()+" on this server")
}
