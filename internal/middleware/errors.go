package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/solux-card/solux_card/internal/binding"
)

// ErrorHandler renders handler errors as JSON. Validation failures carry
// their field list; anything that is not a *fiber.Error is a 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var berr *binding.Error
		if errors.As(err, &berr) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error":  "invalid request",
				"errors": berr.Fields,
			})
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code = ferr.Code
			msg = ferr.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
