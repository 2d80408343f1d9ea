package handlers

import (
	"errors"
	"log/slog"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/gofiber/fiber/v2"
)

// fail maps the error taxonomy onto HTTP statuses. Client errors carry their
// own message; server errors get a generic one and a log line.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return failWith(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return failWith(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, apperr.ErrForbidden):
		return failWith(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrUpstreamTimeout):
		slog.Error("Upstream timeout", "path", c.Path())
		return failWith(c, fiber.StatusGatewayTimeout, "Upstream service timed out")
	}

	var upstream *apperr.UpstreamError
	if errors.As(err, &upstream) {
		slog.Error("Upstream failure", "path", c.Path(), "status", upstream.Status)
		return failWith(c, fiber.StatusBadGateway, "Upstream service unavailable")
	}

	slog.Error("Request failed", "path", c.Path(), "error", err)
	return failWith(c, fiber.StatusInternalServerError, "Internal server error")
}

func failWith(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
