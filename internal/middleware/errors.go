package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
)

// ErrorHandler is the terminal stage converting any raised error into the
// JSON error envelope. The full error is logged server-side; messages of
// server errors are never exposed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	typed := httperr.From(err)

	details := map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
		"status": typed.Status,
		"ip":     c.IP(),
	}

	if typed.Status >= fiber.StatusInternalServerError {
		logger.Error("request_failed", err, details)
	} else {
		details["reason"] = typed.Message
		logger.Warn("request_rejected", details)
	}

	return c.Status(typed.Status).JSON(httperr.Response{
		Code:        typed.Status,
		Description: typed.PublicMessage(),
	})
}
