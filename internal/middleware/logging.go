package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals("requestID", requestID)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		if err != nil {
			// The terminal error handler has not written the response yet.
			statusCode = httperr.From(err).Status
		}

		details := map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     statusCode,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
			"request_id": requestID,
		}

		if claims := CurrentClaims(c); claims != nil {
			logger.InfoWithUser(claims.Username, "http_request", details)
		} else {
			logger.Info("http_request", details)
		}

		return err
	}
}
