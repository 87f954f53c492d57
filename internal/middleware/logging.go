package middleware

import (
	"time"

	"github.com/civicreport/civicreport-api/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with the request id set by the requestid middleware.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", statusOf(c, err)),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.Uint("user_id", user.ID))
		}

		logger.Info("request", fields...)
		return err
	}
}

// UnmatchedRoute labels requests that no registered route handled.
const UnmatchedRoute = "unmatched"

// Metrics records request counts and latency per route pattern.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.RequestStarted()

		err := c.Next()

		path := c.Route().Path
		if path == "" || path == "/" {
			path = UnmatchedRoute
		}
		// Labels outlive the request, so they must not alias fiber's buffers.
		m.RequestFinished(utils.CopyString(c.Method()), utils.CopyString(path), statusOf(c, err), time.Since(start))
		return err
	}
}

func statusOf(c *fiber.Ctx, err error) int {
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return fe.Code
		}
		return fiber.StatusInternalServerError
	}
	return c.Response().StatusCode()
}
