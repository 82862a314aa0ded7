package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs each request entry and exit with duration, status and request ID.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := GetRequestID(c)
		if reqID == "" {
			reqID = "no-request-id"
		}
		start := time.Now()
		log.Info().Str("request_id", reqID).Str("method", c.Method()).Str("path", c.Path()).Msg("Entering request")
		err := c.Next()
		ms := time.Since(start).Milliseconds()
		log.Info().Str("request_id", reqID).Str("method", c.Method()).Str("path", c.Path()).Int("status", c.Response().StatusCode()).Int64("ms", ms).Msg("Exiting request")
		return err
	}
}
