package common

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MetricsMiddleware tags every request with an ID and logs its outcome.
func MetricsMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		rows := 0
		if v, ok := c.Get("rows_processed"); ok {
			if n, ok := v.(int); ok {
				rows = n
			}
		}

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"rows", rows,
		}
		if len(c.Errors) > 0 {
			logger.Warn("request failed", append(attrs, "errors", c.Errors.String())...)
			return
		}
		logger.Info("request", attrs...)
	}
}
