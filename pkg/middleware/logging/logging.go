// Package logging emits one structured log line per request.
package logging

import (
	"time"

	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// Log field name constants
const (
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
)

// Logging creates middleware that logs each request after it completes.
// The request id is picked up from the request context by the logger.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		requestLogger := log.WithContext(c.Request.Context()).With(
			FieldMethod, c.Request.Method,
			FieldPath, c.Request.URL.Path,
			FieldStatus, status,
			FieldDurationMS, duration.Milliseconds(),
			FieldRemoteAddr, c.ClientIP(),
		)

		switch {
		case status >= 500:
			requestLogger.Error("request completed")
		case status >= 400:
			requestLogger.Warn("request completed")
		default:
			requestLogger.Info("request completed")
		}
	}
}
