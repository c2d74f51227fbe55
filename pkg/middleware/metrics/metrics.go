// Package metrics records Prometheus metrics for HTTP requests.
package metrics

import (
	"time"

	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics creates middleware that records request duration, request
// count, and in-flight gauge. The route template is used as the path
// label so ids do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		metrics.RecordHTTPMetrics(
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
