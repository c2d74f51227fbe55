// Package recovery converts handler panics into opaque 500 responses.
package recovery

import (
	"fmt"
	"net/http"

	"github.com/agile-crafts-people/impact-profile-api/pkg/controller"
	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/logger"
	"github.com/gin-gonic/gin"
)

// Recovery creates middleware that recovers from panics in downstream
// handlers, logs the panic value, and responds with a generic internal
// error so no internal detail leaks to the client.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.WithContext(c.Request.Context()).Error("panic recovered",
					"panic", fmt.Sprintf("%v", recovered),
					"path", c.Request.URL.Path,
				)
				if !c.Writer.Written() {
					_, body := controller.MapError(c.Request.Context(),
						controller.NewInternalError("panic recovered", nil))
					c.AbortWithStatusJSON(http.StatusInternalServerError, body)
				} else {
					c.Abort()
				}
			}
		}()

		c.Next()
	}
}
