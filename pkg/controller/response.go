package controller

import (
	"github.com/gin-gonic/gin"
)

// Error sends an error response with the appropriate HTTP status code.
// It uses MapError to convert application errors to HTTP responses and
// aborts the remaining handler chain.
func Error(c *gin.Context, err error) {
	statusCode, errorResponse := MapError(c.Request.Context(), err)
	c.AbortWithStatusJSON(statusCode, errorResponse)
}
