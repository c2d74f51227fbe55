package api

import (
	"net/http"

	"github.com/agile-crafts-people/impact-profile-api/pkg/auth"
	"github.com/agile-crafts-people/impact-profile-api/pkg/health"
	middlewarelogging "github.com/agile-crafts-people/impact-profile-api/pkg/middleware/logging"
	middlewaremetrics "github.com/agile-crafts-people/impact-profile-api/pkg/middleware/metrics"
	"github.com/agile-crafts-people/impact-profile-api/pkg/middleware/recovery"
	"github.com/agile-crafts-people/impact-profile-api/pkg/middleware/requestid"
	"github.com/agile-crafts-people/impact-profile-api/pkg/observability/logger"
	"github.com/agile-crafts-people/impact-profile-api/pkg/resource"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries the dependencies for building the HTTP router.
type Options struct {
	Logger    logger.Logger
	Tokens    *auth.TokenService
	Platforms *resource.Service
	Users     *resource.Service
	Health    *health.Registry
}

// BuildRouter assembles the gin engine: ambient middleware, the health
// and metrics endpoints, and the /api resource groups.
func BuildRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(requestid.RequestID())
	engine.Use(recovery.Recovery(opts.Logger))
	engine.Use(middlewarelogging.Logging(opts.Logger))
	engine.Use(middlewaremetrics.Metrics())

	engine.GET("/health", healthHandler(opts.Health))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	RegisterResourceRoutes(api, "platform", opts.Platforms, opts.Tokens, opts.Logger)
	RegisterResourceRoutes(api, "user", opts.Users, opts.Tokens, opts.Logger)

	return engine
}

// healthHandler serves the aggregated health report; 503 when any
// dependency check fails.
func healthHandler(registry *health.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := registry.Check(c.Request.Context())
		status := http.StatusOK
		if result.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	}
}
