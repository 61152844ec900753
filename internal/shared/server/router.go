package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/analyses"
	"tat-backend/internal/participants"
	"tat-backend/internal/reports"
	"tat-backend/internal/services/health"
	"tat-backend/internal/sessions"
	"tat-backend/internal/shared/config"
	"tat-backend/internal/shared/metrics"
	"tat-backend/internal/shared/server/middleware"
	"tat-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config             config.Config
	Health             *health.Service
	ParticipantHandler *participants.Handler
	SessionHandler     *sessions.Handler
	AnalysisHandler    *analyses.Handler
	ReportHandler      *reports.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(rateLimitConfig()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	r.GET("/metrics", metrics.Handler())

	deps.ParticipantHandler.RegisterRoutes(api)
	deps.SessionHandler.RegisterRoutes(api)
	deps.AnalysisHandler.RegisterRoutes(api)
	deps.ReportHandler.RegisterRoutes(api)

	return r
}

// Analysis runs are far more expensive than the rest of the API, so they get
// their own, stricter bucket keyed by session code.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 30},
			"ANALYZE": {Rate: 0.2, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/sessions/:code/analyses" {
				return "ANALYZE"
			}
			return "DEFAULT"
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
