package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/enhancements"
	"procurement-backend/internal/feedback"
	"procurement-backend/internal/insights"
	"procurement-backend/internal/shared/config"
	"procurement-backend/internal/shared/metrics"
	"procurement-backend/internal/shared/server/middleware"
	"procurement-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config             config.Config
	InsightHandler     *insights.Handler
	EnhancementHandler *enhancements.Handler
	FeedbackHandler    *feedback.Handler
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
		middleware.Auth(deps.Config.Env),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.InsightHandler != nil {
		deps.InsightHandler.RegisterRoutes(api)
	}
	if deps.EnhancementHandler != nil {
		deps.EnhancementHandler.RegisterRoutes(api)
	}
	if deps.FeedbackHandler != nil {
		deps.FeedbackHandler.RegisterRoutes(api)
	}

	return r
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
