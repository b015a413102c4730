package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/api/handlers"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/middleware"
)

// Deps are the collaborators behind the HTTP surface. History is optional.
type Deps struct {
	Table     handlers.Table
	History   handlers.History
	WebSocket gin.HandlerFunc
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, log *logrus.Logger, deps Deps) {
	router.Use(middleware.CORSMiddleware(cfg, log))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(deps.Table))

		match := v1.Group("/match")
		{
			match.GET("", handlers.GetMatch(deps.Table))
			match.POST("/restart", handlers.RestartMatch(deps.Table))
			if deps.WebSocket != nil {
				match.GET("/ws", deps.WebSocket)
			}
		}

		if deps.History != nil {
			v1.GET("/matches", handlers.RecentMatches(deps.History))
		}
	}
}
