package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
)

// AllowedOrigins lists the browser origins permitted for the environment.
func AllowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		origins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
		if cfg.FrontendURL != "" && !slices.Contains(origins, cfg.FrontendURL) {
			origins = append(origins, cfg.FrontendURL)
		}
		return origins
	}
	if cfg.FrontendURL == "" {
		return nil
	}
	return []string{cfg.FrontendURL}
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	origins := AllowedOrigins(cfg)
	log.WithFields(logrus.Fields{
		"component":   "cors",
		"environment": cfg.Environment,
		"origins":     origins,
	}).Info("cors configured")

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Accept", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}

// WebSocketOriginCheck validates upgrade origins against the same list the
// HTTP surface uses. Development also accepts any localhost port.
func WebSocketOriginCheck(cfg *config.Config) func(*http.Request) bool {
	allowed := AllowedOrigins(cfg)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return cfg.Environment == "development"
		}
		if cfg.Environment == "development" &&
			(strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			return true
		}
		return len(allowed) == 0 || slices.Contains(allowed, origin)
	}
}
