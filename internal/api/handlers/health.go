package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status along with table activity.
func HealthCheck(table Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "eightball-arena",
			"version": version,
			"uptime":  time.Since(startTime).String(),
			"table":   table.Stats(),
		})
	}
}
