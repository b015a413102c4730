package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/eightball/internal/arena"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/history"
)

// Table is the running match surface exposed over HTTP.
type Table interface {
	Snapshot() game.MatchSnapshot
	Restart() error
	Stats() arena.Stats
}

// History lists finished matches.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.MatchResult, error)
}

const (
	defaultRecent = 20
	maxRecent     = 100
)

func GetMatch(table Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, table.Snapshot())
	}
}

func RestartMatch(table Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := table.Restart(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, table.Snapshot())
	}
}

// RecentMatches serves ?limit=N finished matches, newest first.
func RecentMatches(h History) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultRecent
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxRecent)
		}

		rows, err := h.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match history"})
			return
		}
		if rows == nil {
			rows = []history.MatchResult{}
		}
		c.JSON(http.StatusOK, gin.H{"matches": rows})
	}
}
