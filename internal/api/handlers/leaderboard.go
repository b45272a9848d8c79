package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/leaderboard"
	"github.com/playmatatu/carrom/internal/models"
)

// LeaderboardReader is the read side of the leaderboard store.
type LeaderboardReader interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	PlayerEntry(ctx context.Context, name string) (*models.LeaderboardEntry, error)
	RecentResults(ctx context.Context, limit int) ([]models.GameResult, error)
	SessionShots(ctx context.Context, sessionID string) ([]models.GameShot, error)
}

var _ LeaderboardReader = (*leaderboard.Store)(nil)

func queryLimit(c *gin.Context) int {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(leaderboard.DefaultLimit)))
	return leaderboard.ClampLimit(n)
}

func storeUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Leaderboard unavailable"})
}

// GetLeaderboard returns the top players
func GetLeaderboard(store LeaderboardReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			storeUnavailable(c)
			return
		}
		limit := queryLimit(c)
		entries, err := store.Top(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[LEADERBOARD] Failed to fetch top %d: %v", limit, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries, "limit": limit})
	}
}

// GetLeaderboardPlayer returns one player's totals
func GetLeaderboardPlayer(store LeaderboardReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			storeUnavailable(c)
			return
		}
		entry, err := store.PlayerEntry(c.Request.Context(), c.Param("name"))
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		if err != nil {
			log.Printf("[LEADERBOARD] Failed to fetch player %s: %v", c.Param("name"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch player"})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}
