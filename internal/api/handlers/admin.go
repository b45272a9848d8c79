package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/admin"
	"github.com/playmatatu/carrom/internal/game"
)

// AdminMe returns the authenticated admin
func AdminMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": adminName(c)})
	}
}

// GetAdminStats returns live session counts plus stored totals
func GetAdminStats(db *sqlx.DB, gm *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := gin.H{}

		byMode := map[game.SessionMode]int{}
		byStatus := map[game.SessionStatus]int{}
		for _, s := range gm.ListSessions() {
			byMode[s.Mode]++
			byStatus[s.Status]++
		}
		stats["active_sessions"] = gm.GetActiveSessionCount()
		stats["sessions_by_mode"] = byMode
		stats["sessions_by_status"] = byStatus

		if db != nil {
			var totals struct {
				Games int `db:"games"`
				Ties  int `db:"ties"`
				Shots int `db:"shots"`
			}
			err := db.Get(&totals, `
				SELECT COUNT(*) AS games,
					COALESCE(SUM(CASE WHEN tie THEN 1 ELSE 0 END), 0) AS ties,
					COALESCE(SUM(shots), 0) AS shots
				FROM game_results
			`)
			if err != nil {
				log.Printf("[ADMIN] Failed to fetch result totals: %v", err)
			} else {
				stats["total_games"] = totals.Games
				stats["total_ties"] = totals.Ties
				stats["total_shots"] = totals.Shots
			}

			var players int
			if err := db.Get(&players, `SELECT COUNT(*) FROM leaderboard`); err != nil {
				log.Printf("[ADMIN] Failed to fetch player count: %v", err)
			} else {
				stats["total_players"] = players
			}
		}

		admin.LogAdminAction(db, adminName(c), c.ClientIP(), "/api/v1/admin/stats", "get_stats", nil, true)
		c.JSON(http.StatusOK, stats)
	}
}
