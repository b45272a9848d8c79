package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/admin"
	"github.com/playmatatu/carrom/internal/game"
)

// GetAdminSessions lists the sessions currently in memory
func GetAdminSessions(gm *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions := gm.ListSessions()
		c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
	}
}

// AdminResetSession restarts a session with the same seats and mode
func AdminResetSession(db *sqlx.DB, gm *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := adminName(c)
		id := c.Param("id")
		route := "/api/v1/admin/sessions/" + id + "/reset"

		sess, err := gm.ResetSession(id)
		if err != nil {
			admin.LogAdminAction(db, name, c.ClientIP(), route, "reset_session", map[string]interface{}{"session_id": id, "error": err.Error()}, false)
			if err == game.ErrSessionNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
				return
			}
			log.Printf("[ADMIN] Failed to reset session %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset session"})
			return
		}

		admin.LogAdminAction(db, name, c.ClientIP(), route, "reset_session", map[string]interface{}{"session_id": id}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true, "snapshot": sess.Snapshot()})
	}
}

// AdminRemoveSession ends a session and drops it from memory
func AdminRemoveSession(db *sqlx.DB, gm *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := adminName(c)
		id := c.Param("id")
		route := "/api/v1/admin/sessions/" + id

		if err := gm.RemoveSession(id); err != nil {
			admin.LogAdminAction(db, name, c.ClientIP(), route, "remove_session", map[string]interface{}{"session_id": id, "error": err.Error()}, false)
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}

		log.Printf("[ADMIN] %s removed session %s", name, id)
		admin.LogAdminAction(db, name, c.ClientIP(), route, "remove_session", map[string]interface{}{"session_id": id}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetAdminResults returns the latest finished matches
func GetAdminResults(store LeaderboardReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			storeUnavailable(c)
			return
		}
		results, err := store.RecentResults(c.Request.Context(), queryLimit(c))
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch results: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// GetAdminSessionShots returns the shot log of one match
func GetAdminSessionShots(store LeaderboardReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			storeUnavailable(c)
			return
		}
		id := c.Param("id")
		shots, err := store.SessionShots(c.Request.Context(), id)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch shots for %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": id, "shots": shots})
	}
}
