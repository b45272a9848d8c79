package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/middleware"
	"github.com/playmatatu/carrom/internal/ws"
)

// HandleGameWebSocket attaches a client to a session's live feed. A valid
// pt seat token lets the client send commands; without one it spectates.
func HandleGameWebSocket(gm *game.GameManager, hub *ws.Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := gm.GetSession(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}

		var seats []game.PlayerID
		if token := bearerToken(c); token != "" {
			claims, err := auth.ParseSeatToken(cfg.JWTSecret, token, id)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			seats = claims.Seats
		}

		hub.Serve(c.Writer, c.Request, id, seats, func(r *http.Request) bool {
			return middleware.OriginAllowed(cfg, r.Header.Get("Origin"))
		})
	}
}
