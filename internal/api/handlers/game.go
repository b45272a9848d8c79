package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
)

const maxNameLength = 32

// cleanName trims a display name and caps it at maxNameLength characters.
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ToValidUTF8(name, ""))
	if r := []rune(name); len(r) > maxNameLength {
		name = strings.TrimSpace(string(r[:maxNameLength]))
	}
	return name
}

// CreateGame opens a session and hands out seat tokens for its human seats.
func CreateGame(gm *game.GameManager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Mode        string `json:"mode"`
			Player1Name string `json:"player1_name"`
			Player2Name string `json:"player2_name"`
			Difficulty  string `json:"difficulty"`
			Difficulty2 string `json:"difficulty2"`
			Seed        int64  `json:"seed"`
		}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		sess, err := gm.CreateSession(game.CreateOptions{
			Mode:        game.ParseMode(req.Mode),
			Player1Name: cleanName(req.Player1Name),
			Player2Name: cleanName(req.Player2Name),
			Difficulty:  game.Difficulty(req.Difficulty),
			Difficulty2: game.Difficulty(req.Difficulty2),
			Seed:        req.Seed,
		})
		if err != nil {
			log.Printf("[GAME] Failed to create session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
			return
		}

		snap := sess.Snapshot()
		tokens, err := auth.SeatTokens(cfg.JWTSecret, snap, cfg.SeatTokenTTL)
		if err != nil {
			log.Printf("[GAME] Failed to issue seat tokens for %s: %v", sess.ID(), err)
			gm.RemoveSession(sess.ID())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"session_id":  sess.ID(),
			"snapshot":    snap,
			"seat_tokens": tokens,
		})
	}
}

// GetGameState returns the live snapshot, or the last cached one for a
// session that has finished and left memory.
func GetGameState(gm *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if sess, err := gm.GetSession(id); err == nil {
			c.JSON(http.StatusOK, sess.Snapshot())
			return
		}

		snap, err := gm.CachedSnapshot(c.Request.Context(), id)
		if err != nil {
			if err != game.ErrSessionNotFound {
				log.Printf("[GAME] Cached snapshot lookup for %s failed: %v", id, err)
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// SendCommand applies one command as the caller's seat. Requires
// SeatAuthMiddleware.
func SendCommand(gm *game.GameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := seatClaims(c)
		if !ok || len(claims.Seats) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var cmd game.Command
		if err := c.ShouldBindJSON(&cmd); err != nil || cmd.Type == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Command type required"})
			return
		}

		id := c.Param("id")
		sess, err := gm.GetSession(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}

		seat := claims.Seats[0]
		if claims.Has(sess.CurrentPlayer()) {
			seat = sess.CurrentPlayer()
		}

		res, err := gm.Command(id, seat, cmd)
		switch err {
		case nil:
		case game.ErrSessionNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		case game.ErrUnknownCommand:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		status := http.StatusOK
		if !res.Accepted && res.Reason == game.ErrNotYourTurn.Error() {
			status = http.StatusForbidden
		}
		c.JSON(status, res)
	}
}
