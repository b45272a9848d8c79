package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
)

// GetConfig returns the board geometry and rules the renderer needs
func GetConfig(gm *game.GameManager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := gm.Settings()
		board := game.NewBoard(s)
		c.JSON(http.StatusOK, gin.H{
			"board_size":     s.BoardSize,
			"pockets":        board.Pockets,
			"pocket_radius":  s.PocketRadius,
			"piece_radius":   s.PieceRadius,
			"control_radius": s.ControlRadius,
			"release_lines": gin.H{
				"min_x":     board.LineMinX,
				"max_x":     board.LineMaxX,
				"player1_y": board.Line1Y,
				"player2_y": board.Line2Y,
				"band":      board.Band,
			},
			"control_mode":    s.ControlMode,
			"min_shot_power":  s.MinShotPower,
			"max_shot_power":  s.MaxShotPower,
			"power_threshold": s.ShotPowerThreshold,
			"scores": gin.H{
				"own_color":      s.ScoreOwnColor,
				"opponent_color": s.ScoreOpponentColor,
				"queen":          s.ScoreQueen,
				"foul":           s.FoulPenalty,
			},
			"tick_rate_hz":          cfg.TickRateHz,
			"default_ai_difficulty": cfg.DefaultAIDifficulty,
		})
	}
}
