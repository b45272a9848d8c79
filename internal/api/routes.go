package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/api/handlers"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/leaderboard"
	"github.com/playmatatu/carrom/internal/middleware"
	"github.com/playmatatu/carrom/internal/ws"
)

// SetupRoutes configures all API routes. db and store may be nil when the
// server runs without Postgres.
func SetupRoutes(router *gin.Engine, db *sqlx.DB, cfg *config.Config, gm *game.GameManager, hub *ws.Hub, store *leaderboard.Store) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	var reader handlers.LeaderboardReader
	if store != nil {
		reader = store
	}

	router.GET("/health", handlers.HealthCheck(gm))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(gm))
		v1.GET("/config", handlers.GetConfig(gm, cfg))

		g := v1.Group("/game")
		{
			g.POST("", handlers.CreateGame(gm, cfg))
			g.GET("/:id", handlers.GetGameState(gm))
			g.POST("/:id/command", handlers.SeatAuthMiddleware(cfg), handlers.SendCommand(gm))
			g.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleGameWebSocket(gm, hub, cfg))
		}

		lb := v1.Group("/leaderboard")
		{
			lb.GET("", handlers.GetLeaderboard(reader))
			lb.GET("/:name", handlers.GetLeaderboardPlayer(reader))
		}

		adm := v1.Group("/admin", handlers.AdminMiddleware(db, cfg))
		{
			adm.GET("/me", handlers.AdminMe())
			adm.GET("/stats", handlers.GetAdminStats(db, gm))
			adm.GET("/sessions", handlers.GetAdminSessions(gm))
			adm.POST("/sessions/:id/reset", handlers.AdminResetSession(db, gm))
			adm.DELETE("/sessions/:id", handlers.AdminRemoveSession(db, gm))
			adm.GET("/results", handlers.GetAdminResults(reader))
			adm.GET("/results/:id/shots", handlers.GetAdminSessionShots(reader))
			adm.GET("/audit", handlers.GetAdminAuditLogs(db))
			adm.GET("/config", handlers.GetAdminRuntimeConfig(db))
			adm.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(db, cfg, gm))
		}
	}
}
