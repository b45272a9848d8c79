package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playmatatu/carrom/internal/admin"
	"github.com/playmatatu/carrom/internal/api"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/database"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/leaderboard"
	"github.com/playmatatu/carrom/internal/migrations"
	"github.com/playmatatu/carrom/internal/redis"
	"github.com/playmatatu/carrom/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres is optional: without it the leaderboard and admin store are off
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("[DB] Connection failed, running without persistence: %v", err)
		db = nil
	}
	var store *leaderboard.Store
	if db != nil {
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("[DB] Running migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[CONFIG] Runtime config not applied: %v", err)
		}
		store = leaderboard.NewStore(db)
	}

	// Redis is optional: without it snapshots are not cached and expiry is in-memory
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Printf("[REDIS] Connection failed, running without Redis: %v", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var recorder game.ResultRecorder
	if store != nil {
		recorder = store
	}
	game.InitializeManager(rdb, recorder, cfg)
	gm := game.Manager
	defer gm.Shutdown()

	hub := ws.NewHub(gm)
	gm.SetBroadcaster(hub)
	go hub.Run(ctx.Done())
	ws.StartEventSubscriber(ctx, rdb, hub)
	game.StartIdleWorker(ctx, gm, cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, cfg, gm, hub, store)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting carrom server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
