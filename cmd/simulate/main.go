package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
)

func main() {
	seed := flag.Int64("seed", 1, "random seed for the AI planners")
	d1 := flag.String("p1", "medium", "player 1 difficulty (easy, medium, hard)")
	d2 := flag.String("p2", "medium", "player 2 difficulty (easy, medium, hard)")
	maxTicks := flag.Int("max-ticks", 500000, "give up after this many ticks")
	verbose := flag.Bool("v", false, "log every shot and capture")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()
	settings := game.SettingsFromConfig(cfg)

	sess := game.NewSession(game.SessionConfig{
		ID:       "simulation",
		Settings: settings,
		Player1:  game.SeatConfig{Name: "AI 1", Controller: game.ControllerAI, Difficulty: game.ParseDifficulty(*d1)},
		Player2:  game.SeatConfig{Name: "AI 2", Controller: game.ControllerAI, Difficulty: game.ParseDifficulty(*d2)},
		Seed:     *seed,
		AutoAI:   true,
	})

	shots := 0
	ticks := 0
	for ; ticks < *maxTicks && !sess.Terminal(); ticks++ {
		_, events := sess.Tick()
		for _, ev := range events {
			switch ev.Type {
			case game.EventShotTaken:
				shots++
				if *verbose && ev.Shot != nil {
					log.Printf("[SIM] shot %d by %s: x=%.1f angle=%.3f power=%.1f", shots, ev.Player, ev.Shot.ControlX, ev.Shot.Angle, ev.Shot.Power)
				}
			case game.EventScoreChanged:
				if *verbose {
					log.Printf("[SIM] %s %s %+d (%s) -> %d", ev.Player, ev.PieceID, ev.Delta, ev.Reason, ev.Score)
				}
			case game.EventGameOver:
				log.Printf("[SIM] Game over after %d shots, %d ticks", shots, ticks)
			}
		}
	}
	if !sess.Terminal() {
		log.Printf("[SIM] No result after %d ticks (%d shots)", ticks, shots)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sess.Snapshot()); err != nil {
		log.Fatalf("Failed to encode snapshot: %v", err)
	}
	if !sess.Terminal() {
		os.Exit(1)
	}
}
