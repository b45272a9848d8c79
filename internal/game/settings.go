package game

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/playmatatu/carrom/internal/config"
)

// SettingsFromConfig maps environment configuration onto session settings.
// Values that are unset or out of range keep their defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}

	setPos := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	setPos(&s.BoardSize, cfg.BoardSize)
	setPos(&s.PocketOffset, cfg.PocketOffset)
	setPos(&s.PocketRadius, cfg.PocketRadius)
	setPos(&s.WallInset, cfg.WallInset)
	setPos(&s.PieceRadius, cfg.PieceRadius)
	setPos(&s.ControlRadius, cfg.ControlRadius)
	setPos(&s.ShotForceScale, cfg.ShotForceScale)
	setPos(&s.StationarySpeed, cfg.StationarySpeed)
	setPos(&s.StationarySpin, cfg.StationarySpin)

	if cfg.AirFriction >= 0 && cfg.AirFriction < 1 {
		s.AirFriction = cfg.AirFriction
	}
	if cfg.SurfaceFriction >= 0 {
		s.SurfaceFriction = cfg.SurfaceFriction
	}
	if cfg.Restitution >= 0 && cfg.Restitution <= 1 {
		s.Restitution = cfg.Restitution
	}

	s.ScoreOwnColor = cfg.ScoreOwn
	s.ScoreOpponentColor = cfg.ScoreOpponent
	s.ScoreQueen = cfg.ScoreQueen
	s.FoulPenalty = cfg.FoulPenalty
	if cfg.WinScoreCeiling > 0 {
		s.WinScoreCeiling = cfg.WinScoreCeiling
	}
	if cfg.WinPiecesTotal > 0 {
		s.WinPiecesTotal = cfg.WinPiecesTotal
	}
	s.OpponentCaptureScores = cfg.OpponentCaptureScores
	s.ClampNegativeScore = cfg.ClampNegativeScore

	switch ControlMode(cfg.ControlMode) {
	case ControlPerPlayer:
		s.ControlMode = ControlPerPlayer
	default:
		s.ControlMode = ControlShared
	}
	if cfg.AIThinkTicks >= 0 {
		s.AIThinkTicks = cfg.AIThinkTicks
	}

	if cfg.AITableFile != "" {
		table, err := LoadAITable(cfg.AITableFile)
		if err != nil {
			log.Printf("[CARROM] Ignoring AI table %s: %v", cfg.AITableFile, err)
		} else {
			s.AITable = table
		}
	}
	return s
}

// LoadAITable reads a JSON object keyed by difficulty. Tiers missing from the
// file keep their stock values.
func LoadAITable(path string) (map[Difficulty]AITier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ai table: %w", err)
	}
	var raw map[Difficulty]AITier
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode ai table: %w", err)
	}

	table := DefaultAITable()
	for d, tier := range raw {
		switch d {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
			table[d] = tier
		default:
			return nil, fmt.Errorf("unknown difficulty %q", d)
		}
	}
	return table, nil
}
