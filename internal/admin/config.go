package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/models"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	configs := []models.RuntimeConfig{}
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.Get(&cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateValue checks value against the declared type of a config entry
func validateValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value. Callers
// re-apply the table to pick the change up.
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, adminName string) error {
	existing, err := GetRuntimeConfigValue(db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := validateValue(existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, adminName, key)
	return err
}

// applyRuntimeValue sets one override on cfg. Unknown keys and malformed
// values are ignored; it reports whether cfg changed.
func applyRuntimeValue(cfg *config.Config, key, value string) bool {
	setInt := func(dst *int) bool {
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		*dst = v
		return true
	}
	setBool := func(dst *bool) bool {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		*dst = v
		return true
	}

	switch key {
	case "score_own":
		return setInt(&cfg.ScoreOwn)
	case "score_opponent":
		return setInt(&cfg.ScoreOpponent)
	case "score_queen":
		return setInt(&cfg.ScoreQueen)
	case "foul_penalty":
		return setInt(&cfg.FoulPenalty)
	case "win_score_ceiling":
		return setInt(&cfg.WinScoreCeiling)
	case "win_pieces_total":
		return setInt(&cfg.WinPiecesTotal)
	case "ai_think_ticks":
		return setInt(&cfg.AIThinkTicks)
	case "session_idle_minutes":
		return setInt(&cfg.SessionIdleMinutes)
	case "opponent_capture_scores":
		return setBool(&cfg.OpponentCaptureScores)
	case "clamp_negative_score":
		return setBool(&cfg.ClampNegativeScore)
	}
	return false
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, c := range configs {
		if applyRuntimeValue(cfg, c.Key, c.Value) {
			applied++
		}
	}

	log.Printf("[CONFIG] Applied %d runtime config overrides from database", applied)
	return nil
}
