package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playmatatu/carrom/internal/config"
)

func TestSettingsFromConfigDefaults(t *testing.T) {
	s := SettingsFromConfig(config.Load())
	d := DefaultSettings()

	if s.BoardSize != d.BoardSize || s.PocketRadius != d.PocketRadius || s.Restitution != d.Restitution {
		t.Errorf("Config defaults should match DefaultSettings, got %+v", s)
	}
	if s.ScoreQueen != 50 || s.FoulPenalty != -10 || s.WinPiecesTotal != 18 {
		t.Errorf("Unexpected rule values: queen=%d foul=%d pieces=%d", s.ScoreQueen, s.FoulPenalty, s.WinPiecesTotal)
	}
	if s.ControlMode != ControlShared {
		t.Errorf("ControlMode = %s, want shared", s.ControlMode)
	}
}

func TestSettingsFromConfigIgnoresOutOfRange(t *testing.T) {
	cfg := config.Load()
	cfg.BoardSize = -5
	cfg.Restitution = 1.5
	cfg.AirFriction = 1
	cfg.ControlMode = "per_player"
	cfg.WinScoreCeiling = 0

	s := SettingsFromConfig(cfg)
	d := DefaultSettings()
	if s.BoardSize != d.BoardSize {
		t.Errorf("Negative board size applied: %v", s.BoardSize)
	}
	if s.Restitution != d.Restitution || s.AirFriction != d.AirFriction {
		t.Errorf("Out-of-range physics applied: e=%v air=%v", s.Restitution, s.AirFriction)
	}
	if s.WinScoreCeiling != d.WinScoreCeiling {
		t.Errorf("Zero ceiling applied: %d", s.WinScoreCeiling)
	}
	if s.ControlMode != ControlPerPlayer {
		t.Errorf("ControlMode = %s, want per_player", s.ControlMode)
	}
}

func TestLoadAITableMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai.json")
	body := `{"easy": {"random_selection": false, "power_scale": 0.5, "line_weight": 1}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadAITable(path)
	if err != nil {
		t.Fatalf("LoadAITable: %v", err)
	}
	if table[DifficultyEasy].PowerScale != 0.5 || table[DifficultyEasy].RandomSelection {
		t.Errorf("Easy tier not overridden: %+v", table[DifficultyEasy])
	}
	if table[DifficultyHard] != DefaultAITable()[DifficultyHard] {
		t.Errorf("Hard tier should keep stock values")
	}
}

func TestLoadAITableRejectsUnknownTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai.json")
	if err := os.WriteFile(path, []byte(`{"nightmare": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAITable(path); err == nil {
		t.Errorf("Expected an error for an unknown difficulty")
	}
	if _, err := LoadAITable(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}
