package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// LeaderboardEntry is a named human player's cumulative record
type LeaderboardEntry struct {
	PlayerName string    `db:"player_name" json:"player_name"`
	Score      int       `db:"score" json:"score"`
	Wins       int       `db:"wins" json:"wins"`
	Losses     int       `db:"losses" json:"losses"`
	Ties       int       `db:"ties" json:"ties"`
	Games      int       `db:"games" json:"games"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// GameResult is a finished match
type GameResult struct {
	ID            int            `db:"id" json:"id"`
	SessionID     string         `db:"session_id" json:"session_id"`
	Mode          string         `db:"mode" json:"mode"`
	Player1Name   string         `db:"player1_name" json:"player1_name"`
	Player2Name   string         `db:"player2_name" json:"player2_name"`
	Player1AI     bool           `db:"player1_ai" json:"player1_ai"`
	Player2AI     bool           `db:"player2_ai" json:"player2_ai"`
	Player1Score  int            `db:"player1_score" json:"player1_score"`
	Player2Score  int            `db:"player2_score" json:"player2_score"`
	Player1Pieces int            `db:"player1_pieces" json:"player1_pieces"`
	Player2Pieces int            `db:"player2_pieces" json:"player2_pieces"`
	Winner        sql.NullString `db:"winner" json:"winner,omitempty"`
	Tie           bool           `db:"tie" json:"tie"`
	Shots         int            `db:"shots" json:"shots"`
	StartedAt     time.Time      `db:"started_at" json:"started_at"`
	FinishedAt    time.Time      `db:"finished_at" json:"finished_at"`
}

// GameShot represents a single resolved shot in a match
type GameShot struct {
	ID         int             `db:"id" json:"id"`
	SessionID  string          `db:"session_id" json:"session_id"`
	ShotNumber int             `db:"shot_number" json:"shot_number"`
	Player     string          `db:"player" json:"player"`
	PlayerName string          `db:"player_name" json:"player_name"`
	ControlX   float64         `db:"control_x" json:"control_x"`
	Angle      float64         `db:"angle" json:"angle"`
	Power      float64         `db:"power" json:"power"`
	ByAI       bool            `db:"by_ai" json:"by_ai"`
	Continued  bool            `db:"continued" json:"continued"`
	Captures   json.RawMessage `db:"captures" json:"captures"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AdminAccount is an operator allowed to manage live sessions
type AdminAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one admin action
type AdminAudit struct {
	ID        int             `db:"id" json:"id"`
	AdminName string          `db:"admin_name" json:"admin_name"`
	IP        string          `db:"ip" json:"ip"`
	Route     string          `db:"route" json:"route"`
	Action    string          `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details"`
	Success   bool            `db:"success" json:"success"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// RuntimeConfig is a rule override stored in the database
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
