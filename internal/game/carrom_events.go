package game

// EventType names an outbound session event.
type EventType string

const (
	EventScoreChanged EventType = "score_changed"
	EventTurnChanged  EventType = "turn_changed"
	EventGameOver     EventType = "game_over"
	EventShotTaken    EventType = "shot_taken"
)

// ScoreReason explains a score delta.
type ScoreReason string

const (
	ReasonOwnColor      ScoreReason = "own_color"
	ReasonOpponentColor ScoreReason = "opponent_color"
	ReasonQueen         ScoreReason = "queen"
	ReasonFoul          ScoreReason = "foul"
)

// Outcome is the result of a finished session. Winner is empty on a tie.
type Outcome struct {
	Winner       PlayerID `json:"winner,omitempty"`
	Tie          bool     `json:"tie"`
	Player1Score int      `json:"player1_score"`
	Player2Score int      `json:"player2_score"`
}

// ShotInfo describes a released shot.
type ShotInfo struct {
	ControlX float64 `json:"control_x"`
	Angle    float64 `json:"angle"`
	Power    float64 `json:"power"`
	ByAI     bool    `json:"by_ai"`
}

// Event is published to collaborators after each command or tick.
type Event struct {
	Type       EventType   `json:"type"`
	Player     PlayerID    `json:"player,omitempty"`
	Delta      int         `json:"delta,omitempty"`
	Reason     ScoreReason `json:"reason,omitempty"`
	PieceID    string      `json:"piece_id,omitempty"`
	Score      int         `json:"score"` // running total after a score change
	Shot       *ShotInfo   `json:"shot,omitempty"`
	Outcome    *Outcome    `json:"outcome,omitempty"`
	Generation int         `json:"generation"`
}

// Listener receives events outside the session lock.
type Listener func(Event)
