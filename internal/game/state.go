package game

import "time"

// SessionStatus is the coarse lifecycle state of a session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusCompleted  SessionStatus = "COMPLETED"
)

// PieceState is a piece as published in a snapshot.
type PieceState struct {
	ID       string    `json:"id"`
	Kind     PieceKind `json:"kind"`
	Color    Color     `json:"color,omitempty"`
	Owner    PlayerID  `json:"owner,omitempty"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
	Radius   float64   `json:"radius"`
}

// PlayerState is a seat as published in a snapshot.
type PlayerState struct {
	ID              PlayerID   `json:"id"`
	Name            string     `json:"name"`
	Score           int        `json:"score"`
	PiecesCollected int        `json:"pieces_collected"`
	HasQueen        bool       `json:"has_queen"`
	Color           Color      `json:"color"`
	Controller      Controller `json:"controller"`
	Difficulty      Difficulty `json:"difficulty,omitempty"`
}

// Snapshot is an immutable copy of session state for renderers and
// persistence. It shares nothing with the live session.
type Snapshot struct {
	SessionID     string        `json:"session_id"`
	Status        SessionStatus `json:"status"`
	Phase         Phase         `json:"phase"`
	CurrentTurn   PlayerID      `json:"current_turn"`
	Generation    int           `json:"generation"`
	ShotTaken     bool          `json:"shot_taken"`
	PiecePocketed bool          `json:"piece_pocketed_this_turn"`
	Aim           Aim           `json:"aim"`
	AIPending     bool          `json:"ai_pending"`
	Tick          int           `json:"tick"`
	ControlMode   ControlMode   `json:"control_mode"`
	Pieces        []PieceState  `json:"pieces"`
	Pocketed      []string      `json:"pocketed"`
	Player1       PlayerState   `json:"player1"`
	Player2       PlayerState   `json:"player2"`
	Terminal      bool          `json:"terminal"`
	Outcome       *Outcome      `json:"outcome,omitempty"`
	KineticEnergy float64       `json:"kinetic_energy"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Player returns the seat state for id.
func (s Snapshot) Player(id PlayerID) PlayerState {
	if id == Player2 {
		return s.Player2
	}
	return s.Player1
}

// ActiveTargets counts Regular and Queen pieces in the snapshot.
func (s Snapshot) ActiveTargets() int {
	n := 0
	for _, p := range s.Pieces {
		if p.Kind != KindControl {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the current state with coordinates rounded.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	turn := s.engine.Turn()
	snap := Snapshot{
		SessionID:     s.cfg.ID,
		Status:        StatusInProgress,
		Phase:         turn.Phase,
		CurrentTurn:   turn.Player,
		Generation:    turn.Generation,
		ShotTaken:     turn.ShotTaken,
		PiecePocketed: turn.PiecePocketed,
		Aim:           Aim{Angle: round4(s.aim.Angle), Power: round4(s.aim.Power)},
		AIPending:     s.pending != nil,
		Tick:          s.clock,
		ControlMode:   s.settings.ControlMode,
		Pieces:        make([]PieceState, 0, len(s.world.Pieces)),
		Pocketed:      []string{},
		Player1:       playerState(s.engine.Player(Player1)),
		Player2:       playerState(s.engine.Player(Player2)),
		Terminal:      s.engine.Terminal(),
		KineticEnergy: round4(s.world.KineticEnergy()),
		CreatedAt:     s.createdAt,
	}
	for _, p := range s.world.Pieces {
		if p.Pocketed {
			snap.Pocketed = append(snap.Pocketed, p.ID)
			continue
		}
		snap.Pieces = append(snap.Pieces, PieceState{
			ID:       p.ID,
			Kind:     p.Kind,
			Color:    p.Color,
			Owner:    p.Owner,
			Position: p.Position.rounded(),
			Velocity: p.Velocity.rounded(),
			Radius:   p.Radius,
		})
	}
	if out := s.engine.Outcome(); out != nil {
		o := *out
		snap.Outcome = &o
		snap.Status = StatusCompleted
	}
	return snap
}

func playerState(p *Player) PlayerState {
	return PlayerState{
		ID:              p.ID,
		Name:            p.Name,
		Score:           p.Score,
		PiecesCollected: p.PiecesCollected,
		HasQueen:        p.HasQueen,
		Color:           p.Color,
		Controller:      p.Controller,
		Difficulty:      p.Difficulty,
	}
}
