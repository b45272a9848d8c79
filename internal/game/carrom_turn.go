package game

import "errors"

// Phase is the state of the current turn.
type Phase string

const (
	PhasePositioning Phase = "POSITIONING"
	PhaseAiming      Phase = "AIMING"
	PhaseInMotion    Phase = "IN_MOTION"
	PhaseResolving   Phase = "RESOLVING"
)

// Controller says who drives a seat.
type Controller string

const (
	ControllerHuman Controller = "human"
	ControllerAI    Controller = "ai"
)

var (
	ErrInvalidPhase   = errors.New("command not valid in current phase")
	ErrGameOver       = errors.New("game is over")
	ErrNotAIPlayer    = errors.New("current player is not AI-controlled")
	ErrTickInFlight   = errors.New("tick already in progress")
	ErrPowerTooLow    = errors.New("shot power below threshold")
	ErrOverlap        = errors.New("control piece would overlap another piece")
	ErrInvalidPointer = errors.New("pointer coordinates must be finite")
)

// Player is one seat's running state.
type Player struct {
	ID              PlayerID   `json:"id"`
	Name            string     `json:"name"`
	Score           int        `json:"score"`
	PiecesCollected int        `json:"pieces_collected"`
	HasQueen        bool       `json:"has_queen"`
	Color           Color      `json:"color"`
	Controller      Controller `json:"controller"`
	Difficulty      Difficulty `json:"difficulty,omitempty"`
}

// IsAI reports whether the seat is AI-controlled.
func (p *Player) IsAI() bool {
	return p.Controller == ControllerAI
}

// Turn is the current mover and its per-turn flags. Generation identifies
// the turn; it changes every time a new turn (or continuation) begins.
type Turn struct {
	Player        PlayerID `json:"player"`
	Phase         Phase    `json:"phase"`
	ShotTaken     bool     `json:"shot_taken"`
	PiecePocketed bool     `json:"piece_pocketed_this_turn"`
	Generation    int      `json:"generation"`
}

// TurnEngine owns players, phase transitions, score folding and the win check.
type TurnEngine struct {
	players  map[PlayerID]*Player
	turn     Turn
	terminal bool
	outcome  *Outcome

	winScore  int
	winPieces int
	clampNeg  bool
}

// NewTurnEngine seats p1 and p2 with player 1 to move. targets is the number
// of Regular and Queen pieces in play; the piece win threshold never exceeds it.
func NewTurnEngine(p1, p2 *Player, s Settings, targets int) *TurnEngine {
	p1.ID, p2.ID = Player1, Player2
	p1.Color, p2.Color = ColorWhite, ColorBlack

	winPieces := s.WinPiecesTotal
	if targets > 0 && targets < winPieces {
		winPieces = targets
	}
	return &TurnEngine{
		players:   map[PlayerID]*Player{Player1: p1, Player2: p2},
		turn:      Turn{Player: Player1, Phase: PhasePositioning},
		winScore:  s.WinScoreCeiling,
		winPieces: winPieces,
		clampNeg:  s.ClampNegativeScore,
	}
}

// Player returns the seat state for id.
func (te *TurnEngine) Player(id PlayerID) *Player {
	return te.players[id]
}

// Mover returns the player whose turn it is.
func (te *TurnEngine) Mover() *Player {
	return te.players[te.turn.Player]
}

// Turn returns a pointer to the live turn record.
func (te *TurnEngine) Turn() *Turn {
	return &te.turn
}

// Phase returns the current phase.
func (te *TurnEngine) Phase() Phase {
	return te.turn.Phase
}

// Terminal reports whether the game has ended.
func (te *TurnEngine) Terminal() bool {
	return te.terminal
}

// Outcome returns the final result, or nil while the game is running.
func (te *TurnEngine) Outcome() *Outcome {
	return te.outcome
}

// require checks that the game is running and in one of the given phases.
func (te *TurnEngine) require(phases ...Phase) error {
	if te.terminal {
		return ErrGameOver
	}
	for _, p := range phases {
		if te.turn.Phase == p {
			return nil
		}
	}
	return ErrInvalidPhase
}

// BeginAim moves Positioning to Aiming.
func (te *TurnEngine) BeginAim() error {
	if err := te.require(PhasePositioning, PhaseAiming); err != nil {
		return err
	}
	te.turn.Phase = PhaseAiming
	return nil
}

// CancelAim drops back to Positioning.
func (te *TurnEngine) CancelAim() error {
	if err := te.require(PhaseAiming); err != nil {
		return err
	}
	te.turn.Phase = PhasePositioning
	return nil
}

// Release moves Aiming to InMotion and records that a shot was taken.
func (te *TurnEngine) Release() error {
	if err := te.require(PhaseAiming); err != nil {
		return err
	}
	te.turn.Phase = PhaseInMotion
	te.turn.ShotTaken = true
	te.turn.PiecePocketed = false
	return nil
}

// Settle moves InMotion to Resolving once the world has come to rest.
func (te *TurnEngine) Settle() error {
	if err := te.require(PhaseInMotion); err != nil {
		return err
	}
	te.turn.Phase = PhaseResolving
	return nil
}

// stop parks a finished game in Resolving with no shot pending.
func (te *TurnEngine) stop() {
	te.turn.Phase = PhaseResolving
	te.turn.ShotTaken = false
}

// Finish applies the end-of-shot verdict: a qualifying capture keeps the
// mover, anything else passes the turn. Both flags reset and the turn
// generation advances either way.
func (te *TurnEngine) Finish(v ShotVerdict) []Event {
	if te.turn.Phase != PhaseResolving {
		return nil
	}
	var events []Event
	if v.Evaluated && !v.Continue && !te.terminal {
		te.turn.Player = te.turn.Player.Other()
	}
	te.turn.Phase = PhasePositioning
	te.turn.ShotTaken = false
	te.turn.PiecePocketed = false
	te.turn.Generation++
	if !te.terminal {
		events = append(events, Event{
			Type:       EventTurnChanged,
			Player:     te.turn.Player,
			Generation: te.turn.Generation,
		})
	}
	return events
}

// Apply folds a score event into the mover's totals and runs the win check.
// It returns the resulting events; nothing is applied once the game is over.
func (te *TurnEngine) Apply(ev ScoreEvent) []Event {
	if te.terminal {
		return nil
	}
	p := te.players[ev.Player]
	if p == nil {
		return nil
	}

	p.Score += ev.Points
	if te.clampNeg && p.Score < 0 {
		p.Score = 0
	}
	if !ev.Foul {
		p.PiecesCollected++
		if ev.Kind == KindQueen {
			p.HasQueen = true
		}
	}
	if ev.Qualifying {
		te.turn.PiecePocketed = true
	}

	events := []Event{{
		Type:       EventScoreChanged,
		Player:     p.ID,
		Delta:      ev.Points,
		Reason:     ev.Reason,
		PieceID:    ev.PieceID,
		Score:      p.Score,
		Generation: te.turn.Generation,
	}}
	if over := te.checkWin(); over != nil {
		events = append(events, *over)
	}
	return events
}

// checkWin ends the game when the combined score passes the ceiling or the
// combined collection reaches the piece threshold.
func (te *TurnEngine) checkWin() *Event {
	p1, p2 := te.players[Player1], te.players[Player2]
	if p1.Score+p2.Score <= te.winScore && p1.PiecesCollected+p2.PiecesCollected < te.winPieces {
		return nil
	}
	te.terminal = true
	out := &Outcome{Player1Score: p1.Score, Player2Score: p2.Score}
	switch {
	case p1.Score > p2.Score:
		out.Winner = Player1
	case p2.Score > p1.Score:
		out.Winner = Player2
	default:
		out.Tie = true
	}
	te.outcome = out
	return &Event{
		Type:       EventGameOver,
		Player:     out.Winner,
		Outcome:    out,
		Generation: te.turn.Generation,
	}
}
