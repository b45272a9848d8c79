package game

// ScoreEvent is a single capture translated into points for the mover.
type ScoreEvent struct {
	Player     PlayerID
	Points     int
	Reason     ScoreReason
	PieceID    string
	Kind       PieceKind
	Qualifying bool // own color or Queen: the turn continues
	Foul       bool
}

// ShotVerdict is the end-of-shot decision.
type ShotVerdict struct {
	Evaluated bool
	Continue  bool
}

// ShotResolver converts captures into score and foul events.
type ShotResolver struct {
	board    *Board
	settings Settings
}

// NewShotResolver creates a resolver for the given board.
func NewShotResolver(board *Board, s Settings) *ShotResolver {
	return &ShotResolver{board: board, settings: s}
}

// Resolve classifies captured pieces for mover. Regular and Queen captures
// stay pocketed. A captured Control piece is a foul: it is put back on its
// owner's release line at rest and stays in play.
func (r *ShotResolver) Resolve(w *World, mover *Player, captured []*Piece) []ScoreEvent {
	events := make([]ScoreEvent, 0, len(captured))
	for _, p := range captured {
		switch p.Kind {
		case KindControl:
			owner := p.Owner
			if !owner.Valid() {
				owner = mover.ID
			}
			w.Place(p, r.board.ReleasePoint(owner, r.board.Size/2))
			p.Pocketed = false
			events = append(events, ScoreEvent{
				Player:  mover.ID,
				Points:  r.settings.FoulPenalty,
				Reason:  ReasonFoul,
				PieceID: p.ID,
				Kind:    p.Kind,
				Foul:    true,
			})

		case KindQueen:
			events = append(events, ScoreEvent{
				Player:     mover.ID,
				Points:     r.settings.ScoreQueen,
				Reason:     ReasonQueen,
				PieceID:    p.ID,
				Kind:       p.Kind,
				Qualifying: true,
			})

		case KindRegular:
			ev := ScoreEvent{
				Player:  mover.ID,
				PieceID: p.ID,
				Kind:    p.Kind,
			}
			if p.Color == mover.Color {
				ev.Points = r.settings.ScoreOwnColor
				ev.Reason = ReasonOwnColor
				ev.Qualifying = true
			} else {
				ev.Reason = ReasonOpponentColor
				if r.settings.OpponentCaptureScores {
					ev.Points = r.settings.ScoreOpponentColor
				}
			}
			events = append(events, ev)
		}
	}
	return events
}

// Evaluate runs the end-of-shot decision once per released shot. It consumes
// the shot_taken flag so a second call for the same settlement is a no-op.
func (r *ShotResolver) Evaluate(t *Turn) ShotVerdict {
	if !t.ShotTaken {
		return ShotVerdict{}
	}
	t.ShotTaken = false
	return ShotVerdict{Evaluated: true, Continue: t.PiecePocketed}
}
