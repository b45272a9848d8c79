package game

import "testing"

func newTestEngine(targets int) *TurnEngine {
	return NewTurnEngine(&Player{Name: "A"}, &Player{Name: "B"}, DefaultSettings(), targets)
}

func TestPhaseTransitions(t *testing.T) {
	te := newTestEngine(19)

	if err := te.Release(); err != ErrInvalidPhase {
		t.Errorf("Release from Positioning: got %v, want ErrInvalidPhase", err)
	}
	if err := te.BeginAim(); err != nil {
		t.Fatalf("BeginAim: %v", err)
	}
	if err := te.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !te.Turn().ShotTaken || te.Phase() != PhaseInMotion {
		t.Fatalf("Expected InMotion with shot taken, got %s shot=%v", te.Phase(), te.Turn().ShotTaken)
	}
	if err := te.BeginAim(); err != ErrInvalidPhase {
		t.Errorf("BeginAim while in motion: got %v", err)
	}
	if err := te.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	te.Finish(ShotVerdict{Evaluated: true})

	if te.Phase() != PhasePositioning || te.Turn().Player != Player2 {
		t.Errorf("Expected Positioning for player2, got %s for %s", te.Phase(), te.Turn().Player)
	}
	if te.Turn().Generation != 1 {
		t.Errorf("Generation should advance, got %d", te.Turn().Generation)
	}
}

func TestFinishKeepsMoverOnContinuation(t *testing.T) {
	te := newTestEngine(19)
	te.BeginAim()
	te.Release()
	te.Settle()

	events := te.Finish(ShotVerdict{Evaluated: true, Continue: true})

	if te.Turn().Player != Player1 {
		t.Errorf("Mover should keep the turn, got %s", te.Turn().Player)
	}
	if te.Turn().ShotTaken || te.Turn().PiecePocketed {
		t.Errorf("Per-turn flags should reset on continuation")
	}
	if len(events) != 1 || events[0].Type != EventTurnChanged || events[0].Player != Player1 {
		t.Errorf("Expected one turn_changed event for player1, got %+v", events)
	}
}

func TestApplyFoldsScoreAndCollection(t *testing.T) {
	te := newTestEngine(19)

	te.Apply(ScoreEvent{Player: Player1, Points: 50, Reason: ReasonQueen, Kind: KindQueen, Qualifying: true})
	te.Apply(ScoreEvent{Player: Player1, Points: 20, Reason: ReasonOpponentColor, Kind: KindRegular})
	te.Apply(ScoreEvent{Player: Player1, Points: -10, Reason: ReasonFoul, Kind: KindControl, Foul: true})

	p1 := te.Player(Player1)
	if p1.Score != 60 {
		t.Errorf("Score = %d, want 60", p1.Score)
	}
	if p1.PiecesCollected != 2 {
		t.Errorf("PiecesCollected = %d, want 2 (fouls do not count)", p1.PiecesCollected)
	}
	if !p1.HasQueen {
		t.Errorf("HasQueen should be set")
	}
	if !te.Turn().PiecePocketed {
		t.Errorf("Queen capture should set the continuation flag")
	}
}

func TestNegativeScoreAllowedByDefault(t *testing.T) {
	te := newTestEngine(19)
	te.Apply(ScoreEvent{Player: Player1, Points: -10, Reason: ReasonFoul, Foul: true})
	if got := te.Player(Player1).Score; got != -10 {
		t.Errorf("Score = %d, want -10", got)
	}

	s := DefaultSettings()
	s.ClampNegativeScore = true
	clamped := NewTurnEngine(&Player{}, &Player{}, s, 19)
	clamped.Apply(ScoreEvent{Player: Player1, Points: -10, Reason: ReasonFoul, Foul: true})
	if got := clamped.Player(Player1).Score; got != 0 {
		t.Errorf("Clamped score = %d, want 0", got)
	}
}

func TestWinByScoreCeiling(t *testing.T) {
	te := newTestEngine(19)
	te.Player(Player1).Score = 150
	te.Player(Player2).Score = 40

	events := te.Apply(ScoreEvent{Player: Player1, Points: 10, Reason: ReasonOwnColor, Qualifying: true})
	if te.Terminal() {
		t.Fatalf("Combined 200 should not end the game")
	}
	if len(events) != 1 {
		t.Fatalf("Expected only a score event, got %d", len(events))
	}

	events = te.Apply(ScoreEvent{Player: Player2, Points: 20, Reason: ReasonOpponentColor})
	if !te.Terminal() {
		t.Fatalf("Combined 220 should end the game")
	}
	last := events[len(events)-1]
	if last.Type != EventGameOver || last.Outcome.Winner != Player1 || last.Outcome.Tie {
		t.Errorf("Expected player1 to win, got %+v", last.Outcome)
	}

	if evs := te.Apply(ScoreEvent{Player: Player2, Points: 50}); evs != nil {
		t.Errorf("Score events after game over should be ignored")
	}
	if err := te.BeginAim(); err != ErrGameOver {
		t.Errorf("BeginAim after game over: got %v, want ErrGameOver", err)
	}
}

func TestWinByPiecesReportsTie(t *testing.T) {
	te := newTestEngine(19)
	te.Player(Player1).PiecesCollected = 9
	te.Player(Player2).PiecesCollected = 8
	te.Player(Player1).Score = 60
	te.Player(Player2).Score = 50

	te.Apply(ScoreEvent{Player: Player2, Points: 10, Reason: ReasonOwnColor, Qualifying: true})

	out := te.Outcome()
	if out == nil {
		t.Fatalf("18 collected pieces should end the game")
	}
	if !out.Tie || out.Winner != "" {
		t.Errorf("Expected a tie, got %+v", out)
	}
}

func TestPieceThresholdCappedBySetup(t *testing.T) {
	te := newTestEngine(2)
	te.Apply(ScoreEvent{Player: Player1, Points: 10, Qualifying: true})
	if te.Terminal() {
		t.Fatalf("One of two pieces should not end the game")
	}
	te.Apply(ScoreEvent{Player: Player1, Points: 10, Qualifying: true})
	if !te.Terminal() {
		t.Errorf("Collecting every piece should end the game")
	}
}

func TestResolverClassifiesCaptures(t *testing.T) {
	s := DefaultSettings()
	board := NewBoard(s)
	w := NewWorld(board, s, []PieceSpec{
		controlAt(50, 550),
		pieceAt("w", ColorWhite, 50, 50),
		pieceAt("b", ColorBlack, 550, 50),
		{ID: "queen", Kind: KindQueen, Position: NewVec2(550, 550)},
	})
	mover := &Player{ID: Player1, Color: ColorWhite}
	r := NewShotResolver(board, s)

	events := r.Resolve(w, mover, []*Piece{w.Pieces[1], w.Pieces[2], w.Pieces[3]})
	want := []struct {
		points     int
		reason     ScoreReason
		qualifying bool
	}{
		{10, ReasonOwnColor, true},
		{20, ReasonOpponentColor, false},
		{50, ReasonQueen, true},
	}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(events))
	}
	for i, exp := range want {
		ev := events[i]
		if ev.Points != exp.points || ev.Reason != exp.reason || ev.Qualifying != exp.qualifying {
			t.Errorf("Event %d = %+v, want %+v", i, ev, exp)
		}
	}

	s.OpponentCaptureScores = false
	r = NewShotResolver(board, s)
	events = r.Resolve(w, mover, []*Piece{w.Pieces[2]})
	if events[0].Points != 0 || events[0].Qualifying {
		t.Errorf("Opponent capture with scoring disabled: %+v", events[0])
	}
}

func TestFoulIsRepeatableAndReturnsControl(t *testing.T) {
	s := DefaultSettings()
	board := NewBoard(s)
	w := NewWorld(board, s, []PieceSpec{controlAt(50, 550)})
	control := w.Pieces[0]
	mover := &Player{ID: Player1, Color: ColorWhite}
	r := NewShotResolver(board, s)
	te := newTestEngine(19)

	for i := 0; i < 3; i++ {
		control.Position = NewVec2(50, 550)
		control.Velocity = NewVec2(3, 3)
		control.Pocketed = true

		for _, ev := range r.Resolve(w, mover, []*Piece{control}) {
			if !ev.Foul || ev.Points != FoulPenalty {
				t.Errorf("Expected a foul of %d, got %+v", FoulPenalty, ev)
			}
			te.Apply(ev)
		}
		if control.Pocketed {
			t.Fatalf("Control piece must stay in play")
		}
		if control.Position != board.ReleasePoint(Player1, 300) || !control.Velocity.IsZero() {
			t.Errorf("Control should rest on player1's line, got pos=%+v v=%+v", control.Position, control.Velocity)
		}
	}
	if got := te.Player(Player1).Score; got != 3*FoulPenalty {
		t.Errorf("Score after three fouls = %d, want %d", got, 3*FoulPenalty)
	}
}

func TestEvaluateFiresOncePerShot(t *testing.T) {
	r := NewShotResolver(NewBoard(DefaultSettings()), DefaultSettings())
	turn := &Turn{ShotTaken: true, PiecePocketed: true}

	v := r.Evaluate(turn)
	if !v.Evaluated || !v.Continue {
		t.Errorf("First evaluation = %+v, want evaluated continuation", v)
	}
	if v := r.Evaluate(turn); v.Evaluated {
		t.Errorf("Second evaluation of the same shot should be a no-op")
	}
}
