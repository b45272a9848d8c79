package game

import (
	"math"
	"math/rand"
	"testing"
)

func worldPieces(specs ...PieceSpec) []*Piece {
	return setupWorld(specs...).Pieces
}

func exactSettings() Settings {
	s := DefaultSettings()
	s.AITable = map[Difficulty]AITier{
		DifficultyHard: {LineWeight: 1, PocketWeight: 0.5, QueenFactor: 1, PowerScale: 1},
	}
	return s
}

func TestPlanAimsThroughTargetToPocket(t *testing.T) {
	s := exactSettings()
	pl := NewPlanner(NewBoard(s), s)
	pieces := worldPieces(pieceAt("w", ColorWhite, 150, 200))

	plan := pl.Plan(pieces, ColorWhite, Player1, DifficultyHard, rand.New(rand.NewSource(1)))

	if plan.Fallback || plan.TargetID != "w" || plan.PocketID != 0 {
		t.Fatalf("Unexpected plan: %+v", plan)
	}
	if math.Abs(plan.ControlX-350) > 1e-9 {
		t.Errorf("ControlX = %.6f, want 350", plan.ControlX)
	}
	wantAngle := math.Atan2(-300, -200)
	if math.Abs(plan.Angle-wantAngle) > 1e-9 {
		t.Errorf("Angle = %.6f, want %.6f", plan.Angle, wantAngle)
	}
	wantPower := 50 + math.Hypot(200, 300)/10
	if math.Abs(plan.Power-wantPower) > 1e-9 {
		t.Errorf("Power = %.6f, want %.6f", plan.Power, wantPower)
	}
}

func TestPlanPrefersPieceNearLineAndPocket(t *testing.T) {
	s := exactSettings()
	pl := NewPlanner(NewBoard(s), s)
	pieces := worldPieces(
		pieceAt("far", ColorWhite, 300, 150),
		pieceAt("near", ColorWhite, 120, 400),
		pieceAt("theirs", ColorBlack, 300, 480),
	)

	plan := pl.Plan(pieces, ColorWhite, Player1, DifficultyHard, rand.New(rand.NewSource(1)))
	if plan.TargetID != "near" {
		t.Errorf("Expected the nearer white piece, got %q", plan.TargetID)
	}
}

func TestPlanIgnoresPocketedAndOpponentPieces(t *testing.T) {
	s := DefaultSettings()
	pl := NewPlanner(NewBoard(s), s)
	pieces := worldPieces(
		pieceAt("gone", ColorWhite, 300, 300),
		pieceAt("theirs", ColorBlack, 200, 200),
	)
	pieces[0].Pocketed = true

	plan := pl.Plan(pieces, ColorWhite, Player1, DifficultyMedium, rand.New(rand.NewSource(7)))
	if !plan.Fallback {
		t.Fatalf("Expected fallback shot with no candidates, got %+v", plan)
	}
	if plan.Power < MinShotPower || plan.Power > MaxShotPower {
		t.Errorf("Fallback power %.2f out of range", plan.Power)
	}
	// Player 1 shoots upward: the angle must point toward smaller y.
	if math.Sin(plan.Angle) >= 0 {
		t.Errorf("Fallback angle %.3f does not point into the board", plan.Angle)
	}
	if math.Abs(plan.ControlX-300) > 100 {
		t.Errorf("Fallback x %.2f too far from center", plan.ControlX)
	}
}

func TestPlanIsDeterministicForSeed(t *testing.T) {
	s := DefaultSettings()
	pl := NewPlanner(NewBoard(s), s)
	pieces := worldPieces(StandardFormation(s)...)

	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		a := pl.Plan(pieces, ColorBlack, Player2, d, rand.New(rand.NewSource(42)))
		b := pl.Plan(pieces, ColorBlack, Player2, d, rand.New(rand.NewSource(42)))
		if a != b {
			t.Errorf("%s: plans differ for the same seed: %+v vs %+v", d, a, b)
		}
	}
}

func TestPlanClampsPowerAndPosition(t *testing.T) {
	s := DefaultSettings()
	pl := NewPlanner(NewBoard(s), s)
	pieces := worldPieces(StandardFormation(s)...)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		plan := pl.Plan(pieces, ColorWhite, Player1, DifficultyEasy, rng)
		if plan.Power < MinShotPower || plan.Power > MaxShotPower {
			t.Fatalf("Power %.2f outside [%v, %v]", plan.Power, MinShotPower, MaxShotPower)
		}
		if plan.ControlX < AIReleaseMargin || plan.ControlX > BoardSize-AIReleaseMargin {
			t.Fatalf("ControlX %.2f outside release margin", plan.ControlX)
		}
	}
}

func TestPlanHandlesTargetLevelWithPocket(t *testing.T) {
	s := exactSettings()
	pl := NewPlanner(NewBoard(s), s)
	// Target level with the top pockets; the projection must stay finite.
	pieces := worldPieces(pieceAt("w", ColorWhite, 300, 50))

	plan := pl.Plan(pieces, ColorWhite, Player1, DifficultyHard, rand.New(rand.NewSource(1)))
	if math.IsNaN(plan.ControlX) || math.IsNaN(plan.Angle) || math.IsNaN(plan.Power) {
		t.Fatalf("Plan produced NaN: %+v", plan)
	}
}

func TestPlanAngleFromPlannedPoint(t *testing.T) {
	s := DefaultSettings()
	board := NewBoard(s)
	pl := NewPlanner(board, s)
	pieces := worldPieces(pieceAt("w", ColorWhite, 200, 250))

	plan := pl.Plan(pieces, ColorWhite, Player1, DifficultyMedium, rand.New(rand.NewSource(3)))
	from := board.ReleasePoint(Player1, plan.ControlX)
	if got := plan.AngleFrom(from); math.Abs(got-plan.Angle) > 1e-9 {
		t.Errorf("AngleFrom planned point = %.6f, want %.6f", got, plan.Angle)
	}

	shifted := from.Plus(NewVec2(40, 0))
	want := plan.AimPoint.Minus(shifted).Angle() + plan.AngleJitter
	if got := plan.AngleFrom(shifted); math.Abs(got-want) > 1e-9 {
		t.Errorf("AngleFrom shifted point = %.6f, want %.6f", got, want)
	}

	fb := AIPlan{Angle: 1.2, Fallback: true}
	if fb.AngleFrom(shifted) != 1.2 {
		t.Errorf("Fallback plans keep their angle")
	}
}
