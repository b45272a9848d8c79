package game

import (
	"math"
	"testing"
)

// Helper to build a world from explicit pieces on the stock board.
func setupWorld(specs ...PieceSpec) *World {
	s := DefaultSettings()
	return NewWorld(NewBoard(s), s, specs)
}

func controlAt(x, y float64) PieceSpec {
	return PieceSpec{ID: "control", Kind: KindControl, Position: NewVec2(x, y)}
}

func pieceAt(id string, c Color, x, y float64) PieceSpec {
	return PieceSpec{ID: id, Kind: KindRegular, Color: c, Position: NewVec2(x, y)}
}

func TestShotMovesControlAlongAngle(t *testing.T) {
	w := setupWorld(controlAt(300, 500))
	c := w.Pieces[0]

	w.ApplyShot(c, -math.Pi/2, 50)
	w.Step()

	if c.Position.Y >= 500 {
		t.Errorf("Control did not move up: y=%.2f", c.Position.Y)
	}
	if math.Abs(c.Position.X-300) > 1e-9 {
		t.Errorf("Control drifted sideways: x=%.6f", c.Position.X)
	}
}

func TestShotImpulseIsLinearInPower(t *testing.T) {
	w := setupWorld(controlAt(300, 500))
	c := w.Pieces[0]

	w.ApplyShot(c, 0, 20)
	v20 := c.Velocity.Magnitude()
	c.Velocity = Vec2{}
	w.ApplyShot(c, 0, 80)
	v80 := c.Velocity.Magnitude()

	if math.Abs(v80/v20-4) > 1e-9 {
		t.Errorf("Expected 4x speed for 4x power, got ratio %.6f", v80/v20)
	}
}

func TestFrictionSettlesWorld(t *testing.T) {
	w := setupWorld(controlAt(300, 500))
	w.ApplyShot(w.Pieces[0], -math.Pi/2, 60)

	for i := 0; i < 1000 && !w.Settled(); i++ {
		w.Step()
	}
	if !w.Settled() {
		t.Fatalf("World did not settle, speed=%.4f", w.Pieces[0].Velocity.Magnitude())
	}
	if w.KineticEnergy() != 0 {
		t.Errorf("Settled world should carry no energy, got %.6f", w.KineticEnergy())
	}
}

func TestFrictionStopsCrawlingPiece(t *testing.T) {
	w := setupWorld(controlAt(300, 500))
	c := w.Pieces[0]

	// 0.1 * 0.85 - 0.05 lands under the rest speed
	c.Velocity = NewVec2(0.1, 0)
	c.AngularVelocity = 0.011
	w.Step()
	if c.Velocity != (Vec2{}) {
		t.Errorf("Crawling piece should stop, velocity=%v", c.Velocity)
	}
	if c.AngularVelocity != 0 {
		t.Errorf("Residual spin should stop, spin=%.4f", c.AngularVelocity)
	}
	if !w.Settled() || w.KineticEnergy() != 0 {
		t.Errorf("World should be settled with no energy, got %.6f", w.KineticEnergy())
	}

	c.Velocity = NewVec2(1, 0)
	w.Step()
	if got := c.Velocity.Magnitude(); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Expected speed 0.8 after one tick of friction, got %.6f", got)
	}
}

func TestKineticEnergyStrictlyDecreases(t *testing.T) {
	s := DefaultSettings()
	board := NewBoard(s)
	specs := append(StandardFormation(s), controlAt(300, 500))
	w := NewWorld(board, s, specs)
	control := w.Control(Player1)

	w.ApplyShot(control, -math.Pi/2, MaxShotPower)

	steps := 0
	for !w.Settled() {
		before := w.KineticEnergy()
		w.Step()
		after := w.KineticEnergy()
		if after >= before {
			t.Fatalf("Energy did not decrease at step %d: %.6f -> %.6f", steps, before, after)
		}
		steps++
		if steps > 5000 {
			t.Fatalf("World did not settle")
		}
	}
}

func TestWallBounceReversesVelocity(t *testing.T) {
	w := setupWorld(controlAt(500, 300))
	c := w.Pieces[0]
	c.Velocity = NewVec2(20, 0)

	for i := 0; i < 10; i++ {
		w.Step()
	}
	if c.Velocity.X >= 0 {
		t.Errorf("Control should bounce off the right wall: vx=%.3f", c.Velocity.X)
	}
	if c.Position.X > w.Board.Max-c.Radius+1e-9 {
		t.Errorf("Control went through the wall: x=%.3f", c.Position.X)
	}
}

func TestHeadOnCollisionPushesTarget(t *testing.T) {
	w := setupWorld(controlAt(200, 300), pieceAt("w", ColorWhite, 240, 300))
	c, p := w.Pieces[0], w.Pieces[1]
	c.Velocity = NewVec2(20, 0)

	w.Step()
	w.Step()

	if p.Position.X <= 240 {
		t.Errorf("Target did not move: x=%.3f", p.Position.X)
	}
	if p.Velocity.X <= 0 {
		t.Errorf("Target should move right, vx=%.3f", p.Velocity.X)
	}
	if math.Abs(p.Position.Y-300) > 1e-9 {
		t.Errorf("Head-on hit should not deflect: y=%.6f", p.Position.Y)
	}
	if c.Position.DistanceTo(p.Position) < c.Radius+p.Radius-1e-6 {
		t.Errorf("Discs still overlap after step")
	}
}

func TestCollisionConservesMomentum(t *testing.T) {
	w := setupWorld(controlAt(200, 300), pieceAt("w", ColorWhite, 230, 300))
	c, p := w.Pieces[0], w.Pieces[1]
	c.Velocity = NewVec2(10, 0)
	before := c.Mass*c.Velocity.X + p.Mass*p.Velocity.X

	w.resolvePair(c, p)

	after := c.Mass*c.Velocity.X + p.Mass*p.Velocity.X
	if math.Abs(after-before) > 1e-9 {
		t.Errorf("Momentum changed: %.6f -> %.6f", before, after)
	}
	if p.Velocity.X <= c.Velocity.X {
		t.Errorf("Bodies should separate: vc=%.3f vp=%.3f", c.Velocity.X, p.Velocity.X)
	}
}

func TestPieceCapturedByPocket(t *testing.T) {
	w := setupWorld(pieceAt("w", ColorWhite, 80, 80))
	p := w.Pieces[0]
	p.Velocity = NewVec2(-5, -5)

	var captured []*Piece
	for i := 0; i < 10 && len(captured) == 0; i++ {
		captured = w.Step()
	}
	if len(captured) != 1 || captured[0] != p {
		t.Fatalf("Expected the piece to be captured, got %d captures", len(captured))
	}
	if !p.Pocketed || !p.Velocity.IsZero() {
		t.Errorf("Captured piece should be pocketed and at rest: pocketed=%v v=%+v", p.Pocketed, p.Velocity)
	}
	if !w.Stationary(p) {
		t.Errorf("Pocketed piece should count as stationary")
	}
	if w.ActiveTargets() != 0 {
		t.Errorf("Expected no active targets, got %d", w.ActiveTargets())
	}
}

func TestStationaryThresholds(t *testing.T) {
	w := setupWorld(pieceAt("w", ColorWhite, 300, 300))
	p := w.Pieces[0]

	p.Velocity = NewVec2(0.04, 0)
	if !w.Stationary(p) {
		t.Errorf("Speed 0.04 should be stationary")
	}
	p.AngularVelocity = 0.02
	if w.Stationary(p) {
		t.Errorf("Spin 0.02 should not be stationary")
	}
	p.AngularVelocity = 0
	p.Velocity = NewVec2(0.06, 0)
	if w.Stationary(p) {
		t.Errorf("Speed 0.06 should not be stationary")
	}
}

func TestOverlapsIgnoresSelfAndPocketed(t *testing.T) {
	w := setupWorld(controlAt(300, 500), pieceAt("w", ColorWhite, 320, 500))
	c, p := w.Pieces[0], w.Pieces[1]

	if !w.Overlaps(c, c.Position) {
		t.Errorf("Expected overlap with neighbouring piece")
	}
	p.Pocketed = true
	if w.Overlaps(c, c.Position) {
		t.Errorf("Pocketed pieces should not block placement")
	}
}
