package game

import (
	"math"
	"testing"
)

func TestBoardGeometry(t *testing.T) {
	b := NewBoard(DefaultSettings())

	want := []Vec2{{50, 50}, {550, 50}, {50, 550}, {550, 550}}
	if len(b.Pockets) != len(want) {
		t.Fatalf("Expected %d pockets, got %d", len(want), len(b.Pockets))
	}
	for i, pk := range b.Pockets {
		if pk.Position != want[i] {
			t.Errorf("Pocket %d at %+v, want %+v", i, pk.Position, want[i])
		}
	}
	if b.ReleaseLineY(Player1) != 500 || b.ReleaseLineY(Player2) != 100 {
		t.Errorf("Release lines at %.0f/%.0f, want 500/100", b.ReleaseLineY(Player1), b.ReleaseLineY(Player2))
	}
	if b.LineMinX != 68 || b.LineMaxX != 532 {
		t.Errorf("Release line bounds [%.0f, %.0f], want [68, 532]", b.LineMinX, b.LineMaxX)
	}
}

func TestClampLineX(t *testing.T) {
	b := NewBoard(DefaultSettings())

	tests := []struct {
		in, want float64
	}{
		{300, 300},
		{0, 68},
		{1000, 532},
		{math.Inf(-1), 68},
		{math.NaN(), 300},
	}
	for _, tt := range tests {
		if got := b.ClampLineX(tt.in); got != tt.want {
			t.Errorf("ClampLineX(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInReleaseBand(t *testing.T) {
	b := NewBoard(DefaultSettings())

	if !b.InReleaseBand(Player1, NewVec2(250, 510)) {
		t.Errorf("Point 10 below line 1 should be in band")
	}
	if b.InReleaseBand(Player1, NewVec2(250, 300)) {
		t.Errorf("Board center should not be in band")
	}
	if b.InReleaseBand(Player1, NewVec2(20, 500)) {
		t.Errorf("Point past the line end should not be in band")
	}
	if !b.InReleaseBand(Player2, NewVec2(300, 90)) {
		t.Errorf("Point near line 2 should be in player 2's band")
	}
}

func TestCaptureRadiusIsStrict(t *testing.T) {
	b := NewBoard(DefaultSettings())

	if _, ok := b.Captured(NewVec2(80, 50)); ok {
		t.Errorf("Center exactly on the pocket edge should not be captured")
	}
	if pk, ok := b.Captured(NewVec2(79, 50)); !ok || pk.ID != 0 {
		t.Errorf("Center inside pocket 0 should be captured, got %v %v", pk.ID, ok)
	}
}

func TestStandardFormation(t *testing.T) {
	s := DefaultSettings()
	specs := StandardFormation(s)

	counts := map[Color]int{}
	queens := 0
	for _, sp := range specs {
		if sp.Kind == KindQueen {
			queens++
			if sp.Position != NewVec2(300, 300) {
				t.Errorf("Queen not centered: %+v", sp.Position)
			}
			continue
		}
		counts[sp.Color]++
	}
	if queens != 1 || counts[ColorWhite] != 9 || counts[ColorBlack] != 9 {
		t.Errorf("Unexpected formation: queens=%d white=%d black=%d", queens, counts[ColorWhite], counts[ColorBlack])
	}

	for i := range specs {
		for j := i + 1; j < len(specs); j++ {
			d := specs[i].Position.DistanceTo(specs[j].Position)
			if d < 2*s.PieceRadius {
				t.Errorf("%s and %s overlap (d=%.2f)", specs[i].ID, specs[j].ID, d)
			}
		}
	}
}
