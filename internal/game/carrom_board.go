package game

import (
	"fmt"
	"math"
)

// PlayerID identifies one of the two seats.
type PlayerID string

const (
	Player1 PlayerID = "player1"
	Player2 PlayerID = "player2"
)

// Other returns the opposing seat.
func (p PlayerID) Other() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Valid reports whether p names a seat.
func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

// PieceKind is the role of a disc on the board.
type PieceKind string

const (
	KindRegular PieceKind = "REGULAR"
	KindQueen   PieceKind = "QUEEN"
	KindControl PieceKind = "CONTROL"
)

// Color is the target color of a regular piece and of a player.
type Color string

const (
	ColorNone  Color = ""
	ColorWhite Color = "WHITE" // ColorA, player 1
	ColorBlack Color = "BLACK" // ColorB, player 2
)

// Opposite returns the other target color.
func (c Color) Opposite() Color {
	switch c {
	case ColorWhite:
		return ColorBlack
	case ColorBlack:
		return ColorWhite
	}
	return ColorNone
}

// Pocket is a capture zone at a board corner.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// PieceSpec describes a piece to place at session start.
type PieceSpec struct {
	ID       string
	Kind     PieceKind
	Color    Color
	Owner    PlayerID // Control pieces only
	Position Vec2
}

// Board is the static geometry of a session.
type Board struct {
	Size         float64  `json:"size"`
	Pockets      []Pocket `json:"pockets"`
	PocketRadius float64  `json:"pocket_radius"`
	Min          float64  `json:"min"` // inner wall face, both axes
	Max          float64  `json:"max"`
	LineMinX     float64  `json:"line_min_x"`
	LineMaxX     float64  `json:"line_max_x"`
	Line1Y       float64  `json:"line1_y"`
	Line2Y       float64  `json:"line2_y"`
	Band         float64  `json:"band"`
}

// NewBoard builds the geometry from settings.
func NewBoard(s Settings) *Board {
	size := s.BoardSize
	p := s.PocketOffset
	return &Board{
		Size: size,
		Pockets: []Pocket{
			{ID: 0, Position: NewVec2(p, p)},
			{ID: 1, Position: NewVec2(size-p, p)},
			{ID: 2, Position: NewVec2(p, size-p)},
			{ID: 3, Position: NewVec2(size-p, size-p)},
		},
		PocketRadius: s.PocketRadius,
		Min:          s.WallInset,
		Max:          size - s.WallInset,
		LineMinX:     p + s.ControlRadius,
		LineMaxX:     size - p - s.ControlRadius,
		Line1Y:       size - s.ReleaseLineInset,
		Line2Y:       s.ReleaseLineInset,
		Band:         s.ReleaseBand,
	}
}

// Center returns the middle of the board.
func (b *Board) Center() Vec2 {
	return NewVec2(b.Size/2, b.Size/2)
}

// ReleaseLineY returns the y coordinate of a player's release line.
// Player 1 shoots from the bottom edge, player 2 from the top.
func (b *Board) ReleaseLineY(p PlayerID) float64 {
	if p == Player2 {
		return b.Line2Y
	}
	return b.Line1Y
}

// ClampLineX keeps a Control x coordinate on the release line segment.
func (b *Board) ClampLineX(x float64) float64 {
	if math.IsNaN(x) {
		return b.Size / 2
	}
	return clamp(x, b.LineMinX, b.LineMaxX)
}

// ReleasePoint returns a point on p's release line.
func (b *Board) ReleasePoint(p PlayerID, x float64) Vec2 {
	return NewVec2(b.ClampLineX(x), b.ReleaseLineY(p))
}

// InReleaseBand reports whether pt lies inside p's release-line band.
func (b *Board) InReleaseBand(p PlayerID, pt Vec2) bool {
	return pt.X >= b.LineMinX && pt.X <= b.LineMaxX &&
		math.Abs(pt.Y-b.ReleaseLineY(p)) < b.Band
}

// NearestPocket returns the pocket closest to pt and its distance.
func (b *Board) NearestPocket(pt Vec2) (Pocket, float64) {
	best := b.Pockets[0]
	bestDist := math.Inf(1)
	for _, pk := range b.Pockets {
		if d := pt.DistanceTo(pk.Position); d < bestDist {
			best, bestDist = pk, d
		}
	}
	return best, bestDist
}

// Captured reports whether a center at pt lies inside any pocket.
func (b *Board) Captured(pt Vec2) (Pocket, bool) {
	for _, pk := range b.Pockets {
		if pt.DistanceTo(pk.Position) < b.PocketRadius {
			return pk, true
		}
	}
	return Pocket{}, false
}

// StandardFormation returns the opening layout: the Queen in the center,
// a ring of 6 and a ring of 12 alternating colors.
func StandardFormation(s Settings) []PieceSpec {
	c := NewVec2(s.BoardSize/2, s.BoardSize/2)
	offset := 2*s.PieceRadius + FormationGap

	specs := make([]PieceSpec, 0, 19)
	specs = append(specs, PieceSpec{ID: "queen", Kind: KindQueen, Position: c})

	for i := 0; i < 6; i++ {
		a := 2 * math.Pi * float64(i) / 6
		col := ColorWhite
		if i%2 != 0 {
			col = ColorBlack
		}
		specs = append(specs, PieceSpec{
			ID:       fmt.Sprintf("%s-ring1-%d", colorSlug(col), i),
			Kind:     KindRegular,
			Color:    col,
			Position: c.Plus(FromAngle(a, offset)),
		})
	}

	// Outer ring sits at twice the inner radius so no two discs overlap.
	for i := 0; i < 12; i++ {
		a := 2 * math.Pi * float64(i) / 12
		col := ColorBlack
		if i%2 != 0 {
			col = ColorWhite
		}
		specs = append(specs, PieceSpec{
			ID:       fmt.Sprintf("%s-ring2-%d", colorSlug(col), i),
			Kind:     KindRegular,
			Color:    col,
			Position: c.Plus(FromAngle(a, 2*offset)),
		})
	}
	return specs
}

func colorSlug(c Color) string {
	if c == ColorBlack {
		return "black"
	}
	return "white"
}
