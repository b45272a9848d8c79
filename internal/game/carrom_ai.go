package game

import "math"

// RandomSource is the subset of *math/rand.Rand the planner draws from.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// AIPlan is a planned shot: where to put the Control piece and how to strike.
// AimPoint is the target centre the shot passes through; AngleJitter is the
// difficulty noise already folded into Angle.
type AIPlan struct {
	ControlX    float64 `json:"control_x"`
	Angle       float64 `json:"angle"`
	Power       float64 `json:"power"`
	TargetID    string  `json:"target_id,omitempty"`
	PocketID    int     `json:"pocket_id"`
	Fallback    bool    `json:"fallback"`
	AimPoint    Vec2    `json:"aim_point"`
	AngleJitter float64 `json:"angle_jitter"`
}

// AngleFrom returns the strike angle for a Control piece at from. Off the
// planned position the angle is re-aimed at AimPoint with the same jitter.
// Fallback plans have no aim point and keep their angle.
func (p AIPlan) AngleFrom(from Vec2) float64 {
	if p.Fallback {
		return p.Angle
	}
	delta := p.AimPoint.Minus(from)
	if delta.Magnitude() < distanceEpsilon {
		return p.Angle
	}
	return delta.Angle() + p.AngleJitter
}

// Planner computes shots for AI seats. It is pure given its random source.
type Planner struct {
	board    *Board
	settings Settings
}

// NewPlanner creates a planner for board.
func NewPlanner(board *Board, s Settings) *Planner {
	return &Planner{board: board, settings: s}
}

// Plan picks a target among pieces for a player shooting from mover's line.
// Candidates are Regular pieces of target color plus the Queen. With no
// candidate left the plan is a random shot toward the board center.
func (pl *Planner) Plan(pieces []*Piece, target Color, mover PlayerID, d Difficulty, rng RandomSource) AIPlan {
	tier := pl.settings.tier(d)
	lineY := pl.board.ReleaseLineY(mover)

	var candidates []*Piece
	for _, p := range pieces {
		if p.Pocketed {
			continue
		}
		if p.Kind == KindQueen || (p.Kind == KindRegular && p.Color == target) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return pl.fallback(lineY, rng)
	}

	t := pl.selectTarget(candidates, lineY, tier, rng)
	pocket := pl.aimPocket(t.Position, lineY)

	x := pl.releaseX(t.Position, pocket.Position, lineY)
	if tier.PositionJitter > 0 {
		x += (rng.Float64() - 0.5) * tier.PositionJitter
	}
	margin := pl.settings.AIReleaseMargin
	x = pl.board.ClampLineX(clamp(x, margin, pl.board.Size-margin))

	from := NewVec2(x, lineY)
	delta := t.Position.Minus(from)
	angle := delta.Angle()
	dist := delta.Magnitude()
	if dist < distanceEpsilon {
		dist = distanceEpsilon
	}
	power := (50 + dist/10) * tier.PowerScale

	jitter := (rng.Float64() - 0.5) * tier.AngleJitter
	power += (rng.Float64() - 0.5) * tier.PowerJitter

	return AIPlan{
		ControlX:    x,
		Angle:       angle + jitter,
		Power:       clamp(power, pl.settings.MinShotPower, pl.settings.MaxShotPower),
		TargetID:    t.ID,
		PocketID:    pocket.ID,
		AimPoint:    t.Position,
		AngleJitter: jitter,
	}
}

func (pl *Planner) selectTarget(candidates []*Piece, lineY float64, tier AITier, rng RandomSource) *Piece {
	if tier.RandomSelection {
		return candidates[rng.Intn(len(candidates))]
	}
	best := candidates[0]
	bestScore := math.Inf(1)
	for _, p := range candidates {
		_, pd := pl.board.NearestPocket(p.Position)
		score := tier.LineWeight*math.Abs(p.Position.Y-lineY) + tier.PocketWeight*pd
		if p.Kind == KindQueen {
			score *= tier.QueenFactor
		}
		if score < bestScore {
			best, bestScore = p, score
		}
	}
	return best
}

// aimPocket returns the nearest pocket lying beyond the target as seen from
// the release line, so the strike drives the target away from the shooter.
func (pl *Planner) aimPocket(t Vec2, lineY float64) Pocket {
	var best Pocket
	bestDist := math.Inf(1)
	for _, pk := range pl.board.Pockets {
		if (pk.Position.Y-t.Y)*(lineY-t.Y) >= 0 {
			continue
		}
		if d := t.DistanceTo(pk.Position); d < bestDist {
			best, bestDist = pk, d
		}
	}
	if math.IsInf(bestDist, 1) {
		best, _ = pl.board.NearestPocket(t)
	}
	return best
}

// releaseX extends the pocket-to-target line back to the release line.
func (pl *Planner) releaseX(t, pocket Vec2, lineY float64) float64 {
	dy := pocket.Y - t.Y
	if math.Abs(dy) < distanceEpsilon {
		dy = math.Copysign(distanceEpsilon, dy)
	}
	k := (lineY - t.Y) / dy
	return t.X + (pocket.X-t.X)*k
}

func (pl *Planner) fallback(lineY float64, rng RandomSource) AIPlan {
	base := math.Pi / 2
	if lineY > pl.board.Size/2 {
		base = -math.Pi / 2
	}
	x := pl.board.ClampLineX(pl.board.Size/2 + (rng.Float64()-0.5)*200)
	angle := base + (rng.Float64()-0.5)*math.Pi/3
	power := 50 + rng.Float64()*30
	return AIPlan{
		ControlX: x,
		Angle:    angle,
		Power:    clamp(power, pl.settings.MinShotPower, pl.settings.MaxShotPower),
		PocketID: -1,
		Fallback: true,
	}
}
