package game

import "math"

const maxSubsteps = 64

// Piece is a disc in the physics world.
type Piece struct {
	ID              string    `json:"id"`
	Kind            PieceKind `json:"kind"`
	Color           Color     `json:"color,omitempty"`
	Owner           PlayerID  `json:"owner,omitempty"` // Control pieces only
	Position        Vec2      `json:"position"`
	Velocity        Vec2      `json:"velocity"`
	AngularVelocity float64   `json:"angular_velocity"`
	Radius          float64   `json:"radius"`
	Mass            float64   `json:"mass"`
	Pocketed        bool      `json:"pocketed"`
}

// IsTarget reports whether the piece counts toward collection (Regular or Queen).
func (p *Piece) IsTarget() bool {
	return p.Kind == KindRegular || p.Kind == KindQueen
}

// World owns piece kinematics. It is not safe for concurrent use; the
// session serializes access.
type World struct {
	Board  *Board
	Pieces []*Piece // fixed order; collision and capture passes follow it

	airFriction     float64
	surfaceFriction float64
	restitution     float64
	stationarySpeed float64
	stationarySpin  float64
	forceScale      float64

	ticks int
}

// NewWorld places the given pieces on the board.
func NewWorld(board *Board, s Settings, specs []PieceSpec) *World {
	w := &World{
		Board:           board,
		Pieces:          make([]*Piece, 0, len(specs)),
		airFriction:     clamp(s.AirFriction, 0, 1),
		surfaceFriction: math.Max(0, s.SurfaceFriction),
		restitution:     clamp(s.Restitution, 0, 1),
		stationarySpeed: s.StationarySpeed,
		stationarySpin:  s.StationarySpin,
		forceScale:      s.ShotForceScale,
	}
	for _, spec := range specs {
		radius, density := s.PieceRadius, s.PieceDensity
		if spec.Kind == KindControl {
			radius, density = s.ControlRadius, s.ControlDensity
		}
		w.Pieces = append(w.Pieces, &Piece{
			ID:       spec.ID,
			Kind:     spec.Kind,
			Color:    spec.Color,
			Owner:    spec.Owner,
			Position: spec.Position,
			Radius:   radius,
			Mass:     massFor(density, radius),
		})
	}
	return w
}

// Ticks returns the number of integration steps taken.
func (w *World) Ticks() int {
	return w.ticks
}

// Control returns the Control piece owned by p, or the shared one.
func (w *World) Control(p PlayerID) *Piece {
	var shared *Piece
	for _, pc := range w.Pieces {
		if pc.Kind != KindControl {
			continue
		}
		if pc.Owner == p {
			return pc
		}
		if shared == nil {
			shared = pc
		}
	}
	return shared
}

// ActiveTargets counts Regular and Queen pieces still on the board.
func (w *World) ActiveTargets() int {
	n := 0
	for _, p := range w.Pieces {
		if p.IsTarget() && !p.Pocketed {
			n++
		}
	}
	return n
}

// Stationary reports whether a piece is below both rest thresholds.
// Pocketed pieces are stationary.
func (w *World) Stationary(p *Piece) bool {
	if p.Pocketed {
		return true
	}
	return p.Velocity.Magnitude() < w.stationarySpeed &&
		math.Abs(p.AngularVelocity) < w.stationarySpin
}

// Settled reports whether every piece is stationary.
func (w *World) Settled() bool {
	for _, p := range w.Pieces {
		if !w.Stationary(p) {
			return false
		}
	}
	return true
}

// KineticEnergy returns the sum of ½·m·|v|² over pieces on the board.
func (w *World) KineticEnergy() float64 {
	e := 0.0
	for _, p := range w.Pieces {
		if p.Pocketed {
			continue
		}
		e += 0.5 * p.Mass * p.Velocity.MagnitudeSquared()
	}
	return e
}

// Halt zeroes all residual motion.
func (w *World) Halt() {
	for _, p := range w.Pieces {
		p.Velocity = Vec2{}
		p.AngularVelocity = 0
	}
}

// Place moves a piece to pos at rest.
func (w *World) Place(p *Piece, pos Vec2) {
	p.Position = pos
	p.Velocity = Vec2{}
	p.AngularVelocity = 0
}

// Overlaps reports whether a disc of p's radius at pos would intersect any
// other piece on the board.
func (w *World) Overlaps(p *Piece, pos Vec2) bool {
	for _, o := range w.Pieces {
		if o == p || o.Pocketed {
			continue
		}
		if pos.DistanceTo(o.Position) < p.Radius+o.Radius {
			return true
		}
	}
	return false
}

// ApplyShot injects the strike impulse on the Control piece. The impulse
// magnitude is linear in power.
func (w *World) ApplyShot(control *Piece, angle, power float64) {
	impulse := power * w.forceScale
	control.Velocity = control.Velocity.Plus(FromAngle(angle, impulse/control.Mass))
}

// Step advances the world by one tick and returns the pieces whose centers
// entered a pocket during it, in detection order. Captured pieces are marked
// Pocketed and stopped; the caller decides whether the capture is permanent.
func (w *World) Step() []*Piece {
	var captured []*Piece

	n := w.substeps()
	inv := 1.0 / float64(n)
	for s := 0; s < n; s++ {
		for _, p := range w.Pieces {
			if p.Pocketed {
				continue
			}
			p.Position = p.Position.Plus(p.Velocity.Times(inv))
		}
		w.resolveWalls()
		w.resolvePairs()
		w.resolveWalls()

		for _, p := range w.Pieces {
			if p.Pocketed {
				continue
			}
			if _, ok := w.Board.Captured(p.Position); ok {
				p.Pocketed = true
				p.Velocity = Vec2{}
				p.AngularVelocity = 0
				captured = append(captured, p)
			}
		}
	}

	w.applyFriction()
	w.ticks++
	return captured
}

// substeps splits a tick so no disc moves more than half the smallest radius
// per substep.
func (w *World) substeps() int {
	maxSpeed := 0.0
	minRadius := math.Inf(1)
	for _, p := range w.Pieces {
		if p.Pocketed {
			continue
		}
		if s := p.Velocity.Magnitude(); s > maxSpeed {
			maxSpeed = s
		}
		if p.Radius < minRadius {
			minRadius = p.Radius
		}
	}
	if maxSpeed == 0 || math.IsInf(minRadius, 1) {
		return 1
	}
	n := int(math.Ceil(maxSpeed / (minRadius / 2)))
	if n < 1 {
		n = 1
	}
	if n > maxSubsteps {
		n = maxSubsteps
	}
	return n
}

// resolveWalls treats each wall as an infinite-mass body.
func (w *World) resolveWalls() {
	lo, hi := w.Board.Min, w.Board.Max
	e := w.restitution
	for _, p := range w.Pieces {
		if p.Pocketed {
			continue
		}
		r := p.Radius
		if p.Position.X-r < lo {
			p.Position.X = lo + r
			if p.Velocity.X < 0 {
				p.Velocity.X = -e * p.Velocity.X
			}
		} else if p.Position.X+r > hi {
			p.Position.X = hi - r
			if p.Velocity.X > 0 {
				p.Velocity.X = -e * p.Velocity.X
			}
		}
		if p.Position.Y-r < lo {
			p.Position.Y = lo + r
			if p.Velocity.Y < 0 {
				p.Velocity.Y = -e * p.Velocity.Y
			}
		} else if p.Position.Y+r > hi {
			p.Position.Y = hi - r
			if p.Velocity.Y > 0 {
				p.Velocity.Y = -e * p.Velocity.Y
			}
		}
	}
}

func (w *World) resolvePairs() {
	for i := 0; i < len(w.Pieces); i++ {
		a := w.Pieces[i]
		if a.Pocketed {
			continue
		}
		for j := i + 1; j < len(w.Pieces); j++ {
			b := w.Pieces[j]
			if b.Pocketed {
				continue
			}
			w.resolvePair(a, b)
		}
	}
}

// resolvePair separates two overlapping discs and applies the restitution
// impulse along the contact normal. Spin is never imparted.
func (w *World) resolvePair(a, b *Piece) {
	delta := b.Position.Minus(a.Position)
	minDist := a.Radius + b.Radius
	distSq := delta.MagnitudeSquared()
	if distSq >= minDist*minDist {
		return
	}

	dist := math.Sqrt(distSq)
	n := NewVec2(1, 0)
	if dist > distanceEpsilon {
		n = delta.Times(1 / dist)
	}

	invA, invB := 1/a.Mass, 1/b.Mass
	invSum := invA + invB

	corr := (minDist - dist) / invSum
	a.Position = a.Position.Minus(n.Times(corr * invA))
	b.Position = b.Position.Plus(n.Times(corr * invB))

	rel := b.Velocity.Minus(a.Velocity).Dot(n)
	if rel >= 0 {
		return
	}
	j := -(1 + w.restitution) * rel / invSum
	a.Velocity = a.Velocity.Minus(n.Times(j * invA))
	b.Velocity = b.Velocity.Plus(n.Times(j * invB))
}

// applyFriction applies linear drag followed by constant surface friction.
// Motion that drops under the rest thresholds is stopped outright, so a
// settled world carries no energy.
func (w *World) applyFriction() {
	keep := 1 - w.airFriction
	for _, p := range w.Pieces {
		if p.Pocketed {
			continue
		}
		v := p.Velocity.Times(keep)
		speed := v.Magnitude() - w.surfaceFriction
		if speed < w.stationarySpeed {
			p.Velocity = Vec2{}
		} else {
			p.Velocity = v.Normalize().Times(speed)
		}
		p.AngularVelocity *= keep
		if math.Abs(p.AngularVelocity) < w.stationarySpin {
			p.AngularVelocity = 0
		}
	}
}
