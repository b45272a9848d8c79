package game

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// SeatConfig describes who sits in a seat.
type SeatConfig struct {
	Name       string     `json:"name"`
	Controller Controller `json:"controller"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// SessionConfig is everything needed to build (or rebuild) a session.
type SessionConfig struct {
	ID       string
	Settings Settings
	Player1  SeatConfig
	Player2  SeatConfig
	Seed     int64
	Layout   []PieceSpec // nil means the standard formation
	AutoAI   bool        // schedule AI shots on every Positioning entry for AI seats
}

// Aim is the live aim state.
type Aim struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

// CommandResult reports whether a command changed state.
type CommandResult struct {
	Accepted bool    `json:"accepted"`
	Reason   string  `json:"reason,omitempty"`
	Events   []Event `json:"events,omitempty"`
	Plan     *AIPlan `json:"plan,omitempty"`
}

func rejected(err error) CommandResult {
	return CommandResult{Reason: err.Error()}
}

// aiTask is a scheduled AI shot bound to the turn generation it was planned for.
type aiTask struct {
	generation int
	due        int
	plan       AIPlan
}

// Session is the facade over the physics world, resolver, turn engine and
// AI planner. All methods are safe for concurrent use; state changes are
// serialized and events are delivered to listeners outside the lock.
type Session struct {
	mu sync.Mutex

	cfg      SessionConfig
	settings Settings
	board    *Board
	world    *World
	resolver *ShotResolver
	engine   *TurnEngine
	planner  *Planner
	rng      *rand.Rand

	aim     Aim
	pending *aiTask
	clock   int
	targets int

	ticking   atomic.Bool
	listeners []Listener

	createdAt    time.Time
	lastActivity time.Time
}

// NewSession builds a fresh session from cfg.
func NewSession(cfg SessionConfig) *Session {
	s := cfg.Settings
	if s.BoardSize <= 0 {
		s = DefaultSettings()
		cfg.Settings = s
	}
	board := NewBoard(s)

	specs := cfg.Layout
	if specs == nil {
		specs = StandardFormation(s)
	}
	specs = withControls(board, s.ControlMode, specs)

	world := NewWorld(board, s, specs)

	p1 := &Player{Name: seatName(cfg.Player1.Name, "Player 1"), Controller: seatController(cfg.Player1), Difficulty: ParseDifficulty(string(cfg.Player1.Difficulty))}
	p2 := &Player{Name: seatName(cfg.Player2.Name, "Player 2"), Controller: seatController(cfg.Player2), Difficulty: ParseDifficulty(string(cfg.Player2.Difficulty))}

	targets := world.ActiveTargets()
	now := time.Now()
	sess := &Session{
		cfg:          cfg,
		settings:     s,
		board:        board,
		world:        world,
		resolver:     NewShotResolver(board, s),
		engine:       NewTurnEngine(p1, p2, s, targets),
		planner:      NewPlanner(board, s),
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		targets:      targets,
		createdAt:    now,
		lastActivity: now,
	}
	sess.startTurn()
	log.Printf("[SESSION] Created %s: %s (%s) vs %s (%s), mode=%s, pieces=%d",
		cfg.ID, p1.Name, p1.Controller, p2.Name, p2.Controller, s.ControlMode, targets)
	return sess
}

func seatName(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

func seatController(c SeatConfig) Controller {
	if c.Controller == ControllerAI {
		return ControllerAI
	}
	return ControllerHuman
}

// withControls appends the Control pieces the mode needs when the layout has none.
func withControls(board *Board, mode ControlMode, specs []PieceSpec) []PieceSpec {
	for _, sp := range specs {
		if sp.Kind == KindControl {
			return specs
		}
	}
	out := make([]PieceSpec, 0, len(specs)+2)
	out = append(out, specs...)
	center := board.Size / 2
	if mode == ControlPerPlayer {
		out = append(out,
			PieceSpec{ID: "control-player1", Kind: KindControl, Owner: Player1, Position: board.ReleasePoint(Player1, center)},
			PieceSpec{ID: "control-player2", Kind: KindControl, Owner: Player2, Position: board.ReleasePoint(Player2, center)},
		)
		return out
	}
	return append(out, PieceSpec{ID: "control", Kind: KindControl, Position: board.ReleasePoint(Player1, center)})
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.cfg.ID
}

// Config returns the configuration the session was built from.
func (s *Session) Config() SessionConfig {
	return s.cfg
}

// Board returns the static geometry. Boards are never mutated.
func (s *Session) Board() *Board {
	return s.board
}

// Subscribe registers a listener for every event the session emits.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// LastActivity returns the time of the last accepted command.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Terminal reports whether the game has ended.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Terminal()
}

// CurrentPlayer returns the seat whose turn it is.
func (s *Session) CurrentPlayer() PlayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Turn().Player
}

func (s *Session) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, ev := range events {
		for _, l := range ls {
			l(ev)
		}
	}
}

// command runs fn under the lock and delivers its events afterwards.
func (s *Session) command(fn func() (CommandResult, error)) CommandResult {
	s.mu.Lock()
	res, err := fn()
	if err != nil {
		s.mu.Unlock()
		return rejected(err)
	}
	res.Accepted = true
	s.lastActivity = time.Now()
	s.mu.Unlock()
	s.dispatch(res.Events)
	return res
}

// startTurn puts the mover's Control piece on its release line, resets the
// aim and schedules an AI shot when the mover is AI-controlled.
func (s *Session) startTurn() {
	if s.engine.Terminal() {
		return
	}
	mover := s.engine.Mover()
	control := s.world.Control(mover.ID)
	if control != nil {
		s.world.Place(control, NewVec2(s.freeLineX(control, mover.ID, s.board.Size/2), s.board.ReleaseLineY(mover.ID)))
	}
	s.aim = Aim{Angle: s.towardBoard(mover.ID)}
	s.pending = nil
	if s.cfg.AutoAI && mover.IsAI() {
		s.schedule(mover.Difficulty)
	}
}

// towardBoard is the default aim for a player: straight across the board.
func (s *Session) towardBoard(p PlayerID) float64 {
	if s.board.ReleaseLineY(p) > s.board.Size/2 {
		return -math.Pi / 2
	}
	return math.Pi / 2
}

// freeLineX searches outward from x for a release-line spot where the control
// piece does not overlap anything.
func (s *Session) freeLineX(control *Piece, p PlayerID, x float64) float64 {
	y := s.board.ReleaseLineY(p)
	x = s.board.ClampLineX(x)
	span := s.board.LineMaxX - s.board.LineMinX
	for d := 0.0; d <= span; d++ {
		for _, cand := range []float64{x + d, x - d} {
			if cand < s.board.LineMinX || cand > s.board.LineMaxX {
				continue
			}
			if !s.world.Overlaps(control, NewVec2(cand, y)) {
				return cand
			}
		}
	}
	return x
}

// PositionControl slides the mover's Control piece along the release line.
func (s *Session) PositionControl(x float64) CommandResult {
	return s.command(func() (CommandResult, error) {
		return CommandResult{}, s.positionControl(x)
	})
}

func (s *Session) positionControl(x float64) error {
	if err := s.engine.require(PhasePositioning); err != nil {
		return err
	}
	mover := s.engine.Mover().ID
	control := s.world.Control(mover)
	pos := s.board.ReleasePoint(mover, x)
	if s.world.Overlaps(control, pos) {
		return ErrOverlap
	}
	s.world.Place(control, pos)
	s.pending = nil
	return nil
}

// BeginAim handles a drag start. Inside the release-line band it repositions
// the Control piece; outside it enters Aiming with the pointer as aim target.
// A new drag while already aiming restarts the aim.
func (s *Session) BeginAim(pointer Vec2) CommandResult {
	return s.command(func() (CommandResult, error) {
		return CommandResult{}, s.beginAim(pointer)
	})
}

func (s *Session) beginAim(pointer Vec2) error {
	if !finite(pointer) {
		return ErrInvalidPointer
	}
	if err := s.engine.require(PhasePositioning, PhaseAiming); err != nil {
		return err
	}
	mover := s.engine.Mover().ID
	if s.board.InReleaseBand(mover, pointer) {
		return s.positionControl(pointer.X)
	}
	if err := s.engine.BeginAim(); err != nil {
		return err
	}
	s.pending = nil
	s.aimAt(pointer)
	return nil
}

// UpdateAim recomputes angle and power from the pointer while aiming.
func (s *Session) UpdateAim(pointer Vec2) CommandResult {
	return s.command(func() (CommandResult, error) {
		return CommandResult{}, s.updateAim(pointer)
	})
}

func (s *Session) updateAim(pointer Vec2) error {
	if !finite(pointer) {
		return ErrInvalidPointer
	}
	if err := s.engine.require(PhaseAiming); err != nil {
		return err
	}
	s.aimAt(pointer)
	return nil
}

// SetAim sets angle and power directly, entering Aiming if needed.
func (s *Session) SetAim(angle, power float64) CommandResult {
	return s.command(func() (CommandResult, error) {
		return CommandResult{}, s.setAim(angle, power)
	})
}

func (s *Session) setAim(angle, power float64) error {
	if math.IsNaN(angle) || math.IsInf(angle, 0) || math.IsNaN(power) {
		return ErrInvalidPointer
	}
	if err := s.engine.BeginAim(); err != nil {
		return err
	}
	s.pending = nil
	s.aim = Aim{Angle: angle, Power: clamp(power, 0, s.settings.MaxShotPower)}
	return nil
}

// CancelAim abandons the current aim and returns to Positioning.
func (s *Session) CancelAim() CommandResult {
	return s.command(func() (CommandResult, error) {
		return CommandResult{}, s.cancelAim()
	})
}

func (s *Session) cancelAim() error {
	if err := s.engine.CancelAim(); err != nil {
		return err
	}
	s.aim.Power = 0
	return nil
}

// aimAt derives the aim from the Control piece toward the pointer. A
// zero-length vector keeps the previous angle with zero power.
func (s *Session) aimAt(pointer Vec2) {
	control := s.world.Control(s.engine.Mover().ID)
	v := pointer.Minus(control.Position)
	dist := v.Magnitude()
	if dist < distanceEpsilon {
		s.aim.Power = 0
		return
	}
	s.aim = Aim{
		Angle: v.Angle(),
		Power: math.Min(dist*s.settings.AimPowerPerUnit, s.settings.MaxShotPower),
	}
}

// ReleaseShot strikes the Control piece with the current aim. Power at or
// below the threshold is rejected and leaves the aim untouched.
func (s *Session) ReleaseShot() CommandResult {
	return s.command(s.releaseShot)
}

func (s *Session) releaseShot() (CommandResult, error) {
	if err := s.engine.require(PhaseAiming); err != nil {
		return CommandResult{}, err
	}
	if s.aim.Power <= s.settings.ShotPowerThreshold {
		return CommandResult{}, ErrPowerTooLow
	}
	ev := s.release(false)
	return CommandResult{Events: []Event{ev}}, nil
}

// release fires the current aim. Caller holds the lock and has checked the phase.
func (s *Session) release(byAI bool) Event {
	mover := s.engine.Mover()
	control := s.world.Control(mover.ID)
	power := clamp(s.aim.Power, s.settings.MinShotPower, s.settings.MaxShotPower)
	s.aim.Power = power

	_ = s.engine.Release()
	s.world.ApplyShot(control, s.aim.Angle, power)
	s.pending = nil

	return Event{
		Type:   EventShotTaken,
		Player: mover.ID,
		Shot: &ShotInfo{
			ControlX: round4(control.Position.X),
			Angle:    round4(s.aim.Angle),
			Power:    round4(power),
			ByAI:     byAI,
		},
		Generation: s.engine.Turn().Generation,
	}
}

// RequestAIMove plans a shot for the AI mover and schedules it after the
// think delay. The plan is dropped if the turn changes first.
func (s *Session) RequestAIMove(d Difficulty) CommandResult {
	return s.command(func() (CommandResult, error) {
		return s.requestAIMove(d)
	})
}

func (s *Session) requestAIMove(d Difficulty) (CommandResult, error) {
	if err := s.engine.require(PhasePositioning); err != nil {
		return CommandResult{}, err
	}
	mover := s.engine.Mover()
	if !mover.IsAI() {
		return CommandResult{}, ErrNotAIPlayer
	}
	if d == "" {
		d = mover.Difficulty
	}
	plan := s.schedule(ParseDifficulty(string(d)))
	return CommandResult{Plan: &plan}, nil
}

// CancelAIMove drops a scheduled AI shot.
func (s *Session) CancelAIMove() CommandResult {
	return s.command(s.cancelAIMove)
}

func (s *Session) cancelAIMove() (CommandResult, error) {
	if s.pending == nil {
		return CommandResult{}, ErrInvalidPhase
	}
	s.pending = nil
	return CommandResult{}, nil
}

// Apply runs a client command on behalf of seat. Commands that move or aim
// the Control piece are rejected unless seat is the player to move; the
// check and the command share one critical section.
func (s *Session) Apply(seat PlayerID, cmd Command) (CommandResult, error) {
	var fn func() (CommandResult, error)
	moverOnly := true
	switch cmd.Type {
	case "position_control":
		fn = func() (CommandResult, error) { return CommandResult{}, s.positionControl(cmd.X) }
	case "begin_aim":
		fn = func() (CommandResult, error) { return CommandResult{}, s.beginAim(NewVec2(cmd.X, cmd.Y)) }
	case "update_aim":
		fn = func() (CommandResult, error) { return CommandResult{}, s.updateAim(NewVec2(cmd.X, cmd.Y)) }
	case "set_aim":
		fn = func() (CommandResult, error) { return CommandResult{}, s.setAim(cmd.Angle, cmd.Power) }
	case "cancel_aim":
		fn = func() (CommandResult, error) { return CommandResult{}, s.cancelAim() }
	case "release_shot":
		fn = s.releaseShot
	case "request_ai_move":
		moverOnly = false
		fn = func() (CommandResult, error) { return s.requestAIMove(cmd.Difficulty) }
	case "cancel_ai_move":
		moverOnly = false
		fn = s.cancelAIMove
	default:
		return CommandResult{}, ErrUnknownCommand
	}

	return s.command(func() (CommandResult, error) {
		if moverOnly && s.engine.Turn().Player != seat {
			return CommandResult{}, ErrNotYourTurn
		}
		return fn()
	}), nil
}

func (s *Session) schedule(d Difficulty) AIPlan {
	mover := s.engine.Mover()
	plan := s.planner.Plan(s.world.Pieces, mover.Color, mover.ID, d, s.rng)
	s.pending = &aiTask{
		generation: s.engine.Turn().Generation,
		due:        s.clock + s.settings.AIThinkTicks,
		plan:       plan,
	}
	return plan
}

// Tick advances the session by one step. It returns whether the world is at
// rest and the events produced. A tick that arrives while another is still
// in flight is dropped.
func (s *Session) Tick() (bool, []Event) {
	settled, events, err := s.tick()
	if err != nil {
		return false, nil
	}
	return settled, events
}

func (s *Session) tick() (bool, []Event, error) {
	if !s.ticking.CompareAndSwap(false, true) {
		return false, nil, ErrTickInFlight
	}
	defer s.ticking.Store(false)

	s.mu.Lock()
	s.clock++
	var events []Event
	switch {
	case s.engine.Terminal():
	case s.engine.Phase() == PhaseInMotion:
		events = s.stepMotion()
	case s.engine.Phase() == PhasePositioning:
		if ev, ok := s.firePending(); ok {
			events = append(events, ev)
		}
	default:
		s.pending = nil
	}
	settled := s.engine.Phase() != PhaseInMotion
	s.mu.Unlock()

	s.dispatch(events)
	return settled, events, nil
}

// stepMotion integrates one world step, folds captures in detection order and
// resolves the shot once everything is at rest.
func (s *Session) stepMotion() []Event {
	var events []Event
	mover := s.engine.Mover()
	captured := s.world.Step()
	for _, sc := range s.resolver.Resolve(s.world, mover, captured) {
		events = append(events, s.engine.Apply(sc)...)
		if s.engine.Terminal() {
			s.restoreUnapplied(captured, sc.PieceID)
			break
		}
	}

	if s.engine.Terminal() {
		s.world.Halt()
		s.engine.stop()
		out := s.engine.Outcome()
		log.Printf("[CARROM] Session %s over: %d-%d winner=%q tie=%v",
			s.cfg.ID, out.Player1Score, out.Player2Score, out.Winner, out.Tie)
		return events
	}

	if !s.world.Settled() {
		return events
	}

	_ = s.engine.Settle()
	verdict := s.resolver.Evaluate(s.engine.Turn())
	s.world.Halt()
	events = append(events, s.engine.Finish(verdict)...)
	log.Printf("[CARROM] Session %s shot resolved: %s continues=%v, now %s to move",
		s.cfg.ID, mover.ID, verdict.Continue, s.engine.Turn().Player)
	s.startTurn()
	return events
}

// restoreUnapplied returns captures detected after the game-ending one to
// the board: their score was never applied, so they remain in play.
func (s *Session) restoreUnapplied(captured []*Piece, lastApplied string) {
	after := false
	for _, p := range captured {
		if after {
			p.Pocketed = false
		}
		if p.ID == lastApplied {
			after = true
		}
	}
}

// firePending executes a due AI plan if it still belongs to the current turn.
func (s *Session) firePending() (Event, bool) {
	task := s.pending
	if task == nil {
		return Event{}, false
	}
	if task.generation != s.engine.Turn().Generation {
		s.pending = nil
		return Event{}, false
	}
	if s.clock < task.due {
		return Event{}, false
	}

	mover := s.engine.Mover()
	control := s.world.Control(mover.ID)
	x := s.freeLineX(control, mover.ID, task.plan.ControlX)
	from := s.board.ReleasePoint(mover.ID, x)
	s.world.Place(control, from)
	if err := s.engine.BeginAim(); err != nil {
		s.pending = nil
		return Event{}, false
	}
	angle := task.plan.Angle
	if x != task.plan.ControlX {
		angle = task.plan.AngleFrom(from)
	}
	s.aim = Aim{Angle: angle, Power: task.plan.Power}
	log.Printf("[AI] Session %s: %s shoots x=%.1f angle=%.3f power=%.1f target=%q",
		s.cfg.ID, mover.ID, x, angle, task.plan.Power, task.plan.TargetID)
	return s.release(true), true
}

func finite(v Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
