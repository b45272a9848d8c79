package game

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel carrying session events.
const EventsChannel = "game_events"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrUnknownCommand  = errors.New("unknown command")
)

// SessionMode is how a session was opened.
type SessionMode string

const (
	ModeSingle      SessionMode = "single"      // player 2 is the AI
	ModeMultiplayer SessionMode = "multiplayer" // hot-seat, two humans
	ModeSimulation  SessionMode = "simulation"  // AI against AI
)

// ParseMode maps a string to a mode, defaulting to single player.
func ParseMode(s string) SessionMode {
	switch SessionMode(s) {
	case ModeMultiplayer, ModeSimulation:
		return SessionMode(s)
	}
	return ModeSingle
}

// GameResult is handed to the recorder when a session ends.
type GameResult struct {
	SessionID  string      `json:"session_id"`
	Mode       SessionMode `json:"mode"`
	Player1    PlayerState `json:"player1"`
	Player2    PlayerState `json:"player2"`
	Outcome    Outcome     `json:"outcome"`
	Shots      int         `json:"shots"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// CaptureRecord is one capture produced by a shot.
type CaptureRecord struct {
	PieceID string      `json:"piece_id"`
	Reason  ScoreReason `json:"reason"`
	Delta   int         `json:"delta"`
}

// ShotRecord is a resolved shot handed to the recorder.
type ShotRecord struct {
	SessionID  string          `json:"session_id"`
	ShotNumber int             `json:"shot_number"`
	Player     PlayerID        `json:"player"`
	PlayerName string          `json:"player_name"`
	Shot       ShotInfo        `json:"shot"`
	Captures   []CaptureRecord `json:"captures"`
	Continued  bool            `json:"continued"`
}

// ResultRecorder persists finished games and shots. Failures are logged by
// the manager and never block play.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r GameResult) error
	RecordShot(ctx context.Context, r ShotRecord) error
}

// Broadcaster pushes live state to connected clients.
type Broadcaster interface {
	BroadcastSnapshot(sessionID string, snap Snapshot)
	BroadcastEvent(sessionID string, ev Event)
	BroadcastExpired(sessionID, message string)
}

// CreateOptions describes a new session.
type CreateOptions struct {
	Mode        SessionMode `json:"mode"`
	Player1Name string      `json:"player1_name"`
	Player2Name string      `json:"player2_name"`
	Difficulty  Difficulty  `json:"difficulty"`
	Difficulty2 Difficulty  `json:"difficulty2"`
	Seed        int64       `json:"seed"`
	Layout      []PieceSpec `json:"-"`
}

// Command is a client command addressed to a session.
type Command struct {
	Type       string     `json:"type"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Angle      float64    `json:"angle"`
	Power      float64    `json:"power"`
	Difficulty Difficulty `json:"difficulty"`
}

// SessionSummary is a registry listing entry.
type SessionSummary struct {
	SessionID    string        `json:"session_id"`
	Mode         SessionMode   `json:"mode"`
	Status       SessionStatus `json:"status"`
	Phase        Phase         `json:"phase"`
	CurrentTurn  PlayerID      `json:"current_turn"`
	Player1      PlayerState   `json:"player1"`
	Player2      PlayerState   `json:"player2"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
}

// managedSession is a registry entry: a session plus its runner.
type managedSession struct {
	session *Session
	mode    SessionMode
	cancel  context.CancelFunc
	done    chan struct{}

	mu         sync.Mutex
	shot       *ShotRecord
	shotNumber int
}

// GameManager manages all active sessions and their tick runners.
type GameManager struct {
	sessions    map[string]*managedSession
	rdb         *redis.Client
	recorder    ResultRecorder
	broadcaster Broadcaster
	config      *config.Config
	settings    Settings
	mu          sync.RWMutex
}

var (
	// Global game manager instance
	Manager *GameManager
)

// InitializeManager initializes the global game manager with Redis, recorder and config
func InitializeManager(rdb *redis.Client, recorder ResultRecorder, cfg *config.Config) {
	Manager = NewGameManager(rdb, recorder, cfg)
}

// NewGameManager creates a new game manager. rdb and recorder may be nil.
func NewGameManager(rdb *redis.Client, recorder ResultRecorder, cfg *config.Config) *GameManager {
	if cfg == nil {
		cfg = config.Load()
	}
	return &GameManager{
		sessions: make(map[string]*managedSession),
		rdb:      rdb,
		recorder: recorder,
		config:   cfg,
		settings: SettingsFromConfig(cfg),
	}
}

// SetBroadcaster attaches the realtime feed.
func (gm *GameManager) SetBroadcaster(b Broadcaster) {
	gm.mu.Lock()
	gm.broadcaster = b
	gm.mu.Unlock()
}

// Settings returns the settings new sessions are built with.
func (gm *GameManager) Settings() Settings {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.settings
}

// ReloadSettings rebuilds the settings from the config after runtime
// overrides change. Running sessions keep the settings they started with.
func (gm *GameManager) ReloadSettings() {
	s := SettingsFromConfig(gm.config)
	gm.mu.Lock()
	gm.settings = s
	gm.mu.Unlock()
}

// generateSessionID generates a unique session ID
func generateSessionID() string {
	return "carrom_" + uuid.NewString()
}

// sessionConfig turns create options into a session configuration.
func (gm *GameManager) sessionConfig(id string, opts CreateOptions) SessionConfig {
	mode := ParseMode(string(opts.Mode))
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	defDiff := Difficulty(gm.config.DefaultAIDifficulty)
	if opts.Difficulty == "" {
		opts.Difficulty = defDiff
	}
	if opts.Difficulty2 == "" {
		opts.Difficulty2 = opts.Difficulty
	}

	cfg := SessionConfig{
		ID:       id,
		Settings: gm.Settings(),
		Player1:  SeatConfig{Name: opts.Player1Name, Controller: ControllerHuman},
		Player2:  SeatConfig{Name: opts.Player2Name, Controller: ControllerHuman},
		Seed:     seed,
		Layout:   opts.Layout,
		AutoAI:   true,
	}
	switch mode {
	case ModeSingle:
		if cfg.Player2.Name == "" {
			cfg.Player2.Name = "Computer"
		}
		cfg.Player2.Controller = ControllerAI
		cfg.Player2.Difficulty = ParseDifficulty(string(opts.Difficulty))
	case ModeSimulation:
		cfg.Player1 = SeatConfig{Name: seatName(opts.Player1Name, "AI 1"), Controller: ControllerAI, Difficulty: ParseDifficulty(string(opts.Difficulty))}
		cfg.Player2 = SeatConfig{Name: seatName(opts.Player2Name, "AI 2"), Controller: ControllerAI, Difficulty: ParseDifficulty(string(opts.Difficulty2))}
	}
	return cfg
}

// CreateSession builds a session, registers it and starts its runner.
func (gm *GameManager) CreateSession(opts CreateOptions) (*Session, error) {
	id := generateSessionID()
	mode := ParseMode(string(opts.Mode))
	sess := NewSession(gm.sessionConfig(id, opts))

	gm.mu.Lock()
	ms := gm.register(sess, mode)
	gm.mu.Unlock()

	gm.Touch(id)
	gm.cacheSnapshot(ms)
	log.Printf("[SESSION] Registered %s (mode=%s)", id, mode)
	return sess, nil
}

// register wires listeners and starts the runner. Caller holds gm.mu.
func (gm *GameManager) register(sess *Session, mode SessionMode) *managedSession {
	ctx, cancel := context.WithCancel(context.Background())
	ms := &managedSession{
		session: sess,
		mode:    mode,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	sess.Subscribe(func(ev Event) { gm.handleEvent(ms, ev) })
	gm.sessions[sess.ID()] = ms
	go gm.run(ctx, ms)
	return ms
}

// GetSession returns a registered session.
func (gm *GameManager) GetSession(id string) (*Session, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	ms, ok := gm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms.session, nil
}

// Mode returns how a session was opened.
func (gm *GameManager) Mode(id string) (SessionMode, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	ms, ok := gm.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return ms.mode, nil
}

// ListSessions returns all registered sessions, newest first.
func (gm *GameManager) ListSessions() []SessionSummary {
	gm.mu.RLock()
	entries := make([]*managedSession, 0, len(gm.sessions))
	for _, ms := range gm.sessions {
		entries = append(entries, ms)
	}
	gm.mu.RUnlock()

	out := make([]SessionSummary, 0, len(entries))
	for _, ms := range entries {
		snap := ms.session.Snapshot()
		out = append(out, SessionSummary{
			SessionID:    snap.SessionID,
			Mode:         ms.mode,
			Status:       snap.Status,
			Phase:        snap.Phase,
			CurrentTurn:  snap.CurrentTurn,
			Player1:      snap.Player1,
			Player2:      snap.Player2,
			CreatedAt:    snap.CreatedAt,
			LastActivity: ms.session.LastActivity(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// GetActiveSessionCount returns the number of registered sessions.
func (gm *GameManager) GetActiveSessionCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.sessions)
}

// ResetSession discards a session's state and starts over with the same
// players, settings and mode under the same ID.
func (gm *GameManager) ResetSession(id string) (*Session, error) {
	gm.mu.Lock()
	old, ok := gm.sessions[id]
	if !ok {
		gm.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	old.cancel()
	sess := NewSession(old.session.Config())
	ms := gm.register(sess, old.mode)
	gm.mu.Unlock()

	<-old.done
	gm.Touch(id)
	gm.cacheSnapshot(ms)
	gm.broadcastSnapshot(id, sess.Snapshot())
	log.Printf("[SESSION] Reset %s", id)
	return sess, nil
}

// RemoveSession stops a session's runner and drops it from the registry.
func (gm *GameManager) RemoveSession(id string) error {
	gm.mu.Lock()
	ms, ok := gm.sessions[id]
	if ok {
		delete(gm.sessions, id)
	}
	gm.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	ms.cancel()
	<-ms.done
	gm.forgetActivity(id)
	log.Printf("[SESSION] Removed %s", id)
	return nil
}

// Shutdown stops every runner.
func (gm *GameManager) Shutdown() {
	gm.mu.Lock()
	entries := make([]*managedSession, 0, len(gm.sessions))
	for _, ms := range gm.sessions {
		entries = append(entries, ms)
	}
	gm.mu.Unlock()
	for _, ms := range entries {
		ms.cancel()
		<-ms.done
	}
}

// Command applies a client command on behalf of seat. Mutating commands
// are only accepted from the player to move.
func (gm *GameManager) Command(id string, seat PlayerID, cmd Command) (CommandResult, error) {
	sess, err := gm.GetSession(id)
	if err != nil {
		return CommandResult{}, err
	}

	res, err := sess.Apply(seat, cmd)
	if err != nil {
		return CommandResult{}, err
	}

	if res.Accepted {
		gm.Touch(id)
		gm.broadcastSnapshot(id, sess.Snapshot())
	}
	return res, nil
}

// run drives a session at the configured tick rate until cancelled. It
// stops on its own once the game is over and the final state is out.
func (gm *GameManager) run(ctx context.Context, ms *managedSession) {
	defer close(ms.done)
	ticker := time.NewTicker(gm.config.TickInterval())
	defer ticker.Stop()

	id := ms.session.ID()
	moving := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			settled, events := ms.session.Tick()
			if !settled || len(events) > 0 || moving {
				gm.broadcastSnapshot(id, ms.session.Snapshot())
			}
			if settled && moving {
				gm.Touch(id)
				gm.cacheSnapshot(ms)
			}
			moving = !settled
			if ms.session.Terminal() {
				gm.cacheSnapshot(ms)
				log.Printf("[SESSION] Runner for %s finished", id)
				return
			}
		}
	}
}

// handleEvent fans a session event out to Redis, the realtime feed and the
// recorder. It runs outside the session lock.
func (gm *GameManager) handleEvent(ms *managedSession, ev Event) {
	id := ms.session.ID()
	gm.publishEvent(id, ev)

	switch ev.Type {
	case EventShotTaken:
		ms.mu.Lock()
		ms.shotNumber++
		rec := &ShotRecord{
			SessionID:  id,
			ShotNumber: ms.shotNumber,
			Player:     ev.Player,
		}
		if ev.Shot != nil {
			rec.Shot = *ev.Shot
		}
		ms.shot = rec
		ms.mu.Unlock()

	case EventScoreChanged:
		ms.mu.Lock()
		if ms.shot != nil {
			ms.shot.Captures = append(ms.shot.Captures, CaptureRecord{PieceID: ev.PieceID, Reason: ev.Reason, Delta: ev.Delta})
		}
		ms.mu.Unlock()

	case EventTurnChanged:
		gm.flushShot(ms, ev.Player)

	case EventGameOver:
		shots := gm.flushShot(ms, "")
		snap := ms.session.Snapshot()
		if ev.Outcome == nil {
			return
		}
		result := GameResult{
			SessionID:  id,
			Mode:       ms.mode,
			Player1:    snap.Player1,
			Player2:    snap.Player2,
			Outcome:    *ev.Outcome,
			Shots:      shots,
			StartedAt:  snap.CreatedAt,
			FinishedAt: time.Now(),
		}
		if gm.recorder != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := gm.recorder.RecordResult(ctx, result); err != nil {
					log.Printf("[DB] Failed to record result for %s: %v", id, err)
				}
			}()
		}
	}
}

// flushShot hands the shot in progress to the recorder. next is the player
// to move afterwards, or empty when the game ended. It returns the number of
// shots taken so far.
func (gm *GameManager) flushShot(ms *managedSession, next PlayerID) int {
	ms.mu.Lock()
	rec := ms.shot
	ms.shot = nil
	n := ms.shotNumber
	ms.mu.Unlock()
	if rec == nil {
		return n
	}
	rec.Continued = next == rec.Player
	snap := ms.session.Snapshot()
	rec.PlayerName = snap.Player(rec.Player).Name
	if rec.Captures == nil {
		rec.Captures = []CaptureRecord{}
	}

	if gm.recorder != nil {
		go func(r ShotRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := gm.recorder.RecordShot(ctx, r); err != nil {
				log.Printf("[DB] Failed to record shot %d for %s: %v", r.ShotNumber, r.SessionID, err)
			}
		}(*rec)
	}
	return n
}

// EventEnvelope is the payload published on the events channel.
type EventEnvelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Event     *Event `json:"event,omitempty"`
	Message   string `json:"message,omitempty"`
}

// publishEvent sends an event to Redis subscribers, or straight to the
// realtime feed when Redis is not configured.
func (gm *GameManager) publishEvent(id string, ev Event) {
	if gm.rdb == nil {
		gm.mu.RLock()
		b := gm.broadcaster
		gm.mu.RUnlock()
		if b != nil {
			b.BroadcastEvent(id, ev)
		}
		return
	}
	payload, err := json.Marshal(EventEnvelope{Type: "event", SessionID: id, Event: &ev})
	if err != nil {
		log.Printf("[REDIS] Failed to marshal event for %s: %v", id, err)
		return
	}
	if err := gm.rdb.Publish(context.Background(), EventsChannel, payload).Err(); err != nil {
		log.Printf("[REDIS] Publish %s for %s failed: %v", ev.Type, id, err)
	}
}

func (gm *GameManager) broadcastSnapshot(id string, snap Snapshot) {
	gm.mu.RLock()
	b := gm.broadcaster
	gm.mu.RUnlock()
	if b != nil {
		b.BroadcastSnapshot(id, snap)
	}
}

func snapshotKey(id string) string {
	return "carrom:" + id + ":state"
}

// cacheSnapshot persists the session snapshot to Redis
func (gm *GameManager) cacheSnapshot(ms *managedSession) {
	if gm.rdb == nil {
		return // No Redis client, skip
	}
	snap := ms.session.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal snapshot for %s: %v", snap.SessionID, err)
		return
	}
	ttl := gm.config.SnapshotTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := gm.rdb.SetEx(context.Background(), snapshotKey(snap.SessionID), data, ttl).Err(); err != nil {
		log.Printf("[REDIS] Failed to cache snapshot for %s: %v", snap.SessionID, err)
	}
}

// CachedSnapshot loads the last cached snapshot for a session that is no
// longer in memory.
func (gm *GameManager) CachedSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if gm.rdb == nil {
		return nil, ErrSessionNotFound
	}
	data, err := gm.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
