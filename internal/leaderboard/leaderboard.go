package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/models"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	sharedReadTimeout = 5 * time.Second
)

// Store persists finished matches and shots and serves the leaderboard.
// It satisfies game.ResultRecorder.
type Store struct {
	db    *sqlx.DB
	reads singleflight.Group
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

var _ game.ResultRecorder = (*Store)(nil)

// standing is one human seat's contribution to the leaderboard.
type standing struct {
	name           string
	score          int
	win, loss, tie int
}

// standings derives leaderboard rows from a result. AI seats and unnamed
// seats never appear on the leaderboard.
func standings(r game.GameResult) []standing {
	var out []standing
	for _, p := range []game.PlayerState{r.Player1, r.Player2} {
		name := strings.TrimSpace(p.Name)
		if p.Controller == game.ControllerAI || name == "" {
			continue
		}
		st := standing{name: name, score: p.Score}
		switch {
		case r.Outcome.Tie:
			st.tie = 1
		case r.Outcome.Winner == p.ID:
			st.win = 1
		default:
			st.loss = 1
		}
		out = append(out, st)
	}
	// Hot-seat games between two seats of the same name count once.
	if len(out) == 2 && strings.EqualFold(out[0].name, out[1].name) {
		out = out[:1]
	}
	return out
}

// ClampLimit bounds a requested leaderboard size.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// RecordResult stores a finished match and folds it into the leaderboard in
// one transaction. Recording the same session twice is a no-op.
func (s *Store) RecordResult(ctx context.Context, r game.GameResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result tx: %w", err)
	}
	defer tx.Rollback()

	var winner sql.NullString
	if r.Outcome.Winner != "" {
		winner = sql.NullString{String: string(r.Outcome.Winner), Valid: true}
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO game_results (session_id, mode, player1_name, player2_name, player1_ai, player2_ai,
			player1_score, player2_score, player1_pieces, player2_pieces, winner, tie, shots, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (session_id) DO NOTHING
	`, r.SessionID, string(r.Mode), r.Player1.Name, r.Player2.Name,
		r.Player1.Controller == game.ControllerAI, r.Player2.Controller == game.ControllerAI,
		r.Outcome.Player1Score, r.Outcome.Player2Score, r.Player1.PiecesCollected, r.Player2.PiecesCollected,
		winner, r.Outcome.Tie, r.Shots, r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Printf("[DB] Result for %s already recorded", r.SessionID)
		return nil
	}

	for _, st := range standings(r) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO leaderboard (player_name, score, wins, losses, ties, games, updated_at)
			VALUES ($1, $2, $3, $4, $5, 1, NOW())
			ON CONFLICT (player_name) DO UPDATE SET
				score = leaderboard.score + EXCLUDED.score,
				wins = leaderboard.wins + EXCLUDED.wins,
				losses = leaderboard.losses + EXCLUDED.losses,
				ties = leaderboard.ties + EXCLUDED.ties,
				games = leaderboard.games + 1,
				updated_at = NOW()
		`, st.name, st.score, st.win, st.loss, st.tie); err != nil {
			return fmt.Errorf("upsert leaderboard for %s: %w", st.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result tx: %w", err)
	}
	log.Printf("[DB] Recorded result for %s: %d-%d winner=%q tie=%v",
		r.SessionID, r.Outcome.Player1Score, r.Outcome.Player2Score, r.Outcome.Winner, r.Outcome.Tie)
	return nil
}

// RecordShot stores one resolved shot with its captures as JSONB.
func (s *Store) RecordShot(ctx context.Context, r game.ShotRecord) error {
	captures, err := json.Marshal(r.Captures)
	if err != nil {
		return fmt.Errorf("marshal captures: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_shots (session_id, shot_number, player, player_name, control_x, angle, power, by_ai, continued, captures, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, NOW())
		ON CONFLICT (session_id, shot_number) DO NOTHING
	`, r.SessionID, r.ShotNumber, string(r.Player), r.PlayerName, r.Shot.ControlX, r.Shot.Angle, r.Shot.Power,
		r.Shot.ByAI, r.Continued, string(captures))
	if err != nil {
		return fmt.Errorf("insert shot: %w", err)
	}
	return nil
}

func topKey(limit int) string {
	return "top:" + strconv.Itoa(limit)
}

// shared runs fn once for all concurrent callers of key. fn gets a context
// that outlives any single caller, so one caller giving up does not fail the
// others; each caller still returns early when its own ctx is done.
func (s *Store) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.reads.DoChan(key, func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return fn(qctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// Top returns the best players by cumulative score. Concurrent reads of the
// same size share one query.
func (s *Store) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = ClampLimit(limit)
	v, err := s.shared(ctx, topKey(limit), func(qctx context.Context) (interface{}, error) {
		entries := []models.LeaderboardEntry{}
		err := s.db.SelectContext(qctx, &entries, `
			SELECT player_name, score, wins, losses, ties, games, updated_at
			FROM leaderboard
			ORDER BY score DESC, wins DESC, player_name ASC
			LIMIT $1
		`, limit)
		return entries, err
	})
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	entries, ok := v.([]models.LeaderboardEntry)
	if !ok {
		return nil, fmt.Errorf("unexpected leaderboard result type")
	}
	return entries, nil
}

// PlayerEntry returns a single player's record.
func (s *Store) PlayerEntry(ctx context.Context, name string) (*models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	err := s.db.GetContext(ctx, &e, `
		SELECT player_name, score, wins, losses, ties, games, updated_at
		FROM leaderboard WHERE player_name = $1
	`, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// RecentResults lists the latest finished matches.
func (s *Store) RecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	results := []models.GameResult{}
	err := s.db.SelectContext(ctx, &results, `
		SELECT id, session_id, mode, player1_name, player2_name, player1_ai, player2_ai,
			player1_score, player2_score, player1_pieces, player2_pieces, winner, tie, shots, started_at, finished_at
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1
	`, ClampLimit(limit))
	return results, err
}

// SessionShots returns the recorded shots of one match in order.
func (s *Store) SessionShots(ctx context.Context, sessionID string) ([]models.GameShot, error) {
	shots := []models.GameShot{}
	err := s.db.SelectContext(ctx, &shots, `
		SELECT id, session_id, shot_number, player, player_name, control_x, angle, power, by_ai, continued, captures, created_at
		FROM game_shots
		WHERE session_id = $1
		ORDER BY shot_number
	`, sessionID)
	return shots, err
}
