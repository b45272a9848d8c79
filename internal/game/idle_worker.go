package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/playmatatu/carrom/internal/config"
	"github.com/redis/go-redis/v9"
)

const idleSetKey = "session_idle"

func lastActiveKey(id string) string {
	return "last_active:" + id
}

// idleTimeout is how long a session may go without activity.
func (gm *GameManager) idleTimeout() time.Duration {
	m := gm.config.SessionIdleMinutes
	if m <= 0 {
		m = 30
	}
	return time.Duration(m) * time.Minute
}

// Touch records activity on a session and pushes back its expiry.
func (gm *GameManager) Touch(id string) {
	if gm.rdb == nil {
		return // in-memory sessions track their own activity
	}
	ctx := context.Background()
	now := time.Now()
	expireAt := now.Add(gm.idleTimeout()).Unix()
	if err := gm.rdb.Set(ctx, lastActiveKey(id), now.Unix(), gm.idleTimeout()*2).Err(); err != nil {
		log.Printf("[IDLE] Failed to set last_active for %s: %v", id, err)
	}
	if err := gm.rdb.ZAdd(ctx, idleSetKey, redis.Z{Score: float64(expireAt), Member: id}).Err(); err != nil {
		log.Printf("[IDLE] Failed to schedule expiry for %s: %v", id, err)
	}
}

func (gm *GameManager) forgetActivity(id string) {
	if gm.rdb == nil {
		return
	}
	ctx := context.Background()
	gm.rdb.ZRem(ctx, idleSetKey, id)
	gm.rdb.Del(ctx, lastActiveKey(id))
}

// StartIdleWorker starts a background worker that expires idle sessions.
// With Redis it drains the session_idle sorted set; without it, it scans the
// registry directly.
func StartIdleWorker(ctx context.Context, gm *GameManager, cfg *config.Config) {
	if gm == nil || cfg == nil {
		log.Println("[IDLE] Manager or config missing; idle worker not started")
		return
	}
	poll := time.Duration(cfg.IdleWorkerPollSecs) * time.Second
	if poll <= 0 {
		poll = 15 * time.Second
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				if gm.rdb != nil {
					gm.expireFromRedis(ctx)
				} else {
					gm.expireInMemory(time.Now())
				}
			}
		}
	}()
}

func (gm *GameManager) expireFromRedis(ctx context.Context) {
	now := time.Now().Unix()
	members, err := gm.rdb.ZRangeByScore(ctx, idleSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return
	}
	for _, id := range members {
		// Attempt to remove (race-safe)
		removed, _ := gm.rdb.ZRem(ctx, idleSetKey, id).Result()
		if removed == 0 {
			continue
		}
		last, _ := gm.rdb.Get(ctx, lastActiveKey(id)).Result()
		lastTs, _ := strconv.ParseInt(last, 10, 64)
		if idle := time.Since(time.Unix(lastTs, 0)); idle < gm.idleTimeout() {
			// touched again after being scheduled
			gm.rdb.ZAdd(ctx, idleSetKey, redis.Z{Score: float64(lastTs + int64(gm.idleTimeout().Seconds())), Member: id})
			continue
		}
		gm.expire(ctx, id)
	}
}

func (gm *GameManager) expireInMemory(now time.Time) {
	for _, s := range gm.ListSessions() {
		if now.Sub(s.LastActivity) >= gm.idleTimeout() {
			gm.expire(context.Background(), s.SessionID)
		}
	}
}

func (gm *GameManager) expire(ctx context.Context, id string) {
	if err := gm.RemoveSession(id); err != nil {
		return
	}
	log.Printf("[IDLE] Expired idle session %s", id)
	const msg = "Session expired after inactivity"
	if gm.rdb == nil {
		gm.mu.RLock()
		b := gm.broadcaster
		gm.mu.RUnlock()
		if b != nil {
			b.BroadcastExpired(id, msg)
		}
		return
	}
	b, _ := json.Marshal(EventEnvelope{Type: "session_expired", SessionID: id, Message: msg})
	if n, err := gm.rdb.Publish(ctx, EventsChannel, b).Result(); err != nil {
		log.Printf("[IDLE] publish expiry failed: session=%s err=%v", id, err)
	} else {
		log.Printf("[IDLE] published expiry: session=%s subscribers=%d", id, n)
	}
}
