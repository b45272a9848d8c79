package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/carrom/internal/game"
	"github.com/redis/go-redis/v9"
)

// relay delivers one published envelope to the matching room.
func (h *Hub) relay(payload string) {
	var env game.EventEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}
	if env.SessionID == "" {
		return
	}

	switch env.Type {
	case "event":
		if env.Event == nil {
			return
		}
		h.BroadcastEvent(env.SessionID, *env.Event)
	case "session_expired":
		if h.RoomSize(env.SessionID) == 0 {
			log.Printf("[WS] no room for session %s; expiry will not be broadcast", env.SessionID)
		}
		h.BroadcastExpired(env.SessionID, env.Message)
	default:
		log.Printf("[WS] unknown event type: %s", env.Type)
	}
}

// StartEventSubscriber subscribes to the game events channel and relays
// incoming events to session rooms.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, h *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, game.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.EventsChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.relay(msg.Payload)
			}
		}
	}()
}
