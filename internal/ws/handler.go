package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/carrom/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 16384
)

// Client represents a connected WebSocket client watching one session. Seats
// lists the seats it may act for; spectators have none.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	seats     []game.PlayerID
	send      chan []byte
}

// Hub maintains the per-session rooms of connected clients. It satisfies
// game.Broadcaster.
type Hub struct {
	manager    *game.GameManager
	rooms      map[string]map[*Client]struct{} // sessionID -> clients
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
	mu         sync.RWMutex
}

var _ game.Broadcaster = (*Hub)(nil)

// NewHub creates a new Hub bound to a session manager
func NewHub(gm *game.GameManager) *Hub {
	return &Hub{
		manager:    gm,
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Message is the envelope for both directions
type Message struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type outbound struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Run processes registrations until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	defer close(h.stopped)
	for {
		select {
		case <-stop:
			return
		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.sessionID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.sessionID] = room
			}
			room[c] = struct{}{}
			size := len(room)
			h.mu.Unlock()
			log.Printf("[WS] Client joined session %s (seats=%v, room_size=%d)", c.sessionID, c.seats, size)

			if sess, err := h.manager.GetSession(c.sessionID); err == nil {
				c.push(outbound{Type: "snapshot", Data: sess.Snapshot()})
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.sessionID]; ok {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.sessionID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("[WS] Client left session %s", c.sessionID)
		}
	}
}

// RoomSize returns the number of clients watching a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// broadcast sends a message to every client in a session room
func (h *Hub) broadcast(sessionID string, msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] Error marshaling %s: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[sessionID] {
		select {
		case c.send <- data:
		default:
			log.Printf("[WS] Send buffer full in session %s, dropping %s", sessionID, msg.Type)
		}
	}
}

func (h *Hub) BroadcastSnapshot(sessionID string, snap game.Snapshot) {
	h.broadcast(sessionID, outbound{Type: "snapshot", Data: snap})
}

func (h *Hub) BroadcastEvent(sessionID string, ev game.Event) {
	h.broadcast(sessionID, outbound{Type: "event", Data: ev})
}

func (h *Hub) BroadcastExpired(sessionID, message string) {
	h.broadcast(sessionID, outbound{Type: "session_expired", Message: message})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Serve upgrades the request and attaches the client to a session room.
// checkOrigin decides which browser origins may connect.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string, seats []game.PlayerID, checkOrigin func(*http.Request) bool) {
	up := upgrader
	up.CheckOrigin = checkOrigin
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	c := &Client{
		hub:       h,
		conn:      conn,
		sessionID: sessionID,
		seats:     seats,
		send:      make(chan []byte, 256),
	}
	select {
	case h.register <- c:
	case <-h.stopped:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// push queues a message for this client only
func (c *Client) push(msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Dropped %s for a client in session %s (buffer full)", msg.Type, c.sessionID)
	}
}

func (c *Client) sendError(message string) {
	c.push(outbound{Type: "error", Message: message})
}

// actingSeat picks the seat a command is sent as: the current mover when the
// client holds it, otherwise the client's first seat.
func actingSeat(seats []game.PlayerID, current game.PlayerID) (game.PlayerID, bool) {
	if len(seats) == 0 {
		return "", false
	}
	for _, s := range seats {
		if s == current {
			return s, true
		}
	}
	return seats[0], true
}

// readPump reads client messages and applies them to the session.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close in session %s: %v", c.sessionID, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage processes one incoming message.
func (c *Client) handleMessage(msg Message) {
	gm := c.hub.manager
	sess, err := gm.GetSession(c.sessionID)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	if msg.Type == "get_state" {
		c.push(outbound{Type: "snapshot", Data: sess.Snapshot()})
		return
	}

	seat, ok := actingSeat(c.seats, sess.CurrentPlayer())
	if !ok {
		c.sendError("Spectators cannot send commands")
		return
	}

	cmd := game.Command{Type: msg.Type}
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			c.sendError("Invalid command data")
			return
		}
		cmd.Type = msg.Type
	}

	res, err := gm.Command(c.sessionID, seat, cmd)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.push(outbound{Type: "command_result", Data: res})
}

// writePump writes queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error in session %s: %v", c.sessionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
