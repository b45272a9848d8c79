package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/models"
)

type fakeReader struct {
	entries []models.LeaderboardEntry
	limit   int
}

func (f *fakeReader) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	f.limit = limit
	return f.entries, nil
}

func (f *fakeReader) PlayerEntry(ctx context.Context, name string) (*models.LeaderboardEntry, error) {
	for _, e := range f.entries {
		if e.PlayerName == name {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReader) RecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	return nil, nil
}

func (f *fakeReader) SessionShots(ctx context.Context, sessionID string) ([]models.GameShot, error) {
	return nil, nil
}

func testSetup(t *testing.T) (*gin.Engine, *game.GameManager, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.TickRateHz = 1000
	cfg.AIThinkTicks = 1
	cfg.JWTSecret = "test-secret"
	cfg.SeatTokenTTL = time.Hour
	cfg.AdminRequired = false

	gm := game.NewGameManager(nil, nil, cfg)
	t.Cleanup(gm.Shutdown)

	r := gin.New()
	r.POST("/game", CreateGame(gm, cfg))
	r.GET("/game/:id", GetGameState(gm))
	r.POST("/game/:id/command", SeatAuthMiddleware(cfg), SendCommand(gm))
	return r, gm, cfg
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type createResponse struct {
	SessionID  string            `json:"session_id"`
	Snapshot   game.Snapshot     `json:"snapshot"`
	SeatTokens map[string]string `json:"seat_tokens"`
}

func createGame(t *testing.T, r http.Handler, body interface{}) createResponse {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/game", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create game: got %d %s", w.Code, w.Body.String())
	}
	var resp createResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Decode create response: %v", err)
	}
	return resp
}

func TestCreateAndGetGame(t *testing.T) {
	r, _, _ := testSetup(t)

	resp := createGame(t, r, gin.H{"mode": "single", "player1_name": "  Alice  ", "difficulty": "easy"})
	if resp.SessionID == "" || resp.SeatTokens["player1"] == "" {
		t.Fatalf("Missing session id or seat token: %+v", resp)
	}
	if _, ok := resp.SeatTokens["player2"]; ok {
		t.Errorf("AI seat should not get a token")
	}
	if resp.Snapshot.Player1.Name != "Alice" {
		t.Errorf("Name not trimmed: %q", resp.Snapshot.Player1.Name)
	}

	w := doJSON(r, http.MethodGet, "/game/"+resp.SessionID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Get game: got %d", w.Code)
	}
	var snap game.Snapshot
	json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.SessionID != resp.SessionID {
		t.Errorf("Snapshot for wrong session: %s", snap.SessionID)
	}

	if w := doJSON(r, http.MethodGet, "/game/missing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Missing game: got %d", w.Code)
	}
}

func TestCreateGameCapsNamesByCharacter(t *testing.T) {
	r, _, _ := testSetup(t)
	long := "a" + strings.Repeat("é", 40)

	resp := createGame(t, r, gin.H{"mode": "multiplayer", "player1_name": long, "player2_name": "Bob"})
	name := resp.Snapshot.Player1.Name
	if !utf8.ValidString(name) {
		t.Fatalf("Capped name is not valid UTF-8: %q", name)
	}
	if n := utf8.RuneCountInString(name); n != maxNameLength {
		t.Errorf("Capped name has %d characters, want %d", n, maxNameLength)
	}
	if !strings.HasPrefix(long, name) {
		t.Errorf("Capped name %q is not a prefix of the input", name)
	}
}

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"  Alice  ":                   "Alice",
		strings.Repeat("ü", 33):       strings.Repeat("ü", 32),
		strings.Repeat("x", 31) + " y": strings.Repeat("x", 31),
		"ok\xffname":                  "okname",
	}
	for in, want := range cases {
		if got := cleanName(in); got != want {
			t.Errorf("cleanName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateSimulationHasNoTokens(t *testing.T) {
	r, _, _ := testSetup(t)
	resp := createGame(t, r, gin.H{"mode": "simulation", "seed": 7})
	if len(resp.SeatTokens) != 0 {
		t.Errorf("Simulation should hand out no seat tokens, got %v", resp.SeatTokens)
	}
}

func TestSendCommand(t *testing.T) {
	r, _, _ := testSetup(t)
	resp := createGame(t, r, gin.H{"mode": "multiplayer", "player1_name": "Alice", "player2_name": "Bob"})
	path := "/game/" + resp.SessionID + "/command"
	cmd := gin.H{"type": "position_control", "x": 250}

	if w := doJSON(r, http.MethodPost, path, "", cmd); w.Code != http.StatusUnauthorized {
		t.Errorf("Missing token: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, path, "garbage", cmd); w.Code != http.StatusUnauthorized {
		t.Errorf("Bad token: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, path, resp.SeatTokens["player2"], cmd); w.Code != http.StatusForbidden {
		t.Errorf("Player2 on player1's turn: got %d %s", w.Code, w.Body.String())
	}

	w := doJSON(r, http.MethodPost, path, resp.SeatTokens["player1"], cmd)
	if w.Code != http.StatusOK {
		t.Fatalf("Player1 command: got %d %s", w.Code, w.Body.String())
	}
	var res game.CommandResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Accepted {
		t.Errorf("Player1 position rejected: %s", res.Reason)
	}

	if w := doJSON(r, http.MethodPost, path, resp.SeatTokens["table"], cmd); w.Code != http.StatusOK {
		t.Errorf("Table token should act for the mover: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, path, resp.SeatTokens["player1"], gin.H{"type": "dance"}); w.Code != http.StatusBadRequest {
		t.Errorf("Unknown command: got %d", w.Code)
	}

	other := createGame(t, r, gin.H{"mode": "multiplayer"})
	if w := doJSON(r, http.MethodPost, path, other.SeatTokens["player1"], cmd); w.Code != http.StatusForbidden {
		t.Errorf("Token from another session: got %d", w.Code)
	}
}

func TestLeaderboardHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := &fakeReader{entries: []models.LeaderboardEntry{{PlayerName: "Alice", Score: 120, Wins: 2}}}

	r := gin.New()
	r.GET("/leaderboard", GetLeaderboard(reader))
	r.GET("/leaderboard/:name", GetLeaderboardPlayer(reader))
	r.GET("/offline", GetLeaderboard(nil))

	w := doJSON(r, http.MethodGet, "/leaderboard?limit=5000", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Leaderboard: got %d", w.Code)
	}
	if reader.limit != 100 {
		t.Errorf("Limit should be clamped to 100, got %d", reader.limit)
	}

	if w := doJSON(r, http.MethodGet, "/leaderboard/Alice", "", nil); w.Code != http.StatusOK {
		t.Errorf("Known player: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/leaderboard/Nobody", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Unknown player: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/offline", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("No store: got %d", w.Code)
	}
}

func TestAdminMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AdminRequired: false}

	r := gin.New()
	r.GET("/open", AdminMiddleware(nil, cfg), AdminMe())
	if w := doJSON(r, http.MethodGet, "/open", "", nil); w.Code != http.StatusOK {
		t.Errorf("Admin checks disabled: got %d", w.Code)
	}

	strict := &config.Config{AdminRequired: true}
	r.GET("/closed", AdminMiddleware(nil, strict), AdminMe())
	if w := doJSON(r, http.MethodGet, "/closed", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Admin required without a store: got %d", w.Code)
	}
}

func TestAdminSessions(t *testing.T) {
	r, gm, _ := testSetup(t)
	r.GET("/admin/sessions", GetAdminSessions(gm))
	r.POST("/admin/sessions/:id/reset", AdminResetSession(nil, gm))
	r.DELETE("/admin/sessions/:id", AdminRemoveSession(nil, gm))

	resp := createGame(t, r, gin.H{"mode": "multiplayer"})

	w := doJSON(r, http.MethodGet, "/admin/sessions", "", nil)
	var list struct {
		Total int `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 {
		t.Errorf("Expected 1 session, got %d", list.Total)
	}

	if w := doJSON(r, http.MethodPost, "/admin/sessions/"+resp.SessionID+"/reset", "", nil); w.Code != http.StatusOK {
		t.Errorf("Reset: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/admin/sessions/"+resp.SessionID, "", nil); w.Code != http.StatusOK {
		t.Errorf("Remove: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/admin/sessions/"+resp.SessionID, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Second remove: got %d", w.Code)
	}
	if gm.GetActiveSessionCount() != 0 {
		t.Errorf("Session still registered")
	}
}
