package auth

import (
	"testing"
	"time"

	"github.com/playmatatu/carrom/internal/game"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	tok, err := IssueSeatToken("secret", "s1", []game.PlayerID{game.Player2}, time.Hour)
	if err != nil {
		t.Fatalf("IssueSeatToken: %v", err)
	}
	claims, err := ParseSeatToken("secret", tok, "s1")
	if err != nil {
		t.Fatalf("ParseSeatToken: %v", err)
	}
	if !claims.Has(game.Player2) || claims.Has(game.Player1) {
		t.Errorf("Unexpected seats %v", claims.Seats)
	}
}

func TestSeatTokenRejections(t *testing.T) {
	tok, _ := IssueSeatToken("secret", "s1", []game.PlayerID{game.Player1}, time.Hour)

	if _, err := ParseSeatToken("other", tok, "s1"); err != ErrInvalidSeatToken {
		t.Errorf("Wrong secret: got %v", err)
	}
	if _, err := ParseSeatToken("secret", tok, "s2"); err != ErrWrongSession {
		t.Errorf("Wrong session: got %v", err)
	}
	expired, _ := IssueSeatToken("secret", "s1", []game.PlayerID{game.Player1}, -time.Minute)
	if _, err := ParseSeatToken("secret", expired, "s1"); err != ErrInvalidSeatToken {
		t.Errorf("Expired token: got %v", err)
	}
	if _, err := ParseSeatToken("secret", "garbage", "s1"); err != ErrInvalidSeatToken {
		t.Errorf("Garbage token: got %v", err)
	}
}

func TestSeatTokensPerMode(t *testing.T) {
	snap := game.Snapshot{
		SessionID: "s1",
		Player1:   game.PlayerState{ID: game.Player1, Controller: game.ControllerHuman},
		Player2:   game.PlayerState{ID: game.Player2, Controller: game.ControllerAI},
	}
	tokens, err := SeatTokens("secret", snap, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 1 || tokens["player1"] == "" {
		t.Errorf("Single player should get one token, got %v", tokens)
	}

	snap.Player2.Controller = game.ControllerHuman
	tokens, _ = SeatTokens("secret", snap, time.Hour)
	if len(tokens) != 3 {
		t.Fatalf("Hot-seat should get two seat tokens plus a table token, got %d", len(tokens))
	}
	claims, err := ParseSeatToken("secret", tokens["table"], "s1")
	if err != nil || !claims.Has(game.Player1) || !claims.Has(game.Player2) {
		t.Errorf("Table token should cover both seats: %+v %v", claims, err)
	}
}
