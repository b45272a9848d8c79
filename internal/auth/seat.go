package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/carrom/internal/game"
)

var (
	ErrInvalidSeatToken = errors.New("invalid seat token")
	ErrWrongSession     = errors.New("seat token belongs to another session")
)

// SeatClaims binds a bearer to one or more seats of a session.
type SeatClaims struct {
	SessionID string          `json:"session_id"`
	Seats     []game.PlayerID `json:"seats"`
	jwt.RegisteredClaims
}

// Has reports whether the claims cover seat.
func (c *SeatClaims) Has(seat game.PlayerID) bool {
	for _, s := range c.Seats {
		if s == seat {
			return true
		}
	}
	return false
}

// IssueSeatToken signs an HS256 token for the given seats.
func IssueSeatToken(secret, sessionID string, seats []game.PlayerID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SeatClaims{
		SessionID: sessionID,
		Seats:     seats,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return signed, nil
}

// ParseSeatToken validates a seat token and checks it belongs to sessionID.
func ParseSeatToken(secret, token, sessionID string) (*SeatClaims, error) {
	claims := &SeatClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSeatToken
	}
	if claims.SessionID != sessionID {
		return nil, ErrWrongSession
	}
	return claims, nil
}

// SeatTokens issues the tokens a new session hands out: one per human seat,
// plus a "table" token covering both seats of a hot-seat game.
func SeatTokens(secret string, snap game.Snapshot, ttl time.Duration) (map[string]string, error) {
	tokens := map[string]string{}
	var humans []game.PlayerID
	for _, p := range []game.PlayerState{snap.Player1, snap.Player2} {
		if p.Controller == game.ControllerAI {
			continue
		}
		tok, err := IssueSeatToken(secret, snap.SessionID, []game.PlayerID{p.ID}, ttl)
		if err != nil {
			return nil, err
		}
		tokens[string(p.ID)] = tok
		humans = append(humans, p.ID)
	}
	if len(humans) == 2 {
		tok, err := IssueSeatToken(secret, snap.SessionID, humans, ttl)
		if err != nil {
			return nil, err
		}
		tokens["table"] = tok
	}
	return tokens, nil
}
