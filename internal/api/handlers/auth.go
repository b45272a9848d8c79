package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/admin"
	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/config"
)

const (
	seatClaimsKey = "seat_claims"
	adminNameKey  = "admin_name"
)

// bearerToken reads the token from the Authorization header, falling back to
// the pt query parameter used by browser websocket clients.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(c.Query("pt"))
}

// SeatAuthMiddleware validates the seat token for the session named by the
// :id route parameter and stores its claims in context.
func SeatAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseSeatToken(cfg.JWTSecret, token, c.Param("id"))
		if err != nil {
			status := http.StatusUnauthorized
			if err == auth.ErrWrongSession {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(seatClaimsKey, claims)
		c.Next()
	}
}

func seatClaims(c *gin.Context) (*auth.SeatClaims, bool) {
	v, ok := c.Get(seatClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SeatClaims)
	return claims, ok
}

// AdminMiddleware checks the X-Admin-Name / X-Admin-Token headers against
// admin_accounts. With ADMIN_REQUIRED=false every request passes.
func AdminMiddleware(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.AdminRequired {
			c.Set(adminNameKey, "dev")
			c.Next()
			return
		}
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin store unavailable"})
			return
		}

		name := strings.TrimSpace(c.GetHeader("X-Admin-Name"))
		token := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if name == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin credentials required"})
			return
		}

		acct, err := admin.ValidateAdminCredentials(db, name, token, c.ClientIP())
		if err != nil {
			log.Printf("[ADMIN] Rejected %s from %s: %v", name, c.ClientIP(), err)
			admin.LogAdminAction(db, name, c.ClientIP(), c.FullPath(), "auth", map[string]interface{}{"error": err.Error()}, false)
			status := http.StatusUnauthorized
			if err == admin.ErrIPNotAllowed {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(adminNameKey, acct.Username)
		c.Next()
	}
}

func adminName(c *gin.Context) string {
	if v, ok := c.Get(adminNameKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
