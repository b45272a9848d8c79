package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Session lifecycle
	TickRateHz          int
	SessionIdleMinutes  int
	IdleWorkerPollSecs  int
	SnapshotTTL         time.Duration
	DefaultAIDifficulty string

	// Board geometry
	BoardSize     float64
	PocketOffset  float64
	PocketRadius  float64
	WallInset     float64
	PieceRadius   float64
	ControlRadius float64

	// Physics
	AirFriction     float64
	SurfaceFriction float64
	Restitution     float64
	StationarySpeed float64
	StationarySpin  float64
	ShotForceScale  float64

	// Scoring rules
	ScoreOwn              int
	ScoreOpponent         int
	ScoreQueen            int
	FoulPenalty           int
	WinScoreCeiling       int
	WinPiecesTotal        int
	ControlMode           string
	OpponentCaptureScores bool
	ClampNegativeScore    bool

	// AI
	AIThinkTicks int
	AITableFile  string

	// Security
	JWTSecret     string
	SeatTokenTTL  time.Duration
	AdminRequired bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/carrom?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Session lifecycle
		TickRateHz:          getEnvInt("TICK_RATE_HZ", 60),
		SessionIdleMinutes:  getEnvInt("SESSION_IDLE_MINUTES", 30),
		IdleWorkerPollSecs:  getEnvInt("IDLE_WORKER_POLL_SECONDS", 15),
		SnapshotTTL:         getEnvDuration("SNAPSHOT_TTL", time.Hour),
		DefaultAIDifficulty: getEnv("DEFAULT_AI_DIFFICULTY", "medium"),

		// Board geometry
		BoardSize:     getEnvFloat("BOARD_SIZE", 600),
		PocketOffset:  getEnvFloat("POCKET_OFFSET", 50),
		PocketRadius:  getEnvFloat("POCKET_RADIUS", 30),
		WallInset:     getEnvFloat("WALL_INSET", 35),
		PieceRadius:   getEnvFloat("PIECE_RADIUS", 15),
		ControlRadius: getEnvFloat("CONTROL_RADIUS", 18),

		// Physics
		AirFriction:     getEnvFloat("AIR_FRICTION", 0.15),
		SurfaceFriction: getEnvFloat("SURFACE_FRICTION", 0.05),
		Restitution:     getEnvFloat("RESTITUTION", 0.8),
		StationarySpeed: getEnvFloat("STATIONARY_SPEED", 0.05),
		StationarySpin:  getEnvFloat("STATIONARY_SPIN", 0.01),
		ShotForceScale:  getEnvFloat("SHOT_FORCE_SCALE", 5.556),

		// Scoring rules
		ScoreOwn:              getEnvInt("SCORE_OWN", 10),
		ScoreOpponent:         getEnvInt("SCORE_OPPONENT", 20),
		ScoreQueen:            getEnvInt("SCORE_QUEEN", 50),
		FoulPenalty:           getEnvInt("FOUL_PENALTY", -10),
		WinScoreCeiling:       getEnvInt("WIN_SCORE_CEILING", 200),
		WinPiecesTotal:        getEnvInt("WIN_PIECES_TOTAL", 18),
		ControlMode:           strings.ToLower(getEnv("CONTROL_MODE", "shared")),
		OpponentCaptureScores: getEnvBool("OPPONENT_CAPTURE_SCORES", true),
		ClampNegativeScore:    getEnvBool("CLAMP_NEGATIVE_SCORE", false),

		// AI
		AIThinkTicks: getEnvInt("AI_THINK_TICKS", 90),
		AITableFile:  getEnv("AI_TABLE_FILE", ""),

		// Security
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		SeatTokenTTL:  getEnvDuration("SEAT_TOKEN_TTL", 12*time.Hour),
		AdminRequired: getEnvBool("ADMIN_REQUIRED", true),
	}
}

// TickInterval is the runner period derived from TickRateHz.
func (c *Config) TickInterval() time.Duration {
	hz := c.TickRateHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
