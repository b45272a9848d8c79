package game

import "math"

// Default board geometry and physics tuning. Units are board units and ticks.
const (
	BoardSize        = 600.0
	PocketOffset     = 50.0
	PocketRadius     = 30.0
	WallInset        = 35.0 // inner face of each wall, measured from the board edge
	PieceRadius      = 15.0
	ControlRadius    = 18.0
	PieceDensity     = 0.005
	ControlDensity   = 0.008
	AirFriction      = 0.15 // fraction of velocity lost per tick
	SurfaceFriction  = 0.05 // speed lost per tick by rolling contact
	Restitution      = 0.8
	StationarySpeed  = 0.05
	StationarySpin   = 0.01
	ShotForceScale   = 5.556 // impulse per unit of power
	ReleaseLineInset = 100.0
	ReleaseBand      = 20.0
	FormationGap     = 2.0

	MinShotPower       = 20.0
	MaxShotPower       = 100.0
	ShotPowerThreshold = 10.0
	AimPowerPerUnit    = 0.5

	ScoreOwnColor      = 10
	ScoreOpponentColor = 20
	ScoreQueen         = 50
	FoulPenalty        = -10
	WinScoreCeiling    = 200
	WinPiecesTotal     = 18

	AIThinkTicks    = 90 // ~1.5s at 60Hz
	AIReleaseMargin = 80.0

	// distanceEpsilon replaces zero-length distances in divisions.
	distanceEpsilon = 1e-6
)

// ControlMode picks between one shared Control piece and one per player.
type ControlMode string

const (
	ControlShared    ControlMode = "shared"
	ControlPerPlayer ControlMode = "per_player"
)

// Difficulty is an AI precision tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a string to a tier, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	}
	return DifficultyMedium
}

// AITier holds the selection weights and jitter magnitudes for one difficulty.
type AITier struct {
	RandomSelection bool    `json:"random_selection"`
	LineWeight      float64 `json:"line_weight"`
	PocketWeight    float64 `json:"pocket_weight"`
	QueenFactor     float64 `json:"queen_factor"` // multiplies a Queen candidate's score
	PositionJitter  float64 `json:"position_jitter"`
	AngleJitter     float64 `json:"angle_jitter"`
	PowerJitter     float64 `json:"power_jitter"`
	PowerScale      float64 `json:"power_scale"`
}

// DefaultAITable returns the three stock tiers.
func DefaultAITable() map[Difficulty]AITier {
	return map[Difficulty]AITier{
		DifficultyEasy: {
			RandomSelection: true,
			LineWeight:      1, PocketWeight: 0, QueenFactor: 1,
			PositionJitter: 100, AngleJitter: 0.3, PowerJitter: 30, PowerScale: 0.8,
		},
		DifficultyMedium: {
			LineWeight: 1, PocketWeight: 0.5, QueenFactor: 1,
			PositionJitter: 50, AngleJitter: 0.15, PowerJitter: 15, PowerScale: 1,
		},
		DifficultyHard: {
			LineWeight: 0.7, PocketWeight: 0.3, QueenFactor: 0.8,
			PositionJitter: 0, AngleJitter: 0.05, PowerJitter: 5, PowerScale: 1.1,
		},
	}
}

// Settings groups every tunable of a session. Values are copied into the
// session at construction and never change afterwards.
type Settings struct {
	BoardSize        float64
	PocketOffset     float64
	PocketRadius     float64
	WallInset        float64
	PieceRadius      float64
	ControlRadius    float64
	PieceDensity     float64
	ControlDensity   float64
	AirFriction      float64
	SurfaceFriction  float64
	Restitution      float64
	StationarySpeed  float64
	StationarySpin   float64
	ShotForceScale   float64
	ReleaseLineInset float64
	ReleaseBand      float64

	MinShotPower       float64
	MaxShotPower       float64
	ShotPowerThreshold float64
	AimPowerPerUnit    float64

	ScoreOwnColor         int
	ScoreOpponentColor    int
	ScoreQueen            int
	FoulPenalty           int
	WinScoreCeiling       int
	WinPiecesTotal        int
	OpponentCaptureScores bool
	ClampNegativeScore    bool

	ControlMode     ControlMode
	AIThinkTicks    int
	AIReleaseMargin float64
	AITable         map[Difficulty]AITier
}

// DefaultSettings returns the stock board.
func DefaultSettings() Settings {
	return Settings{
		BoardSize:        BoardSize,
		PocketOffset:     PocketOffset,
		PocketRadius:     PocketRadius,
		WallInset:        WallInset,
		PieceRadius:      PieceRadius,
		ControlRadius:    ControlRadius,
		PieceDensity:     PieceDensity,
		ControlDensity:   ControlDensity,
		AirFriction:      AirFriction,
		SurfaceFriction:  SurfaceFriction,
		Restitution:      Restitution,
		StationarySpeed:  StationarySpeed,
		StationarySpin:   StationarySpin,
		ShotForceScale:   ShotForceScale,
		ReleaseLineInset: ReleaseLineInset,
		ReleaseBand:      ReleaseBand,

		MinShotPower:       MinShotPower,
		MaxShotPower:       MaxShotPower,
		ShotPowerThreshold: ShotPowerThreshold,
		AimPowerPerUnit:    AimPowerPerUnit,

		ScoreOwnColor:         ScoreOwnColor,
		ScoreOpponentColor:    ScoreOpponentColor,
		ScoreQueen:            ScoreQueen,
		FoulPenalty:           FoulPenalty,
		WinScoreCeiling:       WinScoreCeiling,
		WinPiecesTotal:        WinPiecesTotal,
		OpponentCaptureScores: true,

		ControlMode:     ControlShared,
		AIThinkTicks:    AIThinkTicks,
		AIReleaseMargin: AIReleaseMargin,
		AITable:         DefaultAITable(),
	}
}

// tier returns the AI parameters for d, falling back to the stock table.
func (s Settings) tier(d Difficulty) AITier {
	if t, ok := s.AITable[d]; ok {
		return t
	}
	return DefaultAITable()[ParseDifficulty(string(d))]
}

// massFor derives a body's mass from its density and disc area.
func massFor(density, radius float64) float64 {
	m := density * math.Pi * radius * radius
	if m <= 0 {
		return 1
	}
	return m
}
