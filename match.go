package main

// GameMode selects which rule drives a session.
type GameMode int

const (
	ModeDeathmatch GameMode = 0
	ModeRange      GameMode = 1
	ModeWave       GameMode = 2
)

func (m GameMode) String() string {
	switch m {
	case ModeDeathmatch:
		return "deathmatch"
	case ModeRange:
		return "range"
	case ModeWave:
		return "wave"
	}
	return "unknown"
}

// RespawnDecision is a rule's answer to a player death. Respawn false means
// the player spectates until the rule says otherwise.
type RespawnDecision struct {
	Respawn bool
	Delay   float64 // seconds
	Pos     Vec3
}

// GameEndResult ends the match when a rule returns it from CheckGameEnd.
// Victory marks a cooperative win for every connected player; competitive
// modes name a single WinnerID instead.
type GameEndResult struct {
	WinnerID     string
	Reason       string
	Victory      bool
	WavesCleared int
}

// GameModeRule owns spawning policy, respawn decisions and win conditions
// for one session. All callbacks run on the game loop goroutine.
type GameModeRule interface {
	Name() string
	OnInitialize(w *World)
	OnUpdate(w *World, dt float64)
	OnPlayerJoin(w *World, id string)
	OnPlayerLeave(w *World, id string)
	OnPlayerDeath(w *World, id, killerID string) RespawnDecision
	CheckGameEnd(w *World) *GameEndResult
}

// MatchConfig holds per-mode session settings.
type MatchConfig struct {
	Mode       GameMode
	KillLimit  int     // deathmatch
	TimeLimit  float64 // seconds, 0 = untimed
	MaxPlayers int
}

// DefaultConfig returns the tuned settings for a mode.
func DefaultConfig(mode GameMode) MatchConfig {
	switch mode {
	case ModeRange:
		return MatchConfig{
			Mode:       ModeRange,
			MaxPlayers: 8,
		}
	case ModeWave:
		return MatchConfig{
			Mode:       ModeWave,
			MaxPlayers: 4,
		}
	default:
		return MatchConfig{
			Mode:       ModeDeathmatch,
			KillLimit:  20,
			TimeLimit:  600,
			MaxPlayers: 12,
		}
	}
}

// NewRuleForMode constructs the rule implementation for a mode.
func NewRuleForMode(cfg MatchConfig) GameModeRule {
	switch cfg.Mode {
	case ModeRange:
		return NewRangeRule()
	case ModeWave:
		return NewWaveRule()
	default:
		return NewDeathmatchRule(cfg)
	}
}
