package main

// Free-for-all tuning.
const (
	DMPickupInterval = 15.0 // seconds between health pickup drops
	DMMaxPickups     = 4
)

// DeathmatchRule runs free-for-all: every kill scores, dead players respawn
// after a fixed delay, first to the kill limit (or the kill leader at the
// time limit) wins.
type DeathmatchRule struct {
	cfg     MatchConfig
	elapsed float64
	pickupT float64
	ended   *GameEndResult
}

func NewDeathmatchRule(cfg MatchConfig) *DeathmatchRule {
	return &DeathmatchRule{cfg: cfg}
}

func (r *DeathmatchRule) Name() string { return "deathmatch" }

func (r *DeathmatchRule) OnInitialize(w *World) {
	w.SpawnPickup(Vec3{X: 0, Z: 0}, PickupHealth)
}

func (r *DeathmatchRule) OnUpdate(w *World, dt float64) {
	r.elapsed += dt
	r.pickupT += dt
	if r.pickupT >= DMPickupInterval {
		r.pickupT = 0
		if len(w.Dir.pickups) < DMMaxPickups {
			w.SpawnPickup(randomArenaPoint(), PickupHealth)
		}
	}
}

func (r *DeathmatchRule) OnPlayerJoin(w *World, id string)  {}
func (r *DeathmatchRule) OnPlayerLeave(w *World, id string) {}

func (r *DeathmatchRule) OnPlayerDeath(w *World, id, killerID string) RespawnDecision {
	return RespawnDecision{Respawn: true, Delay: RespawnTime, Pos: w.RandomSpawn()}
}

func (r *DeathmatchRule) CheckGameEnd(w *World) *GameEndResult {
	if r.ended != nil {
		return r.ended
	}
	if r.cfg.KillLimit > 0 {
		for _, p := range w.Dir.players {
			if p.Kills >= r.cfg.KillLimit {
				r.ended = &GameEndResult{WinnerID: p.ID, Reason: "Kill limit reached"}
				return r.ended
			}
		}
	}
	if r.cfg.TimeLimit > 0 && r.elapsed >= r.cfg.TimeLimit {
		r.ended = &GameEndResult{WinnerID: killLeader(w), Reason: "Time limit reached"}
		return r.ended
	}
	return nil
}

// killLeader picks the player with the most kills, breaking ties by fewer
// deaths. Returns "" when the session is empty.
func killLeader(w *World) string {
	var lead *Player
	for _, p := range w.Dir.players {
		if lead == nil || p.Kills > lead.Kills ||
			(p.Kills == lead.Kills && p.Deaths < lead.Deaths) {
			lead = p
		}
	}
	if lead == nil {
		return ""
	}
	return lead.ID
}

// randomArenaPoint stays inside the walls with some margin.
func randomArenaPoint() Vec3 {
	span := ArenaHalf * 0.8
	return Vec3{
		X: (randFloat()*2 - 1) * span,
		Z: (randFloat()*2 - 1) * span,
	}
}
