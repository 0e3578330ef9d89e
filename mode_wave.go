package main

import (
	"fmt"
	"math"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

// Wave-survival phase lengths and respawn tuning.
const (
	WarmupDuration       = 10.0
	IntermissionDuration = 10.0
	UpgradeDuration      = 15.0
	WaveRespawnDelay     = 2.0
)

// WavePhase is the survival machine's position: warmup runs once, then
// combat, intermission and upgrade cycle until victory or defeat.
type WavePhase int

const (
	PhaseWarmup WavePhase = iota
	PhaseCombat
	PhaseIntermission
	PhaseUpgrade
	PhaseEnded
)

func (p WavePhase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseCombat:
		return "combat"
	case PhaseIntermission:
		return "intermission"
	case PhaseUpgrade:
		return "upgrade"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// partyFactor scales enemy volume to the connected player count. Solo
// players face roughly half the bodies a full party does.
func partyFactor(players int) float64 {
	switch {
	case players <= 1:
		return 0.55
	case players == 2:
		return 0.75
	case players == 3:
		return 0.9
	}
	return 1.0
}

// waveRespawn is one queued wave-clear respawn. A downed player holds at
// most one.
type waveRespawn struct {
	T   float64
	Pos Vec3
}

// WaveRule runs cooperative wave survival. Players downed mid-wave stay
// down until the wave clears; between waves everyone picks (or is handed)
// an upgrade.
type WaveRule struct {
	phase WavePhase
	wave  int // 1-based, 0 until the first combat
	spec  arsenal.WaveSpec

	phaseT   float64 // countdown for timed phases
	spawnT   float64 // accumulator toward the next spawn
	spawned  int     // enemies emitted this wave
	quota    int     // totalEnemies after party scaling
	maxAlive int     // alive cap after party scaling

	pending map[string]*waveRespawn
	cleared int // waves fully cleared so far
	statusT float64
	ended   *GameEndResult
}

func NewWaveRule() *WaveRule {
	return &WaveRule{pending: make(map[string]*waveRespawn)}
}

func (r *WaveRule) Name() string { return "wave" }

func (r *WaveRule) OnInitialize(w *World) {
	r.setPhase(w, PhaseWarmup, WarmupDuration)
}

func (r *WaveRule) OnUpdate(w *World, dt float64) {
	if r.phase == PhaseEnded {
		return
	}
	r.tickRespawns(w, dt)
	switch r.phase {
	case PhaseCombat:
		r.combatTick(w, dt)
	default:
		r.phaseT -= dt
		if r.phaseT <= 0 {
			r.advance(w)
		}
	}
	if r.phase == PhaseEnded {
		return
	}
	r.statusT += dt
	if r.statusT >= 1 {
		r.statusT = 0
		w.Broadcast(MsgWaveState, r.waveState(w))
	}
}

// advance fires when a timed phase runs out.
func (r *WaveRule) advance(w *World) {
	switch r.phase {
	case PhaseWarmup:
		r.startCombat(w, 1)
	case PhaseIntermission:
		r.setPhase(w, PhaseUpgrade, UpgradeDuration)
		for id := range w.Dir.players {
			if offer := w.Upgrades.CreateOffer(id); offer != nil {
				w.SendTo(id, MsgUpgradeOffer, offer.ToMsg(UpgradeDuration))
			}
		}
	case PhaseUpgrade:
		for _, msg := range w.Upgrades.ResolvePending() {
			w.ApplyUpgrade(msg)
		}
		r.startCombat(w, r.wave+1)
	}
}

func (r *WaveRule) startCombat(w *World, wave int) {
	factor := partyFactor(w.Dir.PlayerCount())
	r.wave = wave
	r.spec = w.Registry.Wave(wave)
	r.quota = scaleCount(r.spec.TotalEnemies, factor)
	r.maxAlive = scaleCount(r.spec.MaxAlive, factor)
	r.spawned = 0
	r.spawnT = r.spec.SpawnInterval // first enemy lands on the first tick
	r.setPhase(w, PhaseCombat, 0)
}

func scaleCount(n int, factor float64) int {
	v := int(math.Round(float64(n) * factor))
	if v < 1 {
		v = 1
	}
	return v
}

func (r *WaveRule) combatTick(w *World, dt float64) {
	r.spawnT += dt
	for r.spawnT >= r.spec.SpawnInterval {
		if r.spawned >= r.quota || w.Dir.AliveEnemies() >= r.maxAlive {
			// Blocked spawns are dropped, not banked.
			r.spawnT = r.spec.SpawnInterval
			break
		}
		r.spawnT -= r.spec.SpawnInterval
		w.SpawnEnemy(r.spec.HealthMultiplier, r.spec.DamageMultiplier)
		r.spawned++
	}
	if r.spawned >= r.quota && w.Dir.AliveEnemies() == 0 {
		r.clearWave(w)
	}
}

// clearWave queues every downed connected player for a safe-point respawn,
// then either declares victory or opens the intermission.
func (r *WaveRule) clearWave(w *World) {
	r.cleared = r.wave
	w.TrackEvent(EvtWaveClear, fmt.Sprintf(`{"wave":%d}`, r.wave))
	for id, p := range w.Dir.players {
		if p.Alive || r.pending[id] != nil {
			continue
		}
		r.pending[id] = &waveRespawn{T: WaveRespawnDelay, Pos: w.SafestSpawn()}
	}
	if r.wave >= w.Registry.FinalWave() {
		r.finish(w, &GameEndResult{
			Reason:       "Final wave cleared",
			Victory:      true,
			WavesCleared: r.cleared,
		})
		return
	}
	r.setPhase(w, PhaseIntermission, IntermissionDuration)
}

func (r *WaveRule) tickRespawns(w *World, dt float64) {
	for id, q := range r.pending {
		q.T -= dt
		if q.T > 0 {
			continue
		}
		delete(r.pending, id)
		p := w.Dir.Player(id)
		if p == nil {
			continue
		}
		p.Respawn(q.Pos)
		w.Broadcast(MsgRespawn, RespawnEvent{PlayerID: id, Pos: q.Pos})
	}
}

func (r *WaveRule) OnPlayerJoin(w *World, id string) {}

func (r *WaveRule) OnPlayerLeave(w *World, id string) {
	delete(r.pending, id)
	w.Upgrades.PurgePlayer(id)
}

// OnPlayerDeath marks the player downed; the wave-clear queue brings them
// back.
func (r *WaveRule) OnPlayerDeath(w *World, id, killerID string) RespawnDecision {
	if p := w.Dir.Player(id); p != nil {
		p.Downed = true
	}
	return RespawnDecision{}
}

func (r *WaveRule) CheckGameEnd(w *World) *GameEndResult {
	if r.ended != nil {
		return r.ended
	}
	if w.Dir.PlayerCount() > 0 && w.Dir.AlivePlayers() == 0 && len(r.pending) == 0 {
		r.finish(w, &GameEndResult{Reason: "All players eliminated", WavesCleared: r.cleared})
	}
	return r.ended
}

func (r *WaveRule) finish(w *World, res *GameEndResult) {
	r.ended = res
	r.setPhase(w, PhaseEnded, 0)
}

// setPhase moves the machine and announces the transition immediately; the
// 1 Hz cadence restarts from the transition.
func (r *WaveRule) setPhase(w *World, phase WavePhase, duration float64) {
	r.phase = phase
	r.phaseT = duration
	r.statusT = 0
	w.Broadcast(MsgWaveState, r.waveState(w))
}

func (r *WaveRule) waveState(w *World) WaveStateMsg {
	msg := WaveStateMsg{
		Wave:  r.wave,
		Phase: r.phase.String(),
		Alive: w.Dir.AlivePlayers(),
		Total: w.Dir.PlayerCount(),
	}
	switch r.phase {
	case PhaseCombat:
		msg.Remaining = r.quota - r.spawned + w.Dir.AliveEnemies()
	case PhaseWarmup, PhaseIntermission, PhaseUpgrade:
		msg.TimeLeft = int(math.Ceil(r.phaseT))
	}
	return msg
}
