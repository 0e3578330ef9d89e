package main

import (
	"math"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

// ArenaHalf bounds the playable square on X and Z.
const ArenaHalf = 40.0

// Player spawn candidates. The wave rule also searches this fixed set for
// the safest respawn point.
var spawnPoints = []Vec3{
	{X: -30, Z: -30}, {X: 30, Z: -30}, {X: -30, Z: 30}, {X: 30, Z: 30},
	{X: 0, Z: -34}, {X: 0, Z: 34}, {X: -34, Z: 0}, {X: 34, Z: 0},
}

// Enemy entry points around the arena rim.
var enemySpawns = []Vec3{
	{X: -38, Z: 0}, {X: 38, Z: 0}, {X: 0, Z: -38}, {X: 0, Z: 38},
	{X: -38, Z: -38}, {X: 38, Z: 38}, {X: -38, Z: 38}, {X: 38, Z: -38},
}

// outMsg is one queued outbound message; To == "" broadcasts to the session.
type outMsg struct {
	To  string
	Env Envelope
}

// World is the capability surface handed to game-mode rules: the entity
// registry, spawners, the outbound queue, and the live arsenal. Rules
// never talk to sockets or the scheduler directly.
type World struct {
	Dir      *Directory
	History  *History
	Registry *arsenal.Registry
	Upgrades *UpgradeTracker
	Mode     GameMode

	// Track forwards a session-scoped analytics event. Nil outside a
	// running game, so callers go through the helper below.
	Track func(evt, data string)

	outbox []outMsg
}

func NewWorld(reg *arsenal.Registry, mode GameMode) *World {
	return &World{
		Dir:      NewDirectory(),
		History:  NewHistory(HistoryWindow),
		Registry: reg,
		Upgrades: NewUpgradeTracker(reg),
		Mode:     mode,
	}
}

// Broadcast queues a session-wide message for the next network flush.
// Queuing instead of sending inline keeps rule callbacks from re-entering
// the transport mid-mutation.
func (w *World) Broadcast(t string, data interface{}) {
	w.outbox = append(w.outbox, outMsg{Env: Envelope{T: t, Data: data}})
}

// SendTo queues a message for a single player.
func (w *World) SendTo(playerID, t string, data interface{}) {
	w.outbox = append(w.outbox, outMsg{To: playerID, Env: Envelope{T: t, Data: data}})
}

// DrainOutbox hands the queued messages to the network pass and resets it.
func (w *World) DrainOutbox() []outMsg {
	out := w.outbox
	w.outbox = nil
	return out
}

// TrackEvent records an analytics event when a sink is attached.
func (w *World) TrackEvent(evt, data string) {
	if w.Track != nil {
		w.Track(evt, data)
	}
}

// ApplyUpgrade announces a granted upgrade and folds any max-health bonus
// into the player's cached total. Damage and defense multipliers are read
// from the tracker at hit time, so only health needs syncing here.
func (w *World) ApplyUpgrade(msg UpgradeApplyMsg) {
	if p := w.Dir.Player(msg.PlayerID); p != nil {
		if delta := w.Upgrades.HealthBonus(msg.PlayerID) - p.HealthBonus; delta > 0 {
			p.GrowMaxHealth(delta)
		}
	}
	w.Broadcast(MsgUpgradeApply, msg)
}

// SpawnEnemy places a wave enemy at a random rim entry point.
func (w *World) SpawnEnemy(healthMult, damageMult float64) *Enemy {
	at := enemySpawns[int(randFloat()*float64(len(enemySpawns)))%len(enemySpawns)]
	e := NewEnemy(at, healthMult, damageMult)
	w.Dir.AddEnemy(e)
	return e
}

func (w *World) SpawnTarget(at Vec3, typ string) *Target {
	t := NewTarget(at, typ)
	w.Dir.AddTarget(t)
	return t
}

func (w *World) SpawnPickup(at Vec3, typ string) *Pickup {
	pk := NewPickup(at, typ)
	w.Dir.AddPickup(pk)
	return pk
}

// RandomSpawn returns one of the player spawn candidates.
func (w *World) RandomSpawn() Vec3 {
	return spawnPoints[int(randFloat()*float64(len(spawnPoints)))%len(spawnPoints)]
}

// SafestSpawn returns the candidate maximizing the minimum distance to any
// alive enemy. With no enemies alive every candidate ties and the first
// wins, which keeps wave-clear respawns deterministic.
func (w *World) SafestSpawn() Vec3 {
	best := spawnPoints[0]
	bestScore := -1.0
	for _, sp := range spawnPoints {
		minDist := math.MaxFloat64
		for _, e := range w.Dir.enemies {
			if !e.Alive {
				continue
			}
			if d := sp.DistanceTo(e.Pos); d < minDist {
				minDist = d
			}
		}
		if minDist > bestScore {
			bestScore = minDist
			best = sp
		}
	}
	return best
}
