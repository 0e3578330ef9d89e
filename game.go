package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

// Cadences for the three scheduler passes. Each pass measures its own
// delta, so a stall in one never skews another.
const (
	NetworkInterval = 10 * time.Millisecond
	SimInterval     = time.Second / 30
	TimerInterval   = time.Second
)

const (
	cmdBufSize  = 256
	maxPlayerY  = 10.0
	originSlack = 4.0 // max gap between a claimed muzzle and the shooter
)

// XP awards folded into lifetime stats when a match wraps up.
const (
	xpPerKill     = 50
	xpPerHeadshot = 25
	xpPerWave     = 30
	xpWinBonus    = 100
)

// Broadcaster is the transport seam between the game loop and a client
// connection.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

type respawnTimer struct {
	T   float64
	Pos Vec3
}

// Game drives one session. A single goroutine owns the world: inbound
// commands, simulation steps and broadcasts all run through one select
// loop, so world state needs no locks.
type Game struct {
	world     *World
	rule      GameModeRule
	cfg       MatchConfig
	validator *Validator

	clients map[string]Broadcaster

	db        *DB
	analytics *Analytics
	sessionID string
	log       *logrus.Entry

	cmds     chan func()
	stop     chan struct{}
	stopOnce sync.Once

	tick     uint64
	started  time.Time
	uptime   int
	over     bool
	respawns map[string]*respawnTimer

	// Broad-phase scratch state, reused every simulation pass.
	grid    SpatialGrid
	refBuf  []EntityRef
	nearBuf []*Enemy
}

func NewGame(sessionID string, cfg MatchConfig, reg *arsenal.Registry, db *DB, analytics *Analytics) *Game {
	world := NewWorld(reg, cfg.Mode)
	g := &Game{
		world:     world,
		rule:      NewRuleForMode(cfg),
		cfg:       cfg,
		validator: NewValidator(world.Dir, world.History, nil),
		clients:   make(map[string]Broadcaster),
		db:        db,
		analytics: analytics,
		sessionID: sessionID,
		log: logrus.WithFields(logrus.Fields{
			"session": sessionID,
			"mode":    cfg.Mode.String(),
		}),
		cmds:     make(chan func(), cmdBufSize),
		stop:     make(chan struct{}),
		started:  time.Now(),
		respawns: make(map[string]*respawnTimer),
	}
	world.Track = func(evt, data string) {
		if g.analytics != nil {
			g.analytics.Track(evt, 0, g.sessionID, data)
		}
	}
	return g
}

// Run owns the world until Stop. All state mutation happens here.
func (g *Game) Run() {
	g.rule.OnInitialize(g.world)
	if g.analytics != nil {
		g.analytics.Track(EvtMatchStart, 0, g.sessionID, fmt.Sprintf(`{"mode":%q}`, g.world.Mode.String()))
	}

	network := time.NewTicker(NetworkInterval)
	sim := time.NewTicker(SimInterval)
	timer := time.NewTicker(TimerInterval)
	defer network.Stop()
	defer sim.Stop()
	defer timer.Stop()

	lastSim := time.Now()
	lastTimer := lastSim
	for {
		select {
		case fn := <-g.cmds:
			fn()
		case now := <-network.C:
			g.networkPass(now)
		case now := <-sim.C:
			dt := clampDT(now.Sub(lastSim).Seconds())
			lastSim = now
			g.simulationPass(now, dt)
		case now := <-timer.C:
			dt := now.Sub(lastTimer).Seconds()
			lastTimer = now
			g.timerPass(dt)
		case <-g.stop:
			return
		}
	}
}

// clampDT keeps a stalled loop from teleporting entities on its next step.
func clampDT(dt float64) float64 {
	if dt > 0.25 {
		return 0.25
	}
	return dt
}

// Stop terminates the loop. Safe to call more than once.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// do schedules fn on the game goroutine.
func (g *Game) do(fn func()) bool {
	select {
	case g.cmds <- fn:
		return true
	case <-g.stop:
		return false
	}
}

// doWait schedules fn and blocks until it ran or the loop is gone.
func (g *Game) doWait(fn func()) bool {
	done := make(chan struct{})
	if !g.do(func() { fn(); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-g.stop:
		return false
	}
}

// networkPass records history, flushes the outbound queue and ships one
// state snapshot to every client.
func (g *Game) networkPass(now time.Time) {
	g.tick++
	g.world.History.Record(now, g.world.Dir.Positions())

	for _, m := range g.world.DrainOutbox() {
		if m.To == "" {
			g.broadcast(m.Env)
			continue
		}
		if c, ok := g.clients[m.To]; ok {
			c.SendJSON(m.Env)
		}
	}

	if len(g.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(g.world.Dir.Snapshot(g.tick))
	if err != nil {
		g.log.WithError(err).Error("state snapshot encode failed")
		return
	}
	for _, c := range g.clients {
		c.SendBinary(data)
	}
}

func (g *Game) broadcast(env Envelope) {
	for _, c := range g.clients {
		c.SendJSON(env)
	}
}

// simulationPass advances weapons, enemies, pickups, pending respawns and
// the game-mode rule by dt.
func (g *Game) simulationPass(now time.Time, dt float64) {
	if g.over {
		return
	}
	w := g.world

	for _, p := range w.Dir.players {
		for _, wp := range p.Weapons {
			wp.Tick(now, dt)
		}
	}

	g.updateEnemies(dt)
	g.updatePickups(dt)
	g.tickRespawns(dt)

	g.rule.OnUpdate(w, dt)
	if res := g.rule.CheckGameEnd(w); res != nil {
		g.finishGame(res)
	}
}

// timerPass runs the slow once-per-second bookkeeping.
func (g *Game) timerPass(dt float64) {
	_ = dt
	if g.over {
		return
	}
	if res := g.rule.CheckGameEnd(g.world); res != nil {
		g.finishGame(res)
		return
	}
	g.uptime++
	if g.uptime%60 == 0 {
		g.log.WithFields(logrus.Fields{
			"players": g.world.Dir.PlayerCount(),
			"rule":    g.rule.Name(),
			"tick":    g.tick,
		}).Debug("session status")
	}
}

func (g *Game) updateEnemies(dt float64) {
	w := g.world
	alive := make([]*Enemy, 0, len(w.Dir.enemies))
	for _, e := range w.Dir.enemies {
		if e.Alive {
			alive = append(alive, e)
		}
	}

	// Separation only needs neighbors within the repel radius, so each
	// enemy steers against a grid query instead of the whole pack.
	g.grid.Clear()
	for i, e := range alive {
		g.grid.Insert(e.Pos.X, e.Pos.Z, EntityRef{Kind: 'e', Idx: i})
	}

	for _, e := range alive {
		g.refBuf = g.grid.QueryBuf(e.Pos.X, e.Pos.Z, EnemyRepelRadius, g.refBuf[:0])
		g.nearBuf = g.nearBuf[:0]
		for _, ref := range g.refBuf {
			g.nearBuf = append(g.nearBuf, alive[ref.Idx])
		}
		victimID := e.Update(dt, w.Dir.players, g.nearBuf)
		if victimID == "" {
			continue
		}
		dmg := e.AttackDamage() * w.Upgrades.DefenseMultiplier(victimID)
		res, ok := w.Dir.ApplyDamage(victimID, dmg, PartBody)
		if !ok {
			continue
		}
		w.Broadcast(MsgHit, HitEvent{
			TargetID:   victimID,
			AttackerID: e.ID,
			Damage:     res.Damage,
			NewHealth:  res.NewHealth,
			Part:       PartBody,
		})
		if res.Died {
			if p := w.Dir.Player(victimID); p != nil {
				g.onPlayerDeath(p, e.ID)
			}
		}
	}
}

func (g *Game) updatePickups(dt float64) {
	w := g.world
	for id, pk := range w.Dir.pickups {
		pk.Update(dt)
		if !pk.Alive {
			w.Dir.RemovePickup(id)
			continue
		}
		for _, p := range w.Dir.players {
			if !p.Alive || p.Pos.DistanceTo(pk.Pos) > PickupRadius {
				continue
			}
			pk.Apply(p)
			w.Dir.RemovePickup(id)
			break
		}
	}
}

func (g *Game) tickRespawns(dt float64) {
	for id, r := range g.respawns {
		r.T -= dt
		if r.T > 0 {
			continue
		}
		delete(g.respawns, id)
		p := g.world.Dir.Player(id)
		if p == nil {
			continue
		}
		p.Respawn(r.Pos)
		g.world.Broadcast(MsgRespawn, RespawnEvent{PlayerID: id, Pos: r.Pos})
	}
}

// AddPlayer joins a player with the full configured arsenal. Returns nil
// when the session is full or already over.
func (g *Game) AddPlayer(name string, authID int64) *Player {
	var out *Player
	g.doWait(func() {
		if g.over || g.world.Dir.PlayerCount() >= g.cfg.MaxPlayers {
			return
		}
		loadout := make([]*Weapon, 0, len(g.world.Registry.Weapons))
		for i := range g.world.Registry.Weapons {
			loadout = append(loadout, NewWeapon(&g.world.Registry.Weapons[i]))
		}
		p := NewPlayer("p_"+GenerateID(4), name, g.world.RandomSpawn(), loadout)
		p.AuthPlayerID = authID
		g.world.Dir.AddPlayer(p)
		g.rule.OnPlayerJoin(g.world, p.ID)
		g.log.WithFields(logrus.Fields{"player": p.ID, "name": name}).Info("player joined")
		if g.analytics != nil {
			g.analytics.Track(EvtSessionStart, authID, g.sessionID, "")
		}
		out = p
	})
	return out
}

// RemovePlayer drops a player and persists their partial stats if the
// match is still running.
func (g *Game) RemovePlayer(id string) {
	g.do(func() {
		p := g.world.Dir.Player(id)
		if p == nil {
			return
		}
		g.rule.OnPlayerLeave(g.world, id)
		delete(g.respawns, id)
		g.world.Dir.RemovePlayer(id)
		delete(g.clients, id)

		playtime := time.Since(p.JoinedAt).Seconds()
		if g.analytics != nil {
			g.analytics.Track(EvtSessionEnd, p.AuthPlayerID, g.sessionID, fmt.Sprintf(`{"playtime":%.0f}`, playtime))
		}
		if !g.over && g.db != nil && p.AuthPlayerID > 0 {
			g.persistPlayer(p, playtime, false, 0)
		}
		g.log.WithField("player", id).Info("player left")
	})
}

// SetClient attaches the transport for a joined player.
func (g *Game) SetClient(playerID string, c Broadcaster) {
	g.do(func() { g.clients[playerID] = c })
}

func (g *Game) PlayerCount() int {
	n := 0
	g.doWait(func() { n = g.world.Dir.PlayerCount() })
	return n
}

func (g *Game) HasPlayer(id string) bool {
	found := false
	g.doWait(func() { found = g.world.Dir.Player(id) != nil })
	return found
}

// Command entry points, called from client goroutines.

func (g *Game) HandleMove(playerID string, msg MoveMsg) {
	g.do(func() { g.handleMove(playerID, msg) })
}

func (g *Game) HandleFire(playerID string, msg FireMsg) {
	g.do(func() { g.handleFire(playerID, msg) })
}

func (g *Game) HandleHitClaim(playerID string, claim HitClaimMsg) {
	g.do(func() { g.handleHitClaim(playerID, claim) })
}

func (g *Game) HandleReload(playerID string, msg ReloadMsg) {
	g.do(func() { g.handleReload(playerID, msg) })
}

func (g *Game) HandleUpgradePick(playerID string, msg UpgradePickMsg) {
	g.do(func() { g.handleUpgradePick(playerID, msg) })
}

func (g *Game) handleMove(playerID string, msg MoveMsg) {
	if g.over {
		return
	}
	p := g.world.Dir.Player(playerID)
	if p == nil || !p.Alive {
		return
	}
	p.Pos = Vec3{
		X: Clamp(msg.Pos.X, -ArenaHalf, ArenaHalf),
		Y: Clamp(msg.Pos.Y, 0, maxPlayerY),
		Z: Clamp(msg.Pos.Z, -ArenaHalf, ArenaHalf),
	}
	p.Rot = msg.Rot
	if msg.Weapon != "" && msg.Weapon != p.CurWeapon {
		p.SwitchWeapon(msg.Weapon)
	}
}

func (g *Game) handleFire(playerID string, msg FireMsg) {
	if g.over {
		return
	}
	p := g.world.Dir.Player(playerID)
	if p == nil || !p.Alive {
		return
	}
	if msg.Weapon != p.CurWeapon {
		g.log.WithFields(logrus.Fields{"player": playerID, "weapon": msg.Weapon}).Debug("fire for a weapon not in hand")
		return
	}
	wp := p.HeldWeapon()
	if wp == nil || !wp.Fire(time.Now()) {
		return
	}
	g.world.Broadcast(MsgFire, FireEvent{
		PlayerID: playerID,
		Weapon:   msg.Weapon,
		Origin:   msg.Origin.Rounded(),
		Dir:      msg.Dir,
		Ammo:     wp.Current,
	})
}

func (g *Game) handleHitClaim(playerID string, claim HitClaimMsg) {
	if g.over {
		return
	}
	w := g.world
	p := w.Dir.Player(playerID)
	if p == nil || !p.Alive || claim.TargetID == playerID {
		return
	}
	wp := p.Weapon(claim.Weapon)
	if wp == nil {
		g.log.WithFields(logrus.Fields{"player": playerID, "weapon": claim.Weapon}).Debug("hit claim for unowned weapon")
		return
	}
	if claim.Origin.DistanceTo(p.Pos) > originSlack {
		g.log.WithField("player", playerID).Debug("hit claim origin away from shooter")
		return
	}

	now := time.Now()
	verdict := g.validator.Validate(claim, ClaimTime(claim.ClientTS, now))
	if !verdict.Accepted {
		g.log.WithFields(logrus.Fields{
			"player": playerID,
			"target": claim.TargetID,
			"reason": verdict.Reason,
		}).Debug("hit claim rejected")
		return
	}

	dmg := math.Min(claim.Damage, wp.Spec.Damage)
	dmg *= w.Upgrades.DamageMultiplier(playerID)
	if w.Dir.Player(claim.TargetID) != nil {
		dmg *= w.Upgrades.DefenseMultiplier(claim.TargetID)
	}

	res, ok := w.Dir.ApplyDamage(claim.TargetID, dmg, verdict.Part)
	if !ok {
		return
	}
	p.DamageDealt += res.Damage

	if res.Target.EntityKind() == KindTarget {
		w.Broadcast(MsgTargetHit, HitEvent{
			TargetID:   claim.TargetID,
			AttackerID: playerID,
			Damage:     res.Damage,
			NewHealth:  res.NewHealth,
			Part:       verdict.Part,
		})
		if res.Died {
			p.Kills++
		}
		return
	}

	if verdict.Part == PartHead {
		p.Headshots++
	}
	w.Broadcast(MsgHit, HitEvent{
		TargetID:   claim.TargetID,
		AttackerID: playerID,
		Damage:     res.Damage,
		NewHealth:  res.NewHealth,
		Part:       verdict.Part,
	})
	if !res.Died {
		return
	}
	p.Kills++
	if g.analytics != nil {
		g.analytics.Track(EvtPlayerKill, p.AuthPlayerID, g.sessionID, "")
	}
	switch t := res.Target.(type) {
	case *Player:
		g.onPlayerDeath(t, playerID)
	case *Enemy:
		g.onEnemyDeath(t, playerID)
	}
}

func (g *Game) handleReload(playerID string, msg ReloadMsg) {
	if g.over {
		return
	}
	p := g.world.Dir.Player(playerID)
	if p == nil || !p.Alive || msg.Weapon != p.CurWeapon {
		return
	}
	wp := p.HeldWeapon()
	if wp == nil || !wp.StartReload() {
		return
	}
	g.world.Broadcast(MsgReload, ReloadEvent{
		PlayerID: playerID,
		Weapon:   msg.Weapon,
		Duration: wp.Spec.ReloadTime,
	})
}

func (g *Game) handleUpgradePick(playerID string, msg UpgradePickMsg) {
	if g.over {
		return
	}
	apply, ok := g.world.Upgrades.Pick(msg.OfferID, msg.UpgradeID, playerID)
	if !ok {
		g.log.WithFields(logrus.Fields{"player": playerID, "offer": msg.OfferID}).Debug("upgrade pick rejected")
		return
	}
	g.world.ApplyUpgrade(apply)
	if g.analytics != nil {
		if p := g.world.Dir.Player(playerID); p != nil {
			g.analytics.Track(EvtUpgradePick, p.AuthPlayerID, g.sessionID, fmt.Sprintf(`{"upgrade":%q}`, msg.UpgradeID))
		}
	}
}

// onPlayerDeath asks the mode rule what happens next and announces it.
func (g *Game) onPlayerDeath(p *Player, killerID string) {
	p.Deaths++
	dec := g.rule.OnPlayerDeath(g.world, p.ID, killerID)
	g.world.Broadcast(MsgDeath, DeathEvent{
		TargetID:     p.ID,
		AttackerID:   killerID,
		RespawnDelay: dec.Delay,
		CanRespawn:   dec.Respawn,
		Mode:         g.world.Mode.String(),
	})
	if dec.Respawn {
		g.respawns[p.ID] = &respawnTimer{T: dec.Delay, Pos: dec.Pos}
	}
	if g.analytics != nil {
		g.analytics.Track(EvtPlayerDeath, p.AuthPlayerID, g.sessionID, "")
	}
}

// onEnemyDeath announces the kill, rolls the pickup table and retires the
// corpse from the directory.
func (g *Game) onEnemyDeath(e *Enemy, killerID string) {
	w := g.world
	w.Broadcast(MsgDeath, DeathEvent{
		TargetID:   e.ID,
		AttackerID: killerID,
		Mode:       w.Mode.String(),
	})
	if randFloat() < PickupDropChance {
		typ := PickupHealth
		if randFloat() < 0.5 {
			typ = PickupAmmo
		}
		w.SpawnPickup(e.Pos, typ)
	}
	w.Dir.RemoveEnemy(e.ID)
}

// finishGame broadcasts the final scoreboard exactly once and persists
// lifetime stats, match rows and achievements.
func (g *Game) finishGame(res *GameEndResult) {
	if g.over {
		return
	}
	g.over = true
	duration := time.Since(g.started).Seconds()

	stats := make([]PlayerEndStats, 0, g.world.Dir.PlayerCount())
	for _, p := range g.world.Dir.players {
		stats = append(stats, PlayerEndStats{
			PlayerID: p.ID,
			Name:     p.Name,
			Kills:    p.Kills,
			Deaths:   p.Deaths,
			Damage:   round2(p.DamageDealt),
		})
	}
	g.world.Broadcast(MsgGameEnd, GameEndMsg{WinnerID: res.WinnerID, Reason: res.Reason, Stats: stats})

	var matchID int64
	if g.db != nil {
		id, err := g.db.RecordMatch(int(g.cfg.Mode), duration, res.WinnerID, res.Reason)
		if err != nil {
			g.log.WithError(err).Warn("match record failed")
		} else {
			matchID = id
		}
	}
	for _, p := range g.world.Dir.players {
		won := res.Victory || (res.WinnerID != "" && res.WinnerID == p.ID)
		if g.db == nil || p.AuthPlayerID == 0 {
			continue
		}
		g.persistPlayer(p, time.Since(p.JoinedAt).Seconds(), won, res.WavesCleared)
		if matchID != 0 {
			err := g.db.RecordMatchPlayer(matchID, p.AuthPlayerID, p.Kills, p.Deaths, p.Headshots, matchXP(p, won, res.WavesCleared))
			if err != nil {
				g.log.WithError(err).Warn("match player record failed")
			}
		}
	}
	if g.analytics != nil {
		g.analytics.Track(EvtMatchEnd, 0, g.sessionID,
			fmt.Sprintf(`{"mode":%q,"duration":%.0f}`, g.world.Mode.String(), duration))
	}
	g.log.WithFields(logrus.Fields{
		"reason":   res.Reason,
		"winner":   res.WinnerID,
		"duration": fmt.Sprintf("%.0fs", duration),
	}).Info("match ended")
}

func matchXP(p *Player, won bool, waves int) int {
	xp := p.Kills*xpPerKill + p.Headshots*xpPerHeadshot + waves*xpPerWave
	if won {
		xp += xpWinBonus
	}
	return xp
}

// persistPlayer folds one player's match into their lifetime stats and
// delivers any achievements that unlocked.
func (g *Game) persistPlayer(p *Player, playtime float64, won bool, waves int) {
	totalXP, level, err := g.db.UpdateStatsAfterMatch(
		p.AuthPlayerID, p.Kills, p.Deaths, p.Headshots, waves, won, playtime, matchXP(p, won, waves))
	if err != nil {
		g.log.WithError(err).Warn("stats update failed")
		return
	}
	for _, def := range CheckAchievements(g.db, p.AuthPlayerID, p.Kills, p.Deaths, waves, won) {
		if c, ok := g.clients[p.ID]; ok {
			c.SendJSON(Envelope{T: MsgAchievement, Data: AchievementMsg{ID: def.ID, Name: def.Name, Desc: def.Description}})
		}
		if g.analytics != nil {
			g.analytics.Track(EvtAchievement, p.AuthPlayerID, g.sessionID, fmt.Sprintf(`{"id":%q}`, def.ID))
		}
	}
	g.log.WithFields(logrus.Fields{"player": p.ID, "xp": totalXP, "level": level}).Debug("stats persisted")
}
