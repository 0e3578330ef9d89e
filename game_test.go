package main

import (
	"sync"
	"testing"
	"time"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

// mockBroadcaster captures everything a client would receive.
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []Envelope
	frames   int
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if env, ok := msg.(Envelope); ok {
		m.messages = append(m.messages, env)
	}
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()
}

func (m *mockBroadcaster) find(msgType string) (Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, env := range m.messages {
		if env.T == msgType {
			return env, true
		}
	}
	return Envelope{}, false
}

func (m *mockBroadcaster) count(msgType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, env := range m.messages {
		if env.T == msgType {
			n++
		}
	}
	return n
}

func startTestGame(t *testing.T, mode GameMode) *Game {
	t.Helper()
	g := NewGame("test-session", DefaultConfig(mode), arsenal.Default(), nil, nil)
	go g.Run()
	t.Cleanup(g.Stop)
	return g
}

// waitForMsg polls a mock until a message of the given type arrived. The
// outbox drains on the next network tick, so broadcasts are not visible
// synchronously.
func waitForMsg(t *testing.T, m *mockBroadcaster, msgType string) Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if env, ok := m.find(msgType); ok {
			return env
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %q message within 2s", msgType)
	return Envelope{}
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)

	p := g.AddPlayer("TestPilot", 0)
	if p == nil || p.Name != "TestPilot" {
		t.Fatalf("expected joined player TestPilot, got %+v", p)
	}
	if want := len(arsenal.Default().Weapons); len(p.Weapons) != want {
		t.Errorf("expected the full arsenal of %d weapons, got %d", want, len(p.Weapons))
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
}

func TestGameRejectsJoinWhenFull(t *testing.T) {
	g := startTestGame(t, ModeWave)

	limit := DefaultConfig(ModeWave).MaxPlayers
	for i := 0; i < limit; i++ {
		if g.AddPlayer("P", 0) == nil {
			t.Fatalf("join %d of %d should succeed", i+1, limit)
		}
	}
	if g.AddPlayer("Overflow", 0) != nil {
		t.Error("join beyond capacity should be rejected")
	}
}

func TestGameMoveClampsToArena(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	p := g.AddPlayer("Runner", 0)

	g.HandleMove(p.ID, MoveMsg{Pos: Vec3{X: 999, Y: -5, Z: -999}})

	g.doWait(func() {
		if p.Pos.X != ArenaHalf || p.Pos.Z != -ArenaHalf {
			t.Errorf("position should clamp to the arena, got %+v", p.Pos)
		}
		if p.Pos.Y != 0 {
			t.Errorf("y should clamp to the floor, got %v", p.Pos.Y)
		}
	})
}

func TestGameMoveSwitchesWeapon(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	p := g.AddPlayer("Switcher", 0)

	var other string
	g.doWait(func() {
		for id := range p.Weapons {
			if id != p.CurWeapon {
				other = id
				break
			}
		}
	})
	if other == "" {
		t.Skip("arsenal has a single weapon")
	}

	g.HandleMove(p.ID, MoveMsg{Pos: Vec3{}, Weapon: other})
	g.doWait(func() {
		if p.CurWeapon != other {
			t.Errorf("expected weapon %q equipped, got %q", other, p.CurWeapon)
		}
	})
}

func TestGameFireEchoesAndSpendsAmmo(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	shooter := g.AddPlayer("Shooter", 0)
	watcher := g.AddPlayer("Watcher", 0)

	mock := &mockBroadcaster{}
	g.SetClient(watcher.ID, mock)

	var weapon string
	var mag int
	g.doWait(func() {
		weapon = shooter.CurWeapon
		mag = shooter.HeldWeapon().Spec.MagazineSize
	})

	g.HandleFire(shooter.ID, FireMsg{Weapon: weapon, Origin: shooter.Pos, Dir: Vec3{Z: 1}})

	env := waitForMsg(t, mock, MsgFire)
	ev, ok := env.Data.(FireEvent)
	if !ok {
		t.Fatalf("fire payload has type %T", env.Data)
	}
	if ev.PlayerID != shooter.ID || ev.Weapon != weapon {
		t.Errorf("unexpected fire echo: %+v", ev)
	}
	if ev.Ammo != mag-1 {
		t.Errorf("expected %d rounds after the shot, got %d", mag-1, ev.Ammo)
	}

	g.doWait(func() {
		if shooter.HeldWeapon().Current != mag-1 {
			t.Errorf("magazine should hold %d, has %d", mag-1, shooter.HeldWeapon().Current)
		}
	})
}

func TestGameFireRejectsHolsteredWeapon(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	p := g.AddPlayer("Shooter", 0)

	var mag int
	g.doWait(func() { mag = p.HeldWeapon().Spec.MagazineSize })

	g.HandleFire(p.ID, FireMsg{Weapon: "not_in_hand", Dir: Vec3{Z: 1}})
	g.doWait(func() {
		if p.HeldWeapon().Current != mag {
			t.Error("fire for a holstered weapon must not spend ammo")
		}
	})
}

func TestGameHitClaimKillsAndQueuesRespawn(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	shooter := g.AddPlayer("Shooter", 0)
	victim := g.AddPlayer("Victim", 0)

	mock := &mockBroadcaster{}
	g.SetClient(shooter.ID, mock)

	var claim HitClaimMsg
	var specDmg float64
	g.doWait(func() {
		shooter.Pos = Vec3{}
		victim.Pos = Vec3{Z: 5}
		victim.HP = 10
		specDmg = shooter.HeldWeapon().Spec.Damage
		g.world.History.Record(time.Now(), g.world.Dir.Positions())
		claim = HitClaimMsg{
			TargetID: victim.ID,
			Damage:   1000, // clamped to the weapon spec
			Part:     PartBody,
			Weapon:   shooter.CurWeapon,
			Origin:   shooter.Pos,
			Dir:      Vec3{Z: 1},
		}
	})

	g.HandleHitClaim(shooter.ID, claim)

	death := waitForMsg(t, mock, MsgDeath)
	ev := death.Data.(DeathEvent)
	if ev.TargetID != victim.ID || ev.AttackerID != shooter.ID {
		t.Errorf("unexpected death event: %+v", ev)
	}
	if !ev.CanRespawn || ev.RespawnDelay != RespawnTime {
		t.Errorf("deathmatch deaths respawn after %v, got %+v", RespawnTime, ev)
	}

	g.doWait(func() {
		if victim.Alive {
			t.Error("victim should be down")
		}
		if shooter.Kills != 1 || victim.Deaths != 1 {
			t.Errorf("scoreboard wrong: kills=%d deaths=%d", shooter.Kills, victim.Deaths)
		}
		if hit, ok := mock.find(MsgHit); !ok {
			t.Error("kill should be preceded by a hit event")
		} else if hit.Data.(HitEvent).Damage > specDmg {
			t.Error("damage above the weapon spec leaked through")
		}
		if _, ok := g.respawns[victim.ID]; !ok {
			t.Error("victim missing from the respawn queue")
		}
	})
}

func TestGameHitClaimDamageClampedToSpec(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	shooter := g.AddPlayer("Shooter", 0)
	victim := g.AddPlayer("Victim", 0)

	var specDmg float64
	g.doWait(func() {
		shooter.Pos = Vec3{}
		victim.Pos = Vec3{Z: 5}
		specDmg = shooter.HeldWeapon().Spec.Damage
		g.world.History.Record(time.Now(), g.world.Dir.Positions())
	})

	g.HandleHitClaim(shooter.ID, HitClaimMsg{
		TargetID: victim.ID, Damage: 9999, Part: PartBody,
		Weapon: shooter.CurWeapon, Origin: Vec3{}, Dir: Vec3{Z: 1},
	})

	g.doWait(func() {
		if got := PlayerMaxHP - victim.HP; got > specDmg {
			t.Errorf("victim lost %v hp, spec caps at %v", got, specDmg)
		}
	})
}

func TestGameHitClaimGuards(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	shooter := g.AddPlayer("Shooter", 0)
	victim := g.AddPlayer("Victim", 0)

	g.doWait(func() {
		shooter.Pos = Vec3{}
		victim.Pos = Vec3{Z: 5}
		g.world.History.Record(time.Now(), g.world.Dir.Positions())
	})

	// Self hits, unowned weapons and teleported origins all drop silently.
	g.HandleHitClaim(shooter.ID, HitClaimMsg{
		TargetID: shooter.ID, Damage: 50, Part: PartBody,
		Weapon: shooter.CurWeapon, Dir: Vec3{Z: 1},
	})
	g.HandleHitClaim(shooter.ID, HitClaimMsg{
		TargetID: victim.ID, Damage: 50, Part: PartBody,
		Weapon: "ghost_gun", Dir: Vec3{Z: 1},
	})
	g.HandleHitClaim(shooter.ID, HitClaimMsg{
		TargetID: victim.ID, Damage: 50, Part: PartBody,
		Weapon: shooter.CurWeapon, Origin: Vec3{X: 30}, Dir: Vec3{Z: 1},
	})

	g.doWait(func() {
		if shooter.HP != PlayerMaxHP || victim.HP != PlayerMaxHP {
			t.Errorf("guarded claims applied damage: shooter=%v victim=%v", shooter.HP, victim.HP)
		}
	})
}

func TestGameRespawnTimerRestoresPlayer(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	p := g.AddPlayer("Phoenix", 0)

	mock := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	g.doWait(func() {
		p.TakeDamage(1000)
		g.onPlayerDeath(p, "")
		// Fast-forward past the deathmatch delay instead of sleeping.
		g.tickRespawns(RespawnTime + 0.1)
	})

	waitForMsg(t, mock, MsgRespawn)
	g.doWait(func() {
		if !p.Alive {
			t.Error("player should be back up")
		}
		if p.HP != p.MaxHealth() {
			t.Errorf("respawn should restore full health, got %v", p.HP)
		}
		if len(g.respawns) != 0 {
			t.Error("respawn queue should be empty")
		}
	})
}

func TestGameFinishBroadcastsOnce(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	p := g.AddPlayer("Winner", 0)

	mock := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	g.doWait(func() {
		g.finishGame(&GameEndResult{WinnerID: p.ID, Reason: "score"})
		g.finishGame(&GameEndResult{WinnerID: p.ID, Reason: "score"})
	})

	env := waitForMsg(t, mock, MsgGameEnd)
	end := env.Data.(GameEndMsg)
	if end.WinnerID != p.ID || end.Reason != "score" {
		t.Errorf("unexpected end payload: %+v", end)
	}
	if len(end.Stats) != 1 || end.Stats[0].PlayerID != p.ID {
		t.Errorf("scoreboard should list the lone player: %+v", end.Stats)
	}

	// A finished game ignores input and never announces twice.
	g.HandleFire(p.ID, FireMsg{Weapon: p.CurWeapon, Dir: Vec3{Z: 1}})
	g.doWait(func() {
		if n := mock.count(MsgGameEnd); n != 1 {
			t.Errorf("game end announced %d times", n)
		}
		if !g.over {
			t.Error("game should be marked over")
		}
	})
}

func TestGameStreamsBinarySnapshots(t *testing.T) {
	g := startTestGame(t, ModeDeathmatch)
	p := g.AddPlayer("Viewer", 0)

	mock := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mock.mu.Lock()
		n := mock.frames
		mock.mu.Unlock()
		if n >= 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no state frames within 2s")
}
