package main

import (
	"math/rand"
	"time"
)

const (
	PlayerMaxHP    = 100.0
	PlayerHeadY    = 1.6 // head center height above entity root
	HeadRadius     = 0.25
	HeadMultiplier = 2.0
	RespawnTime    = 3.0 // deathmatch respawn delay, seconds
)

// Player is the authoritative record for one connected player.
type Player struct {
	ID   string
	Name string
	Pos  Vec3
	Rot  Vec3

	HP          float64
	BaseMaxHP   float64
	HealthBonus float64 // from upgrade stacks, added on top of BaseMaxHP

	Weapons   map[string]*Weapon
	CurWeapon string

	Alive  bool
	Downed bool // dead mid-wave, waiting for the wave-clear respawn queue

	Kills       int
	Deaths      int
	Headshots   int
	DamageDealt float64

	AuthPlayerID int64 // persistent account id, 0 = guest
	JoinedAt     time.Time
}

// NewPlayer creates a player at the given spawn with the default load-out.
func NewPlayer(id, name string, spawn Vec3, loadout []*Weapon) *Player {
	p := &Player{
		ID:        id,
		Name:      name,
		Pos:       spawn,
		HP:        PlayerMaxHP,
		BaseMaxHP: PlayerMaxHP,
		Weapons:   make(map[string]*Weapon, len(loadout)),
		Alive:     true,
		JoinedAt:  time.Now(),
	}
	for _, w := range loadout {
		p.Weapons[w.Spec.ID] = w
	}
	if len(loadout) > 0 {
		p.CurWeapon = loadout[0].Spec.ID
	}
	return p
}

func (p *Player) EntityID() string       { return p.ID }
func (p *Player) EntityKind() EntityKind { return KindPlayer }
func (p *Player) Position() Vec3         { return p.Pos }
func (p *Player) Health() float64        { return p.HP }
func (p *Player) IsDead() bool           { return !p.Alive }

// MaxHealth is the effective cap including upgrade bonuses.
func (p *Player) MaxHealth() float64 {
	return p.BaseMaxHP + p.HealthBonus
}

// PartMultiplier returns the damage multiplier for a named hit part.
// Unknown parts fall through to the body multiplier.
func (p *Player) PartMultiplier(part string) float64 {
	if part == PartHead {
		return HeadMultiplier
	}
	return 1.0
}

// TakeDamage clamps health at zero and reports death exactly once.
func (p *Player) TakeDamage(amount float64) (float64, bool) {
	if !p.Alive {
		return p.HP, false
	}
	p.HP -= amount
	if p.HP <= 0 {
		p.HP = 0
		p.Alive = false
		return 0, true
	}
	return p.HP, false
}

// Heal raises health up to the effective max.
func (p *Player) Heal(amount float64) {
	if !p.Alive || amount <= 0 {
		return
	}
	p.HP = Clamp(p.HP+amount, 0, p.MaxHealth())
}

// GrowMaxHealth raises the upgrade health bonus and heals by the delta,
// so picking a vitality upgrade is never a net loss.
func (p *Player) GrowMaxHealth(delta float64) {
	p.HealthBonus += delta
	if p.Alive {
		p.HP = Clamp(p.HP+delta, 0, p.MaxHealth())
	}
}

// Weapon returns the player's weapon by id, nil if not carried.
func (p *Player) Weapon(id string) *Weapon {
	return p.Weapons[id]
}

// HeldWeapon returns the currently equipped weapon.
func (p *Player) HeldWeapon() *Weapon {
	return p.Weapons[p.CurWeapon]
}

// SwitchWeapon equips another carried weapon. Switching away cancels an
// in-flight reload without refunding the reserve.
func (p *Player) SwitchWeapon(id string) bool {
	if id == p.CurWeapon {
		return false
	}
	next, ok := p.Weapons[id]
	if !ok {
		return false
	}
	if cur := p.HeldWeapon(); cur != nil {
		cur.CancelReload()
	}
	p.CurWeapon = next.Spec.ID
	return true
}

// Respawn resets the player for re-entry at the given point.
func (p *Player) Respawn(at Vec3) {
	p.Pos = at
	p.HP = p.MaxHealth()
	p.Alive = true
	p.Downed = false
	for _, w := range p.Weapons {
		w.CancelReload()
	}
}

// HeadPosition returns the center of the head sub-volume.
func (p *Player) HeadPosition() Vec3 {
	return Vec3{X: p.Pos.X, Y: p.Pos.Y + PlayerHeadY, Z: p.Pos.Z}
}

// ToState converts to protocol state.
func (p *Player) ToState() PlayerState {
	s := PlayerState{
		ID:     p.ID,
		Name:   p.Name,
		Pos:    p.Pos.Rounded(),
		Rot:    p.Rot.Rounded(),
		HP:     round2(p.HP),
		MaxHP:  round2(p.MaxHealth()),
		Weapon: p.CurWeapon,
		Dead:   !p.Alive,
		Kills:  p.Kills,
		Deaths: p.Deaths,
	}
	if w := p.HeldWeapon(); w != nil {
		s.Ammo = AmmoState{Cur: w.Current, Reserve: w.Reserve, Mag: w.Spec.MagazineSize}
	}
	return s
}

// randFloat returns a uniform float64 in [0, 1). Spawn picks and drop
// rolls do not need crypto randomness.
func randFloat() float64 {
	return rand.Float64()
}
