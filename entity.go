package main

// EntityKind tags every simulated entity with its type.
type EntityKind int

const (
	KindPlayer EntityKind = iota
	KindEnemy
	KindTarget
	KindPickup
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	case KindTarget:
		return "target"
	case KindPickup:
		return "pickup"
	}
	return "unknown"
}

// Hit part names carried in claims and broadcasts.
const (
	PartHead   = "head"
	PartBody   = "body"
	PartObject = "object"
)

// Damageable is the contract the directory needs to apply damage to an
// entity. All health mutation from combat goes through Directory.ApplyDamage,
// never through these methods directly.
type Damageable interface {
	EntityID() string
	EntityKind() EntityKind
	Position() Vec3
	Health() float64
	MaxHealth() float64
	IsDead() bool
	PartMultiplier(part string) float64
	TakeDamage(amount float64) (newHealth float64, died bool)
}

// DamageResult describes one applied damage event.
type DamageResult struct {
	Target    Damageable
	Damage    float64 // after the part multiplier
	NewHealth float64
	Died      bool
	Part      string
}

// Directory is the authoritative registry of every simulated entity,
// keyed by id within its kind. It is only ever touched from the game loop
// goroutine, so it carries no locks.
type Directory struct {
	players map[string]*Player
	enemies map[string]*Enemy
	targets map[string]*Target
	pickups map[string]*Pickup
}

func NewDirectory() *Directory {
	return &Directory{
		players: make(map[string]*Player),
		enemies: make(map[string]*Enemy),
		targets: make(map[string]*Target),
		pickups: make(map[string]*Pickup),
	}
}

func (d *Directory) AddPlayer(p *Player)  { d.players[p.ID] = p }
func (d *Directory) AddEnemy(e *Enemy)    { d.enemies[e.ID] = e }
func (d *Directory) AddTarget(t *Target)  { d.targets[t.ID] = t }
func (d *Directory) AddPickup(pk *Pickup) { d.pickups[pk.ID] = pk }

func (d *Directory) RemovePlayer(id string) { delete(d.players, id) }
func (d *Directory) RemoveEnemy(id string)  { delete(d.enemies, id) }
func (d *Directory) RemoveTarget(id string) { delete(d.targets, id) }
func (d *Directory) RemovePickup(id string) { delete(d.pickups, id) }

func (d *Directory) Player(id string) *Player { return d.players[id] }
func (d *Directory) Enemy(id string) *Enemy   { return d.enemies[id] }
func (d *Directory) Target(id string) *Target { return d.targets[id] }

// Find looks an id up across the damageable namespaces.
func (d *Directory) Find(id string) (Damageable, bool) {
	if p, ok := d.players[id]; ok {
		return p, true
	}
	if e, ok := d.enemies[id]; ok {
		return e, true
	}
	if t, ok := d.targets[id]; ok {
		return t, true
	}
	return nil, false
}

// ApplyDamage is the single damage entry point. It resolves the part
// multiplier, clamps health, and reports death exactly once; hitting an
// already-dead entity is a no-op.
func (d *Directory) ApplyDamage(targetID string, damage float64, part string) (DamageResult, bool) {
	target, ok := d.Find(targetID)
	if !ok || target.IsDead() {
		return DamageResult{}, false
	}
	if damage < 0 {
		damage = 0
	}
	final := damage * target.PartMultiplier(part)
	newHP, died := target.TakeDamage(final)
	return DamageResult{
		Target:    target,
		Damage:    final,
		NewHealth: newHP,
		Died:      died,
		Part:      part,
	}, true
}

// Positions collects the current position of every positional entity,
// keyed by id. Fed into the history buffer each network tick.
func (d *Directory) Positions() map[string]Vec3 {
	out := make(map[string]Vec3, len(d.players)+len(d.enemies))
	for id, p := range d.players {
		out[id] = p.Pos
	}
	for id, e := range d.enemies {
		out[id] = e.Pos
	}
	return out
}

func (d *Directory) PlayerCount() int { return len(d.players) }

// AlivePlayers counts players currently in play.
func (d *Directory) AlivePlayers() int {
	n := 0
	for _, p := range d.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// AliveEnemies counts enemies not yet killed.
func (d *Directory) AliveEnemies() int {
	n := 0
	for _, e := range d.enemies {
		if e.Alive {
			n++
		}
	}
	return n
}

// Snapshot assembles the full broadcast state for one network tick.
func (d *Directory) Snapshot(tick uint64) GameState {
	gs := GameState{
		Players: make([]PlayerState, 0, len(d.players)),
		Enemies: make([]EnemyState, 0, len(d.enemies)),
		Targets: make([]TargetState, 0, len(d.targets)),
		Pickups: make([]PickupState, 0, len(d.pickups)),
		Tick:    tick,
	}
	for _, p := range d.players {
		gs.Players = append(gs.Players, p.ToState())
	}
	for _, e := range d.enemies {
		gs.Enemies = append(gs.Enemies, e.ToState())
	}
	for _, t := range d.targets {
		gs.Targets = append(gs.Targets, t.ToState())
	}
	for _, pk := range d.pickups {
		gs.Pickups = append(gs.Pickups, pk.ToState())
	}
	return gs
}
