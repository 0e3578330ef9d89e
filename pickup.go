package main

const (
	PickupRadius     = 1.2
	PickupHeal       = 20.0
	PickupTimeout    = 30.0
	PickupDropChance = 0.25 // per enemy death

	PickupHealth = "health"
	PickupAmmo   = "ammo"
)

// Pickup is a ground drop collected on contact.
type Pickup struct {
	ID    string
	Pos   Vec3
	Type  string
	Life  float64
	Alive bool
}

// NewPickup drops a pickup at a position, usually where an enemy died.
func NewPickup(at Vec3, typ string) *Pickup {
	return &Pickup{
		ID:    "k_" + GenerateID(4),
		Pos:   Vec3{X: at.X, Y: 0, Z: at.Z},
		Type:  typ,
		Life:  PickupTimeout,
		Alive: true,
	}
}

// Update ticks down the pickup lifetime.
func (pk *Pickup) Update(dt float64) {
	if !pk.Alive {
		return
	}
	pk.Life -= dt
	if pk.Life <= 0 {
		pk.Alive = false
	}
}

// Apply grants the pickup's effect to a player. Ammo tops up the held
// weapon's reserve by one magazine.
func (pk *Pickup) Apply(p *Player) {
	switch pk.Type {
	case PickupHealth:
		p.Heal(PickupHeal)
	case PickupAmmo:
		if w := p.HeldWeapon(); w != nil {
			w.Reserve += w.Spec.MagazineSize
		}
	}
}

// ToState converts to protocol state.
func (pk *Pickup) ToState() PickupState {
	return PickupState{
		ID:   pk.ID,
		Pos:  pk.Pos.Rounded(),
		Type: pk.Type,
	}
}
