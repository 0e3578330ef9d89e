// Package arsenal holds the designer-authored combat data: weapon stats,
// the wave difficulty table and the upgrade pool. The registry is loaded
// once at startup, validated, and treated as immutable afterwards;
// runtime state (ammo counts, stacks) lives with the server, never here.
package arsenal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FiringMode selects trigger behavior for a weapon.
type FiringMode string

const (
	FireSemi FiringMode = "semi"
	FireAuto FiringMode = "auto"
)

// Rarity levels for upgrade draws.
const (
	RarityCommon    = 0
	RarityRare      = 1
	RarityEpic      = 2
	RarityLegendary = 3
)

// UpgradeEffect identifies what an upgrade modifies.
type UpgradeEffect string

const (
	EffectDamage    UpgradeEffect = "damage"     // multiplies outgoing damage
	EffectDefense   UpgradeEffect = "defense"    // multiplies incoming damage
	EffectMaxHealth UpgradeEffect = "max_health" // flat max-health bonus
)

// WeaponSpec is the immutable stat block for one weapon id.
type WeaponSpec struct {
	ID              string     `yaml:"id" json:"id" jsonschema:"pattern=^[a-z0-9_]+$,description=Stable weapon identifier referenced by clients"`
	Name            string     `yaml:"name" json:"name"`
	Damage          float64    `yaml:"damage" json:"damage"`
	Range           float64    `yaml:"range" json:"range" jsonschema:"description=Maximum effective distance in world units"`
	MagazineSize    int        `yaml:"magazine_size" json:"magazineSize"`
	FireRate        float64    `yaml:"fire_rate" json:"fireRate" jsonschema:"description=Seconds between shots"`
	ReloadTime      float64    `yaml:"reload_time" json:"reloadTime"`
	Mode            FiringMode `yaml:"mode" json:"mode" jsonschema:"enum=semi,enum=auto"`
	RecoilForce     float64    `yaml:"recoil_force" json:"recoilForce"`
	StartingReserve int        `yaml:"starting_reserve" json:"startingReserve"`
}

// WaveSpec is one row of the wave difficulty table, before party-size scaling.
type WaveSpec struct {
	TotalEnemies     int     `yaml:"total_enemies" json:"totalEnemies"`
	MaxAlive         int     `yaml:"max_alive" json:"maxAlive"`
	SpawnInterval    float64 `yaml:"spawn_interval" json:"spawnInterval" jsonschema:"description=Seconds between enemy spawns"`
	HealthMultiplier float64 `yaml:"health_multiplier" json:"healthMultiplier"`
	DamageMultiplier float64 `yaml:"damage_multiplier" json:"damageMultiplier"`
}

// UpgradeSpec is one entry of the upgrade pool.
type UpgradeSpec struct {
	ID        string        `yaml:"id" json:"id" jsonschema:"pattern=^[a-z0-9_]+$"`
	Label     string        `yaml:"label" json:"label"`
	Rarity    int           `yaml:"rarity" json:"rarity" jsonschema:"minimum=0,maximum=3"`
	Effect    UpgradeEffect `yaml:"effect" json:"effect" jsonschema:"enum=damage,enum=defense,enum=max_health"`
	Magnitude float64       `yaml:"magnitude" json:"magnitude" jsonschema:"description=Per-stack effect size; interpretation depends on effect"`
}

// Registry is the validated, indexed combat data set.
type Registry struct {
	Weapons  []WeaponSpec  `yaml:"weapons" json:"weapons"`
	Waves    []WaveSpec    `yaml:"waves" json:"waves"`
	Upgrades []UpgradeSpec `yaml:"upgrades" json:"upgrades"`

	weaponsByID  map[string]*WeaponSpec
	upgradesByID map[string]*UpgradeSpec
}

// LoadFile reads and validates a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arsenal: %w", err)
	}
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse arsenal: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("validate arsenal: %w", err)
	}
	r.index()
	return &r, nil
}

// Validate checks every spec for consistency. It is called by LoadFile and
// again on the built-in defaults in tests; a registry that fails validation
// must never reach the game loop.
func (r *Registry) Validate() error {
	if len(r.Weapons) == 0 {
		return fmt.Errorf("no weapons defined")
	}
	seen := make(map[string]bool, len(r.Weapons))
	for i, w := range r.Weapons {
		if w.ID == "" {
			return fmt.Errorf("weapon %d: empty id", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("weapon %q: duplicate id", w.ID)
		}
		seen[w.ID] = true
		if w.Damage <= 0 {
			return fmt.Errorf("weapon %q: damage must be positive", w.ID)
		}
		if w.Range <= 0 {
			return fmt.Errorf("weapon %q: range must be positive", w.ID)
		}
		if w.MagazineSize <= 0 {
			return fmt.Errorf("weapon %q: magazine_size must be positive", w.ID)
		}
		if w.FireRate <= 0 {
			return fmt.Errorf("weapon %q: fire_rate must be positive", w.ID)
		}
		if w.ReloadTime <= 0 {
			return fmt.Errorf("weapon %q: reload_time must be positive", w.ID)
		}
		if w.Mode != FireSemi && w.Mode != FireAuto {
			return fmt.Errorf("weapon %q: mode must be semi or auto, got %q", w.ID, w.Mode)
		}
		if w.StartingReserve < 0 {
			return fmt.Errorf("weapon %q: starting_reserve must not be negative", w.ID)
		}
	}

	if len(r.Waves) == 0 {
		return fmt.Errorf("no waves defined")
	}
	for i, w := range r.Waves {
		n := i + 1
		if w.TotalEnemies <= 0 {
			return fmt.Errorf("wave %d: total_enemies must be positive", n)
		}
		if w.MaxAlive <= 0 {
			return fmt.Errorf("wave %d: max_alive must be positive", n)
		}
		if w.SpawnInterval <= 0 {
			return fmt.Errorf("wave %d: spawn_interval must be positive", n)
		}
		if w.HealthMultiplier < 0.1 {
			return fmt.Errorf("wave %d: health_multiplier below 0.1", n)
		}
		if w.DamageMultiplier < 0.1 {
			return fmt.Errorf("wave %d: damage_multiplier below 0.1", n)
		}
	}

	seenUp := make(map[string]bool, len(r.Upgrades))
	for i, u := range r.Upgrades {
		if u.ID == "" {
			return fmt.Errorf("upgrade %d: empty id", i)
		}
		if seenUp[u.ID] {
			return fmt.Errorf("upgrade %q: duplicate id", u.ID)
		}
		seenUp[u.ID] = true
		if u.Rarity < RarityCommon || u.Rarity > RarityLegendary {
			return fmt.Errorf("upgrade %q: rarity out of range", u.ID)
		}
		switch u.Effect {
		case EffectDamage:
			if u.Magnitude <= 0 {
				return fmt.Errorf("upgrade %q: damage magnitude must be positive", u.ID)
			}
		case EffectDefense:
			if u.Magnitude <= 0 || u.Magnitude >= 1 {
				return fmt.Errorf("upgrade %q: defense magnitude must be in (0,1)", u.ID)
			}
		case EffectMaxHealth:
			if u.Magnitude <= 0 {
				return fmt.Errorf("upgrade %q: max_health magnitude must be positive", u.ID)
			}
		default:
			return fmt.Errorf("upgrade %q: unknown effect %q", u.ID, u.Effect)
		}
	}
	return nil
}

func (r *Registry) index() {
	r.weaponsByID = make(map[string]*WeaponSpec, len(r.Weapons))
	for i := range r.Weapons {
		r.weaponsByID[r.Weapons[i].ID] = &r.Weapons[i]
	}
	r.upgradesByID = make(map[string]*UpgradeSpec, len(r.Upgrades))
	for i := range r.Upgrades {
		r.upgradesByID[r.Upgrades[i].ID] = &r.Upgrades[i]
	}
}

// Weapon returns the spec for a weapon id.
func (r *Registry) Weapon(id string) (*WeaponSpec, bool) {
	w, ok := r.weaponsByID[id]
	return w, ok
}

// Upgrade returns the spec for an upgrade id.
func (r *Registry) Upgrade(id string) (*UpgradeSpec, bool) {
	u, ok := r.upgradesByID[id]
	return u, ok
}

// Wave returns the difficulty row for a 1-based wave number. Numbers past
// the table are clamped to the final row; callers decide when the match ends.
func (r *Registry) Wave(n int) WaveSpec {
	if n < 1 {
		n = 1
	}
	if n > len(r.Waves) {
		n = len(r.Waves)
	}
	return r.Waves[n-1]
}

// FinalWave returns the number of the last configured wave.
func (r *Registry) FinalWave() int {
	return len(r.Waves)
}

// DefaultWeaponID returns the id handed to fresh players.
func (r *Registry) DefaultWeaponID() string {
	return r.Weapons[0].ID
}
