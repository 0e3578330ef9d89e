package arsenal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistryValid(t *testing.T) {
	r := Default()
	if err := r.Validate(); err != nil {
		t.Fatalf("default registry invalid: %v", err)
	}
	if r.FinalWave() < 1 {
		t.Fatalf("default registry has no waves")
	}
	if _, ok := r.Weapon(r.DefaultWeaponID()); !ok {
		t.Fatalf("default weapon id %q not indexed", r.DefaultWeaponID())
	}
}

func TestLoadFile(t *testing.T) {
	doc := `
weapons:
  - id: blaster
    name: Blaster
    damage: 20
    range: 40
    magazine_size: 8
    fire_rate: 0.3
    reload_time: 1.5
    mode: semi
    recoil_force: 0.5
    starting_reserve: 32
waves:
  - total_enemies: 5
    max_alive: 3
    spawn_interval: 2.0
    health_multiplier: 1.0
    damage_multiplier: 1.0
upgrades:
  - id: sharp
    label: Sharpened Rounds
    rarity: 0
    effect: damage
    magnitude: 0.1
`
	path := filepath.Join(t.TempDir(), "arsenal.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	w, ok := r.Weapon("blaster")
	if !ok {
		t.Fatalf("weapon blaster not found after load")
	}
	if w.MagazineSize != 8 || w.Mode != FireSemi {
		t.Fatalf("weapon fields wrong: %+v", w)
	}
	if r.FinalWave() != 1 {
		t.Fatalf("FinalWave = %d, want 1", r.FinalWave())
	}
	if _, ok := r.Upgrade("sharp"); !ok {
		t.Fatalf("upgrade sharp not found after load")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	base := func() *Registry {
		return &Registry{
			Weapons: []WeaponSpec{{
				ID: "w", Name: "W", Damage: 10, Range: 10, MagazineSize: 5,
				FireRate: 0.5, ReloadTime: 1, Mode: FireSemi,
			}},
			Waves: []WaveSpec{{
				TotalEnemies: 5, MaxAlive: 2, SpawnInterval: 1,
				HealthMultiplier: 1, DamageMultiplier: 1,
			}},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Registry)
	}{
		{"no weapons", func(r *Registry) { r.Weapons = nil }},
		{"duplicate weapon id", func(r *Registry) { r.Weapons = append(r.Weapons, r.Weapons[0]) }},
		{"zero damage", func(r *Registry) { r.Weapons[0].Damage = 0 }},
		{"zero magazine", func(r *Registry) { r.Weapons[0].MagazineSize = 0 }},
		{"bad mode", func(r *Registry) { r.Weapons[0].Mode = "burst" }},
		{"no waves", func(r *Registry) { r.Waves = nil }},
		{"zero wave total", func(r *Registry) { r.Waves[0].TotalEnemies = 0 }},
		{"zero spawn interval", func(r *Registry) { r.Waves[0].SpawnInterval = 0 }},
		{"defense magnitude above one", func(r *Registry) {
			r.Upgrades = []UpgradeSpec{{ID: "u", Label: "U", Effect: EffectDefense, Magnitude: 1.5}}
		}},
		{"unknown effect", func(r *Registry) {
			r.Upgrades = []UpgradeSpec{{ID: "u", Label: "U", Effect: "speed", Magnitude: 1}}
		}},
		{"duplicate upgrade id", func(r *Registry) {
			u := UpgradeSpec{ID: "u", Label: "U", Effect: EffectDamage, Magnitude: 0.1}
			r.Upgrades = []UpgradeSpec{u, u}
		}},
	}

	for _, tc := range cases {
		r := base()
		tc.mutate(r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestWaveClamping(t *testing.T) {
	r := Default()
	last := r.Waves[len(r.Waves)-1]

	if got := r.Wave(0); got != r.Waves[0] {
		t.Errorf("Wave(0) = %+v, want first row", got)
	}
	if got := r.Wave(r.FinalWave() + 5); got != last {
		t.Errorf("Wave past end = %+v, want last row", got)
	}
	if got := r.Wave(2); got != r.Waves[1] {
		t.Errorf("Wave(2) = %+v, want second row", got)
	}
}
