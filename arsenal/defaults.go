package arsenal

// Default returns the built-in registry used when no YAML file is supplied.
// The numbers here are the tuned baseline; a config file replaces the whole
// set rather than patching individual fields.
func Default() *Registry {
	r := &Registry{
		Weapons: []WeaponSpec{
			{
				ID: "pistol", Name: "Sidearm",
				Damage: 15, Range: 60, MagazineSize: 12,
				FireRate: 0.25, ReloadTime: 1.2, Mode: FireSemi,
				RecoilForce: 0.4, StartingReserve: 48,
			},
			{
				ID: "rifle", Name: "Assault Rifle",
				Damage: 12, Range: 90, MagazineSize: 30,
				FireRate: 0.1, ReloadTime: 1.8, Mode: FireAuto,
				RecoilForce: 0.7, StartingReserve: 120,
			},
			{
				ID: "shotgun", Name: "Scattergun",
				Damage: 55, Range: 22, MagazineSize: 6,
				FireRate: 0.8, ReloadTime: 2.4, Mode: FireSemi,
				RecoilForce: 2.0, StartingReserve: 24,
			},
			{
				ID: "sniper", Name: "Longshot",
				Damage: 90, Range: 250, MagazineSize: 5,
				FireRate: 1.4, ReloadTime: 2.8, Mode: FireSemi,
				RecoilForce: 3.2, StartingReserve: 20,
			},
		},
		Waves: []WaveSpec{
			{TotalEnemies: 8, MaxAlive: 4, SpawnInterval: 2.0, HealthMultiplier: 1.0, DamageMultiplier: 1.0},
			{TotalEnemies: 12, MaxAlive: 5, SpawnInterval: 1.8, HealthMultiplier: 1.15, DamageMultiplier: 1.05},
			{TotalEnemies: 16, MaxAlive: 6, SpawnInterval: 1.6, HealthMultiplier: 1.3, DamageMultiplier: 1.1},
			{TotalEnemies: 22, MaxAlive: 7, SpawnInterval: 1.4, HealthMultiplier: 1.5, DamageMultiplier: 1.2},
			{TotalEnemies: 28, MaxAlive: 8, SpawnInterval: 1.2, HealthMultiplier: 1.75, DamageMultiplier: 1.3},
			{TotalEnemies: 34, MaxAlive: 10, SpawnInterval: 1.0, HealthMultiplier: 2.0, DamageMultiplier: 1.4},
			{TotalEnemies: 40, MaxAlive: 12, SpawnInterval: 0.9, HealthMultiplier: 2.3, DamageMultiplier: 1.5},
		},
		Upgrades: []UpgradeSpec{
			{ID: "dmg_boost", Label: "Damage Boost", Rarity: RarityCommon, Effect: EffectDamage, Magnitude: 0.15},
			{ID: "overcharge", Label: "Overcharge", Rarity: RarityEpic, Effect: EffectDamage, Magnitude: 0.35},
			{ID: "armor_plating", Label: "Armor Plating", Rarity: RarityCommon, Effect: EffectDefense, Magnitude: 0.90},
			{ID: "juggernaut", Label: "Juggernaut Frame", Rarity: RarityRare, Effect: EffectDefense, Magnitude: 0.80},
			{ID: "vitality", Label: "Vitality", Rarity: RarityCommon, Effect: EffectMaxHealth, Magnitude: 20},
			{ID: "titan_core", Label: "Titan Core", Rarity: RarityLegendary, Effect: EffectMaxHealth, Magnitude: 45},
		},
	}
	r.index()
	return r
}
