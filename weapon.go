package main

import (
	"time"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

// WeaponState is the firing-cycle state of one carried weapon.
type WeaponState int

const (
	WeaponReady WeaponState = iota
	WeaponFiring
	WeaponReloading
	WeaponEmpty
)

func (s WeaponState) String() string {
	switch s {
	case WeaponReady:
		return "ready"
	case WeaponFiring:
		return "firing"
	case WeaponReloading:
		return "reloading"
	case WeaponEmpty:
		return "empty"
	}
	return "unknown"
}

// Weapon is the per-player runtime state for one weapon id. Stats live in
// the arsenal spec; only ammo and the firing cycle mutate here.
type Weapon struct {
	Spec    *arsenal.WeaponSpec
	Current int
	Reserve int
	State   WeaponState

	lastFire time.Time
	reloadT  float64 // seconds spent in the current reload
}

// NewWeapon creates a weapon with a full magazine and the default reserve.
func NewWeapon(spec *arsenal.WeaponSpec) *Weapon {
	return &Weapon{
		Spec:    spec,
		Current: spec.MagazineSize,
		Reserve: spec.StartingReserve,
		State:   WeaponReady,
	}
}

// Fire attempts one shot at the given instant. It fails while reloading or
// empty, and enforces the weapon's cadence between consecutive shots.
func (w *Weapon) Fire(now time.Time) bool {
	if w.State != WeaponReady && w.State != WeaponFiring {
		return false
	}
	if w.Current <= 0 {
		w.State = WeaponEmpty
		return false
	}
	if !w.lastFire.IsZero() && now.Sub(w.lastFire).Seconds() < w.Spec.FireRate {
		return false
	}
	w.Current--
	w.lastFire = now
	if w.Current == 0 {
		w.State = WeaponEmpty
	} else {
		w.State = WeaponFiring
	}
	return true
}

// StartReload begins a reload unless the magazine is already full, the
// reserve is dry, or a reload is in flight.
func (w *Weapon) StartReload() bool {
	if w.State == WeaponReloading {
		return false
	}
	if w.Current >= w.Spec.MagazineSize || w.Reserve <= 0 {
		return false
	}
	w.State = WeaponReloading
	w.reloadT = 0
	return true
}

// CancelReload aborts an in-flight reload with no ammo movement. Called on
// weapon switch and disconnect.
func (w *Weapon) CancelReload() {
	if w.State != WeaponReloading {
		return
	}
	w.reloadT = 0
	if w.Current == 0 {
		w.State = WeaponEmpty
	} else {
		w.State = WeaponReady
	}
}

// Tick advances the reload timer and settles automatic-fire cadence.
// Called from the simulation pass with its delta.
func (w *Weapon) Tick(now time.Time, dt float64) {
	switch w.State {
	case WeaponReloading:
		w.reloadT += dt
		if w.reloadT >= w.Spec.ReloadTime {
			take := w.Spec.MagazineSize - w.Current
			if take > w.Reserve {
				take = w.Reserve
			}
			w.Current += take
			w.Reserve -= take
			w.reloadT = 0
			w.State = WeaponReady
		}
	case WeaponFiring:
		if now.Sub(w.lastFire).Seconds() >= w.Spec.FireRate {
			w.State = WeaponReady
		}
	}
}
