package main

import (
	"testing"
	"time"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

func twoWeaponLoadout() []*Weapon {
	rifle := testWeaponSpec()
	pistol := testWeaponSpec()
	pistol.ID = "test_pistol"
	pistol.Name = "Test Pistol"
	pistol.Mode = arsenal.FireSemi
	return []*Weapon{NewWeapon(rifle), NewWeapon(pistol)}
}

func TestNewPlayerLoadout(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{X: 1, Z: 2}, twoWeaponLoadout())

	if p.CurWeapon != "test_rifle" {
		t.Errorf("expected first loadout weapon equipped, got %q", p.CurWeapon)
	}
	if p.Weapon("test_pistol") == nil {
		t.Error("pistol missing from loadout")
	}
	if p.Weapon("nope") != nil {
		t.Error("unknown weapon id should be nil")
	}
	if p.HP != PlayerMaxHP || p.MaxHealth() != PlayerMaxHP {
		t.Errorf("expected full health %v, got %v/%v", PlayerMaxHP, p.HP, p.MaxHealth())
	}
}

func TestTakeDamageReportsDeathOnce(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, twoWeaponLoadout())

	hp, died := p.TakeDamage(40)
	if died || hp != 60 {
		t.Fatalf("expected 60hp alive, got %v died=%v", hp, died)
	}
	hp, died = p.TakeDamage(100)
	if !died || hp != 0 {
		t.Fatalf("expected death at 0hp, got %v died=%v", hp, died)
	}
	if _, died = p.TakeDamage(10); died {
		t.Error("damage to a dead player must not report death again")
	}
}

func TestHealClampsAtMax(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, twoWeaponLoadout())
	p.TakeDamage(30)
	p.Heal(1000)
	if p.HP != p.MaxHealth() {
		t.Errorf("heal should clamp at max, got %v", p.HP)
	}

	p.TakeDamage(1000)
	p.Heal(50)
	if p.HP != 0 {
		t.Error("healing the dead should be a no-op")
	}
}

func TestGrowMaxHealth(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, twoWeaponLoadout())
	p.TakeDamage(20)

	p.GrowMaxHealth(25)
	if p.MaxHealth() != PlayerMaxHP+25 {
		t.Errorf("expected max %v, got %v", PlayerMaxHP+25, p.MaxHealth())
	}
	if p.HP != PlayerMaxHP+5 {
		t.Errorf("upgrade should heal by the delta, got %v", p.HP)
	}
}

func TestSwitchWeaponCancelsReload(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, twoWeaponLoadout())
	rifle := p.HeldWeapon()
	now := time.Now()
	for i := 0; i < 3; i++ {
		rifle.Fire(now.Add(time.Duration(i) * time.Second))
	}
	if !rifle.StartReload() {
		t.Fatal("empty rifle should start reloading")
	}

	if p.SwitchWeapon("test_rifle") {
		t.Error("switching to the held weapon should be a no-op")
	}
	if p.SwitchWeapon("ghost_gun") {
		t.Error("switching to an uncarried weapon should fail")
	}
	if !p.SwitchWeapon("test_pistol") {
		t.Fatal("switch to carried weapon should succeed")
	}
	if rifle.State == WeaponReloading {
		t.Error("switching away must cancel the reload")
	}
	if p.HeldWeapon().Spec.ID != "test_pistol" {
		t.Errorf("expected pistol held, got %q", p.HeldWeapon().Spec.ID)
	}
}

func TestRespawnRestoresEffectiveMax(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, twoWeaponLoadout())
	p.GrowMaxHealth(30)
	p.TakeDamage(1000)
	p.Downed = true

	at := Vec3{X: 5, Z: -5}
	p.Respawn(at)
	if !p.Alive || p.Downed {
		t.Error("respawn should clear dead and downed flags")
	}
	if p.HP != PlayerMaxHP+30 {
		t.Errorf("respawn should restore upgraded max, got %v", p.HP)
	}
	if p.Pos != at {
		t.Errorf("expected respawn at %v, got %v", at, p.Pos)
	}
}

func TestPartMultiplier(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{}, twoWeaponLoadout())
	if p.PartMultiplier(PartHead) != HeadMultiplier {
		t.Error("headshot multiplier missing")
	}
	if p.PartMultiplier(PartBody) != 1.0 {
		t.Error("body shots should not be multiplied")
	}
	if p.PartMultiplier("knee") != 1.0 {
		t.Error("unknown parts fall back to body")
	}
}

func TestHeadPosition(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{X: 3, Y: 0, Z: 4}, twoWeaponLoadout())
	head := p.HeadPosition()
	if head.X != 3 || head.Z != 4 {
		t.Error("head should sit above the entity root")
	}
	if head.Y != PlayerHeadY {
		t.Errorf("expected head at %v, got %v", PlayerHeadY, head.Y)
	}
}

func TestPlayerToState(t *testing.T) {
	p := NewPlayer("p1", "Alice", Vec3{X: 1.2345, Z: 2}, twoWeaponLoadout())
	p.Kills = 3
	p.TakeDamage(12.344)

	s := p.ToState()
	if s.ID != "p1" || s.Name != "Alice" || s.Kills != 3 {
		t.Errorf("unexpected identity fields: %+v", s)
	}
	if s.Pos.X != 1.23 {
		t.Errorf("positions should round to 2 decimals, got %v", s.Pos.X)
	}
	if s.HP != 87.66 {
		t.Errorf("hp should round to 2 decimals, got %v", s.HP)
	}
	if s.Ammo.Cur != 3 || s.Ammo.Mag != 3 || s.Ammo.Reserve != 6 {
		t.Errorf("ammo state should mirror the held weapon: %+v", s.Ammo)
	}
	if s.Dead {
		t.Error("live player marked dead in state")
	}
}
