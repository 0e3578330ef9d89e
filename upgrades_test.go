package main

import (
	"math"
	"testing"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

func TestCreateOfferDrawsDistinct(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())
	offer := tr.CreateOffer("p1")
	if offer == nil {
		t.Fatal("expected an offer")
	}
	if len(offer.Options) != OfferOptionCount {
		t.Fatalf("expected %d options, got %d", OfferOptionCount, len(offer.Options))
	}
	seen := make(map[string]bool)
	for _, o := range offer.Options {
		if seen[o.ID] {
			t.Fatalf("option %q drawn twice", o.ID)
		}
		seen[o.ID] = true
	}
}

func TestPickConsumesOffer(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())
	offer := tr.CreateOffer("p1")
	pick := offer.Options[1].ID

	apply, ok := tr.Pick(offer.ID, pick, "p1")
	if !ok {
		t.Fatal("valid pick should succeed")
	}
	if apply.Stacks != 1 || apply.UpgradeID != pick || apply.PlayerID != "p1" {
		t.Errorf("apply = %+v", apply)
	}
	if tr.Stacks("p1", pick) != 1 {
		t.Errorf("stack count = %d, want 1", tr.Stacks("p1", pick))
	}

	// Same offer id again: no effect
	if _, ok := tr.Pick(offer.ID, pick, "p1"); ok {
		t.Error("second pick of a consumed offer should fail")
	}
	if tr.Stacks("p1", pick) != 1 {
		t.Error("failed pick must not change stacks")
	}
}

func TestPickValidation(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())
	offer := tr.CreateOffer("p1")

	if _, ok := tr.Pick("nope", offer.Options[0].ID, "p1"); ok {
		t.Error("unknown offer id should fail")
	}
	if _, ok := tr.Pick(offer.ID, offer.Options[0].ID, "p2"); ok {
		t.Error("pick by a different player should fail")
	}
	if _, ok := tr.Pick(offer.ID, "not_in_draw", "p1"); ok {
		t.Error("option outside the draw should fail")
	}

	// Offer survives failed attempts
	if _, ok := tr.Pick(offer.ID, offer.Options[0].ID, "p1"); !ok {
		t.Error("offer should remain pending after failed picks")
	}
}

func TestResolvePendingUsesFirstOption(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())
	o1 := tr.CreateOffer("p1")
	o2 := tr.CreateOffer("p2")

	applied := tr.ResolvePending()
	if len(applied) != 2 {
		t.Fatalf("expected 2 auto-resolves, got %d", len(applied))
	}
	if tr.Stacks("p1", o1.Options[0].ID) != 1 {
		t.Error("p1 should hold the first option of their offer")
	}
	if tr.Stacks("p2", o2.Options[0].ID) != 1 {
		t.Error("p2 should hold the first option of their offer")
	}
	if tr.PendingFor("p1") != nil || tr.PendingFor("p2") != nil {
		t.Error("no offers should remain pending")
	}
}

func TestCreateOfferReplacesPending(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())
	old := tr.CreateOffer("p1")
	fresh := tr.CreateOffer("p1")

	if _, ok := tr.Pick(old.ID, old.Options[0].ID, "p1"); ok {
		t.Error("replaced offer should no longer be pickable")
	}
	if _, ok := tr.Pick(fresh.ID, fresh.Options[0].ID, "p1"); !ok {
		t.Error("fresh offer should be pickable")
	}
}

func TestPurgePlayer(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())
	offer := tr.CreateOffer("p1")
	tr.Pick(offer.ID, offer.Options[0].ID, "p1")
	tr.CreateOffer("p1")

	tr.PurgePlayer("p1")
	if tr.PendingFor("p1") != nil {
		t.Error("purge should drop pending offers")
	}
	if tr.Stacks("p1", offer.Options[0].ID) != 0 {
		t.Error("purge should drop stacks")
	}
}

func TestUpgradeEffects(t *testing.T) {
	tr := NewUpgradeTracker(arsenal.Default())

	// Two damage stacks, two defense stacks, three vitality stacks
	tr.apply("p1", "dmg_boost")
	tr.apply("p1", "dmg_boost")
	tr.apply("p1", "armor_plating")
	tr.apply("p1", "armor_plating")
	tr.apply("p1", "vitality")
	tr.apply("p1", "vitality")
	tr.apply("p1", "vitality")

	if got, want := tr.DamageMultiplier("p1"), 1.15*1.15; math.Abs(got-want) > 1e-9 {
		t.Errorf("damage multiplier = %v, want %v", got, want)
	}
	if got, want := tr.DefenseMultiplier("p1"), 0.9*0.9; math.Abs(got-want) > 1e-9 {
		t.Errorf("defense multiplier = %v, want %v", got, want)
	}
	if got, want := tr.HealthBonus("p1"), 60.0; got != want {
		t.Errorf("health bonus = %v, want %v", got, want)
	}

	// Untouched players get identity effects
	if tr.DamageMultiplier("p2") != 1 || tr.DefenseMultiplier("p2") != 1 || tr.HealthBonus("p2") != 0 {
		t.Error("players without stacks should get identity effects")
	}
}
