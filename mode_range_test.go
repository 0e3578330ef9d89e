package main

import (
	"testing"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

func newRangeWorld() (*World, *RangeRule) {
	w := NewWorld(arsenal.Default(), ModeRange)
	w.Dir.AddPlayer(NewPlayer("shooter", "Shooter", w.RandomSpawn(), testLoadout()))
	r := NewRangeRule()
	r.OnInitialize(w)
	w.DrainOutbox()
	return w, r
}

func TestRangeCourseLayout(t *testing.T) {
	w, _ := newRangeWorld()

	if got := len(w.Dir.targets); got != len(rangeLayout) {
		t.Fatalf("expected %d targets, got %d", len(rangeLayout), got)
	}
	static, popup := 0, 0
	for _, tgt := range w.Dir.targets {
		switch tgt.Type {
		case TargetStatic:
			static++
		case TargetPopup:
			popup++
		}
		if !tgt.Up || tgt.HP != TargetMaxHP {
			t.Errorf("target %s should start up at full health", tgt.ID)
		}
	}
	if static != 5 || popup != 4 {
		t.Errorf("course split = %d static / %d popup, want 5/4", static, popup)
	}
}

func TestRangeNeverEnds(t *testing.T) {
	w, r := newRangeWorld()
	for i := 0; i < 100; i++ {
		r.OnUpdate(w, 1.0)
	}
	if r.CheckGameEnd(w) != nil {
		t.Error("the range has no win condition")
	}
}

func TestRangeTargetKnockdownAndReset(t *testing.T) {
	w, r := newRangeWorld()

	var tgt *Target
	for _, candidate := range w.Dir.targets {
		tgt = candidate
		break
	}

	res, ok := w.Dir.ApplyDamage(tgt.ID, TargetMaxHP, PartObject)
	if !ok || !res.Died {
		t.Fatalf("full-damage hit should knock the target down: %+v", res)
	}
	if tgt.Up {
		t.Fatal("target still up after knockdown")
	}
	if tgt.Hits != 1 {
		t.Errorf("knockdown count = %d, want 1", tgt.Hits)
	}

	// Claims against a downed target are rejected until it pops back up.
	if _, ok := w.Dir.ApplyDamage(tgt.ID, 10, PartObject); ok {
		t.Error("downed target accepted damage")
	}

	r.OnUpdate(w, TargetResetDelay+0.1)
	if !tgt.Up || tgt.HP != tgt.MaxHP {
		t.Errorf("target should reset to full health, got up=%v hp=%v", tgt.Up, tgt.HP)
	}
}

func TestRangeInstantRespawn(t *testing.T) {
	w, r := newRangeWorld()
	dec := r.OnPlayerDeath(w, "shooter", "")
	if !dec.Respawn || dec.Delay != 0 {
		t.Errorf("range deaths respawn immediately, got %+v", dec)
	}
}
