package main

import (
	"testing"
	"time"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

func testLoadout() []*Weapon {
	reg := arsenal.Default()
	spec, _ := reg.Weapon(reg.DefaultWeaponID())
	return []*Weapon{NewWeapon(spec)}
}

func addTestPlayer(dir *Directory, id string, pos Vec3) *Player {
	p := NewPlayer(id, id, pos, testLoadout())
	dir.AddPlayer(p)
	return p
}

func testValidator() (*Directory, *History, *Validator) {
	dir := NewDirectory()
	h := NewHistory(time.Second)
	return dir, h, NewValidator(dir, h, nil)
}

func TestValidateAcceptsOnTarget(t *testing.T) {
	dir, h, v := testValidator()
	addTestPlayer(dir, "victim", Vec3{Z: 10})
	now := time.Now()
	h.Record(now, dir.Positions())

	claim := HitClaimMsg{
		TargetID: "victim", Damage: 10, Part: PartBody, Weapon: "pistol",
		Origin: Vec3{}, Dir: Vec3{Z: 1},
	}
	verdict := v.Validate(claim, now)
	if !verdict.Accepted {
		t.Fatalf("on-target claim rejected: %s", verdict.Reason)
	}
	if verdict.Part != PartBody {
		t.Errorf("part = %q, want body", verdict.Part)
	}
}

func TestValidateRejectsOffTarget(t *testing.T) {
	dir, h, v := testValidator()
	addTestPlayer(dir, "victim", Vec3{Z: 10})
	now := time.Now()
	h.Record(now, dir.Positions())

	claim := HitClaimMsg{
		TargetID: "victim", Damage: 10, Part: PartBody,
		Origin: Vec3{X: 5}, Dir: Vec3{Z: 1}, // parallel ray 5 units off
	}
	verdict := v.Validate(claim, now)
	if verdict.Accepted {
		t.Fatal("claim 5 units off the rewound position should be rejected")
	}
	if verdict.Reason == "" {
		t.Error("rejection should carry a reason")
	}
}

// Acceptance must flip exactly once as the ray walks away from the target.
func TestValidateMonotonicDistance(t *testing.T) {
	dir, h, v := testValidator()
	addTestPlayer(dir, "victim", Vec3{Z: 10})
	now := time.Now()
	h.Record(now, dir.Positions())

	flipped := false
	for off := 0.0; off <= 3.0; off += 0.1 {
		claim := HitClaimMsg{
			TargetID: "victim", Part: PartBody,
			Origin: Vec3{X: off}, Dir: Vec3{Z: 1},
		}
		accepted := v.Validate(claim, now).Accepted
		if !accepted {
			flipped = true
		}
		if flipped && accepted {
			t.Fatalf("acceptance returned after rejection at offset %.1f", off)
		}
	}
	if !flipped {
		t.Fatal("acceptance never flipped to rejection")
	}
}

func TestValidateTrustsWithoutHistory(t *testing.T) {
	dir, _, v := testValidator()
	addTestPlayer(dir, "victim", Vec3{Z: 10})

	claim := HitClaimMsg{
		TargetID: "victim", Part: PartBody,
		Origin: Vec3{X: 50}, Dir: Vec3{Z: 1}, // wildly off, but no history
	}
	verdict := v.Validate(claim, time.Now())
	if !verdict.Accepted {
		t.Fatal("claims without history should be trusted")
	}
}

func TestValidateStaticTargetTrusted(t *testing.T) {
	dir, _, v := testValidator()
	tgt := NewTarget(Vec3{X: 3, Z: 20}, TargetStatic)
	dir.AddTarget(tgt)

	claim := HitClaimMsg{TargetID: tgt.ID, Part: PartObject, Origin: Vec3{}, Dir: Vec3{Z: 1}}
	verdict := v.Validate(claim, time.Now())
	if !verdict.Accepted || verdict.Part != PartObject {
		t.Fatalf("static target claim should be trusted, got %+v", verdict)
	}
}

func TestValidateHeadVolumeOverridesPart(t *testing.T) {
	dir, h, v := testValidator()
	addTestPlayer(dir, "victim", Vec3{Z: 10})
	now := time.Now()
	h.Record(now, dir.Positions())

	// Ray at head height: 1.6 above the root, outside root tolerance,
	// straight through the head sphere.
	claim := HitClaimMsg{
		TargetID: "victim", Part: PartBody,
		Origin: Vec3{Y: PlayerHeadY}, Dir: Vec3{Z: 1},
	}
	verdict := v.Validate(claim, now)
	if !verdict.Accepted {
		t.Fatalf("head-line claim rejected: %s", verdict.Reason)
	}
	if verdict.Part != PartHead {
		t.Errorf("part = %q, want head from sub-volume path", verdict.Part)
	}
}

func TestValidateRewindsMovingTarget(t *testing.T) {
	dir, h, v := testValidator()
	p := addTestPlayer(dir, "victim", Vec3{})
	base := time.Now()

	p.Pos = Vec3{}
	h.Record(base, dir.Positions())
	p.Pos = Vec3{X: 10}
	h.Record(base.Add(200*time.Millisecond), dir.Positions())

	// Aim where the target stood halfway through the move
	mid := base.Add(100 * time.Millisecond)
	atOldSpot := HitClaimMsg{
		TargetID: "victim", Part: PartBody,
		Origin: Vec3{X: 5, Z: -10}, Dir: Vec3{Z: 1},
	}
	if verdict := v.Validate(atOldSpot, mid); !verdict.Accepted {
		t.Fatalf("claim at interpolated position rejected: %s", verdict.Reason)
	}

	// Aiming at the final position while claiming the midpoint must fail
	atNewSpot := HitClaimMsg{
		TargetID: "victim", Part: PartBody,
		Origin: Vec3{X: 10, Z: -10}, Dir: Vec3{Z: 1},
	}
	if verdict := v.Validate(atNewSpot, mid); verdict.Accepted {
		t.Fatal("claim at un-rewound position should be rejected")
	}
}

func TestValidateUnknownAndDeadTargets(t *testing.T) {
	dir, h, v := testValidator()
	p := addTestPlayer(dir, "victim", Vec3{Z: 5})
	now := time.Now()
	h.Record(now, dir.Positions())

	if v.Validate(HitClaimMsg{TargetID: "ghost"}, now).Accepted {
		t.Error("unknown target should be rejected")
	}

	p.TakeDamage(1000)
	claim := HitClaimMsg{TargetID: "victim", Part: PartBody, Origin: Vec3{}, Dir: Vec3{Z: 1}}
	if v.Validate(claim, now).Accepted {
		t.Error("dead target should be rejected")
	}
}

func TestClaimTimeClamping(t *testing.T) {
	now := time.Now()

	if got := ClaimTime(0, now); !got.Equal(now) {
		t.Errorf("zero timestamp should resolve to now")
	}
	future := float64(now.Add(5*time.Second).UnixNano()) / float64(time.Second)
	if got := ClaimTime(future, now); got.After(now) {
		t.Error("future timestamps must clamp to now")
	}
	ancient := float64(now.Add(-time.Minute).UnixNano()) / float64(time.Second)
	if got := ClaimTime(ancient, now); now.Sub(got) > HistoryWindow {
		t.Error("stale timestamps must clamp to the history window")
	}
	valid := float64(now.Add(-200*time.Millisecond).UnixNano()) / float64(time.Second)
	got := ClaimTime(valid, now)
	if d := now.Sub(got); d < 190*time.Millisecond || d > 210*time.Millisecond {
		t.Errorf("in-window timestamp should pass through, got delta %v", d)
	}
}

func TestApplyDamageHeadMultiplier(t *testing.T) {
	dir := NewDirectory()
	p := addTestPlayer(dir, "p2", Vec3{})

	res, ok := dir.ApplyDamage("p2", 40, PartHead)
	if !ok {
		t.Fatal("damage should apply")
	}
	want := 100 - 40*HeadMultiplier
	if res.NewHealth != want {
		t.Errorf("newHealth = %v, want %v", res.NewHealth, want)
	}
	if res.Died {
		t.Error("should survive the first headshot")
	}
	if p.HP != want {
		t.Errorf("player HP = %v, want %v", p.HP, want)
	}
}

func TestApplyDamageDiesOnce(t *testing.T) {
	dir := NewDirectory()
	addTestPlayer(dir, "p2", Vec3{})

	res, _ := dir.ApplyDamage("p2", 60, PartHead)
	if !res.Died {
		t.Fatal("lethal damage should report death")
	}
	if res.NewHealth != 0 {
		t.Errorf("health should clamp to 0, got %v", res.NewHealth)
	}

	if _, ok := dir.ApplyDamage("p2", 10, PartBody); ok {
		t.Error("damage to a dead player should be refused")
	}
}

func TestApplyDamageUnknownPartDefaults(t *testing.T) {
	dir := NewDirectory()
	dir.AddEnemy(NewEnemy(Vec3{}, 1, 1))
	var enemy *Enemy
	for _, e := range dir.enemies {
		enemy = e
	}

	res, ok := dir.ApplyDamage(enemy.ID, 25, "toe")
	if !ok {
		t.Fatal("damage should apply")
	}
	if res.Damage != 25 {
		t.Errorf("unknown part should use the default multiplier, got %v", res.Damage)
	}
}

func TestApplyDamageKnocksTargetDown(t *testing.T) {
	dir := NewDirectory()
	tgt := NewTarget(Vec3{Z: 15}, TargetPopup)
	dir.AddTarget(tgt)

	res, _ := dir.ApplyDamage(tgt.ID, TargetMaxHP, PartObject)
	if !res.Died {
		t.Fatal("target should go down")
	}
	if tgt.Up {
		t.Error("target should be down after lethal damage")
	}

	tgt.Update(TargetResetDelay + 0.1)
	if !tgt.Up || tgt.HP != tgt.MaxHP {
		t.Error("target should pop back up with full health")
	}
}
