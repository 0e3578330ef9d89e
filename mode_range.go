package main

// rangeLayout is the fixed target course: a near line of static plates and
// a far line of popup plates.
var rangeLayout = []struct {
	Pos  Vec3
	Type string
}{
	{Vec3{X: -16, Z: 20}, TargetStatic},
	{Vec3{X: -8, Z: 20}, TargetStatic},
	{Vec3{X: 0, Z: 20}, TargetStatic},
	{Vec3{X: 8, Z: 20}, TargetStatic},
	{Vec3{X: 16, Z: 20}, TargetStatic},
	{Vec3{X: -12, Z: 30}, TargetPopup},
	{Vec3{X: -4, Z: 30}, TargetPopup},
	{Vec3{X: 4, Z: 30}, TargetPopup},
	{Vec3{X: 12, Z: 30}, TargetPopup},
}

// RangeRule runs the shooting range: a fixed target course, no hostiles,
// no win condition. Knocked-down targets stand back up on their own.
type RangeRule struct{}

func NewRangeRule() *RangeRule { return &RangeRule{} }

func (r *RangeRule) Name() string { return "range" }

func (r *RangeRule) OnInitialize(w *World) {
	for _, t := range rangeLayout {
		w.SpawnTarget(t.Pos, t.Type)
	}
}

func (r *RangeRule) OnUpdate(w *World, dt float64) {
	for _, t := range w.Dir.targets {
		t.Update(dt)
	}
}

func (r *RangeRule) OnPlayerJoin(w *World, id string)  {}
func (r *RangeRule) OnPlayerLeave(w *World, id string) {}

// OnPlayerDeath should not fire on the range; if it does, put the player
// straight back.
func (r *RangeRule) OnPlayerDeath(w *World, id, killerID string) RespawnDecision {
	return RespawnDecision{Respawn: true, Delay: 0, Pos: w.RandomSpawn()}
}

func (r *RangeRule) CheckGameEnd(w *World) *GameEndResult { return nil }
