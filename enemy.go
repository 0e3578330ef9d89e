package main

import "math"

const (
	EnemyMaxHP        = 60.0
	EnemySpeed        = 3.5 // world units/s
	EnemyDetectRange  = 30.0
	EnemyAttackRange  = 2.0
	EnemyAttackDamage = 10.0
	EnemyAttackCD     = 1.2 // seconds between swipes
	EnemyTurnSpeed    = 6.0 // radians/s
	EnemyRepelRadius  = 1.5
	EnemyRepelForce   = 2.0
	EnemyHeadY        = 1.4
	EnemyHeadRadius   = 0.22
	EnemyHeadMult     = 1.5
	EnemyWanderDrift  = 1.0 // max radians/s the wander heading changes
)

// AIState is the behavior state of one enemy.
type AIState int

const (
	AIIdle AIState = iota
	AIChase
	AIAttack
)

func (s AIState) String() string {
	switch s {
	case AIIdle:
		return "idle"
	case AIChase:
		return "chase"
	case AIAttack:
		return "attack"
	}
	return "unknown"
}

// Enemy is an AI-controlled ground unit. All movement stays on the XZ plane.
type Enemy struct {
	ID    string
	Pos   Vec3
	Rot   Vec3 // yaw in Rot.Y, radians
	HP    float64
	MaxHP float64
	AI    AIState
	Alive bool

	Moving     bool
	DamageMult float64 // wave damage scaling baked in at spawn

	attackCD float64
	wander   float64 // desired heading while idle
}

// NewEnemy spawns an enemy with wave-scaled health and damage.
func NewEnemy(at Vec3, healthMult, damageMult float64) *Enemy {
	if healthMult <= 0 {
		healthMult = 1
	}
	if damageMult <= 0 {
		damageMult = 1
	}
	hp := EnemyMaxHP * healthMult
	return &Enemy{
		ID:         "e_" + GenerateID(4),
		Pos:        at,
		HP:         hp,
		MaxHP:      hp,
		AI:         AIIdle,
		Alive:      true,
		DamageMult: damageMult,
		wander:     randFloat() * 2 * math.Pi,
	}
}

func (e *Enemy) EntityID() string       { return e.ID }
func (e *Enemy) EntityKind() EntityKind { return KindEnemy }
func (e *Enemy) Position() Vec3         { return e.Pos }
func (e *Enemy) Health() float64        { return e.HP }
func (e *Enemy) MaxHealth() float64     { return e.MaxHP }
func (e *Enemy) IsDead() bool           { return !e.Alive }

func (e *Enemy) PartMultiplier(part string) float64 {
	if part == PartHead {
		return EnemyHeadMult
	}
	return 1.0
}

// TakeDamage clamps health at zero and reports death exactly once.
func (e *Enemy) TakeDamage(amount float64) (float64, bool) {
	if !e.Alive {
		return e.HP, false
	}
	e.HP -= amount
	if e.HP <= 0 {
		e.HP = 0
		e.Alive = false
		return 0, true
	}
	return e.HP, false
}

// AttackDamage is one swipe's damage after wave scaling.
func (e *Enemy) AttackDamage() float64 {
	return EnemyAttackDamage * e.DamageMult
}

// HeadPosition returns the center of the head sub-volume.
func (e *Enemy) HeadPosition() Vec3 {
	return Vec3{X: e.Pos.X, Y: e.Pos.Y + EnemyHeadY, Z: e.Pos.Z}
}

// Update steers the enemy one simulation tick. It returns the id of a player
// hit by a melee swipe this tick, or "". The caller routes the damage
// through the directory.
func (e *Enemy) Update(dt float64, players map[string]*Player, nearby []*Enemy) string {
	if !e.Alive {
		return ""
	}
	if e.attackCD > 0 {
		e.attackCD -= dt
	}

	// Nearest alive player within detect range
	var target *Player
	best := math.MaxFloat64
	for _, p := range players {
		if !p.Alive {
			continue
		}
		d := e.Pos.DistanceTo(p.Pos)
		if d < EnemyDetectRange && d < best {
			best = d
			target = p
		}
	}

	attacked := ""
	switch {
	case target == nil:
		e.AI = AIIdle
		e.wanderStep(dt)
	case best > EnemyAttackRange:
		e.AI = AIChase
		e.chaseStep(dt, target, nearby)
	default:
		e.AI = AIAttack
		e.Moving = false
		e.faceToward(target.Pos, dt)
		if e.attackCD <= 0 {
			e.attackCD = EnemyAttackCD
			attacked = target.ID
		}
	}
	return attacked
}

// wanderStep drifts the heading gently without moving far from the spot.
func (e *Enemy) wanderStep(dt float64) {
	e.wander += (randFloat()*2 - 1) * EnemyWanderDrift * dt
	e.Rot.Y = LerpAngle(e.Rot.Y, e.wander, Clamp(EnemyTurnSpeed*dt, 0, 1))
	e.Moving = false
}

// chaseStep moves toward the target with a separation nudge away from
// packed neighbors, so groups spread instead of stacking on one point.
func (e *Enemy) chaseStep(dt float64, target *Player, nearby []*Enemy) {
	dir := target.Pos.Sub(e.Pos)
	dir.Y = 0
	dir = dir.Normalized()

	for _, n := range nearby {
		if n == e || !n.Alive {
			continue
		}
		away := e.Pos.Sub(n.Pos)
		away.Y = 0
		d := away.Length()
		if d > 0 && d < EnemyRepelRadius {
			dir = dir.Add(away.Scale(EnemyRepelForce * (EnemyRepelRadius - d) / EnemyRepelRadius / d))
		}
	}
	dir = dir.Normalized()
	if dir == (Vec3{}) {
		e.Moving = false
		return
	}

	e.faceToward(e.Pos.Add(dir), dt)
	e.Pos = e.Pos.Add(dir.Scale(EnemySpeed * dt))
	e.Pos.X = Clamp(e.Pos.X, -ArenaHalf, ArenaHalf)
	e.Pos.Z = Clamp(e.Pos.Z, -ArenaHalf, ArenaHalf)
	e.Moving = true
}

// faceToward turns the yaw toward a point at the capped turn rate.
func (e *Enemy) faceToward(point Vec3, dt float64) {
	desired := math.Atan2(point.X-e.Pos.X, point.Z-e.Pos.Z)
	diff := Clamp(NormalizeAngle(desired-e.Rot.Y), -EnemyTurnSpeed*dt, EnemyTurnSpeed*dt)
	e.Rot.Y += diff
}

// ToState converts to protocol state.
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:     e.ID,
		Pos:    e.Pos.Rounded(),
		Rot:    e.Rot.Rounded(),
		HP:     round2(e.HP),
		MaxHP:  round2(e.MaxHP),
		AI:     e.AI.String(),
		Moving: e.Moving,
		Alive:  e.Alive,
	}
}
