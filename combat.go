package main

import (
	"fmt"
	"time"
)

// HitTolerance is the accepted perpendicular distance between a claimed ray
// and the rewound target position. Sized to absorb snapshot-rate jitter,
// not to model hitbox geometry.
const HitTolerance = 1.2

// Raycaster is the scene-intersection provider for the strict sub-volume
// path. Injected so the validator never grows a rendering dependency.
type Raycaster interface {
	RayIntersectsSphere(origin, dir, center Vec3, radius float64) bool
}

// analyticRaycaster is the default closed-form implementation.
type analyticRaycaster struct{}

func (analyticRaycaster) RayIntersectsSphere(origin, dir, center Vec3, radius float64) bool {
	return RayHitsSphere(origin, dir, center, radius)
}

// HitVerdict is the outcome of validating one claim. Reason is only set on
// rejection and feeds the log line, never the wire.
type HitVerdict struct {
	Accepted bool
	Part     string
	Reason   string
}

func accept(part string) HitVerdict { return HitVerdict{Accepted: true, Part: part} }
func reject(reason string) HitVerdict { return HitVerdict{Reason: reason} }

// Validator judges client hit claims against rewound position history.
// Rejection never mutates state; accepted claims still go through
// Directory.ApplyDamage for the actual health change.
type Validator struct {
	dir     *Directory
	history *History
	rays    Raycaster
}

func NewValidator(dir *Directory, history *History, rays Raycaster) *Validator {
	if rays == nil {
		rays = analyticRaycaster{}
	}
	return &Validator{dir: dir, history: history, rays: rays}
}

// Validate rewinds the target to the claim instant and checks the claimed
// ray against it. When no history exists for the target the claim is
// trusted outright; disputing a shot with no record would punish the
// shooter for server-side gaps.
func (v *Validator) Validate(claim HitClaimMsg, at time.Time) HitVerdict {
	target, ok := v.dir.Find(claim.TargetID)
	if !ok {
		return reject("unknown target")
	}
	if target.IsDead() {
		return reject("target already down")
	}

	// Static props never move, so there is nothing to rewind.
	if target.EntityKind() == KindTarget {
		return accept(claim.Part)
	}

	rewound, ok := v.history.PositionAt(claim.TargetID, at)
	if !ok {
		return accept(claim.Part)
	}

	// Strict sub-volume path: a ray through the head region is a headshot
	// no matter what was claimed, bypassing the root tolerance below.
	if center, radius, hasHead := headVolume(target, rewound); hasHead {
		if v.rays.RayIntersectsSphere(claim.Origin, claim.Dir, center, radius) {
			return accept(PartHead)
		}
	}

	dist := RayPointDistance(claim.Origin, claim.Dir, rewound)
	if dist < HitTolerance {
		return accept(claim.Part)
	}
	return reject(fmt.Sprintf("ray misses rewound position by %.2f", dist))
}

// headVolume returns the head sphere for kinds that have one, offset from
// the rewound root.
func headVolume(target Damageable, root Vec3) (Vec3, float64, bool) {
	switch target.EntityKind() {
	case KindPlayer:
		return Vec3{X: root.X, Y: root.Y + PlayerHeadY, Z: root.Z}, HeadRadius, true
	case KindEnemy:
		return Vec3{X: root.X, Y: root.Y + EnemyHeadY, Z: root.Z}, EnemyHeadRadius, true
	}
	return Vec3{}, 0, false
}

// ClaimTime resolves the instant a claim should be judged at. Client
// timestamps are clamped into the history window ending at now; anything
// missing or out of range falls back to now.
func ClaimTime(clientTS float64, now time.Time) time.Time {
	if clientTS <= 0 {
		return now
	}
	at := time.Unix(0, int64(clientTS*float64(time.Second)))
	oldest := now.Add(-HistoryWindow)
	if at.Before(oldest) {
		return oldest
	}
	if at.After(now) {
		return now
	}
	return at
}
