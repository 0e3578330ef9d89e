package main

const (
	TargetMaxHP      = 30.0
	TargetResetDelay = 2.0 // seconds a knocked-down target stays down

	TargetStatic = "static"
	TargetPopup  = "popup"
)

// Target is a shooting-range prop. It never moves, so hit claims against it
// skip lag compensation entirely.
type Target struct {
	ID    string
	Pos   Vec3
	Type  string
	HP    float64
	MaxHP float64
	Up    bool
	Hits  int // times knocked down

	resetT float64
}

// NewTarget places a range target.
func NewTarget(at Vec3, typ string) *Target {
	return &Target{
		ID:    "t_" + GenerateID(4),
		Pos:   at,
		Type:  typ,
		HP:    TargetMaxHP,
		MaxHP: TargetMaxHP,
		Up:    true,
	}
}

func (t *Target) EntityID() string       { return t.ID }
func (t *Target) EntityKind() EntityKind { return KindTarget }
func (t *Target) Position() Vec3         { return t.Pos }
func (t *Target) Health() float64        { return t.HP }
func (t *Target) MaxHealth() float64     { return t.MaxHP }

// IsDead reports a knocked-down target; further claims are rejected until
// it pops back up.
func (t *Target) IsDead() bool { return !t.Up }

func (t *Target) PartMultiplier(string) float64 { return 1.0 }

// TakeDamage knocks the target down when health runs out and arms the
// reset timer.
func (t *Target) TakeDamage(amount float64) (float64, bool) {
	if !t.Up {
		return t.HP, false
	}
	t.HP -= amount
	if t.HP <= 0 {
		t.HP = 0
		t.Up = false
		t.Hits++
		t.resetT = TargetResetDelay
		return 0, true
	}
	return t.HP, false
}

// Update pops a downed target back up once its delay expires.
func (t *Target) Update(dt float64) {
	if t.Up {
		return
	}
	t.resetT -= dt
	if t.resetT <= 0 {
		t.Up = true
		t.HP = t.MaxHP
	}
}

// ToState converts to protocol state.
func (t *Target) ToState() TargetState {
	return TargetState{
		ID:   t.ID,
		Pos:  t.Pos.Rounded(),
		Type: t.Type,
		HP:   round2(t.HP),
		Up:   t.Up,
	}
}
