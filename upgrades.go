package main

import (
	"math/rand"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

const OfferOptionCount = 3

// rarityWeights bias offer draws toward common entries.
var rarityWeights = [4]int{60, 25, 10, 5}

func rarityWeight(r int) int {
	if r < 0 || r >= len(rarityWeights) {
		return 1
	}
	return rarityWeights[r]
}

// UpgradeOffer binds one draw of options to one player for one upgrade
// phase. Picking or phase expiry consumes it.
type UpgradeOffer struct {
	ID       string
	PlayerID string
	Options  []arsenal.UpgradeSpec
}

// ToMsg converts the offer for the wire.
func (o *UpgradeOffer) ToMsg(expires float64) UpgradeOfferMsg {
	opts := make([]UpgradeOption, 0, len(o.Options))
	for _, u := range o.Options {
		opts = append(opts, UpgradeOption{ID: u.ID, Label: u.Label, Rarity: u.Rarity})
	}
	return UpgradeOfferMsg{OfferID: o.ID, PlayerID: o.PlayerID, Options: opts, Expires: expires}
}

// UpgradeTracker owns the upgrade economy: pending offers and accumulated
// stacks. Effects are derived from stacks on demand, never written into
// base stats.
type UpgradeTracker struct {
	reg    *arsenal.Registry
	offers map[string]*UpgradeOffer
	stacks map[string]map[string]int // playerID -> upgradeID -> count
}

func NewUpgradeTracker(reg *arsenal.Registry) *UpgradeTracker {
	return &UpgradeTracker{
		reg:    reg,
		offers: make(map[string]*UpgradeOffer),
		stacks: make(map[string]map[string]int),
	}
}

// CreateOffer draws options without replacement for one player, replacing
// any offer still pending for them.
func (t *UpgradeTracker) CreateOffer(playerID string) *UpgradeOffer {
	for id, o := range t.offers {
		if o.PlayerID == playerID {
			delete(t.offers, id)
		}
	}
	opts := t.draw(OfferOptionCount)
	if len(opts) == 0 {
		return nil
	}
	offer := &UpgradeOffer{ID: GenerateID(4), PlayerID: playerID, Options: opts}
	t.offers[offer.ID] = offer
	return offer
}

// draw picks n pool entries by rarity weight, without replacement.
func (t *UpgradeTracker) draw(n int) []arsenal.UpgradeSpec {
	pool := append([]arsenal.UpgradeSpec(nil), t.reg.Upgrades...)
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]arsenal.UpgradeSpec, 0, n)
	for len(out) < n {
		total := 0
		for _, u := range pool {
			total += rarityWeight(u.Rarity)
		}
		roll := rand.Intn(total)
		for i, u := range pool {
			roll -= rarityWeight(u.Rarity)
			if roll < 0 {
				out = append(out, u)
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	return out
}

// Pick consumes a pending offer. It fails when the offer is unknown, owned
// by another player, or names an option outside the draw; failed picks
// leave the offer pending.
func (t *UpgradeTracker) Pick(offerID, upgradeID, playerID string) (UpgradeApplyMsg, bool) {
	offer, ok := t.offers[offerID]
	if !ok || offer.PlayerID != playerID {
		return UpgradeApplyMsg{}, false
	}
	found := false
	for _, o := range offer.Options {
		if o.ID == upgradeID {
			found = true
			break
		}
	}
	if !found {
		return UpgradeApplyMsg{}, false
	}
	delete(t.offers, offerID)
	return t.apply(playerID, upgradeID), true
}

func (t *UpgradeTracker) apply(playerID, upgradeID string) UpgradeApplyMsg {
	m := t.stacks[playerID]
	if m == nil {
		m = make(map[string]int)
		t.stacks[playerID] = m
	}
	m[upgradeID]++
	return UpgradeApplyMsg{PlayerID: playerID, UpgradeID: upgradeID, Stacks: m[upgradeID]}
}

// ResolvePending auto-resolves every outstanding offer to its first option.
// Called when the upgrade phase timer expires.
func (t *UpgradeTracker) ResolvePending() []UpgradeApplyMsg {
	var out []UpgradeApplyMsg
	for id, o := range t.offers {
		delete(t.offers, id)
		if len(o.Options) > 0 {
			out = append(out, t.apply(o.PlayerID, o.Options[0].ID))
		}
	}
	return out
}

// PurgePlayer drops a disconnecting player's pending offer and stacks.
func (t *UpgradeTracker) PurgePlayer(playerID string) {
	for id, o := range t.offers {
		if o.PlayerID == playerID {
			delete(t.offers, id)
		}
	}
	delete(t.stacks, playerID)
}

// Stacks returns the accumulated count for one (player, upgrade) pair.
func (t *UpgradeTracker) Stacks(playerID, upgradeID string) int {
	return t.stacks[playerID][upgradeID]
}

// PendingFor returns the player's pending offer, if any.
func (t *UpgradeTracker) PendingFor(playerID string) *UpgradeOffer {
	for _, o := range t.offers {
		if o.PlayerID == playerID {
			return o
		}
	}
	return nil
}

// DamageMultiplier compounds damage upgrades across stacks.
func (t *UpgradeTracker) DamageMultiplier(playerID string) float64 {
	mult := 1.0
	for upID, n := range t.stacks[playerID] {
		spec, ok := t.reg.Upgrade(upID)
		if !ok || spec.Effect != arsenal.EffectDamage {
			continue
		}
		for i := 0; i < n; i++ {
			mult *= 1 + spec.Magnitude
		}
	}
	return mult
}

// DefenseMultiplier compounds incoming-damage reduction across stacks.
// Magnitudes below 1 shrink damage, so stacking approaches but never
// reaches immunity.
func (t *UpgradeTracker) DefenseMultiplier(playerID string) float64 {
	mult := 1.0
	for upID, n := range t.stacks[playerID] {
		spec, ok := t.reg.Upgrade(upID)
		if !ok || spec.Effect != arsenal.EffectDefense {
			continue
		}
		for i := 0; i < n; i++ {
			mult *= spec.Magnitude
		}
	}
	return mult
}

// HealthBonus sums flat max-health upgrades across stacks.
func (t *UpgradeTracker) HealthBonus(playerID string) float64 {
	bonus := 0.0
	for upID, n := range t.stacks[playerID] {
		spec, ok := t.reg.Upgrade(upID)
		if !ok || spec.Effect != arsenal.EffectMaxHealth {
			continue
		}
		bonus += spec.Magnitude * float64(n)
	}
	return bonus
}
