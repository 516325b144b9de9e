// Package combat implements the real-time combat runtime for Saltmere:
// per-room combat sessions with fixed initiative, independently paced attack
// tickers per combatant, maneuvers, and the disengage/pursuit protocol.
package combat

import (
	"github.com/saltmere/mud/internal/game/gear"
)

// State is a combatant's exclusive combat state within a session.
type State string

const (
	// StateObserving combatants are present but not fighting.
	StateObserving State = "observing"
	// StateEngaged combatants have a hostile target and a running ticker.
	StateEngaged State = "engaged"
	// StateSupporting combatants assist without a hostile target of their own.
	StateSupporting State = "supporting"
	// StateDisengaging combatants are mid disengage attempt.
	StateDisengaging State = "disengaging"
)

// Modifier is a temporary overlay on Engaged or Supporting, never an
// exclusive state of its own.
type Modifier string

const (
	// ModifierExposed raises the accuracy of attacks against the bearer.
	ModifierExposed Modifier = "exposed"
	// ModifierPinned blocks the bearer's movement and disengage attempts.
	ModifierPinned Modifier = "pinned"
	// ModifierStaggered halves the bearer's effective dodging.
	ModifierStaggered Modifier = "staggered"
)

// RangeBand is the coarse distance between a combatant and the fight.
type RangeBand string

const (
	BandEngaged RangeBand = "engaged"
	BandNear    RangeBand = "near"
	BandFar     RangeBand = "far"
	BandDistant RangeBand = "distant"
)

// Closer returns the band one step nearer the fight.
func (b RangeBand) Closer() RangeBand {
	switch b {
	case BandDistant:
		return BandFar
	case BandFar:
		return BandNear
	case BandNear:
		return BandEngaged
	default:
		return BandEngaged
	}
}

// InMeleeRange reports whether a melee basic attack can land from this band.
func (b RangeBand) InMeleeRange() bool {
	return b == BandEngaged
}

// Combatant is the capability surface the combat runtime needs from any
// participant. Player sessions and entity instances both implement it; the
// runtime never inspects the concrete type beyond IsPlayer.
type Combatant interface {
	// CombatID uniquely identifies the combatant across the session.
	CombatID() string
	// DisplayName is shown in notices and summaries.
	DisplayName() string
	// IsPlayer distinguishes player characters from world entities.
	IsPlayer() bool
	// Alive reports whether the combatant can still act.
	Alive() bool
	// ApplyDamage reduces hit points, flooring at zero.
	ApplyDamage(amount int)
	// HP returns current and maximum hit points.
	HP() (current, max int)
	// Dodging is the effective avoidance skill opposing incoming attacks.
	Dodging() int
	// AttackProfile is the combatant's current basic attack.
	AttackProfile() gear.AttackProfile
	// ArmorPieces returns worn armor, outermost first. May be empty.
	ArmorPieces() []*gear.ArmorPiece
	// Stamina returns the current maneuver resource.
	Stamina() int
	// SpendStamina deducts cost, reporting false without change when the
	// combatant cannot pay.
	SpendStamina(cost int) bool
}
