package combat

import (
	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/game/gear"
)

// Attack is the resolved offensive side of one swing: the attack profile plus
// the effective accuracy after situational modifiers (weather, exposed
// target, range).
type Attack struct {
	Profile  gear.AttackProfile
	Accuracy int
}

// Defense is the resolved defensive side: effective dodging after modifiers
// and the worn armor.
type Defense struct {
	Dodging int
	Armor   []*gear.ArmorPiece
}

// Result describes one fully resolved basic attack.
type Result struct {
	Hit      bool
	Glancing bool
	Crit     bool
	// AttackRoll and DefenseRoll are the raw percentile draws.
	AttackRoll  int
	DefenseRoll int
	// Raw is the rolled damage before armor; zero on a miss.
	Raw int
	// Absorbed is the total damage soaked by armor.
	Absorbed int
	// Final is the damage applied to the defender. Never negative, never
	// above Raw.
	Final int
}

// Accuracy and dodging are clamped so a swing is never a certainty either way.
const (
	minEffectiveSkill = 1
	maxEffectiveSkill = 99
)

func clampSkill(v int) int {
	if v < minEffectiveSkill {
		return minEffectiveSkill
	}
	if v > maxEffectiveSkill {
		return maxEffectiveSkill
	}
	return v
}

// Resolve runs the accuracy-vs-dodging contest for one basic attack and
// applies damage rolling, criticals, and armor reduction.
//
// The contest: both sides draw a percentile. The attack lands when the
// attacker's draw is within their effective accuracy and the defender either
// drew a failed dodge or a worse roll. A defender whose successful dodge
// lands in the top fifth of their skill turns a hit into a glancing blow for
// half damage, minimum one.
//
// Postcondition: Final >= 0; Final <= Raw; armor durability lost equals the
// damage absorbed, scaled by durabilityMult.
func Resolve(atk Attack, def Defense, durabilityMult float64, src dice.Source) Result {
	effAcc := clampSkill(atk.Accuracy)
	effDodge := clampSkill(def.Dodging)

	r := Result{
		AttackRoll:  dice.Percentile(src),
		DefenseRoll: dice.Percentile(src),
	}

	if r.AttackRoll > effAcc {
		return r
	}
	dodgeSucceeded := r.DefenseRoll <= effDodge
	if dodgeSucceeded && r.DefenseRoll <= r.AttackRoll {
		return r
	}
	r.Hit = true

	// A hard-won dodge that still lost the contest takes the edge off.
	if dodgeSucceeded && r.DefenseRoll > effDodge-effDodge/5 {
		r.Glancing = true
	}

	r.Raw = dice.Between(src, atk.Profile.DamageMin, atk.Profile.DamageMax) + atk.Profile.DamageBonus
	if dice.Chance(src, atk.Profile.CritChance) {
		r.Crit = true
		r.Raw *= 2
	}
	if r.Glancing {
		r.Raw /= 2
		if r.Raw < 1 {
			r.Raw = 1
		}
	}

	remaining := r.Raw
	for _, piece := range def.Armor {
		if remaining <= 0 {
			break
		}
		reduction := piece.ReductionFor(atk.Profile.DamageType)
		if reduction <= 0 {
			continue
		}
		absorbed := reduction
		if absorbed > remaining {
			absorbed = remaining
		}
		piece.Absorb(absorbed, durabilityMult)
		r.Absorbed += absorbed
		remaining -= absorbed
	}
	r.Final = remaining
	return r
}
