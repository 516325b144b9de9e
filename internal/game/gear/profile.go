// Package gear provides the immutable content definitions the combat runtime
// consumes: weapons, armor, and maneuvers, loaded once from YAML by the
// content layer and never mutated afterwards.
package gear

// AttackProfile describes how a combatant's basic attack behaves: pacing,
// accuracy, and damage shape. Profiles come from an equipped weapon, a
// creature template, or the unarmed fallback.
type AttackProfile struct {
	// SpeedMult scales the base attack interval; lower is faster.
	SpeedMult float64
	// Accuracy is the effective accuracy skill used in the hit contest.
	Accuracy int
	// DamageMin and DamageMax bound the raw damage roll, inclusive.
	DamageMin int
	DamageMax int
	// DamageType keys armor reduction (slashing, piercing, bludgeoning...).
	DamageType string
	// CritChance is the probability in [0, 1] of a critical hit.
	CritChance float64
	// DamageBonus is a flat addition to the raw roll.
	DamageBonus int
	// Ranged attacks can fire from beyond the engaged band but take
	// weather accuracy penalties at distance.
	Ranged bool
}

// Unarmed returns the fixed fallback attack profile so a combatant without
// equipped weaponry always has a valid basic attack. Deliberately worse than
// the cheapest weapon.
func Unarmed() AttackProfile {
	return AttackProfile{
		SpeedMult:  1.0,
		Accuracy:   50,
		DamageMin:  1,
		DamageMax:  1,
		DamageType: "bludgeoning",
		CritChance: 0.01,
	}
}
