package session

import (
	"github.com/saltmere/mud/internal/game/gear"
)

// The combat runtime consumes player sessions through its Combatant
// interface; these methods satisfy it structurally.

// CombatID uniquely identifies the player across a combat session.
func (s *PlayerSession) CombatID() string { return s.UID }

// DisplayName is the name shown in combat notices.
func (s *PlayerSession) DisplayName() string { return s.CharName }

// IsPlayer is always true for sessions.
func (s *PlayerSession) IsPlayer() bool { return true }

// Alive reports whether the character can still act.
func (s *PlayerSession) Alive() bool { return s.CurrentHP > 0 }

// ApplyDamage reduces hit points, flooring at zero.
func (s *PlayerSession) ApplyDamage(amount int) {
	s.CurrentHP -= amount
	if s.CurrentHP < 0 {
		s.CurrentHP = 0
	}
}

// HP returns current and maximum hit points.
func (s *PlayerSession) HP() (int, int) { return s.CurrentHP, s.MaxHP }

// Dodging is the effective avoidance skill opposing incoming attacks.
func (s *PlayerSession) Dodging() int { return s.DodgeSkill }

// AttackProfile resolves the equipped weapon against the character's
// accuracy, falling back to an unarmed strike at the same skill.
func (s *PlayerSession) AttackProfile() gear.AttackProfile {
	if s.Weapon != nil {
		return s.Weapon.Profile(s.Accuracy)
	}
	prof := gear.Unarmed()
	prof.Accuracy = s.Accuracy
	return prof
}

// ArmorPieces returns the worn armor, outermost first.
func (s *PlayerSession) ArmorPieces() []*gear.ArmorPiece { return s.Armor }

// Stamina returns the current maneuver resource.
func (s *PlayerSession) Stamina() int { return s.CurrentStamina }

// SpendStamina deducts cost, reporting false without change when the
// character cannot pay.
func (s *PlayerSession) SpendStamina(cost int) bool {
	if s.CurrentStamina < cost {
		return false
	}
	s.CurrentStamina -= cost
	return true
}
