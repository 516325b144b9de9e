package entity

import (
	"github.com/saltmere/mud/internal/game/gear"
)

// The combat runtime consumes instances through its Combatant interface.
// These methods satisfy it structurally so the entity package never imports
// combat.

// CombatID uniquely identifies the instance across a combat session.
func (i *Instance) CombatID() string { return i.ID }

// DisplayName is the name shown in combat notices.
func (i *Instance) DisplayName() string { return i.Name }

// IsPlayer is always false for world entities.
func (i *Instance) IsPlayer() bool { return false }

// Alive reports whether the instance can still act.
func (i *Instance) Alive() bool { return !i.IsDead() }

// ApplyDamage reduces hit points, flooring at zero.
func (i *Instance) ApplyDamage(amount int) {
	i.CurrentHP -= amount
	if i.CurrentHP < 0 {
		i.CurrentHP = 0
	}
}

// HP returns current and maximum hit points.
func (i *Instance) HP() (int, int) { return i.CurrentHP, i.MaxHP }

// Dodging is the effective avoidance skill opposing incoming attacks.
func (i *Instance) Dodging() int { return i.DodgeSkill }

// Stamina returns the current maneuver resource.
func (i *Instance) Stamina() int { return i.CurrentStamina }

// AttackProfile returns the instance's resolved basic attack.
func (i *Instance) AttackProfile() gear.AttackProfile { return i.Profile }

// ArmorPieces is empty: creatures bake their toughness into HP and dodging
// rather than wearing tracked armor.
func (i *Instance) ArmorPieces() []*gear.ArmorPiece { return nil }

// SpendStamina deducts cost, reporting false without change when the
// instance cannot pay.
func (i *Instance) SpendStamina(cost int) bool {
	if i.CurrentStamina < cost {
		return false
	}
	i.CurrentStamina -= cost
	return true
}

// PursuitBehavior reports how the instance chases fleeing targets.
func (i *Instance) PursuitBehavior() (string, string, int) {
	return string(i.Behavior), i.HomeRoomID, i.LeashRooms
}
