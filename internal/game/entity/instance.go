package entity

import (
	"time"

	"github.com/saltmere/mud/internal/game/gear"
)

// Instance is a live entity occupying a room.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// Kind classifies the instance (creature, npc, item).
	Kind Kind
	// TemplateID is the source template's ID; empty for items.
	TemplateID string
	// Name is copied from the template for display.
	Name string
	// Description is copied from the template.
	Description string
	// RoomID is the room this instance currently occupies.
	RoomID string
	// HomeRoomID is the spawn room, the anchor for leash distance.
	HomeRoomID string
	// CurrentHP is the instance's current hit points.
	CurrentHP int
	// MaxHP is the instance's maximum hit points.
	MaxHP int
	// CurrentStamina fuels maneuvers; creatures without maneuvers leave it
	// at zero.
	CurrentStamina int
	MaxStamina     int
	// DodgeSkill opposes incoming attack rolls.
	DodgeSkill int
	// Profile is the instance's resolved attack profile.
	Profile gear.AttackProfile
	// Behavior controls pursuit.
	Behavior Behavior
	// LeashRooms bounds territorial pursuit from HomeRoomID.
	LeashRooms int
	// LootTableID is rolled on death; empty means nothing drops.
	LootTableID string
	// OwnerUID restricts item pickup until the ownership window lapses.
	// Empty means free for all.
	OwnerUID string
	// ExpiresAt is when the instance despawns; zero means never.
	ExpiresAt time.Time
	// SpawnedAt is when the instance entered the world.
	SpawnedAt time.Time
}

// NewCreature creates a live creature instance from a template, placed in
// roomID with full HP and stamina.
//
// Precondition: id must be non-empty; tmpl must be non-nil; roomID must be non-empty.
// Postcondition: CurrentHP equals tmpl.MaxHP; HomeRoomID equals roomID.
func NewCreature(id string, tmpl *CreatureTemplate, roomID string, profile gear.AttackProfile, now time.Time) *Instance {
	behavior := tmpl.Behavior
	if behavior == "" {
		behavior = BehaviorPassive
	}
	return &Instance{
		ID:             id,
		Kind:           KindCreature,
		TemplateID:     tmpl.ID,
		Name:           tmpl.Name,
		Description:    tmpl.Description,
		RoomID:         roomID,
		HomeRoomID:     roomID,
		CurrentHP:      tmpl.MaxHP,
		MaxHP:          tmpl.MaxHP,
		CurrentStamina: tmpl.MaxStamina,
		MaxStamina:     tmpl.MaxStamina,
		DodgeSkill:     tmpl.Dodging,
		Profile:        profile,
		Behavior:       behavior,
		LeashRooms:     tmpl.LeashRooms,
		LootTableID:    tmpl.LootTableID,
		SpawnedAt:      now,
	}
}

// NewItem creates a ground item instance.
//
// Postcondition: the item carries the given ownership and expiry window.
func NewItem(id, name, roomID, ownerUID string, expiresAt, now time.Time) *Instance {
	return &Instance{
		ID:        id,
		Kind:      KindItem,
		Name:      name,
		RoomID:    roomID,
		OwnerUID:  ownerUID,
		ExpiresAt: expiresAt,
		SpawnedAt: now,
	}
}

// IsDead reports whether the instance has zero or fewer hit points.
func (i *Instance) IsDead() bool {
	return i.CurrentHP <= 0
}

// Expired reports whether an expiring instance has passed its window.
func (i *Instance) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// CanPickUp reports whether uid may take this item. Ownership lapses with the
// expiry window's first half so the owner gets a head start, not a monopoly.
func (i *Instance) CanPickUp(uid string, now time.Time) bool {
	if i.Kind != KindItem {
		return false
	}
	if i.OwnerUID == "" || i.OwnerUID == uid {
		return true
	}
	if i.ExpiresAt.IsZero() {
		return true
	}
	half := i.SpawnedAt.Add(i.ExpiresAt.Sub(i.SpawnedAt) / 2)
	return now.After(half)
}

// HealthDescription returns a visible health state string suitable for look
// output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	if i.CurrentHP <= 0 {
		return "dead"
	}
	pct := float64(i.CurrentHP) / float64(i.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
