// Package room holds per-room runtime state and the lock table that
// serializes state transitions within a single room.
package room

import (
	"time"
)

// State is the mutable runtime state of one room. It is owned by the Keeper
// and must only be touched while holding the room's lock.
type State struct {
	// RoomID identifies the room.
	RoomID string
	// Seed drives deterministic spawn and encounter rolls for this room.
	Seed int64
	// SpawnReadyAt maps creature template ID to the earliest time another
	// spawn of that template may fire here. Zero time means ready now.
	SpawnReadyAt map[string]time.Time
	// EncounterReadyAt is the earliest time another random encounter may
	// fire in this room.
	EncounterReadyAt time.Time
	// ActiveCombatID is the combat session currently running here, if any.
	ActiveCombatID string
	// LastActive is the last time a player acted in this room. Sweeps use
	// it to idle out empty rooms.
	LastActive time.Time
}

// NewState creates runtime state for a room.
func NewState(roomID string, seed int64) *State {
	return &State{
		RoomID:       roomID,
		Seed:         seed,
		SpawnReadyAt: make(map[string]time.Time),
	}
}

// SpawnEligible reports whether templateID may spawn here at now, without
// consuming eligibility.
func (s *State) SpawnEligible(templateID string, now time.Time) bool {
	ready, ok := s.SpawnReadyAt[templateID]
	return !ok || !now.Before(ready)
}

// ConsumeSpawn marks templateID as spawned, pushing its next eligibility out
// by cooldown. Returns false without consuming if the template is still on
// cooldown.
//
// Postcondition: on true, SpawnEligible(templateID, now) is false until
// now+cooldown.
func (s *State) ConsumeSpawn(templateID string, cooldown time.Duration, now time.Time) bool {
	if !s.SpawnEligible(templateID, now) {
		return false
	}
	s.SpawnReadyAt[templateID] = now.Add(cooldown)
	return true
}

// EncounterEligible reports whether a random encounter may fire at now.
func (s *State) EncounterEligible(now time.Time) bool {
	return !now.Before(s.EncounterReadyAt)
}

// ConsumeEncounter marks an encounter as fired, pushing the next one out by
// cooldown. Returns false without consuming if still on cooldown.
func (s *State) ConsumeEncounter(cooldown time.Duration, now time.Time) bool {
	if !s.EncounterEligible(now) {
		return false
	}
	s.EncounterReadyAt = now.Add(cooldown)
	return true
}

// Touch records player activity at now.
func (s *State) Touch(now time.Time) {
	s.LastActive = now
}

// IdleSince reports whether the room has seen no player activity for at
// least idle.
func (s *State) IdleSince(idle time.Duration, now time.Time) bool {
	return !s.LastActive.IsZero() && now.Sub(s.LastActive) >= idle
}
