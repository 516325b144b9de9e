// Package weather implements the regional weather state machine. Weather is
// regional, never per-room: two rooms in one region always observe the same
// state at the same instant. Transitions are rolled lazily on access from a
// weighted table keyed by the current weather type, using each region's own
// seeded source so a fixed seed always yields the same sequence.
package weather

import (
	"sync"

	"github.com/saltmere/mud/internal/game/dice"
)

// Exposure describes how much of the sky a room sees.
type Exposure string

const (
	ExposureIndoor    Exposure = "indoor"
	ExposureSheltered Exposure = "sheltered"
	ExposureOutdoor   Exposure = "outdoor"
	ExposureCoastal   Exposure = "coastal"
)

// Valid reports whether e is a known exposure. The empty string is valid and
// treated as outdoor by the world loader.
func (e Exposure) Valid() bool {
	switch e {
	case "", ExposureIndoor, ExposureSheltered, ExposureOutdoor, ExposureCoastal:
		return true
	}
	return false
}

// Effect identifies a situational combat modifier driven by weather.
type Effect string

const (
	// EffectRangedAccuracyFar penalizes ranged attacks at the far band (fog).
	EffectRangedAccuracyFar Effect = "ranged_accuracy_far"
	// EffectDisengageFailure raises disengage difficulty (squall).
	EffectDisengageFailure Effect = "disengage_failure"
	// EffectDurabilityLoss scales armor durability loss (salt rain).
	EffectDurabilityLoss Effect = "durability_loss"
	// EffectStaminaDrain drains stamina outdoors (cold snap).
	EffectStaminaDrain Effect = "stamina_drain"
)

// maxIntensity caps how far a weather spell can build.
const maxIntensity = 3

// RegionState is the single active weather record for one region.
type RegionState struct {
	RegionID     string
	Type         string
	Intensity    int
	StartedAt    int64
	NextChangeAt int64
	Seed         int64
}

// Service owns all regional weather state.
// All methods are safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	tables  Tables
	regions map[string]*RegionState
	sources map[string]dice.Source // regionID → seeded source
	seeder  func(regionID string) int64
	minSpan int64 // minimum spell duration, game seconds
	maxSpan int64
}

// NewService creates a weather Service backed by the given tables.
// seeder assigns each region its seed on first access; spans bound how long
// a weather spell lasts in game seconds.
//
// Precondition: tables must have passed Validate; seeder must be non-nil;
// 0 < minSpan <= maxSpan.
func NewService(tables Tables, seeder func(regionID string) int64, minSpan, maxSpan int64) *Service {
	return &Service{
		tables:  tables,
		regions: make(map[string]*RegionState),
		sources: make(map[string]dice.Source),
		seeder:  seeder,
		minSpan: minSpan,
		maxSpan: maxSpan,
	}
}

// StateFor returns the current weather for regionID at worldSeconds,
// rolling a transition first when the change time has passed. Creating a
// region's state on first access starts it clear.
//
// Postcondition: Returns a non-nil state with NextChangeAt > worldSeconds
// unless maxSpan has elapsed within this call's window.
func (s *Service) StateFor(regionID string, worldSeconds int64) *RegionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.ensureLocked(regionID, worldSeconds)
	for state.NextChangeAt <= worldSeconds {
		s.rollLocked(state, worldSeconds)
	}
	cp := *state
	return &cp
}

// Changed reports whether accessing regionID at worldSeconds produced a
// visible weather change, returning the change message when it did.
func (s *Service) Changed(regionID string, worldSeconds int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.ensureLocked(regionID, worldSeconds)
	if state.NextChangeAt > worldSeconds {
		return "", false
	}
	before := state.Type
	for state.NextChangeAt <= worldSeconds {
		s.rollLocked(state, worldSeconds)
	}
	if state.Type == before {
		return "", false
	}
	return s.tables.ChangeMessage(state.Type), true
}

// Overlay returns the short atmospheric line for the room's exposure, or
// ("", false) for indoor rooms.
func (s *Service) Overlay(regionID string, exposure Exposure, worldSeconds int64) (string, bool) {
	if exposure == ExposureIndoor || regionID == "" {
		return "", false
	}
	state := s.StateFor(regionID, worldSeconds)
	return s.tables.Overlay(state.Type, exposure)
}

// Modifier returns the magnitude of a weather-driven combat modifier for a
// room with the given exposure. Indoor rooms are unaffected.
//
// Postcondition: Returns 0 when the current weather does not drive effect.
func (s *Service) Modifier(regionID string, exposure Exposure, effect Effect, worldSeconds int64) int {
	if exposure == ExposureIndoor || regionID == "" {
		return 0
	}
	state := s.StateFor(regionID, worldSeconds)
	scale := float64(state.Intensity+1) / float64(maxIntensity+1)

	switch {
	case effect == EffectRangedAccuracyFar && state.Type == "fog":
		return int(-15 * scale)
	case effect == EffectDisengageFailure && state.Type == "squall":
		return int(20 * scale)
	case effect == EffectDurabilityLoss && state.Type == "salt_rain":
		return int(2 * scale)
	case effect == EffectStaminaDrain && state.Type == "cold_snap" &&
		(exposure == ExposureOutdoor || exposure == ExposureCoastal):
		return int(2 * scale)
	}
	return 0
}

// ensureLocked returns the region's state, creating it clear if missing.
// Caller must hold s.mu.
func (s *Service) ensureLocked(regionID string, worldSeconds int64) *RegionState {
	if state, ok := s.regions[regionID]; ok {
		return state
	}
	seed := s.seeder(regionID)
	state := &RegionState{
		RegionID:     regionID,
		Type:         "clear",
		Intensity:    0,
		StartedAt:    worldSeconds,
		NextChangeAt: worldSeconds + s.minSpan,
		Seed:         seed,
	}
	s.regions[regionID] = state
	s.sources[regionID] = dice.NewSeededSource(seed)
	return state
}

// rollLocked applies one transition to state. Caller must hold s.mu.
func (s *Service) rollLocked(state *RegionState, worldSeconds int64) {
	src := s.sources[state.RegionID]
	next := s.tables.Next(state.Type, src)

	span := s.minSpan
	if s.maxSpan > s.minSpan {
		span += int64(src.Intn(int(s.maxSpan - s.minSpan + 1)))
	}

	if next != "clear" {
		state.Intensity++
	} else {
		state.Intensity--
	}
	if state.Intensity > maxIntensity {
		state.Intensity = maxIntensity
	}
	if state.Intensity < 0 {
		state.Intensity = 0
	}

	state.Type = next
	state.StartedAt = worldSeconds
	state.NextChangeAt = worldSeconds + span
}
