// Package schedule answers "which schedule-bound NPCs are present in this
// room right now" without continuously simulating NPC movement. Presence is
// resolved lazily from each NPC's time-range bindings against the world
// clock, and changes are deferred while an NPC is busy (in combat,
// mid-transaction, mid-dialogue).
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/saltmere/mud/internal/game/clock"
)

// Binding maps a daily time range to the room an NPC occupies during it.
// Ranges are expressed in minutes since midnight; a Start greater than End
// denotes an overnight range (e.g. 22:00–06:00).
type Binding struct {
	Start  int
	End    int
	RoomID string
}

// Contains reports whether minuteOfDay falls inside the binding.
func (b Binding) Contains(minuteOfDay int) bool {
	if b.Start > b.End {
		return minuteOfDay >= b.Start || minuteOfDay < b.End
	}
	return b.Start <= minuteOfDay && minuteOfDay < b.End
}

// ParseClock parses "HH:MM" into minutes since midnight.
//
// Postcondition: Returns a value in [0, 1439] or an error.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("schedule: time %q must be HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("schedule: bad hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("schedule: bad minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("schedule: time %q out of range", s)
	}
	return hour*60 + minute, nil
}

// Resolver resolves scheduled NPC presence for rooms.
// All methods are safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	bindings  map[string][]Binding       // npcID → daily bindings
	roomIndex map[string]map[string]bool // roomID → candidate npcIDs
	deferred  map[string]string          // npcID → room the NPC is held in
	lastRoom  map[string]string          // npcID → room last resolved present
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		bindings:  make(map[string][]Binding),
		roomIndex: make(map[string]map[string]bool),
		deferred:  make(map[string]string),
		lastRoom:  make(map[string]string),
	}
}

// SetBindings registers an NPC's daily bindings, replacing any existing set.
// Bindings for one NPC must not overlap; an overlap is a content error.
//
// Precondition: npcID must be non-empty.
// Postcondition: Returns an error and leaves the resolver unchanged when two
// bindings overlap.
func (r *Resolver) SetBindings(npcID string, bindings []Binding) error {
	for i := 0; i < len(bindings); i++ {
		for j := i + 1; j < len(bindings); j++ {
			if overlap(bindings[i], bindings[j]) {
				return fmt.Errorf("schedule: npc %q bindings %d and %d overlap", npcID, i, j)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, old := range r.bindings[npcID] {
		if set, ok := r.roomIndex[old.RoomID]; ok {
			delete(set, npcID)
			if len(set) == 0 {
				delete(r.roomIndex, old.RoomID)
			}
		}
	}

	r.bindings[npcID] = bindings
	for _, b := range bindings {
		if r.roomIndex[b.RoomID] == nil {
			r.roomIndex[b.RoomID] = make(map[string]bool)
		}
		r.roomIndex[b.RoomID][npcID] = true
	}
	return nil
}

// RoomFor returns the room the NPC should occupy at worldSeconds.
// An NPC matching no binding is absent.
//
// Postcondition: Returns (roomID, true) when exactly one binding matches, or
// ("", false) when none does.
func (r *Resolver) RoomFor(npcID string, worldSeconds int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.roomForLocked(npcID, worldSeconds)
}

// roomForLocked resolves the scheduled room. Caller holds r.mu.
func (r *Resolver) roomForLocked(npcID string, worldSeconds int64) (string, bool) {
	minute := clock.MinuteOfDay(worldSeconds)
	for _, b := range r.bindings[npcID] {
		if b.Contains(minute) {
			return b.RoomID, true
		}
	}
	return "", false
}

// PresentNPCs returns the NPCs standing in roomID at worldSeconds. busy,
// when non-nil, reports whether an NPC cannot walk away right now. A busy
// NPC does not vanish when its window rolls over: the move is deferred and
// the NPC is held in the room it occupies until busy clears, at which point
// the schedule applies again on the next resolution.
//
// Postcondition: Returns a sorted, possibly-empty slice.
func (r *Resolver) PresentNPCs(roomID string, worldSeconds int64, busy func(npcID string) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var present []string
	for npcID := range r.roomIndex[roomID] {
		if r.resolveLocked(npcID, roomID, worldSeconds, busy) {
			present = append(present, npcID)
		}
	}
	sort.Strings(present)
	return present
}

// resolveLocked decides whether npcID stands in roomID. Caller holds r.mu.
func (r *Resolver) resolveLocked(npcID, roomID string, worldSeconds int64, busy func(string) bool) bool {
	isBusy := busy != nil && busy(npcID)

	if held, ok := r.deferred[npcID]; ok {
		if isBusy {
			return held == roomID
		}
		delete(r.deferred, npcID)
	}

	sched, onDuty := r.roomForLocked(npcID, worldSeconds)

	if isBusy {
		if last, ok := r.lastRoom[npcID]; ok && (!onDuty || sched != last) {
			// The schedule wants the NPC elsewhere, but they cannot
			// walk away mid-fight. Hold them where they stand.
			r.deferred[npcID] = last
			return last == roomID
		}
	}

	if !onDuty {
		delete(r.lastRoom, npcID)
		return false
	}
	r.lastRoom[npcID] = sched
	return sched == roomID
}

// Defer holds an NPC in roomID regardless of its schedule, until
// ClearDeferral or a resolution that finds the NPC no longer busy.
func (r *Resolver) Defer(npcID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred[npcID] = roomID
	r.lastRoom[npcID] = roomID
}

// ClearDeferral releases a held NPC so its schedule applies again.
func (r *Resolver) ClearDeferral(npcID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deferred, npcID)
}

// IsDeferred reports whether the NPC is being held in place.
func (r *Resolver) IsDeferred(npcID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.deferred[npcID]
	return ok
}

// overlap reports whether two daily ranges share any minute.
func overlap(a, b Binding) bool {
	for _, m := range sampleMinutes(a) {
		if b.Contains(m) {
			return true
		}
	}
	for _, m := range sampleMinutes(b) {
		if a.Contains(m) {
			return true
		}
	}
	return false
}

// sampleMinutes returns the boundary minutes of a range; two daily ranges
// overlap iff one contains a boundary of the other.
func sampleMinutes(b Binding) []int {
	last := b.End - 1
	if last < 0 {
		last = 1439
	}
	return []int{b.Start, last}
}
