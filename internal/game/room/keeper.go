package room

import (
	"sync"
	"time"
)

// Keeper owns the runtime state of every room and the per-room locks that
// serialize state transitions. Cross-room operations take locks in sorted
// room-ID order to avoid deadlock; With and With2 enforce that ordering.
type Keeper struct {
	mu     sync.RWMutex
	states map[string]*State
	locks  map[string]*sync.Mutex
	// seeder derives a room's deterministic seed from its ID.
	seeder func(roomID string) int64
}

// NewKeeper creates an empty Keeper. seeder may be nil, in which case rooms
// get a zero seed.
func NewKeeper(seeder func(roomID string) int64) *Keeper {
	return &Keeper{
		states: make(map[string]*State),
		locks:  make(map[string]*sync.Mutex),
		seeder: seeder,
	}
}

// state returns the room's state and lock, creating both on first touch.
func (k *Keeper) state(roomID string) (*State, *sync.Mutex) {
	k.mu.RLock()
	st, ok := k.states[roomID]
	lk := k.locks[roomID]
	k.mu.RUnlock()
	if ok {
		return st, lk
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if st, ok = k.states[roomID]; ok {
		return st, k.locks[roomID]
	}
	var seed int64
	if k.seeder != nil {
		seed = k.seeder(roomID)
	}
	st = NewState(roomID, seed)
	lk = &sync.Mutex{}
	k.states[roomID] = st
	k.locks[roomID] = lk
	return st, lk
}

// With runs fn while holding the room's lock.
//
// Precondition: fn must not call back into the Keeper for the same room.
func (k *Keeper) With(roomID string, fn func(*State)) {
	st, lk := k.state(roomID)
	lk.Lock()
	defer lk.Unlock()
	fn(st)
}

// With2 runs fn while holding both rooms' locks, acquired in sorted room-ID
// order. Used for transitions that span two rooms, such as pursuit.
//
// Precondition: roomA != roomB.
func (k *Keeper) With2(roomA, roomB string, fn func(a, b *State)) {
	if roomA > roomB {
		k.With2(roomB, roomA, func(b, a *State) { fn(a, b) })
		return
	}
	stA, lkA := k.state(roomA)
	stB, lkB := k.state(roomB)
	lkA.Lock()
	defer lkA.Unlock()
	lkB.Lock()
	defer lkB.Unlock()
	fn(stA, stB)
}

// TryConsumeSpawn atomically checks and consumes spawn eligibility for
// templateID in roomID. At most one caller wins per cooldown window.
//
// Postcondition: returns true to exactly one concurrent caller.
func (k *Keeper) TryConsumeSpawn(roomID, templateID string, cooldown time.Duration, now time.Time) bool {
	var ok bool
	k.With(roomID, func(st *State) {
		ok = st.ConsumeSpawn(templateID, cooldown, now)
	})
	return ok
}

// TryConsumeEncounter atomically checks and consumes encounter eligibility
// for roomID.
func (k *Keeper) TryConsumeEncounter(roomID string, cooldown time.Duration, now time.Time) bool {
	var ok bool
	k.With(roomID, func(st *State) {
		ok = st.ConsumeEncounter(cooldown, now)
	})
	return ok
}

// Touch records player activity in roomID at now.
func (k *Keeper) Touch(roomID string, now time.Time) {
	k.With(roomID, func(st *State) {
		st.Touch(now)
	})
}

// SweepIdle drops runtime state for rooms idle for at least horizon. inUse,
// when non-nil, vetoes eviction for rooms that still hold live activity;
// it is called without any Keeper lock held. Evicted rooms rebuild fresh
// state on next touch. Returns the evicted room IDs.
func (k *Keeper) SweepIdle(horizon time.Duration, now time.Time, inUse func(roomID string) bool) []string {
	type candidate struct {
		id string
		st *State
		lk *sync.Mutex
	}
	k.mu.RLock()
	all := make([]candidate, 0, len(k.states))
	for id, st := range k.states {
		all = append(all, candidate{id, st, k.locks[id]})
	}
	k.mu.RUnlock()

	var evicted []string
	for _, c := range all {
		c.lk.Lock()
		idle := c.st.IdleSince(horizon, now)
		c.lk.Unlock()
		if !idle {
			continue
		}
		if inUse != nil && inUse(c.id) {
			continue
		}
		k.mu.Lock()
		if k.states[c.id] == c.st {
			delete(k.states, c.id)
			delete(k.locks, c.id)
			evicted = append(evicted, c.id)
		}
		k.mu.Unlock()
	}
	return evicted
}

// RoomIDs returns a snapshot of every room with runtime state.
func (k *Keeper) RoomIDs() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.states))
	for id := range k.states {
		out = append(out, id)
	}
	return out
}
