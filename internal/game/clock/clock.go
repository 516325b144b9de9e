// Package clock maintains the authoritative in-game time: a single
// world-seconds counter advanced at a fixed ratio to real elapsed time.
// All calendar fields (day, hour, day part) are pure functions of that
// counter and are never stored redundantly.
package clock

import (
	"sync"
	"time"
)

// DefaultRatio is the number of game seconds that pass per real second.
// One real day is three in-game days.
const DefaultRatio = 3

const (
	secondsPerDay  = 86400
	secondsPerHour = 3600
)

// WorldClock converts real elapsed time into world seconds.
// It is a single-writer, many-reader structure: SetWorldSeconds is the only
// mutation and is reserved for administrative use.
type WorldClock struct {
	mu         sync.RWMutex
	ratio      int64
	startReal  time.Time
	startWorld int64
	now        func() time.Time
}

// New creates a WorldClock starting at startEpoch world seconds.
//
// Precondition: ratio must be > 0; a zero ratio falls back to DefaultRatio.
// Postcondition: WorldSeconds() >= startEpoch from now on.
func New(startEpoch int64, ratio int64) *WorldClock {
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return &WorldClock{
		ratio:      ratio,
		startReal:  time.Now(),
		startWorld: startEpoch,
		now:        time.Now,
	}
}

// NewFixed creates a WorldClock pinned to a controllable time function,
// for tests that need to step time manually.
func NewFixed(startEpoch int64, ratio int64, now func() time.Time) *WorldClock {
	c := New(startEpoch, ratio)
	c.now = now
	c.startReal = now()
	return c
}

// WorldSeconds returns the current world time in seconds since epoch.
//
// Postcondition: monotonically non-decreasing between SetWorldSeconds calls.
func (c *WorldClock) WorldSeconds() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	elapsed := c.now().Sub(c.startReal)
	return c.startWorld + int64(elapsed.Seconds())*c.ratio
}

// SetWorldSeconds pins world time to a specific value (admin function).
//
// Postcondition: WorldSeconds() == ws immediately after the call.
func (c *WorldClock) SetWorldSeconds(ws int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startWorld = ws
	c.startReal = c.now()
}

// GameDuration converts a real duration into the equivalent game duration.
func (c *WorldClock) GameDuration(real time.Duration) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return real * time.Duration(c.ratio)
}

// RealDuration converts a game duration into the real duration it spans.
func (c *WorldClock) RealDuration(game time.Duration) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return game / time.Duration(c.ratio)
}

// Day returns the current day number (days since epoch).
func Day(worldSeconds int64) int64 { return worldSeconds / secondsPerDay }

// Hour returns the current hour in [0, 23].
func Hour(worldSeconds int64) int {
	return int((worldSeconds % secondsPerDay) / secondsPerHour)
}

// Minute returns the current minute in [0, 59].
func Minute(worldSeconds int64) int {
	return int((worldSeconds % secondsPerHour) / 60)
}

// MinuteOfDay returns minutes since midnight in [0, 1439].
func MinuteOfDay(worldSeconds int64) int {
	return Hour(worldSeconds)*60 + Minute(worldSeconds)
}
