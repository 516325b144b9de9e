package combat

import (
	"sync"
	"time"

	"github.com/saltmere/mud/internal/game/clock"
)

// Ticker drives one combatant's automatic basic attacks. It fires at a fixed
// spacing in game seconds, converted to real time through the world clock,
// and is cancelled outright when the combatant leaves combat.
//
// The timer phase is independent of the target: switching targets swaps the
// reference without moving the next fire time.
type Ticker struct {
	mu          sync.Mutex
	combatantID string
	targetID    string
	// intervalGame is the spacing between fires in game seconds.
	intervalGame float64
	// nextFireWorld is the world-seconds timestamp of the next fire.
	nextFireWorld float64
	clk           *clock.WorldClock
	timer         *time.Timer
	stopped       bool
	onFire        func(combatantID string)
}

// NewTicker creates and starts a ticker for combatantID against targetID.
// The first fire lands one full interval from now.
//
// Precondition: intervalGame > 0; onFire must not be nil.
// Postcondition: NextFireWorld equals the current world time plus the interval.
func NewTicker(clk *clock.WorldClock, combatantID, targetID string, intervalGame float64, onFire func(combatantID string)) *Ticker {
	t := &Ticker{
		combatantID:   combatantID,
		targetID:      targetID,
		intervalGame:  intervalGame,
		nextFireWorld: float64(clk.WorldSeconds()) + intervalGame,
		clk:           clk,
		onFire:        onFire,
	}
	t.scheduleLocked()
	return t
}

// scheduleLocked arms the real-time timer for the current nextFireWorld.
// Callers must hold mu or have exclusive access during construction.
func (t *Ticker) scheduleLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	delta := t.nextFireWorld - float64(t.clk.WorldSeconds())
	if delta < 0 {
		delta = 0
	}
	real := t.clk.RealDuration(time.Duration(delta * float64(time.Second)))
	t.timer = time.AfterFunc(real, t.fire)
}

// fire runs one tick: it advances the phase by one interval, re-arms the
// timer, then invokes the callback outside the lock.
func (t *Ticker) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.nextFireWorld += t.intervalGame
	t.scheduleLocked()
	onFire := t.onFire
	id := t.combatantID
	t.mu.Unlock()
	onFire(id)
}

// Target returns the current target reference.
func (t *Ticker) Target() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targetID
}

// SwitchTarget swaps the target without touching the timer phase.
//
// Postcondition: NextFireWorld is unchanged.
func (t *Ticker) SwitchTarget(targetID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.targetID = targetID
}

// AddDelay pushes the next fire out by gameSeconds, representing a
// maneuver's action cost. The ticker keeps running.
func (t *Ticker) AddDelay(gameSeconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.nextFireWorld += gameSeconds
	t.scheduleLocked()
}

// NextFireWorld returns the world-seconds timestamp of the next fire.
func (t *Ticker) NextFireWorld() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextFireWorld
}

// Interval returns the fire spacing in game seconds.
func (t *Ticker) Interval() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intervalGame
}

// Cancel stops the ticker permanently. Safe to call multiple times.
//
// Postcondition: onFire is never invoked after Cancel returns.
func (t *Ticker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// advance is a test hook: it runs one fire cycle synchronously without
// waiting for the real-time timer.
func (t *Ticker) advance() {
	t.fire()
}
