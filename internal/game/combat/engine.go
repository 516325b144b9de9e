package combat

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/clock"
	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/game/gear"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/weather"
	"github.com/saltmere/mud/internal/game/world"
)

// Config holds the combat engine's tunables. All durations are in game
// seconds.
type Config struct {
	// BaseAttackInterval is scaled by the weapon's speed multiplier to
	// produce a combatant's tick spacing.
	BaseAttackInterval float64
	// RoundDuration paces round summaries and reaction budget resets.
	RoundDuration float64
	// FleeWindow is how long a successful disengage permits leaving
	// without a re-check.
	FleeWindow float64
	// DisengageDifficulty is the flat difficulty when no opponent opposes
	// the check.
	DisengageDifficulty int
	// ReactionsPerRound bounds reaction maneuvers per combatant per round.
	ReactionsPerRound int
	// ExposedAccuracyBonus is added to attacks against an exposed target.
	ExposedAccuracyBonus int
	// LeaveEndsCombat switches to the simple mode where walking out of the
	// room ends the fight instead of requiring a disengage.
	LeaveEndsCombat bool
}

// DefaultConfig returns the standard combat tunables.
func DefaultConfig() Config {
	return Config{
		BaseAttackInterval:   3.0,
		RoundDuration:        12.0,
		FleeWindow:           9.0,
		DisengageDifficulty:  25,
		ReactionsPerRound:    1,
		ExposedAccuracyBonus: 10,
	}
}

// Event is one user-facing combat notice. CombatantID empty means the line
// goes to everyone present in the room.
type Event struct {
	RoomID      string
	CombatantID string
	Line        string
}

// EventSink receives combat events for delivery to sessions.
type EventSink func(Event)

// DeathHandler is invoked after a combatant dies and has been removed from
// its session. It runs outside the room lock, so it may safely call back
// into room-locked subsystems such as loot generation.
type DeathHandler func(victim Combatant, killerID string)

// Chaser is the optional pursuit capability of a combatant. Creatures
// implement it; combatants that do not are never pursuers.
type Chaser interface {
	// PursuitBehavior returns the pursuit mode (passive, territorial,
	// relentless), the home room anchoring the leash, and the leash radius
	// in rooms.
	PursuitBehavior() (behavior, homeRoomID string, leashRooms int)
}

// ManeuverGate evaluates a maneuver's scripted precondition. A nil gate
// admits every maneuver.
type ManeuverGate interface {
	Allow(actor Combatant, man *gear.ManeuverDef, target Combatant) (bool, error)
}

// Engine owns every active combat session, keyed by room, plus the attack
// tickers of all engaged combatants. Room state transitions are serialized
// through the room Keeper; the engine's own lock only guards its maps.
type Engine struct {
	cfg        Config
	clk        *clock.WorldClock
	keeper     *room.Keeper
	worldMgr   *world.Manager
	weatherSvc *weather.Service
	gearReg    *gear.Registry
	gate       ManeuverGate
	sink       EventSink
	onDeath    DeathHandler
	logger     *zap.Logger
	src        dice.Source

	mu          sync.RWMutex
	sessions    map[string]*Session // roomID → session
	tickers     map[string]*Ticker  // combatantID → ticker
	tickerRooms map[string]string   // combatantID → roomID
	roundTimers map[string]*RoundTimer
}

// NewEngine creates a combat Engine. weatherSvc, gate, sink, and logger may
// be nil; worldMgr may be nil only in tests that never move or pursue.
//
// Precondition: clk and keeper must be non-nil.
func NewEngine(cfg Config, clk *clock.WorldClock, keeper *room.Keeper, worldMgr *world.Manager, weatherSvc *weather.Service, gearReg *gear.Registry, src dice.Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if src == nil {
		src = dice.NewCryptoSource()
	}
	return &Engine{
		cfg:         cfg,
		clk:         clk,
		keeper:      keeper,
		worldMgr:    worldMgr,
		weatherSvc:  weatherSvc,
		gearReg:     gearReg,
		src:         src,
		logger:      logger,
		sessions:    make(map[string]*Session),
		tickers:     make(map[string]*Ticker),
		tickerRooms: make(map[string]string),
		roundTimers: make(map[string]*RoundTimer),
	}
}

// SetSink installs the event delivery callback.
func (e *Engine) SetSink(sink EventSink) { e.sink = sink }

// SetDeathHandler installs the post-death callback.
func (e *Engine) SetDeathHandler(h DeathHandler) { e.onDeath = h }

// SetManeuverGate installs the scripted precondition evaluator.
func (e *Engine) SetManeuverGate(g ManeuverGate) { e.gate = g }

func (e *Engine) emit(roomID, combatantID, line string) {
	if e.sink != nil {
		e.sink(Event{RoomID: roomID, CombatantID: combatantID, Line: line})
	}
}

// SessionFor returns the active session in roomID.
func (e *Engine) SessionFor(roomID string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[roomID]
	return s, ok
}

// TickerFor returns the combatant's attack ticker, if running.
func (e *Engine) TickerFor(combatantID string) (*Ticker, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tickers[combatantID]
	return t, ok
}

// ensureSession returns the room's session, creating one over the given
// participants when none exists. Participants already present are not
// re-added; new ones join at the end of the round queue.
func (e *Engine) ensureSession(roomID string, participants ...Combatant) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[roomID]
	if !ok {
		var err error
		s, err = NewSession(roomID, participants, e.src)
		if err != nil {
			return nil, err
		}
		e.sessions[roomID] = s
		e.roundTimers[roomID] = NewRoundTimer(e.realDur(e.cfg.RoundDuration), func() { e.endRound(roomID) })
		e.logger.Info("combat session started",
			zap.String("room_id", roomID),
			zap.Strings("initiative", s.InitiativeOrder()))
		return s, nil
	}
	for _, p := range participants {
		if _, present := s.Combatant(p.CombatID()); !present {
			if err := s.Join(p); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (e *Engine) realDur(gameSeconds float64) time.Duration {
	return e.clk.RealDuration(time.Duration(gameSeconds * float64(time.Second)))
}

// roomWeather resolves the weather modifier for an effect in roomID.
func (e *Engine) roomWeather(roomID string, effect weather.Effect) int {
	if e.weatherSvc == nil || e.worldMgr == nil {
		return 0
	}
	rm, ok := e.worldMgr.GetRoom(roomID)
	if !ok {
		return 0
	}
	return e.weatherSvc.Modifier(rm.RegionID, rm.Exposure, effect, e.clk.WorldSeconds())
}

// Attack starts or redirects automatic attacks from attacker against target.
//
// Re-issuing against the current target returns ErrSameTarget without
// touching the ticker; a different target swaps the reference while keeping
// the timer phase. A fresh engagement creates a ticker with its first fire
// one full interval out.
func (e *Engine) Attack(roomID string, attacker, target Combatant) error {
	if target == nil || attacker == nil || attacker.CombatID() == target.CombatID() {
		return ErrInvalidTarget
	}
	if !target.Alive() || !attacker.Alive() {
		return ErrInvalidTarget
	}

	s, err := e.ensureSession(roomID, attacker, target)
	if err != nil {
		return fmt.Errorf("combat.Engine.Attack: %w", err)
	}

	var retErr error
	e.keeper.With(roomID, func(_ *room.State) {
		ast, ok := s.StateOf(attacker.CombatID())
		if !ok {
			retErr = ErrNotInCombat
			return
		}
		if _, ok := s.StateOf(target.CombatID()); !ok || !target.Alive() {
			retErr = ErrInvalidTarget
			return
		}

		prof := attacker.AttackProfile()

		e.mu.Lock()
		existing := e.tickers[attacker.CombatID()]
		e.mu.Unlock()

		if existing != nil {
			if existing.Target() == target.CombatID() {
				retErr = ErrSameTarget
				return
			}
			existing.SwitchTarget(target.CombatID())
			ast.State = StateEngaged
			ast.TargetID = target.CombatID()
			s.RecordEvent(fmt.Sprintf("%s turns on %s.", attacker.DisplayName(), target.DisplayName()))
			e.emit(roomID, attacker.CombatID(), fmt.Sprintf("You turn your attention to %s.", target.DisplayName()))
			return
		}

		ast.State = StateEngaged
		ast.TargetID = target.CombatID()
		interval := e.cfg.BaseAttackInterval * prof.SpeedMult
		t := NewTicker(e.clk, attacker.CombatID(), target.CombatID(), interval, e.onTick)
		e.mu.Lock()
		e.tickers[attacker.CombatID()] = t
		e.tickerRooms[attacker.CombatID()] = roomID
		e.mu.Unlock()

		s.RecordEvent(fmt.Sprintf("%s attacks %s!", attacker.DisplayName(), target.DisplayName()))
		e.emit(roomID, attacker.CombatID(), fmt.Sprintf("You attack %s.", target.DisplayName()))
		e.emit(roomID, target.CombatID(), fmt.Sprintf("%s attacks you!", attacker.DisplayName()))

		// Being attacked is itself an engagement: the defender acquires the
		// aggressor as a target and starts swinging back.
		tst, _ := s.StateOf(target.CombatID())
		if tst.State == StateObserving || tst.State == StateSupporting {
			e.engageBackLocked(s, roomID, target, attacker)
			if target.IsPlayer() {
				e.emit(roomID, target.CombatID(), "You are drawn into the fight!")
			}
		}
	})
	return retErr
}

// engageBackLocked sets up the defender's counter-engagement. Caller holds
// the room lock.
func (e *Engine) engageBackLocked(s *Session, roomID string, defender, aggressor Combatant) {
	dst, ok := s.StateOf(defender.CombatID())
	if !ok {
		return
	}
	dst.State = StateEngaged
	dst.TargetID = aggressor.CombatID()
	dst.FleeUntilWorld = 0
	dst.FleeFromID = ""

	e.mu.Lock()
	_, has := e.tickers[defender.CombatID()]
	e.mu.Unlock()
	if has {
		return
	}
	interval := e.cfg.BaseAttackInterval * defender.AttackProfile().SpeedMult
	t := NewTicker(e.clk, defender.CombatID(), aggressor.CombatID(), interval, e.onTick)
	e.mu.Lock()
	e.tickers[defender.CombatID()] = t
	e.tickerRooms[defender.CombatID()] = roomID
	e.mu.Unlock()
}

// cancelTickerLocked stops and forgets the combatant's ticker. Callers may
// hold the room lock; only the engine map lock is taken here.
func (e *Engine) cancelTickerLocked(combatantID string) {
	e.mu.Lock()
	t := e.tickers[combatantID]
	delete(e.tickers, combatantID)
	delete(e.tickerRooms, combatantID)
	e.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

// onTick resolves one automatic basic attack. It runs on the ticker's timer
// goroutine and acquires the room lock, so it never interleaves with player
// commands on the same room.
func (e *Engine) onTick(combatantID string) {
	e.mu.RLock()
	roomID, ok := e.tickerRooms[combatantID]
	t := e.tickers[combatantID]
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if !ok || t == nil || s == nil {
		return
	}

	var after []func()
	e.keeper.With(roomID, func(_ *room.State) {
		after = e.resolveTickLocked(s, roomID, combatantID, t.Target())
	})
	for _, f := range after {
		f()
	}
}

// resolveTickLocked performs one attack resolution under the room lock and
// returns deferred work to run after the lock is released.
func (e *Engine) resolveTickLocked(s *Session, roomID, attackerID, targetID string) []func() {
	attacker, ok := s.Combatant(attackerID)
	if !ok || !attacker.Alive() {
		e.cancelTickerLocked(attackerID)
		return nil
	}
	ast, _ := s.StateOf(attackerID)
	if ast == nil || ast.State != StateEngaged {
		// A ticker without an Engaged owner is stale.
		e.cancelTickerLocked(attackerID)
		return nil
	}

	target, ok := s.Combatant(targetID)
	if !ok || !target.Alive() {
		// Stale target: purge the reference and stand down rather than
		// swinging at it.
		e.cancelTickerLocked(attackerID)
		ast.State = StateObserving
		ast.TargetID = ""
		e.emit(roomID, attackerID, "Your target is gone.")
		return nil
	}

	prof := attacker.AttackProfile()
	s.TickModifiers(attackerID)

	// Melee combatants spend ticks closing distance before they can swing.
	if !prof.Ranged && !ast.Band.InMeleeRange() {
		ast.Band = ast.Band.Closer()
		e.emit(roomID, attackerID, fmt.Sprintf("You close in on %s.", target.DisplayName()))
		return nil
	}

	accuracy := prof.Accuracy
	if s.HasModifier(targetID, ModifierExposed) {
		accuracy += e.cfg.ExposedAccuracyBonus
	}
	if prof.Ranged && (ast.Band == BandFar || ast.Band == BandDistant) {
		accuracy += e.roomWeather(roomID, weather.EffectRangedAccuracyFar)
	}

	dodging := target.Dodging()
	if s.HasModifier(targetID, ModifierStaggered) {
		dodging /= 2
	}

	durabilityMult := 1.0
	if m := e.roomWeather(roomID, weather.EffectDurabilityLoss); m > 0 {
		durabilityMult += float64(m) / 2
	}

	res := Resolve(
		Attack{Profile: prof, Accuracy: accuracy},
		Defense{Dodging: dodging, Armor: target.ArmorPieces()},
		durabilityMult,
		e.src,
	)

	switch {
	case !res.Hit:
		e.emit(roomID, attackerID, fmt.Sprintf("%s evades your attack.", target.DisplayName()))
		e.emit(roomID, targetID, fmt.Sprintf("You evade %s's attack.", attacker.DisplayName()))
		return nil
	case res.Crit:
		s.RecordEvent(fmt.Sprintf("%s lands a vicious blow on %s.", attacker.DisplayName(), target.DisplayName()))
		e.emit(roomID, attackerID, fmt.Sprintf("A vicious blow! You strike %s for %d.", target.DisplayName(), res.Final))
		e.emit(roomID, targetID, fmt.Sprintf("%s strikes you viciously for %d!", attacker.DisplayName(), res.Final))
	case res.Glancing:
		e.emit(roomID, attackerID, fmt.Sprintf("You graze %s for %d.", target.DisplayName(), res.Final))
		e.emit(roomID, targetID, fmt.Sprintf("%s grazes you for %d.", attacker.DisplayName(), res.Final))
	default:
		e.emit(roomID, attackerID, fmt.Sprintf("You hit %s for %d.", target.DisplayName(), res.Final))
		e.emit(roomID, targetID, fmt.Sprintf("%s hits you for %d.", attacker.DisplayName(), res.Final))
	}

	target.ApplyDamage(res.Final)
	if target.Alive() {
		return nil
	}
	return e.handleDeathLocked(s, roomID, target, attackerID)
}

// handleDeathLocked removes a dead combatant from the session under the room
// lock and defers the external death callback until after release.
//
// Postcondition: the victim holds no session state and no ticker; no
// surviving state references the victim as a target.
func (e *Engine) handleDeathLocked(s *Session, roomID string, victim Combatant, killerID string) []func() {
	victimID := victim.CombatID()
	e.cancelTickerLocked(victimID)
	s.Remove(victimID)
	s.RecordEvent(fmt.Sprintf("%s is slain.", victim.DisplayName()))
	e.emit(roomID, "", fmt.Sprintf("%s falls!", victim.DisplayName()))

	// Survivors whose target just died lose their tickers too.
	for _, id := range s.ParticipantIDs() {
		st, ok := s.StateOf(id)
		if !ok || st.State != StateEngaged {
			continue
		}
		if st.TargetID == "" {
			e.cancelTickerLocked(id)
			st.State = StateObserving
		}
	}

	var after []func()
	if e.onDeath != nil {
		h := e.onDeath
		after = append(after, func() { h(victim, killerID) })
	}
	if !s.HostilitiesRemain() {
		after = append(after, e.endSessionDeferredLocked(roomID, s)...)
	}
	return after
}

// endSessionDeferredLocked tears the session down under the room lock,
// returning the announcement as deferred work.
func (e *Engine) endSessionDeferredLocked(roomID string, s *Session) []func() {
	s.Over = true
	for _, id := range s.ParticipantIDs() {
		e.cancelTickerLocked(id)
		if st, ok := s.StateOf(id); ok {
			st.State = StateObserving
			st.TargetID = ""
		}
	}
	e.mu.Lock()
	delete(e.sessions, roomID)
	rt := e.roundTimers[roomID]
	delete(e.roundTimers, roomID)
	e.mu.Unlock()
	if rt != nil {
		rt.Stop()
	}
	e.logger.Info("combat session ended", zap.String("room_id", roomID))
	return []func(){func() { e.emit(roomID, "", "The fight is over.") }}
}

// endRound closes the room's round, emits the summary digest, and re-arms
// the cadence timer.
func (e *Engine) endRound(roomID string) {
	e.mu.RLock()
	s := e.sessions[roomID]
	rt := e.roundTimers[roomID]
	e.mu.RUnlock()
	if s == nil {
		return
	}

	e.keeper.With(roomID, func(_ *room.State) {
		for _, id := range s.ParticipantIDs() {
			if c, ok := s.Combatant(id); ok {
				e.expireFleeLocked(s, roomID, c)
			}
		}

		events := s.EndRound()
		digest := fmt.Sprintf("Round %d ends.", s.Round-1)
		for _, ev := range events {
			digest += " " + ev
		}
		// The digest goes to everyone in the room, observers included.
		e.emit(roomID, "", digest)
		for _, id := range s.ParticipantIDs() {
			hostiles := s.LivingHostileCount(id)
			e.emit(roomID, id, fmt.Sprintf("%d hostile(s) on you.", hostiles))
		}
	})

	if rt != nil {
		rt.Reset(e.realDur(e.cfg.RoundDuration), func() { e.endRound(roomID) })
	}
}

// UseManeuver executes a maneuver for actor, optionally against target.
// Failures reject the action outright; nothing is substituted.
func (e *Engine) UseManeuver(roomID string, actor Combatant, maneuverID string, target Combatant) error {
	if e.gearReg == nil {
		return ErrUnknownManeuver
	}
	man := e.gearReg.Maneuver(maneuverID)
	if man == nil {
		return ErrUnknownManeuver
	}

	e.mu.RLock()
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if s == nil {
		return ErrNotInCombat
	}

	var retErr error
	e.keeper.With(roomID, func(_ *room.State) {
		ast, ok := s.StateOf(actor.CombatID())
		if !ok {
			retErr = ErrNotInCombat
			return
		}
		if man.Reaction {
			if ast.ReactionsUsed >= e.cfg.ReactionsPerRound {
				retErr = ErrReactionSpent
				return
			}
		} else if ast.PrimaryUsed {
			retErr = ErrPrimarySpent
			return
		}
		if man.AppliesModifier != "" && man.ModifierTarget == "target" {
			if target == nil || !target.Alive() {
				retErr = ErrInvalidTarget
				return
			}
			if _, in := s.StateOf(target.CombatID()); !in {
				retErr = ErrInvalidTarget
				return
			}
			if !ast.Band.InMeleeRange() {
				retErr = ErrOutOfRange
				return
			}
		}
		if actor.Stamina() < man.StaminaCost {
			retErr = ErrInsufficientStamina
			return
		}
		if man.Precondition != "" && e.gate != nil {
			ok, err := e.gate.Allow(actor, man, target)
			if err != nil {
				e.logger.Error("maneuver precondition script failed",
					zap.String("maneuver_id", man.ID),
					zap.Error(err))
				retErr = ErrManeuverBlocked
				return
			}
			if !ok {
				retErr = ErrManeuverBlocked
				return
			}
		}
		if !actor.SpendStamina(man.StaminaCost) {
			retErr = ErrInsufficientStamina
			return
		}

		if man.Reaction {
			ast.ReactionsUsed++
		} else {
			ast.PrimaryUsed = true
		}

		// Issuing a maneuver is an engagement. A hostile target makes the
		// actor Engaged with attacks running; a self or untargeted maneuver
		// from the sidelines makes them Supporting.
		if ast.State == StateObserving {
			if man.AppliesModifier != "" && man.ModifierTarget == "target" {
				e.engageBackLocked(s, roomID, actor, target)
			} else {
				ast.State = StateSupporting
			}
		}

		if man.AppliesModifier != "" {
			mod := Modifier(man.AppliesModifier)
			switch man.ModifierTarget {
			case "self":
				s.ApplyModifier(actor.CombatID(), mod, man.ModifierTicks)
			case "target":
				s.ApplyModifier(target.CombatID(), mod, man.ModifierTicks)
			}
		}
		if man.AddedDelaySeconds > 0 {
			e.mu.RLock()
			t := e.tickers[actor.CombatID()]
			e.mu.RUnlock()
			if t != nil {
				t.AddDelay(man.AddedDelaySeconds)
			}
		}
		s.RecordEvent(fmt.Sprintf("%s uses %s.", actor.DisplayName(), man.Name))
		e.emit(roomID, actor.CombatID(), fmt.Sprintf("You use %s.", man.Name))
	})
	return retErr
}

// Disengage attempts to break from combat. Success flips the combatant to
// Observing and opens a flee window; failure keeps them Engaged on the same
// target and delays their next attack by one full interval.
func (e *Engine) Disengage(roomID string, actor Combatant) (bool, error) {
	e.mu.RLock()
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if s == nil {
		return false, ErrNotInCombat
	}

	var success bool
	var retErr error
	e.keeper.With(roomID, func(_ *room.State) {
		ast, ok := s.StateOf(actor.CombatID())
		if !ok || ast.State != StateEngaged {
			retErr = ErrNotInCombat
			return
		}
		if s.HasModifier(actor.CombatID(), ModifierPinned) {
			retErr = ErrPinned
			return
		}

		ast.State = StateDisengaging

		difficulty := e.cfg.DisengageDifficulty
		if opp, ok := s.Combatant(ast.TargetID); ok && opp.Alive() {
			difficulty = opp.AttackProfile().Accuracy / 2
		}
		difficulty += e.roomWeather(roomID, weather.EffectDisengageFailure)

		threshold := clampSkill(actor.Dodging() - difficulty)
		roll := dice.Percentile(e.src)
		if roll > threshold {
			ast.State = StateEngaged
			e.mu.RLock()
			t := e.tickers[actor.CombatID()]
			e.mu.RUnlock()
			if t != nil {
				t.AddDelay(e.cfg.BaseAttackInterval)
			}
			e.emit(roomID, actor.CombatID(), "You fail to break away.")
			s.RecordEvent(fmt.Sprintf("%s fails to break away.", actor.DisplayName()))
			return
		}

		success = true
		ast.FleeFromID = ast.TargetID
		ast.State = StateObserving
		ast.TargetID = ""
		ast.FleeUntilWorld = float64(e.clk.WorldSeconds()) + e.cfg.FleeWindow
		e.cancelTickerLocked(actor.CombatID())
		e.emit(roomID, actor.CombatID(), "You break away. Move quickly.")
		s.RecordEvent(fmt.Sprintf("%s breaks away.", actor.DisplayName()))
	})
	return success, retErr
}

// expireFleeLocked closes a lapsed flee window: the combatant reverts to
// Engaged on the opponent they broke from, with a fresh ticker and a notice.
// Returns true when a revert happened. Caller holds the room lock.
//
// Postcondition: the combatant never holds an expired window.
func (e *Engine) expireFleeLocked(s *Session, roomID string, c Combatant) bool {
	ast, ok := s.StateOf(c.CombatID())
	if !ok || ast.FleeUntilWorld == 0 || ast.State != StateObserving {
		return false
	}
	if float64(e.clk.WorldSeconds()) < ast.FleeUntilWorld {
		return false
	}

	ast.FleeUntilWorld = 0
	prior := ast.FleeFromID
	ast.FleeFromID = ""

	opp, ok := s.Combatant(prior)
	if !ok || !opp.Alive() {
		// The opponent is gone; the window closes with nothing to resume.
		return false
	}
	e.engageBackLocked(s, roomID, c, opp)
	e.emit(roomID, c.CombatID(), "Your moment to flee passes; the fight closes back around you.")
	s.RecordEvent(fmt.Sprintf("%s is drawn back into the fight.", c.DisplayName()))
	return true
}

// LeaveResult reports the outcome of a room departure: the pursuers that
// will follow into the destination room.
type LeaveResult struct {
	Pursuers []Combatant
}

// Leave validates and executes actor's departure from roomID toward
// toRoomID. In the default mode an Engaged combatant may only leave through
// an open flee window; with LeaveEndsCombat set, walking out simply ends
// their part in the fight. Hostile creatures with a pursuit behavior follow
// unless the destination blocks pursuit or their leash runs out.
//
// Postcondition: on success actor holds no combat state in roomID.
func (e *Engine) Leave(roomID string, actor Combatant, toRoomID string) (*LeaveResult, error) {
	e.mu.RLock()
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if s == nil {
		return &LeaveResult{}, nil
	}

	result := &LeaveResult{}
	var retErr error
	var after []func()
	e.keeper.With(roomID, func(_ *room.State) {
		ast, ok := s.StateOf(actor.CombatID())
		if !ok {
			return
		}
		if s.HasModifier(actor.CombatID(), ModifierPinned) {
			retErr = ErrPinned
			return
		}

		// A lapsed flee window pulls the combatant back in before the
		// departure is judged.
		e.expireFleeLocked(s, roomID, actor)

		engaged := ast.State == StateEngaged || ast.State == StateDisengaging
		if engaged && !e.cfg.LeaveEndsCombat {
			retErr = ErrEngaged
			return
		}

		result.Pursuers = e.pursuersLocked(s, actor.CombatID(), toRoomID)

		e.cancelTickerLocked(actor.CombatID())
		s.Remove(actor.CombatID())
		s.RecordEvent(fmt.Sprintf("%s flees.", actor.DisplayName()))
		e.emit(roomID, "", fmt.Sprintf("%s leaves in haste.", actor.DisplayName()))

		if !s.HostilitiesRemain() {
			after = e.endSessionDeferredLocked(roomID, s)
		}
	})
	for _, f := range after {
		f()
	}
	return result, retErr
}

// pursuersLocked collects the hostile combatants that will chase a fleeing
// target into toRoomID. Caller holds the room lock.
func (e *Engine) pursuersLocked(s *Session, fleeingID, toRoomID string) []Combatant {
	if e.cfg.LeaveEndsCombat {
		return nil
	}
	if e.worldMgr != nil {
		if dest, ok := e.worldMgr.GetRoom(toRoomID); ok && dest.NoPursuit {
			return nil
		}
	}

	var pursuers []Combatant
	for _, id := range s.ParticipantIDs() {
		st, ok := s.StateOf(id)
		if !ok || st.TargetID != fleeingID {
			continue
		}
		c, ok := s.Combatant(id)
		if !ok || !c.Alive() || c.IsPlayer() {
			continue
		}
		chaser, ok := c.(Chaser)
		if !ok {
			continue
		}
		behavior, home, leash := chaser.PursuitBehavior()
		switch behavior {
		case "relentless":
			pursuers = append(pursuers, c)
		case "territorial":
			if e.worldMgr == nil {
				continue
			}
			if d := e.worldMgr.Distance(home, toRoomID); d >= 0 && d <= leash {
				pursuers = append(pursuers, c)
			}
		}
	}
	return pursuers
}

// Disconnect cancels the combatant's ticker and parks them Observing so the
// session can continue without them. The caller removes them for good after
// the grace period via RemoveCombatant.
func (e *Engine) Disconnect(roomID, combatantID string) {
	e.mu.RLock()
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if s == nil {
		return
	}
	e.keeper.With(roomID, func(_ *room.State) {
		e.cancelTickerLocked(combatantID)
		if st, ok := s.StateOf(combatantID); ok {
			st.State = StateObserving
			st.TargetID = ""
		}
	})
}

// RemoveCombatant drops a participant entirely, ending the session when no
// hostility remains.
func (e *Engine) RemoveCombatant(roomID, combatantID string) {
	e.mu.RLock()
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if s == nil {
		return
	}
	var after []func()
	e.keeper.With(roomID, func(_ *room.State) {
		e.cancelTickerLocked(combatantID)
		s.Remove(combatantID)
		if !s.HostilitiesRemain() {
			after = e.endSessionDeferredLocked(roomID, s)
		}
	})
	for _, f := range after {
		f()
	}
}

// Join inserts a combatant into the room's running session as an observer at
// the distant band. Without a session this is a no-op.
func (e *Engine) Join(roomID string, c Combatant) error {
	e.mu.RLock()
	s := e.sessions[roomID]
	e.mu.RUnlock()
	if s == nil {
		return nil
	}
	var retErr error
	e.keeper.With(roomID, func(_ *room.State) {
		if _, present := s.Combatant(c.CombatID()); present {
			return
		}
		retErr = s.Join(c)
	})
	return retErr
}
