package combat

import (
	"fmt"
	"sort"

	"github.com/saltmere/mud/internal/game/dice"
)

// CombatantState is one participant's mutable state within a session.
type CombatantState struct {
	// State is the exclusive combat state.
	State State
	// TargetID is the current hostile target; empty unless Engaged or
	// Disengaging.
	TargetID string
	// Band is the combatant's range band relative to the fight.
	Band RangeBand
	// modifiers maps overlay tags to remaining attack ticks.
	modifiers map[Modifier]int
	// ReactionsUsed counts reactions spent this round.
	ReactionsUsed int
	// PrimaryUsed is set once the combatant has taken their primary action
	// this round.
	PrimaryUsed bool
	// FleeUntilWorld is the world-seconds deadline of an open flee window;
	// zero means none.
	FleeUntilWorld float64
	// FleeFromID is the opponent a disengaged combatant broke from; they
	// re-engage this target if the flee window lapses unused.
	FleeFromID string
	// JoinedRound records when the combatant entered the session.
	JoinedRound int
}

// Session is the shared combat state of one room: a fixed initiative order,
// the current round, and per-combatant state tags.
//
// Concurrency: Session is not self-locking. The Engine serializes all access
// through the room Keeper, so ticker fires and player commands on the same
// room never interleave.
type Session struct {
	// RoomID is the room this session belongs to.
	RoomID string
	// Round is the current round number, starting at 1.
	Round int
	// Over is true once no hostile relationship remains.
	Over bool

	// initiative is the order rolled at session start. Immutable.
	initiative []string
	// joiners holds mid-session entrants in arrival order. They act after
	// every initiative slot, never before.
	joiners []string

	combatants map[string]Combatant
	states     map[string]*CombatantState
	// roundEvents collects notable lines for the round summary.
	roundEvents []string
}

// NewSession creates a session for roomID, rolling initiative once over the
// initial participants. Initiative is a percentile roll per combatant, ties
// broken by ID for stability.
//
// Precondition: at least two participants; src must be non-nil.
// Postcondition: InitiativeOrder never changes for the session's lifetime.
func NewSession(roomID string, participants []Combatant, src dice.Source) (*Session, error) {
	if len(participants) < 2 {
		return nil, fmt.Errorf("combat.NewSession: need at least 2 participants, got %d", len(participants))
	}

	s := &Session{
		RoomID:     roomID,
		Round:      1,
		combatants: make(map[string]Combatant, len(participants)),
		states:     make(map[string]*CombatantState, len(participants)),
	}

	type rolled struct {
		id   string
		roll int
	}
	rolls := make([]rolled, 0, len(participants))
	for _, c := range participants {
		id := c.CombatID()
		if _, dup := s.combatants[id]; dup {
			return nil, fmt.Errorf("combat.NewSession: duplicate combatant %q", id)
		}
		s.combatants[id] = c
		s.states[id] = &CombatantState{
			State:       StateObserving,
			Band:        BandEngaged,
			modifiers:   make(map[Modifier]int),
			JoinedRound: 1,
		}
		rolls = append(rolls, rolled{id: id, roll: dice.Percentile(src)})
	}
	sort.SliceStable(rolls, func(i, j int) bool {
		if rolls[i].roll != rolls[j].roll {
			return rolls[i].roll > rolls[j].roll
		}
		return rolls[i].id < rolls[j].id
	})
	for _, r := range rolls {
		s.initiative = append(s.initiative, r.id)
	}
	return s, nil
}

// InitiativeOrder returns a copy of the order rolled at session start.
func (s *Session) InitiativeOrder() []string {
	return append([]string(nil), s.initiative...)
}

// TurnOrder returns the full acting order for the current round: the fixed
// initiative followed by mid-session joiners in arrival order.
func (s *Session) TurnOrder() []string {
	out := append([]string(nil), s.initiative...)
	return append(out, s.joiners...)
}

// Join appends a mid-session entrant to the end of the current round's
// queue. Joiners start Observing at the distant band and must close distance
// or use a ranged attack.
//
// Postcondition: the joiner appears after every pre-existing queue position;
// initiative is not rerolled.
func (s *Session) Join(c Combatant) error {
	id := c.CombatID()
	if _, exists := s.combatants[id]; exists {
		return fmt.Errorf("combat.Session.Join: %q already in session", id)
	}
	s.combatants[id] = c
	s.states[id] = &CombatantState{
		State:       StateObserving,
		Band:        BandDistant,
		modifiers:   make(map[Modifier]int),
		JoinedRound: s.Round,
	}
	s.joiners = append(s.joiners, id)
	return nil
}

// Combatant returns the participant with the given ID.
func (s *Session) Combatant(id string) (Combatant, bool) {
	c, ok := s.combatants[id]
	return c, ok
}

// StateOf returns the participant's combat state record.
func (s *Session) StateOf(id string) (*CombatantState, bool) {
	st, ok := s.states[id]
	return st, ok
}

// Remove drops a participant, clearing any targets pointing at them.
//
// Postcondition: no remaining state references id as a target.
func (s *Session) Remove(id string) {
	delete(s.combatants, id)
	delete(s.states, id)
	for _, st := range s.states {
		if st.TargetID == id {
			st.TargetID = ""
			if st.State == StateEngaged || st.State == StateDisengaging {
				st.State = StateObserving
			}
		}
	}
}

// ApplyModifier overlays mod on the bearer for the given number of their
// attack ticks, taking the longer duration when already present.
func (s *Session) ApplyModifier(id string, mod Modifier, ticks int) {
	st, ok := s.states[id]
	if !ok {
		return
	}
	if st.modifiers[mod] < ticks {
		st.modifiers[mod] = ticks
	}
}

// HasModifier reports whether the bearer currently carries mod.
func (s *Session) HasModifier(id string, mod Modifier) bool {
	st, ok := s.states[id]
	return ok && st.modifiers[mod] > 0
}

// TickModifiers decrements the bearer's modifier durations by one attack
// tick, dropping any that reach zero.
func (s *Session) TickModifiers(id string) {
	st, ok := s.states[id]
	if !ok {
		return
	}
	for mod, ticks := range st.modifiers {
		if ticks <= 1 {
			delete(st.modifiers, mod)
		} else {
			st.modifiers[mod] = ticks - 1
		}
	}
}

// RecordEvent adds a line to the current round's summary digest.
func (s *Session) RecordEvent(line string) {
	s.roundEvents = append(s.roundEvents, line)
}

// EndRound closes the current round: it drains the summary digest, resets
// per-round action and reaction budgets, and advances the round counter.
//
// Postcondition: Round is incremented; every participant's ReactionsUsed is
// zero and PrimaryUsed is false.
func (s *Session) EndRound() []string {
	events := s.roundEvents
	s.roundEvents = nil
	for _, st := range s.states {
		st.ReactionsUsed = 0
		st.PrimaryUsed = false
	}
	s.Round++
	return events
}

// HostilitiesRemain reports whether any living participant still holds a
// live hostile target. Sessions end when this turns false.
func (s *Session) HostilitiesRemain() bool {
	for _, st := range s.states {
		if st.State != StateEngaged && st.State != StateDisengaging {
			continue
		}
		target, ok := s.combatants[st.TargetID]
		if ok && target.Alive() {
			return true
		}
	}
	return false
}

// LivingHostileCount returns how many living participants are hostile to
// viewerID, used in round summaries.
func (s *Session) LivingHostileCount(viewerID string) int {
	count := 0
	for id, st := range s.states {
		if id == viewerID {
			continue
		}
		if st.TargetID == viewerID && (st.State == StateEngaged || st.State == StateDisengaging) {
			if c, ok := s.combatants[id]; ok && c.Alive() {
				count++
			}
		}
	}
	return count
}

// ParticipantIDs returns every current participant ID in turn order.
// Removed combatants keep their slot in the underlying order but are not
// returned.
func (s *Session) ParticipantIDs() []string {
	var out []string
	for _, id := range s.TurnOrder() {
		if _, ok := s.combatants[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
