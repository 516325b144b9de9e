package gameserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/entity"
)

func TestCombatHandler_AttackCreature(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40)))
	sess := h.addPlayer(t, "p1", "Maren", "pier-3")
	rat := h.spawnRat(t, "pier-3")

	require.NoError(t, h.combatH.Attack("p1", "wharf"))

	s, ok := h.engine.SessionFor("pier-3")
	require.True(t, ok)
	_, present := s.StateOf("p1")
	assert.True(t, present)
	_, present = s.StateOf(rat.ID)
	assert.True(t, present)

	// The creature engages back.
	st, _ := s.StateOf(rat.ID)
	assert.Equal(t, combat.StateEngaged, st.State)
	assert.Equal(t, "p1", st.TargetID)

	lines := drainLines(sess)
	assert.True(t, containsLine(lines, "square up against wharf rat"), "got %v", lines)
}

func TestCombatHandler_AttackUnknownTarget(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")

	err := h.combatH.Attack("p1", "kraken")
	assert.ErrorIs(t, err, combat.ErrInvalidTarget)
}

func TestCombatHandler_AttackDeadCreature(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")
	rat := h.spawnRat(t, "pier-3")
	rat.CurrentHP = 0

	err := h.combatH.Attack("p1", "wharf")
	assert.ErrorIs(t, err, combat.ErrInvalidTarget)
}

func TestCombatHandler_AttackEmptyName(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")

	err := h.combatH.Attack("p1", "")
	assert.ErrorIs(t, err, combat.ErrInvalidTarget)
}

func TestCombatHandler_AttackUnknownPlayer(t *testing.T) {
	h := newHarness(t, script())
	assert.Error(t, h.combatH.Attack("ghost", "wharf"))
}

func TestCombatHandler_JoinRequiresSession(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")

	err := h.combatH.JoinCombat("p1", "")
	assert.ErrorIs(t, err, combat.ErrNotInCombat)
}

func TestCombatHandler_JoinThenAttack(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40)))
	h.addPlayer(t, "p1", "Maren", "pier-3")
	h.addPlayer(t, "p2", "Josker", "pier-3")
	h.spawnRat(t, "pier-3")

	require.NoError(t, h.combatH.Attack("p1", "wharf"))
	require.NoError(t, h.combatH.JoinCombat("p2", "wharf"))

	s, _ := h.engine.SessionFor("pier-3")
	st, present := s.StateOf("p2")
	require.True(t, present)
	assert.Equal(t, combat.StateEngaged, st.State)
	// Joiners start at the outermost range band and close on their ticks.
	assert.Equal(t, combat.BandDistant, st.Band)

	_, ok := h.engine.TickerFor("p2")
	assert.True(t, ok)
}

func TestCombatHandler_InCombat(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40)))
	h.addPlayer(t, "p1", "Maren", "pier-3")
	h.addPlayer(t, "p2", "Josker", "pier-3")
	h.spawnRat(t, "pier-3")

	assert.False(t, h.combatH.InCombat("p1"))
	require.NoError(t, h.combatH.Attack("p1", "wharf"))
	assert.True(t, h.combatH.InCombat("p1"))
	assert.False(t, h.combatH.InCombat("p2"))
}

func TestCombatHandler_DisengageSuccess(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40), pct(5)))
	h.addPlayer(t, "p1", "Maren", "pier-3")
	h.spawnRat(t, "pier-3")

	require.NoError(t, h.combatH.Attack("p1", "wharf"))
	ok, err := h.combatH.Disengage("p1")
	require.NoError(t, err)
	assert.True(t, ok)

	s, _ := h.engine.SessionFor("pier-3")
	st, _ := s.StateOf("p1")
	assert.Equal(t, combat.StateObserving, st.State)
}

func TestCombatHandler_DisconnectParksPlayer(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40)))
	sess := h.addPlayer(t, "p1", "Maren", "pier-3")
	h.spawnRat(t, "pier-3")

	require.NoError(t, h.combatH.Attack("p1", "wharf"))
	require.NoError(t, h.combatH.Disconnect("p1"))

	s, ok := h.engine.SessionFor("pier-3")
	require.True(t, ok)
	st, _ := s.StateOf("p1")
	assert.Equal(t, combat.StateObserving, st.State)
	assert.Empty(t, st.TargetID)
	_, hasTicker := h.engine.TickerFor("p1")
	assert.False(t, hasTicker)

	// The session stays resident for the grace window, stamped with the
	// drop time so the grace sweep can find it.
	assert.Equal(t, h.now, sess.DisconnectedAt)
	_, stillHere := h.sessions.GetPlayer("p1")
	assert.True(t, stillHere)
}

func TestCombatHandler_DisconnectUnknownPlayer(t *testing.T) {
	h := newHarness(t, script())
	assert.Error(t, h.combatH.Disconnect("ghost"))
}

func TestCombatHandler_DisengageOutsideCombat(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")

	_, err := h.combatH.Disengage("p1")
	assert.ErrorIs(t, err, combat.ErrNotInCombat)
}

func TestCombatHandler_CreatureDeathDropsLoot(t *testing.T) {
	h := newHarness(t, script())
	sess := h.addPlayer(t, "p1", "Maren", "pier-3")
	rat := h.spawnRat(t, "pier-3")

	rat.CurrentHP = 0
	h.combatH.handleDeath(rat, "p1")

	_, stillThere := h.entities.Get(rat.ID)
	assert.False(t, stillThere)

	pelt := h.entities.FindInRoom("pier-3", "rat pelt")
	require.NotNil(t, pelt)
	assert.Equal(t, entity.KindItem, pelt.Kind)
	assert.Equal(t, "p1", pelt.OwnerUID)

	lines := drainLines(sess)
	assert.True(t, containsLine(lines, "drops rat pelt"), "got %v", lines)
}

func TestCombatHandler_PlayerDeathRespawns(t *testing.T) {
	h := newHarness(t, script())
	sess := h.addPlayer(t, "p1", "Maren", "fish-market")
	sess.CurrentHP = 0

	h.combatH.handleDeath(sess, "rat-1")

	assert.Equal(t, "pier-3", sess.RoomID)
	assert.Equal(t, 15, sess.CurrentHP)

	lines := drainLines(sess)
	assert.True(t, containsLine(lines, "aching but alive"), "got %v", lines)
}

func TestCombatHandler_UseManeuverUnknown(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40)))
	h.addPlayer(t, "p1", "Maren", "pier-3")
	h.spawnRat(t, "pier-3")

	require.NoError(t, h.combatH.Attack("p1", "wharf"))
	err := h.combatH.UseManeuver("p1", "keelhaul", "")
	assert.ErrorIs(t, err, combat.ErrUnknownManeuver)
}
