package gameserver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTickService(h *harness, grace time.Duration) *TickService {
	return NewTickService(h.world, h.sessions, h.entities, h.engine, h.spawner, h.keeper,
		nil, h.clk, h.notify, grace, 30*time.Minute, zap.NewNop())
}

func TestRunner_FiresJobs(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var fired atomic.Int64
	r.Add("counter", 5*time.Millisecond, func(time.Time) { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	assert.Eventually(t, func() bool { return fired.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)

	cancel()
	r.Wait()
}

func TestRunner_AddValidation(t *testing.T) {
	r := NewRunner(nil)
	assert.Panics(t, func() { r.Add("bad", 0, func(time.Time) {}) })
	assert.Panics(t, func() { r.Add("bad", time.Second, nil) })
}

func TestTickService_ExpiryTick(t *testing.T) {
	h := newHarness(t, script())
	sess := h.addPlayer(t, "p1", "Maren", "pier-3")
	item, err := h.entities.PlaceItem("rat pelt", "pier-3", "", time.Minute, h.now)
	require.NoError(t, err)

	ts := newTickService(h, 0)
	ts.ExpiryTick(h.now.Add(30 * time.Second))
	_, stillThere := h.entities.Get(item.ID)
	assert.True(t, stillThere)

	ts.ExpiryTick(h.now.Add(2 * time.Minute))
	_, stillThere = h.entities.Get(item.ID)
	assert.False(t, stillThere)

	lines := drainLines(sess)
	assert.True(t, containsLine(lines, "crumbles away"), "got %v", lines)
}

func TestTickService_SweepRespectsCooldown(t *testing.T) {
	h := newHarness(t, script())
	ts := newTickService(h, 0)

	// First sweep fills the pier and starts the respawn window.
	ts.SweepTick(h.now)
	require.Len(t, h.entities.InstancesInRoom("pier-3"), 1)
	rat := h.entities.InstancesInRoom("pier-3")[0]

	rat.CurrentHP = 0
	_, err := h.spawner.HandleDeath(rat, "", h.now)
	require.NoError(t, err)

	ts.SweepTick(h.now.Add(30 * time.Second))
	assert.Empty(t, creaturesIn(h, "pier-3"), "cooldown should hold the room empty")

	ts.SweepTick(h.now.Add(2 * time.Minute))
	assert.Len(t, creaturesIn(h, "pier-3"), 1)
}

func creaturesIn(h *harness, roomID string) []string {
	var names []string
	for _, inst := range h.entities.InstancesInRoom(roomID) {
		if !inst.IsDead() {
			names = append(names, inst.Name)
		}
	}
	return names
}

func TestTickService_DisconnectTick(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")
	watcher := h.addPlayer(t, "p2", "Josker", "pier-3")

	grace := time.Minute
	ts := newTickService(h, grace)

	require.NoError(t, h.sessions.MarkDisconnected("p1", h.now.Add(-2*time.Minute)))
	ts.DisconnectTick(h.now)

	_, still := h.sessions.GetPlayer("p1")
	assert.False(t, still)
	_, still = h.sessions.GetPlayer("p2")
	assert.True(t, still)

	lines := drainLines(watcher)
	assert.True(t, containsLine(lines, "fades from view"), "got %v", lines)
}

func TestTickService_DisconnectTickHonorsGrace(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")

	ts := newTickService(h, 5*time.Minute)
	require.NoError(t, h.sessions.MarkDisconnected("p1", h.now.Add(-time.Minute)))
	ts.DisconnectTick(h.now)

	_, still := h.sessions.GetPlayer("p1")
	assert.True(t, still, "grace has not lapsed yet")
}

func TestCollectRegions(t *testing.T) {
	h := newHarness(t, script())
	regions := collectRegions(h.world)
	assert.Equal(t, []string{"saltmere-coast"}, regions)
}

func TestTickService_RoomIdleTick(t *testing.T) {
	h := newHarness(t, script())
	h.addPlayer(t, "p1", "Maren", "pier-3")
	h.keeper.Touch("pier-3", h.now.Add(-time.Hour))
	h.keeper.Touch("fish-market", h.now.Add(-time.Hour))

	ts := newTickService(h, 0)
	ts.RoomIdleTick(h.now)

	// The occupied pier survives; the long-empty market is dropped.
	ids := h.keeper.RoomIDs()
	assert.Contains(t, ids, "pier-3")
	assert.NotContains(t, ids, "fish-market")
}

func TestTickService_ExpiryTickSparesFightingCreature(t *testing.T) {
	h := newHarness(t, script(pct(60), pct(40)))
	h.addPlayer(t, "p1", "Maren", "pier-3")
	rat := h.spawnRat(t, "pier-3")
	rat.ExpiresAt = h.now.Add(time.Minute)

	require.NoError(t, h.combatH.Attack("p1", "wharf"))

	ts := newTickService(h, 0)
	ts.ExpiryTick(h.now.Add(2 * time.Minute))
	_, ok := h.entities.Get(rat.ID)
	assert.True(t, ok, "a fighting creature outlives its expiry window")

	// Fight over, the lapsed creature goes on the next sweep.
	h.engine.RemoveCombatant("pier-3", rat.ID)
	ts.ExpiryTick(h.now.Add(2 * time.Minute))
	_, ok = h.entities.Get(rat.ID)
	assert.False(t, ok)
}
