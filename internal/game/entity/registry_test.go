package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltmere/mud/internal/game/gear"
)

func testTemplate() *CreatureTemplate {
	return &CreatureTemplate{
		ID:         "wharf-rat",
		Name:       "Wharf Rat",
		MaxHP:      12,
		Accuracy:   45,
		Dodging:    30,
		Behavior:   BehaviorTerritorial,
		LeashRooms: 2,
	}
}

func TestSpawnPlacesInstanceInRoom(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	inst, err := r.Spawn(testTemplate(), "docks:pier-3", gear.Unarmed(), now)
	require.NoError(t, err)
	assert.Equal(t, 12, inst.CurrentHP)
	assert.Equal(t, "docks:pier-3", inst.RoomID)
	assert.Equal(t, "docks:pier-3", inst.HomeRoomID)

	in := r.InstancesInRoom("docks:pier-3")
	require.Len(t, in, 1)
	assert.Equal(t, inst.ID, in[0].ID)
}

func TestSpawnGeneratesUniqueIDs(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	a, err := r.Spawn(testTemplate(), "docks:pier-3", gear.Unarmed(), now)
	require.NoError(t, err)
	b, err := r.Spawn(testTemplate(), "docks:pier-3", gear.Unarmed(), now)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMoveUpdatesRoomIndex(t *testing.T) {
	r := NewRegistry()
	inst, err := r.Spawn(testTemplate(), "docks:pier-3", gear.Unarmed(), time.Now())
	require.NoError(t, err)

	require.NoError(t, r.Move(inst.ID, "docks:fish-market"))
	assert.Empty(t, r.InstancesInRoom("docks:pier-3"))
	require.Len(t, r.InstancesInRoom("docks:fish-market"), 1)
	assert.Equal(t, "docks:fish-market", inst.RoomID)
	assert.Equal(t, "docks:pier-3", inst.HomeRoomID, "home room is the spawn anchor")
}

func TestRemoveUnknownInstance(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Remove("nope"))
}

func TestFindInRoomPrefixMatch(t *testing.T) {
	r := NewRegistry()
	inst, err := r.Spawn(testTemplate(), "docks:pier-3", gear.Unarmed(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, inst, r.FindInRoom("docks:pier-3", "wharf"))
	assert.Equal(t, inst, r.FindInRoom("docks:pier-3", "WHARF RAT"))
	assert.Nil(t, r.FindInRoom("docks:pier-3", "gull"))
	assert.Nil(t, r.FindInRoom("docks:fish-market", "wharf"))
}

func TestExpireSweepRemovesLapsedItems(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	fresh, err := r.PlaceItem("rat pelt", "docks:pier-3", "", 10*time.Minute, now)
	require.NoError(t, err)
	stale, err := r.PlaceItem("fish head", "docks:pier-3", "", time.Minute, now)
	require.NoError(t, err)

	removed := r.ExpireSweep(now.Add(2*time.Minute), nil)
	require.Len(t, removed, 1)
	assert.Equal(t, stale.ID, removed[0].ID)

	_, ok := r.Get(stale.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
}

func TestExpireSweepReprievesBusyInstances(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	stale, err := r.PlaceItem("fish head", "docks:pier-3", "", time.Minute, now)
	require.NoError(t, err)

	// While the busy predicate holds, the lapsed instance survives.
	removed := r.ExpireSweep(now.Add(2*time.Minute), func(id string) bool { return id == stale.ID })
	assert.Empty(t, removed)
	_, ok := r.Get(stale.ID)
	assert.True(t, ok)

	removed = r.ExpireSweep(now.Add(2*time.Minute), func(string) bool { return false })
	require.Len(t, removed, 1)
	_, ok = r.Get(stale.ID)
	assert.False(t, ok)
}

func TestItemOwnershipWindow(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	item, err := r.PlaceItem("rat pelt", "docks:pier-3", "player-a", 10*time.Minute, now)
	require.NoError(t, err)

	assert.True(t, item.CanPickUp("player-a", now), "owner picks up immediately")
	assert.False(t, item.CanPickUp("player-b", now), "others wait out the ownership window")
	assert.True(t, item.CanPickUp("player-b", now.Add(6*time.Minute)), "ownership lapses at the half-window")
}

func TestCreatureTemplateValidate(t *testing.T) {
	tmpl := testTemplate()
	assert.NoError(t, tmpl.Validate())

	bad := *tmpl
	bad.MaxHP = 0
	assert.Error(t, bad.Validate())

	bad = *tmpl
	bad.Accuracy = 120
	assert.Error(t, bad.Validate())

	bad = *tmpl
	bad.LeashRooms = 0
	assert.Error(t, bad.Validate(), "territorial behavior requires a leash")
}

func TestTemplateAttackProfileFallsBackToUnarmed(t *testing.T) {
	tmpl := testTemplate()
	p := tmpl.AttackProfile(gear.NewRegistry())
	assert.Equal(t, 1, p.DamageMax)
	assert.Equal(t, tmpl.Accuracy, p.Accuracy)

	reg := gear.NewRegistry()
	require.NoError(t, reg.RegisterWeapon(&gear.WeaponDef{
		ID: "teeth", Name: "Teeth", DamageMin: 1, DamageMax: 3,
		DamageType: "piercing", SpeedMult: 0.8, CritChance: 0.02,
	}))
	tmpl.WeaponID = "teeth"
	p = tmpl.AttackProfile(reg)
	assert.Equal(t, 3, p.DamageMax)
	assert.Equal(t, 0.8, p.SpeedMult)
}
