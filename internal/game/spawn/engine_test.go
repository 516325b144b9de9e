package spawn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/gear"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/world"
)

func testWorld(t *testing.T) *world.Manager {
	t.Helper()
	z := &world.Zone{
		ID: "docks", Name: "Docks", StartRoom: "pier",
		Rooms: map[string]*world.Room{
			"pier": {
				ID: "pier", ZoneID: "docks", Title: "Pier", Description: "pier",
				Spawns:         []world.RoomSpawnConfig{{Template: "wharf-rat", Count: 2, CooldownSeconds: 60}},
				EncounterTable: "docks-day",
			},
			"market": {ID: "market", ZoneID: "docks", Title: "Market", Description: "market"},
		},
	}
	require.NoError(t, z.Validate())
	m, err := world.NewManager([]*world.Zone{z})
	require.NoError(t, err)
	return m
}

func testEngine(t *testing.T) (*Engine, *entity.Registry, *room.Keeper) {
	t.Helper()
	entities := entity.NewRegistry()
	keeper := room.NewKeeper(func(roomID string) int64 { return 7 })
	templates := map[string]*entity.CreatureTemplate{
		"wharf-rat": {
			ID: "wharf-rat", Name: "Wharf Rat", MaxHP: 12,
			Accuracy: 45, Dodging: 30,
			LootTableID:          "rat",
			SpawnCooldownSeconds: 60,
		},
		"dock-gull": {
			ID: "dock-gull", Name: "Dock Gull", MaxHP: 6,
			Accuracy: 40, Dodging: 50,
		},
	}
	loot := map[string]*LootTable{
		"rat": {
			Currency: &CurrencyDrop{Min: 1, Max: 3},
			Items:    []ItemDrop{{Name: "rat pelt", Chance: 1.0, MinQty: 1, MaxQty: 1}},
		},
	}
	encounters := map[string]*EncounterTable{
		"docks-day": {
			ID: "docks-day",
			Entries: []EncounterEntry{
				{RollMax: 100, Composition: map[string]int{"dock-gull": 2}, Message: "Gulls wheel down from the rigging."},
			},
			CooldownSeconds: 120,
		},
	}
	eng := NewEngine(testWorld(t), entities, keeper, gear.NewRegistry(), templates, loot, encounters, nil)
	return eng, entities, keeper
}

func TestPopulateRoomFillsToCap(t *testing.T) {
	eng, entities, _ := testEngine(t)
	now := time.Now()

	placed := eng.PopulateRoom("pier", now)
	assert.Len(t, placed, 2)
	assert.Len(t, entities.InstancesInRoom("pier"), 2)

	// A second sweep neither exceeds the cap nor respawns early.
	placed = eng.PopulateRoom("pier", now)
	assert.Empty(t, placed)
	assert.Len(t, entities.InstancesInRoom("pier"), 2)
}

func TestPopulateRoomRespectsCooldownAfterDeath(t *testing.T) {
	eng, entities, _ := testEngine(t)
	now := time.Now()

	placed := eng.PopulateRoom("pier", now)
	require.Len(t, placed, 2)

	_, err := eng.HandleDeath(placed[0], "player-a", now)
	require.NoError(t, err)
	require.Len(t, entities.InstancesInRoom("pier"), 2, "one rat and one pelt remain")

	// The replacement waits out the full cooldown from the moment of death.
	assert.Empty(t, eng.PopulateRoom("pier", now.Add(30*time.Second)))
	refill := eng.PopulateRoom("pier", now.Add(61*time.Second))
	assert.Len(t, refill, 1)
}

func TestHandleDeathDropsOwnedLoot(t *testing.T) {
	eng, entities, _ := testEngine(t)
	now := time.Now()

	placed := eng.PopulateRoom("pier", now)
	require.NotEmpty(t, placed)

	result, err := eng.HandleDeath(placed[0], "player-a", now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Currency, 1)
	assert.LessOrEqual(t, result.Currency, 3)
	require.Len(t, result.Items, 1)

	_, ok := entities.Get(placed[0].ID)
	assert.False(t, ok, "dead creature is unregistered")

	var pelt *entity.Instance
	for _, inst := range entities.InstancesInRoom("pier") {
		if inst.Kind == entity.KindItem {
			pelt = inst
		}
	}
	require.NotNil(t, pelt)
	assert.Equal(t, "player-a", pelt.OwnerUID)
	assert.True(t, pelt.CanPickUp("player-a", now))
	assert.False(t, pelt.CanPickUp("player-b", now))
}

func TestHandleDeathRejectsNonCreatures(t *testing.T) {
	eng, entities, _ := testEngine(t)
	now := time.Now()
	item, err := entities.PlaceItem("fish head", "pier", "", 0, now)
	require.NoError(t, err)
	_, err = eng.HandleDeath(item, "player-a", now)
	assert.Error(t, err)
}

func TestRollEncounterSpawnsCompositionOnce(t *testing.T) {
	eng, entities, _ := testEngine(t)
	now := time.Now()

	result := eng.RollEncounter("pier", now)
	require.NotNil(t, result)
	assert.Equal(t, "Gulls wheel down from the rigging.", result.Message)
	assert.Len(t, result.Spawned, 2)
	assert.Len(t, entities.InstancesInRoom("pier"), 2)

	// The cooldown suppresses immediate re-rolls.
	assert.Nil(t, eng.RollEncounter("pier", now.Add(time.Minute)))
	assert.NotNil(t, eng.RollEncounter("pier", now.Add(3*time.Minute)))
}

func TestRollEncounterSpawnsCarryExpiry(t *testing.T) {
	eng, entities, _ := testEngine(t)
	eng.SetEncounterTTL(5 * time.Minute)
	now := time.Now()

	result := eng.RollEncounter("pier", now)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Spawned)
	for _, inst := range result.Spawned {
		assert.Equal(t, now.Add(5*time.Minute), inst.ExpiresAt)
	}

	// The sweep reclaims them once the window lapses.
	eng.SweepAll(now.Add(6 * time.Minute))
	for _, inst := range result.Spawned {
		_, ok := entities.Get(inst.ID)
		assert.False(t, ok)
	}
}

func TestRollEncounterNilWithoutTable(t *testing.T) {
	eng, _, _ := testEngine(t)
	assert.Nil(t, eng.RollEncounter("market", time.Now()))
}

func TestEncounterTableBands(t *testing.T) {
	table := &EncounterTable{
		ID: "t",
		Entries: []EncounterEntry{
			{RollMax: 30, Message: "low"},
			{RollMax: 60, Message: "mid"},
		},
	}
	require.NoError(t, table.Validate())

	// Identical seeds land in identical bands.
	a := table.Roll(dice.NewSeededSource(11))
	b := table.Roll(dice.NewSeededSource(11))
	if a == nil {
		assert.Nil(t, b)
	} else {
		require.NotNil(t, b)
		assert.Equal(t, a.Message, b.Message)
	}
}

func TestEncounterTableValidateOrdering(t *testing.T) {
	bad := &EncounterTable{ID: "t", Entries: []EncounterEntry{
		{RollMax: 60}, {RollMax: 30},
	}}
	assert.Error(t, bad.Validate())

	over := &EncounterTable{ID: "t", Entries: []EncounterEntry{{RollMax: 101}}}
	assert.Error(t, over.Validate())
}

func TestGenerateLootDeterministicWithSeed(t *testing.T) {
	lt := &LootTable{
		Currency: &CurrencyDrop{Min: 2, Max: 8},
		Items:    []ItemDrop{{Name: "gull feather", Chance: 0.5, MinQty: 1, MaxQty: 3}},
	}
	require.NoError(t, lt.Validate())

	a := GenerateLoot(lt, dice.NewSeededSource(42))
	b := GenerateLoot(lt, dice.NewSeededSource(42))
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a.Currency, 2)
	assert.LessOrEqual(t, a.Currency, 8)
}

func TestLootTableValidate(t *testing.T) {
	bad := &LootTable{Items: []ItemDrop{{Name: "", Chance: 0.5, MinQty: 1, MaxQty: 1}}}
	assert.Error(t, bad.Validate())

	bad = &LootTable{Items: []ItemDrop{{Name: "x", Chance: 1.5, MinQty: 1, MaxQty: 1}}}
	assert.Error(t, bad.Validate())

	bad = &LootTable{Currency: &CurrencyDrop{Min: 5, Max: 2}}
	assert.Error(t, bad.Validate())
}
