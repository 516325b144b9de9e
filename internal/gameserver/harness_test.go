package gameserver

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/clock"
	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/gear"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/session"
	"github.com/saltmere/mud/internal/game/spawn"
	"github.com/saltmere/mud/internal/game/weather"
	"github.com/saltmere/mud/internal/game/world"
)

// scriptedSource replays a fixed Intn sequence, then zeroes.
type scriptedSource struct {
	mu    sync.Mutex
	rolls []int
	i     int
}

func script(rolls ...int) *scriptedSource {
	return &scriptedSource{rolls: rolls}
}

func (s *scriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.rolls) {
		return 0
	}
	v := s.rolls[s.i] % n
	s.i++
	return v
}

// pct converts a desired percentile roll into the Intn value producing it.
func pct(roll int) int { return roll - 1 }

func harborWorld(t *testing.T) *world.Manager {
	t.Helper()
	zone := &world.Zone{
		ID:        "harbor",
		Name:      "Saltmere Harbor",
		StartRoom: "pier-3",
		RegionID:  "saltmere-coast",
		Rooms: map[string]*world.Room{
			"pier-3": {
				ID: "pier-3", ZoneID: "harbor", Title: "Pier Three",
				Description: "Gulls pick at fish heads between the bollards.",
				Exposure:    weather.ExposureCoastal,
				RegionID:    "saltmere-coast",
				Exits:       []world.Exit{{Direction: world.East, TargetRoom: "fish-market"}},
				Spawns: []world.RoomSpawnConfig{
					{Template: "wharf-rat", Count: 1},
				},
			},
			"fish-market": {
				ID: "fish-market", ZoneID: "harbor", Title: "Fish Market",
				Exposure: weather.ExposureOutdoor,
				RegionID: "saltmere-coast",
				Exits: []world.Exit{
					{Direction: world.West, TargetRoom: "pier-3"},
					{Direction: world.North, TargetRoom: "chapel"},
				},
			},
			"chapel": {
				ID: "chapel", ZoneID: "harbor", Title: "Tidewater Chapel",
				Exposure:  weather.ExposureIndoor,
				RegionID:  "saltmere-coast",
				NoPursuit: true,
				Exits:     []world.Exit{{Direction: world.South, TargetRoom: "fish-market"}},
			},
		},
	}
	mgr, err := world.NewManager([]*world.Zone{zone})
	require.NoError(t, err)
	return mgr
}

func ratTemplate() *entity.CreatureTemplate {
	return &entity.CreatureTemplate{
		ID:                   "wharf-rat",
		Name:                 "wharf rat",
		Description:          "A rat the size of a dog, slick with harbor grime.",
		MaxHP:                8,
		Accuracy:             40,
		Dodging:              20,
		Behavior:             entity.BehaviorTerritorial,
		LeashRooms:           1,
		LootTableID:          "rat-drops",
		SpawnCooldownSeconds: 60,
	}
}

// harness wires the full handler stack over an in-memory world.
type harness struct {
	world    *world.Manager
	sessions *session.Manager
	entities *entity.Registry
	keeper   *room.Keeper
	engine   *combat.Engine
	spawner  *spawn.Engine
	notify   *Notifier
	combatH  *CombatHandler
	worldH   *WorldHandler
	clk      *clock.WorldClock
	now      time.Time
}

func newHarness(t *testing.T, src dice.Source) *harness {
	t.Helper()
	h := &harness{
		world:    harborWorld(t),
		sessions: session.NewManager(),
		entities: entity.NewRegistry(),
		keeper:   room.NewKeeper(func(string) int64 { return 7 }),
		now:      time.Unix(1_000_000, 0),
	}
	frozen := h.now
	h.clk = clock.NewFixed(0, clock.DefaultRatio, func() time.Time { return frozen })

	templates := map[string]*entity.CreatureTemplate{"wharf-rat": ratTemplate()}
	lootTables := map[string]*spawn.LootTable{
		"rat-drops": {
			Currency: &spawn.CurrencyDrop{Min: 1, Max: 3},
			Items:    []spawn.ItemDrop{{Name: "rat pelt", Chance: 1.0, MinQty: 1, MaxQty: 1}},
		},
	}

	gearReg := gear.NewRegistry()
	h.spawner = spawn.NewEngine(h.world, h.entities, h.keeper, gearReg, templates, lootTables, nil, zap.NewNop())
	h.engine = combat.NewEngine(combat.DefaultConfig(), h.clk, h.keeper, h.world, nil, gearReg, src, zap.NewNop())
	h.notify = NewNotifier(h.sessions, zap.NewNop())
	h.combatH = NewCombatHandler(h.engine, h.sessions, h.entities, h.spawner, h.world, nil, h.notify, zap.NewNop())
	h.worldH = NewWorldHandler(h.world, h.sessions, h.entities, h.engine, h.spawner, h.keeper, nil, nil, h.clk, nil, h.notify, zap.NewNop())

	h.combatH.now = func() time.Time { return frozen }
	h.worldH.now = func() time.Time { return frozen }
	return h
}

func (h *harness) addPlayer(t *testing.T, uid, name, roomID string) *session.PlayerSession {
	t.Helper()
	sess, err := h.sessions.AddPlayer(uid, session.PlayerConfig{
		Username:    uid + "@saltmere",
		CharName:    name,
		CharacterID: int64(len(uid)),
		RoomID:      roomID,
		CurrentHP:   30,
		MaxHP:       30,
		MaxStamina:  20,
		Accuracy:    50,
		DodgeSkill:  60,
		Role:        "player",
	})
	require.NoError(t, err)
	return sess
}

func (h *harness) spawnRat(t *testing.T, roomID string) *entity.Instance {
	t.Helper()
	inst, err := h.entities.Spawn(ratTemplate(), roomID, ratTemplate().AttackProfile(gear.NewRegistry()), h.now)
	require.NoError(t, err)
	return inst
}

// drainLines empties a session's event stream into strings.
func drainLines(sess *session.PlayerSession) []string {
	var lines []string
	for {
		select {
		case data, ok := <-sess.Entity.Events():
			if !ok {
				return lines
			}
			lines = append(lines, string(data))
		default:
			return lines
		}
	}
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
