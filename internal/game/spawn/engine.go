package spawn

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/gear"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/world"
)

// DefaultLootTTL is how long dropped loot stays on the ground.
const DefaultLootTTL = 10 * time.Minute

// DefaultEncounterCooldown applies when an encounter table sets no cooldown.
const DefaultEncounterCooldown = 2 * time.Minute

// DefaultEncounterTTL bounds how long an unfought encounter creature lingers
// before the expiry sweep reclaims it.
const DefaultEncounterTTL = 15 * time.Minute

// Engine drives creature spawning, random encounters, and loot drops.
// All methods are safe for concurrent use; per-room eligibility is consumed
// atomically through the room Keeper so concurrent sweeps never double-spawn.
type Engine struct {
	worldMgr   *world.Manager
	entities   *entity.Registry
	keeper     *room.Keeper
	gearReg    *gear.Registry
	templates  map[string]*entity.CreatureTemplate
	lootTables map[string]*LootTable
	encounters map[string]*EncounterTable
	lootTTL    time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	sources map[string]dice.Source // roomID → seeded source

	encCooldown  time.Duration
	encounterTTL time.Duration

	// busyCheck reprieves expired instances that are still fighting.
	busyCheck func(id string) bool
}

// NewEngine creates a spawn Engine.
//
// Precondition: worldMgr, entities, and keeper must be non-nil; logger may be
// nil for silence.
func NewEngine(
	worldMgr *world.Manager,
	entities *entity.Registry,
	keeper *room.Keeper,
	gearReg *gear.Registry,
	templates map[string]*entity.CreatureTemplate,
	lootTables map[string]*LootTable,
	encounters map[string]*EncounterTable,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if templates == nil {
		templates = make(map[string]*entity.CreatureTemplate)
	}
	if lootTables == nil {
		lootTables = make(map[string]*LootTable)
	}
	if encounters == nil {
		encounters = make(map[string]*EncounterTable)
	}
	return &Engine{
		worldMgr:     worldMgr,
		entities:     entities,
		keeper:       keeper,
		gearReg:      gearReg,
		templates:    templates,
		lootTables:   lootTables,
		encounters:   encounters,
		lootTTL:      DefaultLootTTL,
		encounterTTL: DefaultEncounterTTL,
		logger:       logger,
		sources:      make(map[string]dice.Source),
	}
}

// SpawnTemplate places a single creature from templateID into roomID,
// bypassing room spawn configs and cooldowns. Scripted zone events use it.
//
// Precondition: templateID and roomID must name loaded content.
func (e *Engine) SpawnTemplate(roomID, templateID string, now time.Time) (*entity.Instance, error) {
	tmpl, ok := e.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("spawn.Engine.SpawnTemplate: unknown template %q", templateID)
	}
	if _, ok := e.worldMgr.GetRoom(roomID); !ok {
		return nil, fmt.Errorf("spawn.Engine.SpawnTemplate: unknown room %q", roomID)
	}
	return e.entities.Spawn(tmpl, roomID, tmpl.AttackProfile(e.gearReg), now)
}

// SetLootTTL overrides how long dropped loot stays on the ground.
// Non-positive values keep the default.
func (e *Engine) SetLootTTL(ttl time.Duration) {
	if ttl > 0 {
		e.lootTTL = ttl
	}
}

// SetEncounterCooldown overrides the fallback cooldown applied when an
// encounter table sets none. Non-positive values keep the default.
func (e *Engine) SetEncounterCooldown(cd time.Duration) {
	if cd > 0 {
		e.encCooldown = cd
	}
}

// SetEncounterTTL overrides how long unfought encounter creatures linger.
// Non-positive values keep the default.
func (e *Engine) SetEncounterTTL(ttl time.Duration) {
	if ttl > 0 {
		e.encounterTTL = ttl
	}
}

// SetBusyCheck installs the predicate that reprieves expired instances
// still mid-fight. Call before background sweeps start.
func (e *Engine) SetBusyCheck(fn func(id string) bool) {
	e.busyCheck = fn
}

// source returns the room's deterministic dice source, seeded from the room
// state on first use.
func (e *Engine) source(roomID string) dice.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	if src, ok := e.sources[roomID]; ok {
		return src
	}
	var seed int64
	e.keeper.With(roomID, func(st *room.State) { seed = st.Seed })
	src := dice.NewSeededSource(seed)
	e.sources[roomID] = src
	return src
}

// cooldownFor resolves the spawn cooldown for a room spawn config, preferring
// the room override over the template default.
func (e *Engine) cooldownFor(cfg world.RoomSpawnConfig, tmpl *entity.CreatureTemplate) time.Duration {
	if cfg.CooldownSeconds > 0 {
		return time.Duration(cfg.CooldownSeconds) * time.Second
	}
	return time.Duration(tmpl.SpawnCooldownSeconds) * time.Second
}

// PopulateRoom fills roomID toward each spawn config's population cap,
// consuming per-template eligibility for every creature placed.
//
// Postcondition: live counts never exceed the configs' caps; each placed
// creature consumed one eligibility window.
func (e *Engine) PopulateRoom(roomID string, now time.Time) []*entity.Instance {
	rm, ok := e.worldMgr.GetRoom(roomID)
	if !ok || len(rm.Spawns) == 0 {
		return nil
	}

	var placed []*entity.Instance
	for _, cfg := range rm.Spawns {
		tmpl, ok := e.templates[cfg.Template]
		if !ok {
			e.logger.Warn("spawn config references unknown template",
				zap.String("room_id", roomID),
				zap.String("template_id", cfg.Template))
			continue
		}

		live := 0
		for _, inst := range e.entities.InstancesInRoom(roomID) {
			if inst.Kind == entity.KindCreature && inst.TemplateID == cfg.Template {
				live++
			}
		}

		if live >= cfg.Count {
			continue
		}

		// One eligibility window covers the whole refill batch, so a pack
		// respawns together rather than trickling in.
		cooldown := e.cooldownFor(cfg, tmpl)
		if !e.keeper.TryConsumeSpawn(roomID, cfg.Template, cooldown, now) {
			continue
		}
		for live < cfg.Count {
			inst, err := e.entities.Spawn(tmpl, roomID, tmpl.AttackProfile(e.gearReg), now)
			if err != nil {
				e.logger.Error("spawn failed",
					zap.String("room_id", roomID),
					zap.String("template_id", cfg.Template),
					zap.Error(err))
				break
			}
			e.logger.Debug("creature spawned",
				zap.String("room_id", roomID),
				zap.String("instance_id", inst.ID))
			placed = append(placed, inst)
			live++
		}
	}
	return placed
}

// SweepAll populates every room with spawn configs and removes expired ground
// items. Intended to run from the periodic world tick.
func (e *Engine) SweepAll(now time.Time) {
	for _, roomID := range e.worldMgr.AllRoomIDs() {
		e.PopulateRoom(roomID, now)
	}
	for _, inst := range e.entities.ExpireSweep(now, e.busyCheck) {
		e.logger.Debug("expired instance swept",
			zap.String("room_id", inst.RoomID),
			zap.String("instance_id", inst.ID))
	}
}

// HandleDeath removes the dead creature, rolls its loot table, and places the
// drops on the ground owned by killerUID. The creature's respawn cooldown
// starts at the moment of death.
//
// Precondition: inst must be a registered creature.
// Postcondition: inst is no longer registered; returned items are on the
// ground in inst's room.
func (e *Engine) HandleDeath(inst *entity.Instance, killerUID string, now time.Time) (LootResult, error) {
	if inst.Kind != entity.KindCreature {
		return LootResult{}, fmt.Errorf("spawn.Engine.HandleDeath: %q is not a creature", inst.ID)
	}
	if err := e.entities.Remove(inst.ID); err != nil {
		return LootResult{}, fmt.Errorf("spawn.Engine.HandleDeath: %w", err)
	}

	// Restart the cooldown from death so the room stays clear for the full
	// window even if the spawn eligibility had already lapsed.
	if tmpl, ok := e.templates[inst.TemplateID]; ok && tmpl.SpawnCooldownSeconds > 0 {
		e.keeper.With(inst.RoomID, func(st *room.State) {
			st.SpawnReadyAt[inst.TemplateID] = now.Add(time.Duration(tmpl.SpawnCooldownSeconds) * time.Second)
		})
	}

	lt, ok := e.lootTables[inst.LootTableID]
	if !ok || inst.LootTableID == "" {
		return LootResult{}, nil
	}

	result := GenerateLoot(lt, e.source(inst.RoomID))
	for _, item := range result.Items {
		if _, err := e.entities.PlaceItem(item.Name, inst.RoomID, killerUID, e.lootTTL, now); err != nil {
			e.logger.Error("loot placement failed",
				zap.String("room_id", inst.RoomID),
				zap.String("item", item.Name),
				zap.Error(err))
		}
	}
	e.logger.Info("creature died",
		zap.String("room_id", inst.RoomID),
		zap.String("instance_id", inst.ID),
		zap.Int("currency", result.Currency),
		zap.Int("items", len(result.Items)))
	return result, nil
}

// EncounterResult describes a fired random encounter.
type EncounterResult struct {
	Message string
	Spawned []*entity.Instance
}

// RollEncounter attempts a random encounter in roomID, honoring the room's
// encounter cooldown. Returns nil when the room has no table, the cooldown
// holds, or the roll clears every band.
func (e *Engine) RollEncounter(roomID string, now time.Time) *EncounterResult {
	rm, ok := e.worldMgr.GetRoom(roomID)
	if !ok || rm.EncounterTable == "" {
		return nil
	}
	table, ok := e.encounters[rm.EncounterTable]
	if !ok {
		return nil
	}

	cooldown := DefaultEncounterCooldown
	if e.encCooldown > 0 {
		cooldown = e.encCooldown
	}
	if table.CooldownSeconds > 0 {
		cooldown = time.Duration(table.CooldownSeconds) * time.Second
	}
	if !e.keeper.TryConsumeEncounter(roomID, cooldown, now) {
		return nil
	}

	entry := table.Roll(e.source(roomID))
	if entry == nil {
		return nil
	}

	result := &EncounterResult{Message: entry.Message}
	for tmplID, count := range entry.Composition {
		tmpl, ok := e.templates[tmplID]
		if !ok {
			e.logger.Warn("encounter references unknown template",
				zap.String("room_id", roomID),
				zap.String("template_id", tmplID))
			continue
		}
		for i := 0; i < count; i++ {
			inst, err := e.entities.Spawn(tmpl, roomID, tmpl.AttackProfile(e.gearReg), now)
			if err != nil {
				e.logger.Error("encounter spawn failed",
					zap.String("room_id", roomID),
					zap.Error(err))
				continue
			}
			// Encounter creatures are transient: unfought, they wander
			// off when the expiry sweep next passes.
			inst.ExpiresAt = now.Add(e.encounterTTL)
			result.Spawned = append(result.Spawned, inst)
		}
	}
	return result
}
