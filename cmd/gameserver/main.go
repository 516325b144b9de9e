// Package main runs the Saltmere game server: it loads configuration and
// YAML content, wires the runtime systems together, and supervises the
// background loops until shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/config"
	"github.com/saltmere/mud/internal/game/clock"
	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/gear"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/schedule"
	"github.com/saltmere/mud/internal/game/session"
	"github.com/saltmere/mud/internal/game/spawn"
	"github.com/saltmere/mud/internal/game/weather"
	"github.com/saltmere/mud/internal/game/world"
	"github.com/saltmere/mud/internal/gameserver"
	"github.com/saltmere/mud/internal/observability"
	"github.com/saltmere/mud/internal/scripting"
	"github.com/saltmere/mud/internal/server"
	"github.com/saltmere/mud/internal/storage"
	"github.com/saltmere/mud/internal/storage/postgres"
)

// seedFor derives a stable per-key seed so room and region dice survive
// restarts unchanged.
func seedFor(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting saltmere",
		zap.String("content_dir", cfg.Server.ContentDir))

	// World content.
	zones, err := world.LoadZonesFromDir(filepath.Join(cfg.Server.ContentDir, "zones"))
	if err != nil {
		logger.Fatal("loading zones", zap.Error(err))
	}
	worldMgr, err := world.NewManager(zones)
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}
	if err := worldMgr.ValidateExits(); err != nil {
		logger.Fatal("validating exits", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("zones", worldMgr.ZoneCount()),
		zap.Int("rooms", worldMgr.RoomCount()))

	// Gear content.
	gearReg := gear.NewRegistry()
	if err := gearReg.LoadAll(cfg.Server.ContentDir); err != nil {
		logger.Fatal("loading gear", zap.Error(err))
	}
	logger.Info("gear loaded",
		zap.Int("weapons", gearReg.WeaponCount()),
		zap.Int("armor", gearReg.ArmorCount()),
		zap.Int("maneuvers", gearReg.ManeuverCount()))

	// Creature, loot, and encounter content.
	creatureList, err := entity.LoadCreatureTemplates(filepath.Join(cfg.Server.ContentDir, "creatures"))
	if err != nil {
		logger.Fatal("loading creature templates", zap.Error(err))
	}
	templates := make(map[string]*entity.CreatureTemplate, len(creatureList))
	for _, tmpl := range creatureList {
		templates[tmpl.ID] = tmpl
	}
	lootTables, err := spawn.LoadLootTables(filepath.Join(cfg.Server.ContentDir, "loot"))
	if err != nil {
		logger.Fatal("loading loot tables", zap.Error(err))
	}
	encounters, err := spawn.LoadEncounterTables(filepath.Join(cfg.Server.ContentDir, "encounters"))
	if err != nil {
		logger.Fatal("loading encounter tables", zap.Error(err))
	}
	logger.Info("spawn content loaded",
		zap.Int("templates", len(templates)),
		zap.Int("loot_tables", len(lootTables)),
		zap.Int("encounter_tables", len(encounters)))

	// Weather tables are optional content; the defaults cover the coast.
	weatherTables := weather.DefaultTables()
	weatherPath := filepath.Join(cfg.Server.ContentDir, "weather", "tables.yaml")
	if _, statErr := os.Stat(weatherPath); statErr == nil {
		weatherTables, err = weather.LoadTables(weatherPath)
		if err != nil {
			logger.Fatal("loading weather tables", zap.Error(err))
		}
		logger.Info("weather tables loaded", zap.String("path", weatherPath))
	}

	// Core runtime.
	worldClock := clock.New(cfg.Clock.StartEpoch, cfg.Clock.Ratio)
	keeper := room.NewKeeper(seedFor)
	entities := entity.NewRegistry()
	sessMgr := session.NewManager()
	weatherSvc := weather.NewService(weatherTables, seedFor, cfg.Weather.MinSpan, cfg.Weather.MaxSpan)

	spawner := spawn.NewEngine(worldMgr, entities, keeper, gearReg, templates, lootTables, encounters, logger)
	spawner.SetLootTTL(cfg.Spawn.LootTTL)
	spawner.SetEncounterCooldown(cfg.Spawn.EncounterCooldown)
	spawner.SetEncounterTTL(cfg.Spawn.EncounterTTL)

	// NPC schedules are optional content.
	scheduler := schedule.NewResolver()
	scheduleDir := filepath.Join(cfg.Server.ContentDir, "schedules")
	if _, statErr := os.Stat(scheduleDir); statErr == nil {
		schedules, err := schedule.LoadSchedules(scheduleDir)
		if err != nil {
			logger.Fatal("loading npc schedules", zap.Error(err))
		}
		for npcID, bindings := range schedules {
			if err := scheduler.SetBindings(npcID, bindings); err != nil {
				logger.Fatal("registering npc schedule",
					zap.String("npc_id", npcID), zap.Error(err))
			}
		}
		logger.Info("npc schedules loaded", zap.Int("npcs", len(schedules)))
	}

	combatCfg := combat.Config{
		BaseAttackInterval:   cfg.Combat.BaseAttackInterval,
		RoundDuration:        cfg.Combat.RoundDuration,
		FleeWindow:           cfg.Combat.FleeWindow,
		DisengageDifficulty:  cfg.Combat.DisengageDifficulty,
		ReactionsPerRound:    cfg.Combat.ReactionsPerRound,
		ExposedAccuracyBonus: cfg.Combat.ExposedAccuracyBonus,
		LeaveEndsCombat:      cfg.Combat.LeaveEndsCombat,
	}
	engine := combat.NewEngine(combatCfg, worldClock, keeper, worldMgr, weatherSvc, gearReg, dice.NewCryptoSource(), logger)
	spawner.SetBusyCheck(func(id string) bool {
		_, fighting := engine.TickerFor(id)
		return fighting
	})

	// Maneuver preconditions run in the Lua sandbox.
	gate := scripting.NewGate(cfg.Scripting.InstructionLimit, logger)
	defer gate.Close()
	engine.SetManeuverGate(gate)

	// Zone event hooks.
	var scriptMgr *scripting.Manager
	if cfg.Server.ScriptDir != "" {
		scriptMgr = scripting.NewManager(dice.NewCryptoSource(), cfg.Scripting.InstructionLimit, logger)
		defer scriptMgr.Close()

		globalDir := filepath.Join(cfg.Server.ScriptDir, "global")
		if info, statErr := os.Stat(globalDir); statErr == nil && info.IsDir() {
			if err := scriptMgr.LoadGlobal(globalDir); err != nil {
				logger.Fatal("loading global scripts", zap.Error(err))
			}
		}
		for _, zone := range worldMgr.AllZones() {
			zoneDir := filepath.Join(cfg.Server.ScriptDir, "zones", zone.ID)
			info, statErr := os.Stat(zoneDir)
			if statErr != nil || !info.IsDir() {
				continue
			}
			if err := scriptMgr.LoadZone(zone.ID, zoneDir); err != nil {
				logger.Fatal("loading zone scripts",
					zap.String("zone", zone.ID), zap.Error(err))
			}
			logger.Info("zone scripts loaded", zap.String("zone", zone.ID))
		}
	}

	// Persistence.
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	charRepo := postgres.NewCharacterRepository(pool.DB())
	writer := storage.NewDeferredWriter(charRepo, cfg.Database.SaveInterval, logger)

	// Intent surface.
	notify := gameserver.NewNotifier(sessMgr, logger)
	combatHandler := gameserver.NewCombatHandler(engine, sessMgr, entities, spawner, worldMgr, writer, notify, logger)
	worldHandler := gameserver.NewWorldHandler(worldMgr, sessMgr, entities, engine, spawner, keeper, weatherSvc, scheduler, worldClock, writer, notify, logger)
	surface := gameserver.NewSurface(combatHandler, worldHandler, sessMgr)
	logger.Info("intent surface ready", zap.Strings("operations", surface.Operations()))

	if scriptMgr != nil {
		wireScriptCallbacks(scriptMgr, worldMgr, entities, sessMgr, spawner, notify)
		worldHandler.SetEnterHook(func(zoneID, roomID, uid string) {
			scriptMgr.CallHook(zoneID, "on_enter",
				lua.LString(roomID), lua.LString(uid))
		})
		combatHandler.SetCreatureDeathHook(func(zoneID, roomID, templateID, killerID string) {
			scriptMgr.CallHook(zoneID, "on_death",
				lua.LString(roomID), lua.LString(templateID), lua.LString(killerID))
		})
	}

	// Initial population so the first arrivals find a living harbor.
	now := time.Now()
	for _, roomID := range worldMgr.AllRoomIDs() {
		spawner.PopulateRoom(roomID, now)
	}
	logger.Info("initial population complete", zap.Int("entities", entities.Count()))

	// Background loops.
	ticks := gameserver.NewTickService(worldMgr, sessMgr, entities, engine, spawner, keeper,
		weatherSvc, worldClock, notify, cfg.Combat.DisconnectGrace, cfg.Rooms.IdleHorizon, logger)
	runner := gameserver.NewRunner(logger)
	ticks.Register(runner, cfg.Spawn.SweepInterval, 15*time.Second)

	lifecycle := server.NewLifecycle(logger)

	bgCtx, bgCancel := context.WithCancel(ctx)
	lifecycle.Add("background", &server.FuncService{
		StartFn: func() error {
			runner.Start(bgCtx)
			runner.Wait()
			return nil
		},
		StopFn: bgCancel,
	})

	lifecycle.Add("deferred-writer", &server.FuncService{
		StartFn: func() error {
			// The writer's flush loop runs in its own goroutine; block
			// here until shutdown.
			select {}
		},
		StopFn: func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			writer.Stop(stopCtx)
		},
	})

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("saltmere initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// wireScriptCallbacks connects the Lua engine.* modules to the live runtime.
func wireScriptCallbacks(
	scriptMgr *scripting.Manager,
	worldMgr *world.Manager,
	entities *entity.Registry,
	sessMgr *session.Manager,
	spawner *spawn.Engine,
	notify *gameserver.Notifier,
) {
	scriptMgr.QueryRoom = func(roomID string) *scripting.RoomInfo {
		rm, ok := worldMgr.GetRoom(roomID)
		if !ok {
			return nil
		}
		return &scripting.RoomInfo{
			ID:       rm.ID,
			Title:    rm.Title,
			Exposure: string(rm.Exposure),
			Tags:     rm.Tags,
		}
	}

	scriptMgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		if inst, ok := entities.Get(id); ok {
			return &scripting.CombatantInfo{
				ID:      inst.ID,
				Name:    inst.Name,
				HP:      inst.CurrentHP,
				MaxHP:   inst.MaxHP,
				Stamina: inst.CurrentStamina,
				Dodging: inst.DodgeSkill,
			}
		}
		if sess, ok := sessMgr.GetPlayer(id); ok {
			return &scripting.CombatantInfo{
				ID:      sess.UID,
				Name:    sess.CharName,
				HP:      sess.CurrentHP,
				MaxHP:   sess.MaxHP,
				Stamina: sess.CurrentStamina,
				Dodging: sess.DodgeSkill,
				Player:  true,
			}
		}
		return nil
	}

	scriptMgr.ApplyDamage = func(id string, hp int) error {
		if inst, ok := entities.Get(id); ok {
			inst.ApplyDamage(hp)
			return nil
		}
		if sess, ok := sessMgr.GetPlayer(id); ok {
			sess.ApplyDamage(hp)
			return nil
		}
		return fmt.Errorf("combatant %q not found", id)
	}

	scriptMgr.Broadcast = notify.PushRoom

	scriptMgr.SpawnAt = func(roomID, templateID string) error {
		_, err := spawner.SpawnTemplate(roomID, templateID, time.Now())
		return err
	}
}
