package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/clock"
	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/session"
	"github.com/saltmere/mud/internal/game/spawn"
	"github.com/saltmere/mud/internal/game/weather"
	"github.com/saltmere/mud/internal/game/world"
)

// Job is a named background task run on its own cadence.
type Job struct {
	Name  string
	Every time.Duration
	Fn    func(now time.Time)
}

// Runner drives registered jobs until its context is cancelled. Each job
// gets its own goroutine so a slow sweep never delays the weather.
type Runner struct {
	logger *zap.Logger

	mu   sync.Mutex
	jobs []Job
	wg   sync.WaitGroup
}

// NewRunner creates an empty Runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Add registers a job. Must be called before Start.
//
// Precondition: every must be > 0; fn must be non-nil.
func (r *Runner) Add(name string, every time.Duration, fn func(now time.Time)) {
	if every <= 0 || fn == nil {
		panic("gameserver.Runner.Add: job needs a positive interval and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, Job{Name: name, Every: every, Fn: fn})
}

// Start launches every registered job. Jobs stop when ctx is cancelled.
//
// Postcondition: each job fires once per its interval until cancellation.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	r.mu.Unlock()

	for _, job := range jobs {
		job := job
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			ticker := time.NewTicker(job.Every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					job.Fn(now)
				}
			}
		}()
	}
	r.logger.Info("background jobs started", zap.Int("jobs", len(jobs)))
}

// Wait blocks until every job goroutine has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// TickService holds the standard background jobs: spawn sweeps, loot and
// encounter expiry, weather transitions, room idle cleanup, and the
// disconnect grace sweep.
type TickService struct {
	world    *world.Manager
	sessions *session.Manager
	entities *entity.Registry
	engine   *combat.Engine
	spawner  *spawn.Engine
	keeper   *room.Keeper
	weather  *weather.Service
	clk      *clock.WorldClock
	notify   *Notifier
	logger   *zap.Logger

	grace       time.Duration
	idleHorizon time.Duration

	mu      sync.Mutex
	regions []string
}

// NewTickService creates a TickService.
//
// Precondition: worldMgr, sessMgr, entities, engine, spawner, keeper, clk,
// and notify must be non-nil; weatherSvc may be nil to disable weather
// ticks.
func NewTickService(
	worldMgr *world.Manager,
	sessMgr *session.Manager,
	entities *entity.Registry,
	engine *combat.Engine,
	spawner *spawn.Engine,
	keeper *room.Keeper,
	weatherSvc *weather.Service,
	clk *clock.WorldClock,
	notify *Notifier,
	grace time.Duration,
	idleHorizon time.Duration,
	logger *zap.Logger,
) *TickService {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &TickService{
		world:       worldMgr,
		sessions:    sessMgr,
		entities:    entities,
		engine:      engine,
		spawner:     spawner,
		keeper:      keeper,
		weather:     weatherSvc,
		clk:         clk,
		notify:      notify,
		logger:      logger,
		grace:       grace,
		idleHorizon: idleHorizon,
	}
	t.regions = collectRegions(worldMgr)
	return t
}

// Register wires the standard jobs into runner at their cadences.
func (t *TickService) Register(runner *Runner, sweepEvery, weatherEvery time.Duration) {
	runner.Add("spawn-sweep", sweepEvery, t.SweepTick)
	runner.Add("expiry-sweep", sweepEvery, t.ExpiryTick)
	if t.weather != nil {
		runner.Add("weather", weatherEvery, t.WeatherTick)
	}
	if t.grace > 0 {
		runner.Add("disconnect-grace", t.grace/2, t.DisconnectTick)
	}
	if t.idleHorizon > 0 {
		runner.Add("room-idle", t.idleHorizon/2, t.RoomIdleTick)
	}
}

// SweepTick regenerates cleared rooms whose spawn cooldowns have lapsed.
func (t *TickService) SweepTick(now time.Time) {
	t.spawner.SweepAll(now)
}

// ExpiryTick despawns loot and lingering encounter creatures whose window
// has lapsed, telling the room. A creature still mid-fight is reprieved
// until the fight releases it.
func (t *TickService) ExpiryTick(now time.Time) {
	fighting := func(id string) bool {
		_, ok := t.engine.TickerFor(id)
		return ok
	}
	for _, inst := range t.entities.ExpireSweep(now, fighting) {
		if inst.Kind == entity.KindCreature {
			t.notify.PushRoom(inst.RoomID, inst.Name+" slinks away.")
			continue
		}
		t.notify.PushRoom(inst.RoomID, inst.Name+" crumbles away.")
	}
}

// WeatherTick advances each region's weather and announces transitions to
// the rooms that feel them.
func (t *TickService) WeatherTick(_ time.Time) {
	ws := t.clk.WorldSeconds()
	t.mu.Lock()
	regions := t.regions
	t.mu.Unlock()

	changed := make(map[string]string)
	for _, region := range regions {
		if msg, ok := t.weather.Changed(region, ws); ok {
			changed[region] = msg
		}
	}
	if len(changed) == 0 {
		return
	}

	for _, zone := range t.world.AllZones() {
		for _, rm := range zone.Rooms {
			msg, ok := changed[rm.RegionID]
			if !ok || rm.Exposure == weather.ExposureIndoor {
				continue
			}
			t.notify.PushRoom(rm.ID, msg)
		}
	}
}

// RoomIdleTick drops runtime state for rooms nobody has visited within the
// idle horizon. Rooms holding players or an active fight are left alone;
// evicted rooms rebuild fresh state the next time someone walks in.
func (t *TickService) RoomIdleTick(now time.Time) {
	inUse := func(roomID string) bool {
		if _, ok := t.engine.SessionFor(roomID); ok {
			return true
		}
		return len(t.sessions.PlayersInRoom(roomID)) > 0
	}
	evicted := t.keeper.SweepIdle(t.idleHorizon, now, inUse)
	if len(evicted) > 0 {
		t.logger.Info("idle room state dropped", zap.Int("rooms", len(evicted)))
	}
}

// DisconnectTick removes players whose reconnect grace has run out. Their
// combat state falls away; the session goes with it.
func (t *TickService) DisconnectTick(now time.Time) {
	for _, uid := range t.sessions.DisconnectedBefore(now.Add(-t.grace)) {
		sess, ok := t.sessions.GetPlayer(uid)
		if !ok {
			continue
		}
		roomID := sess.RoomID
		t.engine.RemoveCombatant(roomID, uid)
		if err := t.sessions.RemovePlayer(uid); err != nil {
			t.logger.Warn("grace removal failed", zap.String("uid", uid), zap.Error(err))
			continue
		}
		t.notify.PushRoom(roomID, sess.CharName+" fades from view.")
		t.logger.Info("session reaped after grace",
			zap.String("uid", uid),
			zap.String("room_id", roomID))
	}
}

func collectRegions(worldMgr *world.Manager) []string {
	seen := make(map[string]bool)
	var regions []string
	for _, zone := range worldMgr.AllZones() {
		for _, rm := range zone.Rooms {
			if rm.RegionID == "" || seen[rm.RegionID] {
				continue
			}
			seen[rm.RegionID] = true
			regions = append(regions, rm.RegionID)
		}
	}
	return regions
}
