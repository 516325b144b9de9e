package gameserver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/clock"
	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/room"
	"github.com/saltmere/mud/internal/game/schedule"
	"github.com/saltmere/mud/internal/game/session"
	"github.com/saltmere/mud/internal/game/spawn"
	"github.com/saltmere/mud/internal/game/weather"
	"github.com/saltmere/mud/internal/game/world"
	"github.com/saltmere/mud/internal/storage"
)

// ExitInfo describes a visible exit for rendering.
type ExitInfo struct {
	Direction  string
	TargetRoom string
	Locked     bool
}

// RoomView is the rendered state of a room from one viewer's perspective.
type RoomView struct {
	RoomID      string
	Title       string
	Description string
	Weather     string
	TimeOfDay   string
	Exits       []ExitInfo
	Players     []string
	Creatures   []string
	NPCs        []string
	Items       []string
}

// MoveResult reports a completed move: the room left behind for departure
// broadcasts, the new view, and any creatures that gave chase.
type MoveResult struct {
	OldRoomID string
	View      *RoomView
	Pursuers  []string
	Encounter string
}

// WorldHandler handles movement, looking, and floor-item pickup.
type WorldHandler struct {
	world    *world.Manager
	sessions *session.Manager
	entities *entity.Registry
	engine   *combat.Engine
	spawner  *spawn.Engine
	keeper   *room.Keeper
	weather  *weather.Service
	sched    *schedule.Resolver
	clk      *clock.WorldClock
	writer   *storage.DeferredWriter
	notify   *Notifier
	logger   *zap.Logger
	now      func() time.Time

	// onEnter fires after a player finishes arriving in a room. Zone
	// scripts hang their on_enter hooks off this.
	onEnter func(zoneID, roomID, uid string)
}

// SetEnterHook registers a callback invoked after every completed move.
// Call before the handler starts serving intents.
func (h *WorldHandler) SetEnterHook(fn func(zoneID, roomID, uid string)) {
	h.onEnter = fn
}

// NewWorldHandler creates a WorldHandler.
//
// Precondition: worldMgr, sessMgr, entities, engine, spawner, keeper, clk,
// and notify must be non-nil. weatherSvc, sched, and writer may be nil to
// disable their overlays.
func NewWorldHandler(
	worldMgr *world.Manager,
	sessMgr *session.Manager,
	entities *entity.Registry,
	engine *combat.Engine,
	spawner *spawn.Engine,
	keeper *room.Keeper,
	weatherSvc *weather.Service,
	sched *schedule.Resolver,
	clk *clock.WorldClock,
	writer *storage.DeferredWriter,
	notify *Notifier,
	logger *zap.Logger,
) *WorldHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorldHandler{
		world:    worldMgr,
		sessions: sessMgr,
		entities: entities,
		engine:   engine,
		spawner:  spawner,
		keeper:   keeper,
		weather:  weatherSvc,
		sched:    sched,
		clk:      clk,
		writer:   writer,
		notify:   notify,
		logger:   logger,
		now:      time.Now,
	}
}

// Look returns the view of the player's current room.
//
// Precondition: uid must be a connected player.
func (h *WorldHandler) Look(uid string) (*RoomView, error) {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return nil, fmt.Errorf("player %q not found", uid)
	}
	h.keeper.Touch(sess.RoomID, h.now())
	return h.RenderRoom(sess.RoomID, uid)
}

// RenderRoom builds the view of roomID for viewerUID. The viewer is
// excluded from the occupant list; an empty viewerUID renders everyone.
func (h *WorldHandler) RenderRoom(roomID, viewerUID string) (*RoomView, error) {
	rm, ok := h.world.GetRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("room %q not found", roomID)
	}
	return h.buildRoomView(viewerUID, rm), nil
}

// Move walks the player through an exit. An Engaged combatant is refused
// unless a flee window is open; pursuing creatures follow into the
// destination and re-engage there.
//
// Precondition: uid must be a connected player.
// Postcondition: on success the player occupies the destination room and
// holds no combat state in the old one.
func (h *WorldHandler) Move(uid string, dir world.Direction) (*MoveResult, error) {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return nil, fmt.Errorf("player %q not found", uid)
	}

	dest, err := h.world.Navigate(sess.RoomID, dir)
	if err != nil {
		return nil, err
	}

	leave, err := h.engine.Leave(sess.RoomID, sess, dest.ID)
	if err != nil {
		return nil, err
	}

	oldRoomID, err := h.sessions.MovePlayer(uid, dest.ID)
	if err != nil {
		return nil, fmt.Errorf("moving player: %w", err)
	}

	now := h.now()
	result := &MoveResult{OldRoomID: oldRoomID}
	h.keeper.Touch(dest.ID, now)

	// Populate before rendering so the first visitor sees the room's
	// creatures, not an empty dock.
	h.spawner.PopulateRoom(dest.ID, now)

	for _, p := range leave.Pursuers {
		inst, ok := p.(*entity.Instance)
		if !ok {
			continue
		}
		if err := h.entities.Move(inst.ID, dest.ID); err != nil {
			h.logger.Warn("pursuer move failed",
				zap.String("instance_id", inst.ID),
				zap.Error(err))
			continue
		}
		result.Pursuers = append(result.Pursuers, inst.Name)
		h.notify.PushRoom(dest.ID, fmt.Sprintf("%s storms in after %s.", inst.Name, sess.CharName))
		if err := h.engine.Attack(dest.ID, inst, sess); err != nil {
			h.logger.Warn("pursuer re-engage failed",
				zap.String("instance_id", inst.ID),
				zap.Error(err))
		}
	}

	if enc := h.spawner.RollEncounter(dest.ID, now); enc != nil {
		result.Encounter = enc.Message
		h.notify.PushRoom(dest.ID, enc.Message)
	}

	h.notify.PushRoomExcept(oldRoomID, uid, fmt.Sprintf("%s leaves %s.", sess.CharName, dir))
	h.notify.PushRoomExcept(dest.ID, uid, fmt.Sprintf("%s arrives.", sess.CharName))

	h.savePosition(sess)
	if h.onEnter != nil {
		h.onEnter(dest.ZoneID, dest.ID, uid)
	}
	result.View = h.buildRoomView(uid, dest)
	return result, nil
}

// Pickup takes a floor item by name prefix. Kill loot honors the killer's
// head start before anyone else may grab it.
func (h *WorldHandler) Pickup(uid, itemName string) (string, error) {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return "", fmt.Errorf("player %q not found", uid)
	}
	h.keeper.Touch(sess.RoomID, h.now())
	inst := h.entities.FindInRoom(sess.RoomID, itemName)
	if inst == nil || inst.Kind != entity.KindItem {
		return "", fmt.Errorf("there is no %q here", itemName)
	}
	if !inst.CanPickUp(uid, h.now()) {
		return "", fmt.Errorf("the %s is not yours to take yet", inst.Name)
	}
	if err := h.entities.Remove(inst.ID); err != nil {
		// Lost the race to another taker.
		return "", fmt.Errorf("there is no %q here", itemName)
	}
	h.notify.PushRoomExcept(sess.RoomID, uid, fmt.Sprintf("%s picks up %s.", sess.CharName, inst.Name))
	return inst.Name, nil
}

func (h *WorldHandler) buildRoomView(viewerUID string, rm *world.Room) *RoomView {
	view := &RoomView{
		RoomID:      rm.ID,
		Title:       rm.Title,
		Description: rm.Description,
	}

	ws := h.clk.WorldSeconds()
	view.TimeOfDay = clock.TimeString(ws)
	if h.weather != nil && rm.RegionID != "" {
		if overlay, ok := h.weather.Overlay(rm.RegionID, rm.Exposure, ws); ok {
			view.Weather = overlay
		}
	}

	for _, e := range rm.VisibleExits() {
		view.Exits = append(view.Exits, ExitInfo{
			Direction:  string(e.Direction),
			TargetRoom: e.TargetRoom,
			Locked:     e.Locked,
		})
	}

	viewerName := ""
	if sess, ok := h.sessions.GetPlayer(viewerUID); ok {
		viewerName = sess.CharName
	}
	for _, name := range h.sessions.PlayersInRoom(rm.ID) {
		if name == viewerName {
			continue
		}
		view.Players = append(view.Players, name)
	}

	for _, inst := range h.entities.InstancesInRoom(rm.ID) {
		switch inst.Kind {
		case entity.KindCreature:
			view.Creatures = append(view.Creatures,
				fmt.Sprintf("%s (%s)", inst.Name, inst.HealthDescription()))
		case entity.KindNPC:
			view.NPCs = append(view.NPCs, inst.Name)
		case entity.KindItem:
			view.Items = append(view.Items, inst.Name)
		}
	}

	if h.sched != nil {
		// An NPC swinging in a fight cannot walk off to its next
		// scheduled room; the resolver holds it in place until the
		// fight lets go.
		fighting := func(npcID string) bool {
			if h.engine == nil {
				return false
			}
			_, ok := h.engine.TickerFor(npcID)
			return ok
		}
		for _, npcID := range h.sched.PresentNPCs(rm.ID, ws, fighting) {
			view.NPCs = append(view.NPCs, npcID)
		}
	}

	return view
}

func (h *WorldHandler) savePosition(sess *session.PlayerSession) {
	if h.writer == nil {
		return
	}
	upd := storage.StateUpdate{
		CharacterID: sess.CharacterID,
		Location:    sess.RoomID,
		CurrentHP:   sess.CurrentHP,
	}
	if sess.Weapon != nil {
		upd.WeaponID = sess.Weapon.ID
	}
	h.writer.Enqueue(upd)
}
