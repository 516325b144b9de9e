package gameserver

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/entity"
	"github.com/saltmere/mud/internal/game/session"
	"github.com/saltmere/mud/internal/game/spawn"
	"github.com/saltmere/mud/internal/game/world"
	"github.com/saltmere/mud/internal/storage"
)

// CombatHandler exposes the combat intents: attack, maneuver, disengage,
// and joining a fight already underway. It owns the death side effects the
// engine reports: loot rolls for creatures, respawn for players.
type CombatHandler struct {
	engine   *combat.Engine
	sessions *session.Manager
	entities *entity.Registry
	spawner  *spawn.Engine
	worldMgr *world.Manager
	writer   *storage.DeferredWriter
	notify   *Notifier
	logger   *zap.Logger
	now      func() time.Time

	// onDeath fires after a creature's death is fully resolved. Zone
	// scripts hang their on_death hooks off this.
	onDeath func(zoneID, roomID, templateID, killerID string)
}

// SetCreatureDeathHook registers a callback invoked after creature deaths.
// Call before the handler starts serving intents.
func (h *CombatHandler) SetCreatureDeathHook(fn func(zoneID, roomID, templateID, killerID string)) {
	h.onDeath = fn
}

// NewCombatHandler creates a CombatHandler and registers itself as the
// engine's death handler.
//
// Precondition: engine, sessMgr, entities, spawner, worldMgr, and notify
// must be non-nil. writer may be nil when persistence is disabled.
func NewCombatHandler(
	engine *combat.Engine,
	sessMgr *session.Manager,
	entities *entity.Registry,
	spawner *spawn.Engine,
	worldMgr *world.Manager,
	writer *storage.DeferredWriter,
	notify *Notifier,
	logger *zap.Logger,
) *CombatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &CombatHandler{
		engine:   engine,
		sessions: sessMgr,
		entities: entities,
		spawner:  spawner,
		worldMgr: worldMgr,
		writer:   writer,
		notify:   notify,
		logger:   logger,
		now:      time.Now,
	}
	engine.SetSink(notify.Sink())
	engine.SetDeathHandler(h.handleDeath)
	return h
}

// Attack resolves target by name in the player's room and opens or redirects
// their attack ticker against it.
//
// Precondition: uid must be a connected player.
// Postcondition: on success the player is Engaged on the resolved target.
func (h *CombatHandler) Attack(uid, targetName string) error {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return fmt.Errorf("player %q not found", uid)
	}
	target, err := h.resolveTarget(sess, targetName)
	if err != nil {
		return err
	}
	if err := h.engine.Attack(sess.RoomID, sess, target); err != nil {
		return err
	}
	h.notify.PushPlayer(uid, fmt.Sprintf("You square up against %s.", target.DisplayName()))
	h.notify.PushRoomExcept(sess.RoomID, uid,
		fmt.Sprintf("%s squares up against %s.", sess.CharName, target.DisplayName()))
	return nil
}

// UseManeuver spends stamina and the round's reaction on a named maneuver.
// targetName is empty for self-targeted maneuvers.
func (h *CombatHandler) UseManeuver(uid, maneuverID, targetName string) error {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return fmt.Errorf("player %q not found", uid)
	}
	var target combat.Combatant
	if targetName != "" {
		t, err := h.resolveTarget(sess, targetName)
		if err != nil {
			return err
		}
		target = t
	}
	return h.engine.UseManeuver(sess.RoomID, sess, maneuverID, target)
}

// Disengage attempts to break away from melee. Success opens the flee
// window; failure costs the next attack's timing.
func (h *CombatHandler) Disengage(uid string) (bool, error) {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return false, fmt.Errorf("player %q not found", uid)
	}
	return h.engine.Disengage(sess.RoomID, sess)
}

// JoinCombat enters the player into the room's ongoing combat session as a
// distant observer, and immediately attacks targetName when one is given.
func (h *CombatHandler) JoinCombat(uid, targetName string) error {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return fmt.Errorf("player %q not found", uid)
	}
	if _, inCombat := h.engine.SessionFor(sess.RoomID); !inCombat {
		return combat.ErrNotInCombat
	}
	if err := h.engine.Join(sess.RoomID, sess); err != nil {
		return err
	}
	if targetName == "" {
		return nil
	}
	return h.Attack(uid, targetName)
}

// Disconnect parks the player for the reconnect grace period: their attack
// ticker stops, any combat state drops to observing, and the session is
// stamped so the grace sweep can cull it later.
func (h *CombatHandler) Disconnect(uid string) error {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return fmt.Errorf("player %q not found", uid)
	}
	h.engine.Disconnect(sess.RoomID, uid)
	return h.sessions.MarkDisconnected(uid, h.now())
}

// InCombat reports whether the player currently holds combat state.
func (h *CombatHandler) InCombat(uid string) bool {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return false
	}
	s, ok := h.engine.SessionFor(sess.RoomID)
	if !ok {
		return false
	}
	_, present := s.StateOf(uid)
	return present
}

// resolveTarget finds a living combatant by name prefix in the player's
// room. Creatures are checked before players so "rat" never picks a
// character named Ratliffe. Stale or dead references surface as
// invalid-target.
func (h *CombatHandler) resolveTarget(sess *session.PlayerSession, name string) (combat.Combatant, error) {
	if name == "" {
		return nil, combat.ErrInvalidTarget
	}
	if inst := h.entities.FindInRoom(sess.RoomID, name); inst != nil && inst.Kind == entity.KindCreature {
		if inst.IsDead() {
			return nil, combat.ErrInvalidTarget
		}
		return inst, nil
	}
	if other, ok := h.sessions.GetPlayerByCharName(name); ok && other.RoomID == sess.RoomID {
		return other, nil
	}
	// Prefix match against players as a fallback.
	for _, charName := range h.sessions.PlayersInRoom(sess.RoomID) {
		if !strings.HasPrefix(strings.ToLower(charName), strings.ToLower(name)) {
			continue
		}
		if other, ok := h.sessions.GetPlayerByCharName(charName); ok && other.UID != sess.UID {
			return other, nil
		}
	}
	return nil, combat.ErrInvalidTarget
}

// handleDeath runs after the engine reports a kill, outside any room lock.
// Creatures roll loot and despawn; players respawn at the world start room.
func (h *CombatHandler) handleDeath(victim combat.Combatant, killerID string) {
	now := h.now()
	if victim.IsPlayer() {
		h.respawnPlayer(victim.CombatID())
		return
	}

	inst, ok := h.entities.Get(victim.CombatID())
	if !ok {
		return
	}
	roomID := inst.RoomID

	killerUID := ""
	if killer, ok := h.sessions.GetPlayer(killerID); ok {
		killerUID = killer.UID
	}

	result, err := h.spawner.HandleDeath(inst, killerUID, now)
	if err != nil {
		h.logger.Error("death handling failed",
			zap.String("instance_id", inst.ID),
			zap.Error(err))
		return
	}
	for _, item := range result.Items {
		h.notify.PushRoom(roomID, fmt.Sprintf("%s drops %s.", inst.Name, item.Name))
	}
	if result.Currency > 0 {
		h.notify.PushRoom(roomID, fmt.Sprintf("A few coins scatter from %s.", inst.Name))
	}
	if h.onDeath != nil {
		zoneID := ""
		if rm, ok := h.worldMgr.GetRoom(roomID); ok {
			zoneID = rm.ZoneID
		}
		h.onDeath(zoneID, roomID, inst.TemplateID, killerUID)
	}
}

// respawnPlayer returns a downed character to the world start room with
// half their health. The position and hit point change persist immediately
// so a crash cannot strand a dead character in the field.
func (h *CombatHandler) respawnPlayer(uid string) {
	sess, ok := h.sessions.GetPlayer(uid)
	if !ok {
		return
	}
	start := h.worldMgr.StartRoom()
	if start == nil {
		h.logger.Error("no start room for respawn", zap.String("uid", uid))
		return
	}

	oldRoom := sess.RoomID
	if _, err := h.sessions.MovePlayer(uid, start.ID); err != nil {
		h.logger.Error("respawn move failed", zap.String("uid", uid), zap.Error(err))
		return
	}
	sess.CurrentHP = sess.MaxHP / 2
	if sess.CurrentHP < 1 {
		sess.CurrentHP = 1
	}

	h.notify.PushRoomExcept(oldRoom, uid, fmt.Sprintf("%s collapses.", sess.CharName))
	h.notify.PushPlayer(uid, "Everything goes dark. You wake on cold flagstones, aching but alive.")
	h.savePlayer(sess)
}

func (h *CombatHandler) savePlayer(sess *session.PlayerSession) {
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
