// Package gameserver exposes the intent surface of the game: the handlers a
// transport frontend calls to act on behalf of a player, the room renderer,
// and the background tick loops that keep the world moving.
package gameserver

import (
	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/session"
)

// Notifier routes game events to player sessions through their bridge
// entities. A full buffer drops the line for that player only.
type Notifier struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewNotifier creates a Notifier.
//
// Precondition: sessMgr must be non-nil; logger may be nil for silence.
func NewNotifier(sessMgr *session.Manager, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sessions: sessMgr, logger: logger}
}

// Sink adapts the notifier to the combat engine's event sink. Events
// addressed to a combatant reach only that player; creature-addressed
// events are dropped; unaddressed events go to the whole room.
func (n *Notifier) Sink() combat.EventSink {
	return func(ev combat.Event) {
		if ev.CombatantID != "" {
			n.PushPlayer(ev.CombatantID, ev.Line)
			return
		}
		n.PushRoom(ev.RoomID, ev.Line)
	}
}

// PushPlayer delivers a line to a single player. Unknown UIDs are ignored
// so creature combatant IDs can flow through unchecked.
func (n *Notifier) PushPlayer(uid, line string) {
	sess, ok := n.sessions.GetPlayer(uid)
	if !ok || sess.Entity == nil {
		return
	}
	if err := sess.Entity.Push([]byte(line)); err != nil {
		n.logger.Debug("event dropped",
			zap.String("uid", uid),
			zap.Error(err))
	}
}

// PushRoom delivers a line to every player in roomID.
func (n *Notifier) PushRoom(roomID, line string) {
	for _, uid := range n.sessions.PlayerUIDsInRoom(roomID) {
		n.PushPlayer(uid, line)
	}
}

// PushRoomExcept delivers a line to every player in roomID except exceptUID.
// Used for third-person notices where the actor gets their own line.
func (n *Notifier) PushRoomExcept(roomID, exceptUID, line string) {
	for _, uid := range n.sessions.PlayerUIDsInRoom(roomID) {
		if uid == exceptUID {
			continue
		}
		n.PushPlayer(uid, line)
	}
}
