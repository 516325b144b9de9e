package gameserver

import (
	"github.com/saltmere/mud/internal/game/session"
	"github.com/saltmere/mud/internal/game/world"
)

// Surface is the boundary a transport frontend drives: every player intent
// and the read-only room renderer, behind one value. The frontend owns
// framing and authentication; it calls these methods with an authenticated
// player UID.
type Surface struct {
	combat   *CombatHandler
	world    *WorldHandler
	sessions *session.Manager
}

// NewSurface bundles the handlers into the frontend-facing surface.
//
// Precondition: all arguments must be non-nil.
func NewSurface(combatH *CombatHandler, worldH *WorldHandler, sessMgr *session.Manager) *Surface {
	return &Surface{combat: combatH, world: worldH, sessions: sessMgr}
}

// Operations lists the intent names this surface exposes, for startup
// logging and frontend capability negotiation.
func (s *Surface) Operations() []string {
	return []string{
		"attack", "use_maneuver", "disengage", "join_combat",
		"move", "look", "pickup", "disconnect",
	}
}

// Attack opens or redirects the player's attack on a named target.
func (s *Surface) Attack(uid, target string) error {
	return s.combat.Attack(uid, target)
}

// UseManeuver spends stamina on a named maneuver, optionally targeted.
func (s *Surface) UseManeuver(uid, maneuverID, target string) error {
	return s.combat.UseManeuver(uid, maneuverID, target)
}

// Disengage attempts to break away from melee.
func (s *Surface) Disengage(uid string) (bool, error) {
	return s.combat.Disengage(uid)
}

// JoinCombat enters an ongoing fight, attacking target when given.
func (s *Surface) JoinCombat(uid, target string) error {
	return s.combat.JoinCombat(uid, target)
}

// Move walks the player through an exit.
func (s *Surface) Move(uid string, dir world.Direction) (*MoveResult, error) {
	return s.world.Move(uid, dir)
}

// Look renders the player's current room.
func (s *Surface) Look(uid string) (*RoomView, error) {
	return s.world.Look(uid)
}

// RenderRoom renders any room from a viewer's perspective.
func (s *Surface) RenderRoom(roomID, viewerUID string) (*RoomView, error) {
	return s.world.RenderRoom(roomID, viewerUID)
}

// Pickup takes a floor item by name.
func (s *Surface) Pickup(uid, item string) (string, error) {
	return s.world.Pickup(uid, item)
}

// Disconnect parks the player's combat state and starts the reconnect
// grace timer. Frontends call this when a connection drops.
func (s *Surface) Disconnect(uid string) error {
	return s.combat.Disconnect(uid)
}

// Sessions exposes the session manager for the frontend's connect,
// reconnect, and disconnect bookkeeping.
func (s *Surface) Sessions() *session.Manager {
	return s.sessions
}
