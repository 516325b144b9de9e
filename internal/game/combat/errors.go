package combat

import "errors"

// Sentinel errors for the combat intent surface. Handlers translate these
// into user-facing notices; none of them indicates a server fault.
var (
	// ErrInvalidTarget covers missing, dead, and unreachable targets. The
	// action is rejected with no state change.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrSameTarget marks a redundant attack command against the target
	// already being attacked. The ticker is untouched.
	ErrSameTarget = errors.New("already attacking that target")
	// ErrInsufficientStamina rejects a maneuver whose cost cannot be paid.
	// Nothing is substituted in its place.
	ErrInsufficientStamina = errors.New("insufficient stamina")
	// ErrNotInCombat rejects combat-only actions from outside a session.
	ErrNotInCombat = errors.New("not in combat")
	// ErrPinned blocks movement and disengage attempts while pinned.
	ErrPinned = errors.New("pinned in place")
	// ErrEngaged blocks leaving a room while Engaged without an open flee
	// window.
	ErrEngaged = errors.New("engaged in combat")
	// ErrReactionSpent rejects a reaction past the per-round budget.
	ErrReactionSpent = errors.New("no reactions left this round")
	// ErrPrimarySpent rejects a second primary action in the same round.
	ErrPrimarySpent = errors.New("primary action already taken this round")
	// ErrManeuverBlocked rejects a maneuver whose precondition failed.
	ErrManeuverBlocked = errors.New("maneuver conditions not met")
	// ErrUnknownManeuver rejects an unregistered maneuver ID.
	ErrUnknownManeuver = errors.New("unknown maneuver")
	// ErrOutOfRange rejects a melee action from beyond the engaged band.
	ErrOutOfRange = errors.New("target out of range")
)
