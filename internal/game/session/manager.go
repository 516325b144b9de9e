package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/saltmere/mud/internal/game/gear"
)

// PlayerSession tracks a connected player's state.
type PlayerSession struct {
	// UID is the unique player identifier (character ID as string).
	UID string
	// Username is the account username (for logging).
	Username string
	// CharName is the character display name shown in-game.
	CharName string
	// CharacterID is the database ID of the character for persistence.
	CharacterID int64
	// RoomID is the current room the player occupies.
	RoomID string
	// CurrentHP and MaxHP are the character's hit points.
	CurrentHP int
	MaxHP     int
	// CurrentStamina fuels combat maneuvers.
	CurrentStamina int
	MaxStamina     int
	// Accuracy and DodgeSkill are the character's combat skills.
	Accuracy   int
	DodgeSkill int
	// Weapon is the equipped weapon definition; nil means unarmed.
	Weapon *gear.WeaponDef
	// Armor holds the worn armor pieces, outermost first.
	Armor []*gear.ArmorPiece
	// Role is the account privilege level (player, editor, admin).
	Role string
	// DisconnectedAt is when the player's link dropped; zero while the
	// player is connected. Combat removal waits out the grace period.
	DisconnectedAt time.Time
	// Entity is the bridge entity for pushing events to the player.
	Entity *BridgeEntity
}

// Manager tracks all active player sessions and room occupancy.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	players  map[string]*PlayerSession  // uid → session
	roomSets map[string]map[string]bool // roomID → set of UIDs
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		players:  make(map[string]*PlayerSession),
		roomSets: make(map[string]map[string]bool),
	}
}

// PlayerConfig carries the character sheet fields for AddPlayer.
type PlayerConfig struct {
	Username    string
	CharName    string
	CharacterID int64
	RoomID      string
	CurrentHP   int
	MaxHP       int
	MaxStamina  int
	Accuracy    int
	DodgeSkill  int
	Role        string
}

// AddPlayer registers a new player session in the given room.
//
// Precondition: uid, cfg.CharName, and cfg.RoomID must be non-empty.
// Postcondition: Returns the created PlayerSession, or an error if the UID
// is already registered.
func (m *Manager) AddPlayer(uid string, cfg PlayerConfig) (*PlayerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[uid]; exists {
		return nil, fmt.Errorf("player %q already connected", uid)
	}

	sess := &PlayerSession{
		UID:            uid,
		Username:       cfg.Username,
		CharName:       cfg.CharName,
		CharacterID:    cfg.CharacterID,
		RoomID:         cfg.RoomID,
		CurrentHP:      cfg.CurrentHP,
		MaxHP:          cfg.MaxHP,
		CurrentStamina: cfg.MaxStamina,
		MaxStamina:     cfg.MaxStamina,
		Accuracy:       cfg.Accuracy,
		DodgeSkill:     cfg.DodgeSkill,
		Role:           cfg.Role,
		Entity:         NewBridgeEntity(uid, 64),
	}

	m.players[uid] = sess
	if m.roomSets[cfg.RoomID] == nil {
		m.roomSets[cfg.RoomID] = make(map[string]bool)
	}
	m.roomSets[cfg.RoomID][uid] = true

	return sess, nil
}

// RemovePlayer removes a player session and cleans up room occupancy.
//
// Precondition: uid must be non-empty.
// Postcondition: The player is removed from all tracking. Returns an error if not found.
func (m *Manager) RemovePlayer(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[uid]
	if !exists {
		return fmt.Errorf("player %q not found", uid)
	}

	if rs, ok := m.roomSets[sess.RoomID]; ok {
		delete(rs, uid)
		if len(rs) == 0 {
			delete(m.roomSets, sess.RoomID)
		}
	}

	_ = sess.Entity.Close()

	delete(m.players, uid)
	return nil
}

// MovePlayer moves a player from their current room to a new room.
//
// Precondition: uid and newRoomID must be non-empty.
// Postcondition: Returns the old room ID, or an error if the player is not found.
func (m *Manager) MovePlayer(uid, newRoomID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[uid]
	if !exists {
		return "", fmt.Errorf("player %q not found", uid)
	}

	oldRoomID := sess.RoomID

	if rs, ok := m.roomSets[oldRoomID]; ok {
		delete(rs, uid)
		if len(rs) == 0 {
			delete(m.roomSets, oldRoomID)
		}
	}

	sess.RoomID = newRoomID
	if m.roomSets[newRoomID] == nil {
		m.roomSets[newRoomID] = make(map[string]bool)
	}
	m.roomSets[newRoomID][uid] = true

	return oldRoomID, nil
}

// MarkDisconnected records a dropped link without removing the session. The
// session survives until the grace period lapses or the player reconnects.
//
// Postcondition: Returns an error if the player is not found.
func (m *Manager) MarkDisconnected(uid string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[uid]
	if !exists {
		return fmt.Errorf("player %q not found", uid)
	}
	sess.DisconnectedAt = now
	return nil
}

// Reconnect clears the disconnect mark and installs a fresh bridge entity
// for the new link.
//
// Postcondition: Returns the session with an open entity, or an error if not found.
func (m *Manager) Reconnect(uid string) (*PlayerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[uid]
	if !exists {
		return nil, fmt.Errorf("player %q not found", uid)
	}
	sess.DisconnectedAt = time.Time{}
	_ = sess.Entity.Close()
	sess.Entity = NewBridgeEntity(uid, 64)
	return sess, nil
}

// DisconnectedBefore returns the UIDs of players whose links dropped at or
// before cutoff, for the grace period sweep.
func (m *Manager) DisconnectedBefore(cutoff time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for uid, sess := range m.players {
		if !sess.DisconnectedAt.IsZero() && !sess.DisconnectedAt.After(cutoff) {
			out = append(out, uid)
		}
	}
	return out
}

// PlayersInRoom returns the character display names of all players in the given room.
//
// Postcondition: Returns a slice of character names (may be empty).
func (m *Manager) PlayersInRoom(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uids, ok := m.roomSets[roomID]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(uids))
	for uid := range uids {
		if sess, ok := m.players[uid]; ok {
			names = append(names, sess.CharName)
		}
	}
	return names
}

// PlayerUIDsInRoom returns the UIDs of all players in the given room.
//
// Postcondition: Returns a slice of UIDs (may be empty).
func (m *Manager) PlayerUIDsInRoom(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uids, ok := m.roomSets[roomID]
	if !ok {
		return nil
	}

	result := make([]string, 0, len(uids))
	for uid := range uids {
		result = append(result, uid)
	}
	return result
}

// GetPlayer returns the session for the given UID.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) GetPlayer(uid string) (*PlayerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.players[uid]
	return sess, ok
}

// GetPlayerByCharName returns the session for the player with the given character name.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) GetPlayerByCharName(charName string) (*PlayerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sess := range m.players {
		if sess.CharName == charName {
			return sess, true
		}
	}
	return nil, false
}

// PlayerCount returns the total number of connected players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}
