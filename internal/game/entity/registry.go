package entity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saltmere/mud/internal/game/gear"
)

// Registry tracks all live entity instances by ID and by room.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance       // instanceID → Instance
	roomSets  map[string]map[string]bool // roomID → set of instanceIDs
}

// NewRegistry creates an empty entity Registry.
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*Instance),
		roomSets:  make(map[string]map[string]bool),
	}
}

// Spawn creates a new creature Instance from tmpl and places it in roomID.
//
// Precondition: tmpl must be non-nil; roomID must be non-empty.
// Postcondition: Returns a new Instance with a unique ID registered in roomID.
func (r *Registry) Spawn(tmpl *CreatureTemplate, roomID string, profile gear.AttackProfile, now time.Time) (*Instance, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("entity.Registry.Spawn: tmpl must not be nil")
	}
	if roomID == "" {
		return nil, fmt.Errorf("entity.Registry.Spawn: roomID must not be empty")
	}

	id := fmt.Sprintf("%s-%s", tmpl.ID, uuid.NewString())
	inst := NewCreature(id, tmpl, roomID, profile, now)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(inst)
	return inst, nil
}

// PlaceItem registers a ground item in roomID.
//
// Precondition: name and roomID must be non-empty.
// Postcondition: Returns the new item Instance registered in roomID.
func (r *Registry) PlaceItem(name, roomID, ownerUID string, ttl time.Duration, now time.Time) (*Instance, error) {
	if name == "" || roomID == "" {
		return nil, fmt.Errorf("entity.Registry.PlaceItem: name and roomID must not be empty")
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	inst := NewItem("item-"+uuid.NewString(), name, roomID, ownerUID, expiresAt, now)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(inst)
	return inst, nil
}

// Add registers an externally constructed instance, such as a scheduled NPC.
//
// Precondition: inst must have a non-empty ID and RoomID.
// Postcondition: Returns an error on duplicate ID.
func (r *Registry) Add(inst *Instance) error {
	if inst == nil || inst.ID == "" || inst.RoomID == "" {
		return fmt.Errorf("entity.Registry.Add: instance needs an ID and a RoomID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst.ID]; ok {
		return fmt.Errorf("entity.Registry.Add: duplicate instance ID %q", inst.ID)
	}
	r.addLocked(inst)
	return nil
}

func (r *Registry) addLocked(inst *Instance) {
	r.instances[inst.ID] = inst
	if r.roomSets[inst.RoomID] == nil {
		r.roomSets[inst.RoomID] = make(map[string]bool)
	}
	r.roomSets[inst.RoomID][inst.ID] = true
}

// Remove deletes an instance by ID.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an error if the instance is not found.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[id]
	if !ok {
		return fmt.Errorf("entity instance %q not found", id)
	}
	r.removeLocked(inst)
	return nil
}

func (r *Registry) removeLocked(inst *Instance) {
	if rs, ok := r.roomSets[inst.RoomID]; ok {
		delete(rs, inst.ID)
		if len(rs) == 0 {
			delete(r.roomSets, inst.RoomID)
		}
	}
	delete(r.instances, inst.ID)
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (inst, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(id string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

// InstancesInRoom returns a snapshot of all live instances in roomID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (r *Registry) InstancesInRoom(roomID string) []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.roomSets[roomID]
	if !ok {
		return []*Instance{}
	}

	out := make([]*Instance, 0, len(ids))
	for id := range ids {
		if inst, ok := r.instances[id]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// Move relocates an instance from its current room to newRoomID.
//
// Precondition: id must identify an existing instance; newRoomID must be non-empty.
// Postcondition: instance.RoomID equals newRoomID; room index is updated accordingly.
func (r *Registry) Move(id, newRoomID string) error {
	if newRoomID == "" {
		return fmt.Errorf("entity.Registry.Move: newRoomID must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[id]
	if !ok {
		return fmt.Errorf("entity.Registry.Move: instance %q not found", id)
	}

	oldRoomID := inst.RoomID
	if rs, ok := r.roomSets[oldRoomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(r.roomSets, oldRoomID)
		}
	}

	inst.RoomID = newRoomID
	if r.roomSets[newRoomID] == nil {
		r.roomSets[newRoomID] = make(map[string]bool)
	}
	r.roomSets[newRoomID][id] = true

	return nil
}

// FindInRoom returns the first instance in roomID whose Name has target as a
// case-insensitive prefix. Returns nil if no match is found.
//
// Precondition: roomID and target must be non-empty for meaningful results.
func (r *Registry) FindInRoom(roomID, target string) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.roomSets[roomID]
	if !ok {
		return nil
	}

	lower := strings.ToLower(target)
	for id := range ids {
		inst, ok := r.instances[id]
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.ToLower(inst.Name), lower) {
			return inst
		}
	}
	return nil
}

// ExpireSweep removes every instance whose expiry window has lapsed and
// returns the removed instances. busy, when non-nil, reprieves instances
// still mid-fight; they go on a later sweep once the fight releases them.
func (r *Registry) ExpireSweep(now time.Time, busy func(id string) bool) []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*Instance
	for _, inst := range r.instances {
		if !inst.Expired(now) {
			continue
		}
		if busy != nil && busy(inst.ID) {
			continue
		}
		removed = append(removed, inst)
	}
	for _, inst := range removed {
		r.removeLocked(inst)
	}
	return removed
}

// Count returns the number of registered instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}
