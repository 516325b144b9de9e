// Package world provides the static game world model: zones, rooms, exits,
// and the environmental attributes the runtime systems consume.
package world

import (
	"fmt"

	"github.com/saltmere/mud/internal/game/weather"
)

// Direction represents a compass direction or named exit.
type Direction string

// Standard compass directions and vertical movements.
const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
	Up        Direction = "up"
	Down      Direction = "down"
)

// StandardDirections contains all standard compass and vertical directions.
var StandardDirections = []Direction{
	North, South, East, West,
	Northeast, Northwest, Southeast, Southwest,
	Up, Down,
}

// IsStandard reports whether d is one of the ten standard directions.
func (d Direction) IsStandard() bool {
	for _, sd := range StandardDirections {
		if d == sd {
			return true
		}
	}
	return false
}

// Opposite returns the opposite of a standard direction.
// For custom directions, it returns an empty string.
//
// Precondition: d should be a standard direction for a meaningful result.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	case Up:
		return Down
	case Down:
		return Up
	default:
		return ""
	}
}

// Exit represents a passage from one room to another.
type Exit struct {
	// Direction is the compass direction or named exit (e.g., "gangway").
	Direction Direction
	// TargetRoom is the ID of the destination room.
	TargetRoom string
	// Locked indicates the exit requires a key or condition to pass.
	Locked bool
	// Hidden indicates the exit is not visible by default.
	Hidden bool
}

// RoomSpawnConfig defines a creature template eligible to spawn in a room.
type RoomSpawnConfig struct {
	// Template is the creature template ID.
	Template string
	// Count is the maximum number of live instances of this template here.
	Count int
	// CooldownSeconds overrides the template's spawn cooldown for this room.
	// Zero means use the template's default.
	CooldownSeconds int
}

// Room represents a location in the game world.
type Room struct {
	// ID uniquely identifies this room within the zone.
	ID string
	// ZoneID identifies the zone this room belongs to.
	ZoneID string
	// Title is the short display name of the room.
	Title string
	// Description is the multi-line room description shown to players.
	Description string
	// Exits lists all passages leading out of this room.
	Exits []Exit
	// Exposure classifies the room for weather overlays.
	Exposure weather.Exposure
	// RegionID selects the weather region; empty inherits the zone's.
	RegionID string
	// NoPursuit marks the room a sanctuary that creatures never chase into.
	NoPursuit bool
	// Tags holds combat-relevant environment tags (cramped, slick, dark).
	Tags []string
	// Spawns lists creature templates that populate this room.
	Spawns []RoomSpawnConfig
	// EncounterTable selects the random encounter table rolled in this
	// room; empty inherits the zone's.
	EncounterTable string
}

// ExitForDirection returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitForDirection(dir Direction) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// VisibleExits returns all non-hidden exits from this room.
//
// Postcondition: Returns a slice of exits where Hidden is false.
func (r *Room) VisibleExits() []Exit {
	var visible []Exit
	for _, e := range r.Exits {
		if !e.Hidden {
			visible = append(visible, e)
		}
	}
	return visible
}

// HasTag reports whether the room carries the named environment tag.
func (r *Room) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Zone groups related rooms into a themed area.
type Zone struct {
	// ID uniquely identifies this zone.
	ID string
	// Name is the display name of the zone.
	Name string
	// Description summarizes the zone's theme.
	Description string
	// StartRoom is the ID of the default entry room.
	StartRoom string
	// RegionID is the default weather region for rooms in this zone.
	RegionID string
	// EncounterTable is the default random encounter table for this zone.
	EncounterTable string
	// Rooms contains all rooms in this zone, keyed by room ID.
	Rooms map[string]*Room
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if z.StartRoom == "" {
		return fmt.Errorf("zone %q: start_room must not be empty", z.ID)
	}
	if len(z.Rooms) == 0 {
		return fmt.Errorf("zone %q: must contain at least one room", z.ID)
	}
	if _, ok := z.Rooms[z.StartRoom]; !ok {
		return fmt.Errorf("zone %q: start_room %q not found in rooms", z.ID, z.StartRoom)
	}
	for id, room := range z.Rooms {
		if room.ID != id {
			return fmt.Errorf("zone %q: room key %q does not match room ID %q", z.ID, id, room.ID)
		}
		if room.Title == "" {
			return fmt.Errorf("zone %q: room %q: title must not be empty", z.ID, id)
		}
		if room.Description == "" {
			return fmt.Errorf("zone %q: room %q: description must not be empty", z.ID, id)
		}
		if !room.Exposure.Valid() {
			return fmt.Errorf("zone %q: room %q: unknown exposure %q", z.ID, id, room.Exposure)
		}
		for _, exit := range room.Exits {
			if exit.TargetRoom == "" {
				return fmt.Errorf("zone %q: room %q: exit %q has empty target", z.ID, id, exit.Direction)
			}
		}
		for _, sp := range room.Spawns {
			if sp.Template == "" {
				return fmt.Errorf("zone %q: room %q: spawn with empty template", z.ID, id)
			}
			if sp.Count <= 0 {
				return fmt.Errorf("zone %q: room %q: spawn %q count must be > 0", z.ID, id, sp.Template)
			}
		}
	}
	return nil
}
