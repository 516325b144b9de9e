package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saltmere/mud/internal/game/weather"
)

// yamlZoneFile is the top-level YAML structure for zone files.
type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

// yamlZone is the YAML representation of a zone.
type yamlZone struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name"`
	Description    string     `yaml:"description"`
	StartRoom      string     `yaml:"start_room"`
	Region         string     `yaml:"region"`
	EncounterTable string     `yaml:"encounter_table"`
	Rooms          []yamlRoom `yaml:"rooms"`
}

// yamlRoom is the YAML representation of a room.
type yamlRoom struct {
	ID             string      `yaml:"id"`
	Title          string      `yaml:"title"`
	Description    string      `yaml:"description"`
	Exits          []yamlExit  `yaml:"exits"`
	Exposure       string      `yaml:"exposure"`
	Region         string      `yaml:"region"`
	NoPursuit      bool        `yaml:"no_pursuit"`
	Tags           []string    `yaml:"tags"`
	Spawns         []yamlSpawn `yaml:"spawns"`
	EncounterTable string      `yaml:"encounter_table"`
}

// yamlExit is the YAML representation of an exit.
type yamlExit struct {
	Direction string `yaml:"direction"`
	Target    string `yaml:"target"`
	Locked    bool   `yaml:"locked"`
	Hidden    bool   `yaml:"hidden"`
}

// yamlSpawn is the YAML representation of a room spawn entry.
type yamlSpawn struct {
	Template        string `yaml:"template"`
	Count           int    `yaml:"count"`
	CooldownSeconds int    `yaml:"cooldown_seconds"`
}

// LoadZoneFromFile reads and validates a single zone YAML file.
//
// Precondition: path must point to a valid YAML zone file.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %s: %w", path, err)
	}
	return LoadZoneFromBytes(data)
}

// LoadZoneFromBytes parses and validates a zone from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the zone schema.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromBytes(data []byte) (*Zone, error) {
	var file yamlZoneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}

	zone := convertYAMLZone(file.Zone)
	if err := zone.Validate(); err != nil {
		return nil, fmt.Errorf("validating zone: %w", err)
	}

	return zone, nil
}

// LoadZonesFromDir loads all YAML files in a directory as zones.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated zones or the first error encountered.
func LoadZonesFromDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading zone directory %s: %w", dir, err)
	}

	var zones []*Zone
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		zone, err := LoadZoneFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading zone from %s: %w", name, err)
		}
		zones = append(zones, zone)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", dir)
	}

	return zones, nil
}

// convertYAMLZone converts the parsed YAML structures into domain types.
// Room-level region and encounter table fall back to the zone's values;
// missing exposure defaults to outdoor.
func convertYAMLZone(yz yamlZone) *Zone {
	zone := &Zone{
		ID:             yz.ID,
		Name:           yz.Name,
		Description:    yz.Description,
		StartRoom:      yz.StartRoom,
		RegionID:       yz.Region,
		EncounterTable: yz.EncounterTable,
		Rooms:          make(map[string]*Room, len(yz.Rooms)),
	}

	for _, yr := range yz.Rooms {
		exposure := weather.Exposure(yr.Exposure)
		if exposure == "" {
			exposure = weather.ExposureOutdoor
		}
		region := yr.Region
		if region == "" {
			region = yz.Region
		}
		table := yr.EncounterTable
		if table == "" {
			table = yz.EncounterTable
		}
		room := &Room{
			ID:             yr.ID,
			ZoneID:         yz.ID,
			Title:          yr.Title,
			Description:    strings.TrimSpace(yr.Description),
			Exposure:       exposure,
			RegionID:       region,
			NoPursuit:      yr.NoPursuit,
			Tags:           yr.Tags,
			EncounterTable: table,
		}
		for _, ye := range yr.Exits {
			room.Exits = append(room.Exits, Exit{
				Direction:  Direction(ye.Direction),
				TargetRoom: ye.Target,
				Locked:     ye.Locked,
				Hidden:     ye.Hidden,
			})
		}
		for _, ys := range yr.Spawns {
			room.Spawns = append(room.Spawns, RoomSpawnConfig{
				Template:        ys.Template,
				Count:           ys.Count,
				CooldownSeconds: ys.CooldownSeconds,
			})
		}
		zone.Rooms[room.ID] = room
	}

	return zone
}
