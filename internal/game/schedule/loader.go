package schedule

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type yamlBinding struct {
	Room  string `yaml:"room"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type yamlSchedule struct {
	NPCID    string        `yaml:"npc_id"`
	Bindings []yamlBinding `yaml:"bindings"`
}

// LoadSchedules reads all *.yaml files from dir, one NPC schedule per file,
// and returns the parsed bindings keyed by NPC ID.
//
// Postcondition: every returned binding has a valid HH:MM range and a
// non-empty room.
func LoadSchedules(dir string) (map[string][]Binding, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadSchedules: cannot read directory %q: %w", dir, err)
	}

	schedules := make(map[string][]Binding)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadSchedules: cannot read file %q: %w", path, err)
		}
		var ys yamlSchedule
		if err := yaml.Unmarshal(data, &ys); err != nil {
			return nil, fmt.Errorf("LoadSchedules: cannot parse file %q: %w", path, err)
		}
		if ys.NPCID == "" {
			return nil, fmt.Errorf("LoadSchedules: %q is missing npc_id", path)
		}
		if _, dup := schedules[ys.NPCID]; dup {
			return nil, fmt.Errorf("LoadSchedules: duplicate schedule for %q in %q", ys.NPCID, path)
		}

		var bindings []Binding
		for i, yb := range ys.Bindings {
			if yb.Room == "" {
				return nil, fmt.Errorf("LoadSchedules: %q binding[%d] is missing a room", path, i)
			}
			start, err := ParseClock(yb.Start)
			if err != nil {
				return nil, fmt.Errorf("LoadSchedules: %q binding[%d]: %w", path, i, err)
			}
			end, err := ParseClock(yb.End)
			if err != nil {
				return nil, fmt.Errorf("LoadSchedules: %q binding[%d]: %w", path, i, err)
			}
			bindings = append(bindings, Binding{Start: start, End: end, RoomID: yb.Room})
		}
		schedules[ys.NPCID] = bindings
	}
	return schedules, nil
}
