package weather

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/saltmere/mud/internal/game/dice"
)

// Tables holds the content-supplied weather configuration: the weighted
// transition table, per-exposure overlay lines, and change announcements.
// Tables are immutable after load.
type Tables struct {
	Transitions    map[string]map[string]int    `yaml:"transitions"`
	Overlays       map[string]map[string]string `yaml:"overlays"`
	ChangeMessages map[string]string            `yaml:"change_messages"`
}

// Validate checks the transition table's invariants: every weather type has
// at least one positive-weight outgoing edge, and every edge target is
// itself a known type.
//
// Postcondition: Returns nil iff Next can never dead-end.
func (t Tables) Validate() error {
	if len(t.Transitions) == 0 {
		return fmt.Errorf("weather: transitions must not be empty")
	}
	for from, row := range t.Transitions {
		positive := false
		for to, weight := range row {
			if weight < 0 {
				return fmt.Errorf("weather: transition %s→%s has negative weight %d", from, to, weight)
			}
			if weight > 0 {
				positive = true
			}
			if _, ok := t.Transitions[to]; !ok {
				return fmt.Errorf("weather: transition %s→%s targets unknown type", from, to)
			}
		}
		if !positive {
			return fmt.Errorf("weather: type %q has no positive-weight transition", from)
		}
	}
	return nil
}

// Next rolls the next weather type from current's transition row.
// An unknown current type falls back to clear.
//
// Precondition: t must have passed Validate; src must be non-nil.
func (t Tables) Next(current string, src dice.Source) string {
	row, ok := t.Transitions[current]
	if !ok || len(row) == 0 {
		return "clear"
	}

	// Iterate in sorted key order so a seeded source is deterministic.
	types := make([]string, 0, len(row))
	for typ := range row {
		types = append(types, typ)
	}
	sort.Strings(types)

	weights := make([]int, len(types))
	for i, typ := range types {
		weights[i] = row[typ]
	}

	idx := dice.WeightedPick(src, weights)
	if idx < 0 {
		return "clear"
	}
	return types[idx]
}

// Overlay returns the overlay line for a weather type and exposure, falling
// back to the outdoor line when the exposure has no specific entry.
func (t Tables) Overlay(weatherType string, exposure Exposure) (string, bool) {
	row, ok := t.Overlays[weatherType]
	if !ok {
		return "", false
	}
	if line, ok := row[string(exposure)]; ok && line != "" {
		return line, true
	}
	if line, ok := row[string(ExposureOutdoor)]; ok && line != "" {
		return line, true
	}
	return "", false
}

// ChangeMessage returns the announcement broadcast when weather shifts to
// weatherType.
func (t Tables) ChangeMessage(weatherType string) string {
	if msg, ok := t.ChangeMessages[weatherType]; ok {
		return msg
	}
	return "The weather changes."
}

// LoadTables reads weather tables from a YAML file, filling any missing
// section from the defaults.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns validated Tables or an error.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("weather: reading %q: %w", path, err)
	}
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("weather: parsing %q: %w", path, err)
	}
	if t.Transitions == nil {
		t.Transitions = DefaultTables().Transitions
	}
	if t.Overlays == nil {
		t.Overlays = DefaultTables().Overlays
	}
	if t.ChangeMessages == nil {
		t.ChangeMessages = DefaultTables().ChangeMessages
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// DefaultTables returns the built-in coastal weather set used when no
// content file is supplied.
func DefaultTables() Tables {
	return Tables{
		Transitions: map[string]map[string]int{
			"clear":     {"clear": 50, "fog": 30, "wind": 20},
			"fog":       {"fog": 40, "clear": 40, "squall": 20},
			"wind":      {"wind": 50, "clear": 30, "squall": 20},
			"squall":    {"wind": 50, "clear": 50},
			"cold_snap": {"cold_snap": 40, "clear": 60},
			"salt_rain": {"salt_rain": 50, "clear": 50},
		},
		Overlays: map[string]map[string]string{
			"clear": {
				"outdoor":   "The air is still and clear.",
				"sheltered": "The sky is clear beyond shelter.",
				"coastal":   "Clear skies over the water.",
			},
			"fog": {
				"outdoor":   "A cold fog crawls through, muffling sound and swallowing distant shapes.",
				"sheltered": "Fog drifts past, dimming the world beyond.",
				"coastal":   "Sea fog rolls in, thick and clammy.",
			},
			"wind": {
				"outdoor":   "The wind blows steadily, tugging at clothes and foliage.",
				"sheltered": "Wind whistles past your shelter.",
				"coastal":   "Wind whips off the water, sharp and salt-tanged.",
			},
			"squall": {
				"outdoor":   "A squall drives rain and wind; visibility drops.",
				"sheltered": "A squall batters the world outside.",
				"coastal":   "A squall whips the coast; spray and rain sting.",
			},
			"cold_snap": {
				"outdoor":   "A cold snap bites; breath fogs and fingers numb.",
				"sheltered": "Cold seeps in despite shelter.",
				"coastal":   "Bitter wind off the water cuts through.",
			},
			"salt_rain": {
				"outdoor":   "Salt rain falls, stinging skin and metal.",
				"sheltered": "Salt rain drums beyond shelter.",
				"coastal":   "Salt rain and spray lash the coast.",
			},
		},
		ChangeMessages: map[string]string{
			"clear":     "The weather clears.",
			"fog":       "Fog rolls in, thickening the air.",
			"wind":      "The wind rises.",
			"squall":    "A squall sweeps in.",
			"cold_snap": "A cold snap descends.",
			"salt_rain": "Salt rain begins to fall.",
		},
	}
}
