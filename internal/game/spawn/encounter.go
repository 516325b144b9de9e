package spawn

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/saltmere/mud/internal/game/dice"
)

// EncounterEntry is one band of an encounter table. A percentile roll lands
// in the band whose RollMax is the lowest value at or above the roll.
type EncounterEntry struct {
	// RollMax is the inclusive upper bound of this band on a d100.
	RollMax int `yaml:"roll_max"`
	// Composition maps creature template ID to how many spawn.
	Composition map[string]int `yaml:"composition"`
	// Message is announced to the room when the band fires. Empty
	// compositions with a message make ambient "nothing happens" bands.
	Message string `yaml:"message"`
}

// EncounterTable is a percentile table of possible random encounters. Rolls
// above the last band's RollMax mean no encounter.
type EncounterTable struct {
	ID      string           `yaml:"id"`
	Entries []EncounterEntry `yaml:"entries"`
	// CooldownSeconds is the minimum real-time gap between encounter rolls
	// that fire in one room.
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

// Validate checks that the encounter table satisfies its invariants.
// Precondition: t is non-nil.
// Postcondition: returns nil iff bands are in strictly ascending order
// within [1, 100].
func (t *EncounterTable) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("encounter table: ID must not be empty")
	}
	if t.CooldownSeconds < 0 {
		return fmt.Errorf("encounter table %q: cooldown_seconds must be >= 0", t.ID)
	}
	prev := 0
	for i, e := range t.Entries {
		if e.RollMax <= prev {
			return fmt.Errorf("encounter table %q: entry[%d] roll_max %d must exceed previous bound %d", t.ID, i, e.RollMax, prev)
		}
		if e.RollMax > 100 {
			return fmt.Errorf("encounter table %q: entry[%d] roll_max %d exceeds 100", t.ID, i, e.RollMax)
		}
		for tmpl, count := range e.Composition {
			if tmpl == "" || count <= 0 {
				return fmt.Errorf("encounter table %q: entry[%d] has invalid composition", t.ID, i)
			}
		}
		prev = e.RollMax
	}
	return nil
}

// Roll draws a percentile from src and returns the matching band, or nil when
// the roll clears every band.
func (t *EncounterTable) Roll(src dice.Source) *EncounterEntry {
	roll := dice.Percentile(src)
	for i := range t.Entries {
		if roll <= t.Entries[i].RollMax {
			return &t.Entries[i]
		}
	}
	return nil
}

// LoadEncounterTables reads all *.yaml files from dir, parses each as an
// EncounterTable, validates it, and returns the tables keyed by ID.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid tables or the first encountered error.
func LoadEncounterTables(dir string) (map[string]*EncounterTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadEncounterTables: cannot read directory %q: %w", dir, err)
	}

	tables := make(map[string]*EncounterTable)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadEncounterTables: cannot read file %q: %w", path, err)
		}
		var t EncounterTable
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("LoadEncounterTables: cannot parse file %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("LoadEncounterTables: invalid table in %q: %w", path, err)
		}
		if _, ok := tables[t.ID]; ok {
			return nil, fmt.Errorf("LoadEncounterTables: duplicate table ID %q in %q", t.ID, path)
		}
		tables[t.ID] = &t
	}
	return tables, nil
}
