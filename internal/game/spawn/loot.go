// Package spawn populates rooms: creature spawning under per-room cooldowns,
// random encounters, and loot drops on death.
package spawn

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/saltmere/mud/internal/game/dice"
)

// CurrencyDrop defines the range of coin a creature can drop on death.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	Name   string  `yaml:"name"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// LootTable defines the possible drops rolled on a creature's death.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	Items    []ItemDrop    `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff all currency and item constraints hold;
// an empty loot table (no currency, no items) is valid.
func (lt *LootTable) Validate() error {
	if lt.Currency != nil {
		if lt.Currency.Min < 0 {
			return fmt.Errorf("loot table: currency min must be >= 0, got %d", lt.Currency.Min)
		}
		if lt.Currency.Min > lt.Currency.Max {
			return fmt.Errorf("loot table: currency min (%d) must be <= max (%d)", lt.Currency.Min, lt.Currency.Max)
		}
	}
	for i, item := range lt.Items {
		if item.Name == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty name", i)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// LootItem is a single rolled drop.
type LootItem struct {
	Name     string
	Quantity int
}

// LootResult holds the generated loot from a single kill.
type LootResult struct {
	Currency int
	Items    []LootItem
}

// GenerateLoot rolls loot from lt using src.
//
// Precondition: lt must have passed Validate().
// Postcondition: Currency is in [Currency.Min, Currency.Max] if currency is
// set; each item's Quantity is in [MinQty, MaxQty] for items that pass the
// chance roll.
func GenerateLoot(lt *LootTable, src dice.Source) LootResult {
	var result LootResult

	if lt.Currency != nil && lt.Currency.Max > 0 {
		result.Currency = dice.Between(src, lt.Currency.Min, lt.Currency.Max)
	}

	for _, item := range lt.Items {
		if !dice.Chance(src, item.Chance) {
			continue
		}
		result.Items = append(result.Items, LootItem{
			Name:     item.Name,
			Quantity: dice.Between(src, item.MinQty, item.MaxQty),
		})
	}

	return result
}

// LoadLootTables reads all *.yaml files from dir, each a map of loot table ID
// to LootTable, and returns the merged map.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid tables or the first encountered error;
// duplicate IDs across files are errors.
func LoadLootTables(dir string) (map[string]*LootTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadLootTables: cannot read directory %q: %w", dir, err)
	}

	tables := make(map[string]*LootTable)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadLootTables: cannot read file %q: %w", path, err)
		}
		var file map[string]*LootTable
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("LoadLootTables: cannot parse file %q: %w", path, err)
		}
		for id, lt := range file {
			if _, ok := tables[id]; ok {
				return nil, fmt.Errorf("LoadLootTables: duplicate loot table ID %q in %q", id, path)
			}
			if err := lt.Validate(); err != nil {
				return nil, fmt.Errorf("LoadLootTables: table %q in %q: %w", id, path, err)
			}
			tables[id] = lt
		}
	}
	return tables, nil
}
