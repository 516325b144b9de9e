// Package entity tracks live world entities: creatures, scheduled NPCs, and
// ground items. Definitions load from YAML templates; runtime instances are
// managed by the Registry.
package entity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/saltmere/mud/internal/game/gear"
)

// Kind classifies a live entity.
type Kind string

const (
	// KindCreature is a hostile or neutral spawned creature.
	KindCreature Kind = "creature"
	// KindNPC is a scheduled, named townsperson.
	KindNPC Kind = "npc"
	// KindItem is a ground item, usually dropped loot.
	KindItem Kind = "item"
)

// Behavior controls how a creature reacts to players leaving its room.
type Behavior string

const (
	// BehaviorPassive creatures never pursue.
	BehaviorPassive Behavior = "passive"
	// BehaviorTerritorial creatures pursue within their leash range.
	BehaviorTerritorial Behavior = "territorial"
	// BehaviorRelentless creatures pursue without a leash.
	BehaviorRelentless Behavior = "relentless"
)

// CreatureTemplate defines a spawnable creature loaded from YAML.
type CreatureTemplate struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxHP       int    `yaml:"max_hp"`
	MaxStamina  int    `yaml:"max_stamina"`
	// Accuracy is the creature's attack skill; Dodging opposes incoming hits.
	Accuracy int `yaml:"accuracy"`
	Dodging  int `yaml:"dodging"`
	// WeaponID selects the creature's attack profile from the gear registry.
	// Empty means the unarmed fallback.
	WeaponID string   `yaml:"weapon_id"`
	Behavior Behavior `yaml:"behavior"`
	// LeashRooms bounds territorial pursuit; ignored for other behaviors.
	LeashRooms int `yaml:"leash_rooms"`
	// LootTableID selects the drop table rolled on death. Empty means no loot.
	LootTableID string `yaml:"loot_table_id"`
	// SpawnCooldownSeconds is the default per-room respawn delay after this
	// creature dies, in real seconds. Rooms may override it.
	SpawnCooldownSeconds int `yaml:"spawn_cooldown_seconds"`
}

// Validate checks that the CreatureTemplate satisfies its invariants.
// Precondition: t is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (t *CreatureTemplate) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if t.MaxHP <= 0 {
		errs = append(errs, errors.New("MaxHP must be > 0"))
	}
	if t.MaxStamina < 0 {
		errs = append(errs, errors.New("MaxStamina must be >= 0"))
	}
	if t.Accuracy < 0 || t.Accuracy > 100 {
		errs = append(errs, errors.New("Accuracy must be in [0, 100]"))
	}
	if t.Dodging < 0 || t.Dodging > 100 {
		errs = append(errs, errors.New("Dodging must be in [0, 100]"))
	}
	switch t.Behavior {
	case BehaviorPassive, BehaviorTerritorial, BehaviorRelentless, "":
	default:
		errs = append(errs, fmt.Errorf("unknown behavior %q", t.Behavior))
	}
	if t.Behavior == BehaviorTerritorial && t.LeashRooms <= 0 {
		errs = append(errs, errors.New("territorial creatures need LeashRooms > 0"))
	}
	if t.SpawnCooldownSeconds < 0 {
		errs = append(errs, errors.New("SpawnCooldownSeconds must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("creature template validation failed: %v", errs)
	}
	return nil
}

// AttackProfile resolves the template's attack profile against the gear
// registry, falling back to unarmed when no weapon is set or found.
func (t *CreatureTemplate) AttackProfile(reg *gear.Registry) gear.AttackProfile {
	if t.WeaponID != "" && reg != nil {
		if w := reg.Weapon(t.WeaponID); w != nil {
			return w.Profile(t.Accuracy)
		}
	}
	p := gear.Unarmed()
	p.Accuracy = t.Accuracy
	return p
}

// LoadCreatureTemplates reads all *.yaml files from dir, parses each as a
// CreatureTemplate, validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid templates or the first encountered error.
func LoadCreatureTemplates(dir string) ([]*CreatureTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadCreatureTemplates: cannot read directory %q: %w", dir, err)
	}

	var templates []*CreatureTemplate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadCreatureTemplates: cannot read file %q: %w", path, err)
		}
		var t CreatureTemplate
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("LoadCreatureTemplates: cannot parse file %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("LoadCreatureTemplates: invalid template in %q: %w", path, err)
		}
		templates = append(templates, &t)
	}
	return templates, nil
}
