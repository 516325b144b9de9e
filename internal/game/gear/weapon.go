package gear

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WeaponDef defines the static properties of a weapon loaded from YAML.
type WeaponDef struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	DamageMin  int     `yaml:"damage_min"`
	DamageMax  int     `yaml:"damage_max"`
	DamageType string  `yaml:"damage_type"`
	// SpeedMult scales the wielder's base attack interval. 1.0 is neutral,
	// daggers run below it, mauls above.
	SpeedMult  float64 `yaml:"speed_mult"`
	CritChance float64 `yaml:"crit_chance"`
	// Ranged weapons take the far-range accuracy penalty from weather.
	Ranged bool     `yaml:"ranged"`
	Traits []string `yaml:"traits"`
}

// Profile builds the attack profile for a wielder with the given effective
// accuracy skill.
func (w *WeaponDef) Profile(accuracy int) AttackProfile {
	return AttackProfile{
		SpeedMult:  w.SpeedMult,
		Accuracy:   accuracy,
		DamageMin:  w.DamageMin,
		DamageMax:  w.DamageMax,
		DamageType: w.DamageType,
		CritChance: w.CritChance,
		Ranged:     w.Ranged,
	}
}

// HasTrait reports whether the weapon carries the named trait.
func (w *WeaponDef) HasTrait(trait string) bool {
	for _, t := range w.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// Validate checks that the WeaponDef satisfies its invariants.
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if w.DamageMin < 0 {
		errs = append(errs, errors.New("DamageMin must be >= 0"))
	}
	if w.DamageMax < w.DamageMin {
		errs = append(errs, errors.New("DamageMax must be >= DamageMin"))
	}
	if w.DamageType == "" {
		errs = append(errs, errors.New("DamageType must not be empty"))
	}
	if w.SpeedMult <= 0 {
		errs = append(errs, errors.New("SpeedMult must be > 0"))
	}
	if w.CritChance < 0 || w.CritChance > 1 {
		errs = append(errs, errors.New("CritChance must be in [0, 1]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// LoadWeapons reads all *.yaml files from dir, parses each as a WeaponDef,
// validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid WeaponDefs or the first encountered error.
func LoadWeapons(dir string) ([]*WeaponDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadWeapons: cannot read directory %q: %w", dir, err)
	}

	var weapons []*WeaponDef
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot read file %q: %w", path, err)
		}
		var w WeaponDef
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot parse file %q: %w", path, err)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("LoadWeapons: invalid weapon in %q: %w", path, err)
		}
		weapons = append(weapons, &w)
	}
	return weapons, nil
}
