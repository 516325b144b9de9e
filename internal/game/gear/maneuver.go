package gear

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManeuverDef defines a combat maneuver loaded from YAML. Maneuvers spend
// stamina, may delay the user's next attack, and may apply a modifier tag to
// the user or the target for a number of attack ticks.
type ManeuverDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// StaminaCost is deducted on use; using a maneuver without the stamina
	// for it is rejected before any effect applies.
	StaminaCost int `yaml:"stamina_cost"`
	// AddedDelaySeconds pushes the user's next attack tick back.
	AddedDelaySeconds float64 `yaml:"added_delay_seconds"`
	// Reaction maneuvers may be used outside the user's own tick window.
	Reaction bool `yaml:"reaction"`
	// AppliesModifier names the modifier tag granted on success
	// (exposed, pinned, staggered). Empty for pure-effect maneuvers.
	AppliesModifier string `yaml:"applies_modifier"`
	// ModifierTarget is "self" or "target".
	ModifierTarget string `yaml:"modifier_target"`
	// ModifierTicks is how many of the bearer's attack ticks the modifier
	// persists for.
	ModifierTicks int `yaml:"modifier_ticks"`
	// Precondition is an optional Lua expression evaluated in the scripting
	// sandbox before the maneuver fires. Empty means always usable.
	Precondition string `yaml:"precondition"`
}

// Validate checks that the ManeuverDef satisfies its invariants.
// Precondition: m is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (m *ManeuverDef) Validate() error {
	var errs []error
	if m.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if m.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if m.StaminaCost < 0 {
		errs = append(errs, errors.New("StaminaCost must be >= 0"))
	}
	if m.AddedDelaySeconds < 0 {
		errs = append(errs, errors.New("AddedDelaySeconds must be >= 0"))
	}
	if m.AppliesModifier != "" {
		switch m.ModifierTarget {
		case "self", "target":
		default:
			errs = append(errs, fmt.Errorf("ModifierTarget must be self or target, got %q", m.ModifierTarget))
		}
		if m.ModifierTicks <= 0 {
			errs = append(errs, errors.New("ModifierTicks must be > 0 when a modifier is applied"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("maneuver validation failed: %v", errs)
	}
	return nil
}

// LoadManeuvers reads all *.yaml files from dir, parses each as a
// ManeuverDef, validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ManeuverDefs or the first encountered error.
func LoadManeuvers(dir string) ([]*ManeuverDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadManeuvers: cannot read directory %q: %w", dir, err)
	}

	var maneuvers []*ManeuverDef
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadManeuvers: cannot read file %q: %w", path, err)
		}
		var m ManeuverDef
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("LoadManeuvers: cannot parse file %q: %w", path, err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("LoadManeuvers: invalid maneuver in %q: %w", path, err)
		}
		maneuvers = append(maneuvers, &m)
	}
	return maneuvers, nil
}
