package gear

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ArmorDef defines the static properties of an armor piece loaded from YAML.
// Reduction applies at full value against the primary damage type and at half
// value (rounded down) against the secondary types.
type ArmorDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Slot string `yaml:"slot"`
	// Reduction is the flat damage soaked per hit of the primary type.
	Reduction      int      `yaml:"reduction"`
	PrimaryType    string   `yaml:"primary_type"`
	SecondaryTypes []string `yaml:"secondary_types"`
	MaxDurability  int      `yaml:"max_durability"`
}

// Validate checks that the ArmorDef satisfies its invariants.
// Precondition: a is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (a *ArmorDef) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if a.Slot == "" {
		errs = append(errs, errors.New("Slot must not be empty"))
	}
	if a.Reduction < 0 {
		errs = append(errs, errors.New("Reduction must be >= 0"))
	}
	if a.PrimaryType == "" {
		errs = append(errs, errors.New("PrimaryType must not be empty"))
	}
	if a.MaxDurability <= 0 {
		errs = append(errs, errors.New("MaxDurability must be > 0"))
	}
	for _, t := range a.SecondaryTypes {
		if t == a.PrimaryType {
			errs = append(errs, fmt.Errorf("secondary type %q duplicates primary", t))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("armor validation failed: %v", errs)
	}
	return nil
}

// ArmorPiece is a worn instance of an ArmorDef with live durability.
// A piece at zero durability contributes nothing until repaired.
type ArmorPiece struct {
	Def        *ArmorDef
	Durability int
}

// NewArmorPiece creates a fresh piece at full durability.
func NewArmorPiece(def *ArmorDef) *ArmorPiece {
	return &ArmorPiece{Def: def, Durability: def.MaxDurability}
}

// ReductionFor returns the flat reduction this piece provides against the
// given damage type. Full value for the primary type, half for secondary
// types, zero otherwise or when the piece is broken.
func (p *ArmorPiece) ReductionFor(damageType string) int {
	if p.Durability <= 0 {
		return 0
	}
	if damageType == p.Def.PrimaryType {
		return p.Def.Reduction
	}
	for _, t := range p.Def.SecondaryTypes {
		if t == damageType {
			return p.Def.Reduction / 2
		}
	}
	return 0
}

// Absorb records absorbed damage as durability loss, scaled by mult.
// Durability never drops below zero.
// Postcondition: 0 <= p.Durability <= previous durability.
func (p *ArmorPiece) Absorb(absorbed int, mult float64) {
	if absorbed <= 0 || p.Durability <= 0 {
		return
	}
	loss := int(float64(absorbed) * mult)
	if loss < 1 {
		loss = 1
	}
	p.Durability -= loss
	if p.Durability < 0 {
		p.Durability = 0
	}
}

// Broken reports whether the piece has lost all durability.
func (p *ArmorPiece) Broken() bool {
	return p.Durability <= 0
}

// LoadArmor reads all *.yaml files from dir, parses each as an ArmorDef,
// validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ArmorDefs or the first encountered error.
func LoadArmor(dir string) ([]*ArmorDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadArmor: cannot read directory %q: %w", dir, err)
	}

	var pieces []*ArmorDef
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadArmor: cannot read file %q: %w", path, err)
		}
		var a ArmorDef
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("LoadArmor: cannot parse file %q: %w", path, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("LoadArmor: invalid armor in %q: %w", path, err)
		}
		pieces = append(pieces, &a)
	}
	return pieces, nil
}
