package gear

import (
	"fmt"
	"path/filepath"
)

// Registry holds all loaded gear definitions keyed by ID. It is populated at
// startup and read-only afterwards, so no locking is required.
type Registry struct {
	weapons   map[string]*WeaponDef
	armor     map[string]*ArmorDef
	maneuvers map[string]*ManeuverDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		weapons:   make(map[string]*WeaponDef),
		armor:     make(map[string]*ArmorDef),
		maneuvers: make(map[string]*ManeuverDef),
	}
}

// RegisterWeapon adds a weapon definition.
// Postcondition: returns an error on duplicate ID, leaving the registry unchanged.
func (r *Registry) RegisterWeapon(w *WeaponDef) error {
	if _, ok := r.weapons[w.ID]; ok {
		return fmt.Errorf("duplicate weapon ID %q", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// RegisterArmor adds an armor definition.
// Postcondition: returns an error on duplicate ID, leaving the registry unchanged.
func (r *Registry) RegisterArmor(a *ArmorDef) error {
	if _, ok := r.armor[a.ID]; ok {
		return fmt.Errorf("duplicate armor ID %q", a.ID)
	}
	r.armor[a.ID] = a
	return nil
}

// RegisterManeuver adds a maneuver definition.
// Postcondition: returns an error on duplicate ID, leaving the registry unchanged.
func (r *Registry) RegisterManeuver(m *ManeuverDef) error {
	if _, ok := r.maneuvers[m.ID]; ok {
		return fmt.Errorf("duplicate maneuver ID %q", m.ID)
	}
	r.maneuvers[m.ID] = m
	return nil
}

// Weapon returns the weapon with the given ID, or nil if not registered.
func (r *Registry) Weapon(id string) *WeaponDef {
	return r.weapons[id]
}

// Armor returns the armor with the given ID, or nil if not registered.
func (r *Registry) Armor(id string) *ArmorDef {
	return r.armor[id]
}

// Maneuver returns the maneuver with the given ID, or nil if not registered.
func (r *Registry) Maneuver(id string) *ManeuverDef {
	return r.maneuvers[id]
}

// WeaponCount returns the number of registered weapons.
func (r *Registry) WeaponCount() int { return len(r.weapons) }

// ArmorCount returns the number of registered armor definitions.
func (r *Registry) ArmorCount() int { return len(r.armor) }

// ManeuverCount returns the number of registered maneuvers.
func (r *Registry) ManeuverCount() int { return len(r.maneuvers) }

// LoadAll populates the registry from the weapons/, armor/, and maneuvers/
// subdirectories of contentDir. Missing subdirectories are errors.
// Precondition: contentDir is a readable directory path.
// Postcondition: returns nil iff every definition loaded and registered.
func (r *Registry) LoadAll(contentDir string) error {
	weapons, err := LoadWeapons(filepath.Join(contentDir, "weapons"))
	if err != nil {
		return fmt.Errorf("LoadAll: %w", err)
	}
	for _, w := range weapons {
		if err := r.RegisterWeapon(w); err != nil {
			return fmt.Errorf("LoadAll: %w", err)
		}
	}

	armor, err := LoadArmor(filepath.Join(contentDir, "armor"))
	if err != nil {
		return fmt.Errorf("LoadAll: %w", err)
	}
	for _, a := range armor {
		if err := r.RegisterArmor(a); err != nil {
			return fmt.Errorf("LoadAll: %w", err)
		}
	}

	maneuvers, err := LoadManeuvers(filepath.Join(contentDir, "maneuvers"))
	if err != nil {
		return fmt.Errorf("LoadAll: %w", err)
	}
	for _, m := range maneuvers {
		if err := r.RegisterManeuver(m); err != nil {
			return fmt.Errorf("LoadAll: %w", err)
		}
	}
	return nil
}
