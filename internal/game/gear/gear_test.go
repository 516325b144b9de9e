package gear

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeaponDefValidate(t *testing.T) {
	w := &WeaponDef{
		ID:         "cutlass",
		Name:       "Cutlass",
		DamageMin:  3,
		DamageMax:  7,
		DamageType: "slashing",
		SpeedMult:  0.9,
		CritChance: 0.05,
	}
	assert.NoError(t, w.Validate())

	bad := *w
	bad.DamageMax = 1
	assert.Error(t, bad.Validate())

	bad = *w
	bad.SpeedMult = 0
	assert.Error(t, bad.Validate())

	bad = *w
	bad.CritChance = 1.5
	assert.Error(t, bad.Validate())
}

func TestWeaponProfile(t *testing.T) {
	w := &WeaponDef{
		ID:         "pike",
		Name:       "Boarding Pike",
		DamageMin:  4,
		DamageMax:  9,
		DamageType: "piercing",
		SpeedMult:  1.3,
		CritChance: 0.03,
	}
	p := w.Profile(62)
	assert.Equal(t, 62, p.Accuracy)
	assert.Equal(t, 1.3, p.SpeedMult)
	assert.Equal(t, "piercing", p.DamageType)
	assert.Equal(t, 4, p.DamageMin)
	assert.Equal(t, 9, p.DamageMax)
}

func TestUnarmedFallback(t *testing.T) {
	p := Unarmed()
	assert.Equal(t, 1.0, p.SpeedMult)
	assert.Equal(t, 1, p.DamageMin)
	assert.Equal(t, 1, p.DamageMax)
	assert.Equal(t, "bludgeoning", p.DamageType)
	assert.Equal(t, 0.01, p.CritChance)
}

func testArmorDef() *ArmorDef {
	return &ArmorDef{
		ID:             "brigandine",
		Name:           "Tarred Brigandine",
		Slot:           "torso",
		Reduction:      5,
		PrimaryType:    "slashing",
		SecondaryTypes: []string{"piercing"},
		MaxDurability:  40,
	}
}

func TestArmorReductionByType(t *testing.T) {
	p := NewArmorPiece(testArmorDef())

	assert.Equal(t, 5, p.ReductionFor("slashing"), "primary type gets full reduction")
	assert.Equal(t, 2, p.ReductionFor("piercing"), "secondary type gets half, rounded down")
	assert.Equal(t, 0, p.ReductionFor("bludgeoning"), "uncovered type gets nothing")
}

func TestBrokenArmorContributesNothing(t *testing.T) {
	p := NewArmorPiece(testArmorDef())
	p.Durability = 0
	assert.True(t, p.Broken())
	assert.Equal(t, 0, p.ReductionFor("slashing"))
}

func TestArmorAbsorbLosesDurability(t *testing.T) {
	p := NewArmorPiece(testArmorDef())
	start := p.Durability

	p.Absorb(5, 1.0)
	assert.Equal(t, start-5, p.Durability)

	// Loss scales with the absorbed amount but is never less than one.
	p.Absorb(1, 0.25)
	assert.Equal(t, start-6, p.Durability)

	// Zero absorption never wears the piece.
	p.Absorb(0, 1.0)
	assert.Equal(t, start-6, p.Durability)
}

func TestArmorDurabilityFloorsAtZero(t *testing.T) {
	p := NewArmorPiece(testArmorDef())
	p.Durability = 2
	p.Absorb(100, 1.0)
	assert.Equal(t, 0, p.Durability)
	// A broken piece does not wear further.
	p.Absorb(5, 1.0)
	assert.Equal(t, 0, p.Durability)
}

func TestManeuverValidate(t *testing.T) {
	m := &ManeuverDef{
		ID:              "feint",
		Name:            "Feint",
		StaminaCost:     8,
		AppliesModifier: "exposed",
		ModifierTarget:  "target",
		ModifierTicks:   2,
	}
	assert.NoError(t, m.Validate())

	bad := *m
	bad.ModifierTarget = "everyone"
	assert.Error(t, bad.Validate())

	bad = *m
	bad.ModifierTicks = 0
	assert.Error(t, bad.Validate())

	bad = *m
	bad.StaminaCost = -1
	assert.Error(t, bad.Validate())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	w := &WeaponDef{ID: "cutlass", Name: "Cutlass", DamageMin: 1, DamageMax: 2, DamageType: "slashing", SpeedMult: 1.0}
	require.NoError(t, r.RegisterWeapon(w))
	assert.Error(t, r.RegisterWeapon(w))
	assert.Equal(t, 1, r.WeaponCount())
	assert.Same(t, w, r.Weapon("cutlass"))
	assert.Nil(t, r.Weapon("missing"))
}

func TestRegistryLoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "weapons"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "armor"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "maneuvers"), 0o755))

	weaponYAML := `
id: cutlass
name: Cutlass
damage_min: 3
damage_max: 7
damage_type: slashing
speed_mult: 0.9
crit_chance: 0.05
`
	armorYAML := `
id: brigandine
name: Tarred Brigandine
slot: torso
reduction: 5
primary_type: slashing
secondary_types: [piercing]
max_durability: 40
`
	maneuverYAML := `
id: shove
name: Shove
stamina_cost: 6
added_delay_seconds: 1.5
applies_modifier: staggered
modifier_target: target
modifier_ticks: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weapons", "cutlass.yaml"), []byte(weaponYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "armor", "brigandine.yaml"), []byte(armorYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maneuvers", "shove.yaml"), []byte(maneuverYAML), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadAll(dir))
	assert.Equal(t, 1, r.WeaponCount())
	assert.Equal(t, 1, r.ArmorCount())
	assert.Equal(t, 1, r.ManeuverCount())
	require.NotNil(t, r.Maneuver("shove"))
	assert.Equal(t, "staggered", r.Maneuver("shove").AppliesModifier)
}
