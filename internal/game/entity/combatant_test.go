package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/gear"
)

var (
	_ combat.Combatant = (*Instance)(nil)
	_ combat.Chaser    = (*Instance)(nil)
)

func TestInstance_CombatantSurface(t *testing.T) {
	tmpl := &CreatureTemplate{
		ID:         "wharf-rat",
		Name:       "wharf rat",
		MaxHP:      12,
		MaxStamina: 6,
		Accuracy:   45,
		Dodging:    30,
		Behavior:   BehaviorTerritorial,
		LeashRooms: 2,
	}
	inst := NewCreature("wharf-rat-1", tmpl, "pier-3", gear.Unarmed(), time.Now())

	assert.Equal(t, "wharf-rat-1", inst.CombatID())
	assert.Equal(t, "wharf rat", inst.DisplayName())
	assert.False(t, inst.IsPlayer())
	assert.True(t, inst.Alive())
	assert.Equal(t, 30, inst.Dodging())

	cur, max := inst.HP()
	assert.Equal(t, 12, cur)
	assert.Equal(t, 12, max)

	inst.ApplyDamage(20)
	assert.Equal(t, 0, inst.CurrentHP)
	assert.False(t, inst.Alive())
}

func TestInstance_StaminaSpending(t *testing.T) {
	tmpl := &CreatureTemplate{
		ID: "brine-cur", Name: "brine cur",
		MaxHP: 10, MaxStamina: 5, Accuracy: 40, Dodging: 20,
	}
	inst := NewCreature("brine-cur-1", tmpl, "pier-3", gear.Unarmed(), time.Now())

	require.True(t, inst.SpendStamina(3))
	assert.Equal(t, 2, inst.Stamina())

	assert.False(t, inst.SpendStamina(3))
	assert.Equal(t, 2, inst.Stamina())
}

func TestInstance_PursuitBehavior(t *testing.T) {
	tmpl := &CreatureTemplate{
		ID: "wharf-rat", Name: "wharf rat",
		MaxHP: 12, Accuracy: 45, Dodging: 30,
		Behavior: BehaviorTerritorial, LeashRooms: 2,
	}
	inst := NewCreature("wharf-rat-1", tmpl, "pier-3", gear.Unarmed(), time.Now())

	behavior, home, leash := inst.PursuitBehavior()
	assert.Equal(t, "territorial", behavior)
	assert.Equal(t, "pier-3", home)
	assert.Equal(t, 2, leash)
}
