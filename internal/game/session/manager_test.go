package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/gear"
	"github.com/saltmere/mud/internal/game/session"
)

var _ combat.Combatant = (*session.PlayerSession)(nil)

func saltyCfg(roomID string) session.PlayerConfig {
	return session.PlayerConfig{
		Username:    "salty",
		CharName:    "Salty",
		CharacterID: 7,
		RoomID:      roomID,
		CurrentHP:   40,
		MaxHP:       40,
		MaxStamina:  20,
		Accuracy:    55,
		DodgeSkill:  35,
		Role:        "player",
	}
}

func TestManager_AddAndMovePlayer(t *testing.T) {
	m := session.NewManager()

	sess, err := m.AddPlayer("7", saltyCfg("pier-3"))
	require.NoError(t, err)
	assert.Equal(t, "pier-3", sess.RoomID)
	assert.Equal(t, 20, sess.CurrentStamina)

	_, err = m.AddPlayer("7", saltyCfg("pier-3"))
	assert.Error(t, err)

	old, err := m.MovePlayer("7", "fish-market")
	require.NoError(t, err)
	assert.Equal(t, "pier-3", old)
	assert.Empty(t, m.PlayerUIDsInRoom("pier-3"))
	assert.Equal(t, []string{"7"}, m.PlayerUIDsInRoom("fish-market"))
	assert.Equal(t, []string{"Salty"}, m.PlayersInRoom("fish-market"))
}

func TestManager_RemovePlayerClosesEntity(t *testing.T) {
	m := session.NewManager()
	sess, err := m.AddPlayer("7", saltyCfg("pier-3"))
	require.NoError(t, err)

	require.NoError(t, m.RemovePlayer("7"))
	assert.True(t, sess.Entity.IsClosed())
	assert.Zero(t, m.PlayerCount())
	assert.Error(t, m.RemovePlayer("7"))
}

func TestManager_DisconnectGraceSweep(t *testing.T) {
	m := session.NewManager()
	_, err := m.AddPlayer("7", saltyCfg("pier-3"))
	require.NoError(t, err)
	_, err = m.AddPlayer("8", saltyCfg("pier-3"))
	require.NoError(t, err)

	base := time.Now()
	require.NoError(t, m.MarkDisconnected("7", base))

	// Before the grace period lapses nothing is swept.
	assert.Empty(t, m.DisconnectedBefore(base.Add(-time.Second)))
	assert.Equal(t, []string{"7"}, m.DisconnectedBefore(base.Add(time.Minute)))

	// Reconnecting clears the mark and swaps in a fresh entity.
	sess, err := m.Reconnect("7")
	require.NoError(t, err)
	assert.True(t, sess.DisconnectedAt.IsZero())
	assert.False(t, sess.Entity.IsClosed())
	assert.Empty(t, m.DisconnectedBefore(base.Add(time.Minute)))
}

func TestPlayerSession_CombatSurface(t *testing.T) {
	m := session.NewManager()
	sess, err := m.AddPlayer("7", saltyCfg("pier-3"))
	require.NoError(t, err)

	assert.Equal(t, "7", sess.CombatID())
	assert.Equal(t, "Salty", sess.DisplayName())
	assert.True(t, sess.IsPlayer())
	assert.Equal(t, 35, sess.Dodging())

	// Unarmed fallback keeps the character's own accuracy.
	prof := sess.AttackProfile()
	assert.Equal(t, 55, prof.Accuracy)
	assert.Equal(t, "bludgeoning", prof.DamageType)

	sess.Weapon = &gear.WeaponDef{
		ID: "boarding-axe", Name: "boarding axe",
		DamageMin: 4, DamageMax: 9, DamageType: "slashing",
		SpeedMult: 1.2, CritChance: 0.05,
	}
	prof = sess.AttackProfile()
	assert.Equal(t, "slashing", prof.DamageType)
	assert.Equal(t, 55, prof.Accuracy)

	sess.ApplyDamage(45)
	assert.Equal(t, 0, sess.CurrentHP)
	assert.False(t, sess.Alive())

	require.True(t, sess.SpendStamina(15))
	assert.False(t, sess.SpendStamina(10))
	assert.Equal(t, 5, sess.Stamina())
}

func TestBridgeEntity_PushAndClose(t *testing.T) {
	e := session.NewBridgeEntity("7", 2)

	require.NoError(t, e.Push([]byte("one")))
	require.NoError(t, e.Push([]byte("two")))
	assert.Error(t, e.Push([]byte("three")), "buffer full")

	assert.Equal(t, "one", string(<-e.Events()))

	require.NoError(t, e.Close())
	assert.Error(t, e.Push([]byte("late")))
}
