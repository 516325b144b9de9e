package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/dice"
	"github.com/saltmere/mud/internal/scripting"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestManager_CallHookDispatchesToZoneVM(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hooks.lua", `
function on_encounter(room_id)
  return "rats swarm " .. room_id
end
`)

	m := scripting.NewManager(dice.NewSeededSource(7), 0, zap.NewNop())
	defer m.Close()
	require.NoError(t, m.LoadZone("docks", dir))

	ret, err := m.CallHook("docks", "on_encounter", lua.LString("pier-3"))
	require.NoError(t, err)
	assert.Equal(t, "rats swarm pier-3", lua.LVAsString(ret))
}

func TestManager_GlobalFallbackAndMissingHook(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "shared.lua", `
function on_weather(kind)
  return kind == "fog"
end
`)

	m := scripting.NewManager(dice.NewSeededSource(7), 0, zap.NewNop())
	defer m.Close()
	require.NoError(t, m.LoadGlobal(dir))

	// Zone without its own VM falls back to the global one.
	ret, err := m.CallHook("harbour", "on_weather", lua.LString("fog"))
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)

	ret, err = m.CallHook("harbour", "no_such_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_EngineModules(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "modules.lua", `
function summon(room_id)
  local r = engine.room(room_id)
  if r == nil or r.exposure ~= "outdoor" then
    return false
  end
  engine.broadcast(room_id, "the bells toll")
  return engine.spawn(room_id, "wharf-rat")
end

function lucky()
  return engine.roll(1, 6)
end
`)

	var broadcasts []string
	var spawned []string

	m := scripting.NewManager(dice.NewSeededSource(7), 0, zap.NewNop())
	defer m.Close()
	m.Broadcast = func(roomID, msg string) { broadcasts = append(broadcasts, roomID+": "+msg) }
	m.SpawnAt = func(roomID, templateID string) error {
		spawned = append(spawned, templateID)
		return nil
	}
	m.QueryRoom = func(roomID string) *scripting.RoomInfo {
		return &scripting.RoomInfo{ID: roomID, Title: "Pier Three", Exposure: "outdoor"}
	}
	require.NoError(t, m.LoadZone("docks", dir))

	ret, err := m.CallHook("docks", "summon", lua.LString("pier-3"))
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
	assert.Equal(t, []string{"pier-3: the bells toll"}, broadcasts)
	assert.Equal(t, []string{"wharf-rat"}, spawned)

	roll, err := m.CallHook("docks", "lucky")
	require.NoError(t, err)
	n := int(lua.LVAsNumber(roll))
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 6)
}

func TestManager_SandboxStripsDangerousGlobals(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "globals.lua", `
function check_globals()
  return dofile == nil and loadfile == nil and load == nil and require == nil
end
`)

	m := scripting.NewManager(dice.NewSeededSource(7), 0, zap.NewNop())
	defer m.Close()
	require.NoError(t, m.LoadZone("docks", dir))

	ret, err := m.CallHook("docks", "check_globals")
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
}

func TestManager_RuntimeErrorIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `
function explode()
  error("kraken")
end
`)

	m := scripting.NewManager(dice.NewSeededSource(7), 0, zap.NewNop())
	defer m.Close()
	require.NoError(t, m.LoadZone("docks", dir))

	ret, err := m.CallHook("docks", "explode")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}
