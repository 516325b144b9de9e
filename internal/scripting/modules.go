package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/saltmere/mud/internal/game/dice"
)

// RegisterModules registers the engine.* Lua table into L. Every function is
// a thin bridge to a Manager callback; a nil callback makes the function a
// safe no-op returning nil.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: the engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		min := int(L.CheckNumber(1))
		max := int(L.CheckNumber(2))
		L.Push(lua.LNumber(dice.Between(m.src, min, max)))
		return 1
	}))

	L.SetField(engine, "percentile", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(dice.Percentile(m.src)))
		return 1
	}))

	L.SetField(engine, "broadcast", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		msg := L.CheckString(2)
		if m.Broadcast != nil {
			m.Broadcast(roomID, msg)
		}
		return 0
	}))

	L.SetField(engine, "combatant", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetCombatant(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		L.SetField(t, "id", lua.LString(info.ID))
		L.SetField(t, "name", lua.LString(info.Name))
		L.SetField(t, "hp", lua.LNumber(info.HP))
		L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
		L.SetField(t, "stamina", lua.LNumber(info.Stamina))
		L.SetField(t, "dodging", lua.LNumber(info.Dodging))
		L.SetField(t, "player", lua.LBool(info.Player))
		L.Push(t)
		return 1
	}))

	L.SetField(engine, "damage", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		hp := int(L.CheckNumber(2))
		if m.ApplyDamage == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LBool(m.ApplyDamage(id, hp) == nil))
		return 1
	}))

	L.SetField(engine, "room", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		if m.QueryRoom == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.QueryRoom(roomID)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		L.SetField(t, "id", lua.LString(info.ID))
		L.SetField(t, "title", lua.LString(info.Title))
		L.SetField(t, "exposure", lua.LString(info.Exposure))
		tags := L.NewTable()
		for i, tag := range info.Tags {
			L.RawSetInt(tags, i+1, lua.LString(tag))
		}
		L.SetField(t, "tags", tags)
		L.Push(t)
		return 1
	}))

	L.SetField(engine, "spawn", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		templateID := L.CheckString(2)
		if m.SpawnAt == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(lua.LBool(m.SpawnAt(roomID, templateID) == nil))
		return 1
	}))

	L.SetGlobal("engine", engine)
}
