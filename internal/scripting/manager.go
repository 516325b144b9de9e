package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/dice"
)

// globalZoneID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no zone VM is found.
const globalZoneID = "__global__"

// CombatantInfo is a snapshot of a combatant's state passed to Lua hooks.
type CombatantInfo struct {
	ID      string
	Name    string
	HP      int
	MaxHP   int
	Stamina int
	Dodging int
	Player  bool
}

// RoomInfo is a snapshot of a room passed to Lua hooks.
type RoomInfo struct {
	ID       string
	Title    string
	Exposure string
	Tags     []string
}

// Manager owns one sandboxed LState per zone and exposes hook dispatch for
// zone events (encounters fired, creatures slain, weather changes).
//
// Manager is safe for concurrent CallHook after all LoadZone calls complete.
// Each zone's LState is single-threaded; the mutex serializes concurrent
// calls to the same zone.
type Manager struct {
	mu        sync.RWMutex
	states    map[string]*lua.LState
	instLimit int
	src       dice.Source
	logger    *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant func(id string) *CombatantInfo
	ApplyDamage  func(id string, hp int) error
	Broadcast    func(roomID, msg string)
	QueryRoom    func(roomID string) *RoomInfo
	SpawnAt      func(roomID, templateID string) error
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty zone map.
func NewManager(src dice.Source, instLimit int, logger *zap.Logger) *Manager {
	return &Manager{
		states:    make(map[string]*lua.LState),
		instLimit: instLimit,
		src:       src,
		logger:    logger,
	}
}

// LoadZone creates a sandboxed VM for zoneID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: zoneID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Zone VM is registered; returns error on Lua load failure.
func (m *Manager) LoadZone(zoneID, scriptDir string) error {
	return m.loadInto(zoneID, scriptDir)
}

// LoadGlobal creates the "__global__" VM for shared scripts accessible as a
// CallHook fallback from any zone.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string) error {
	return m.loadInto(globalZoneID, scriptDir)
}

func (m *Manager) loadInto(key, scriptDir string) error {
	L := NewSandboxedState()
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		cancel := ArmBudget(L, m.instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.Close()
	}
	m.states[key] = L
	m.mu.Unlock()
	return nil
}

// CallHook calls the named Lua global function in zoneID's VM. If the zone
// has no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil)
// if the hook is not defined or no VM exists. Lua runtime errors are logged
// at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	L, ok := m.states[zoneID]
	if !ok {
		L = m.states[globalZoneID]
	}
	m.mu.RUnlock()

	if L == nil {
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := ArmBudget(L, m.instLimit)
	defer cancel()

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every zone VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, L := range m.states {
		L.Close()
	}
	m.states = make(map[string]*lua.LState)
}
