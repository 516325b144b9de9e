package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/saltmere/mud/internal/game/combat"
	"github.com/saltmere/mud/internal/game/gear"
)

// Gate evaluates maneuver precondition expressions in a shared sandboxed VM.
// Preconditions are boolean Lua expressions over two bound tables:
//
//	actor  = { hp, max_hp, stamina, dodging }
//	target = same shape, or nil when the maneuver has no target
//
// Example: "actor.stamina >= 10 and target.hp < target.max_hp / 2".
//
// Gate is safe for concurrent use; the VM is single-threaded behind a mutex.
type Gate struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	logger    *zap.Logger
	compiled  map[string]*lua.LFunction
}

// NewGate creates a precondition gate with its own sandboxed VM.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
func NewGate(instLimit int, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		state:     NewSandboxedState(),
		instLimit: instLimit,
		logger:    logger,
		compiled:  make(map[string]*lua.LFunction),
	}
}

// Close releases the gate's VM.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Close()
}

// Allow evaluates the maneuver's precondition against the actor and target.
// An empty precondition always passes. A script error blocks the maneuver
// and is returned for logging; the runtime maps it to a rejection.
func (g *Gate) Allow(actor combat.Combatant, man *gear.ManeuverDef, target combat.Combatant) (bool, error) {
	if man.Precondition == "" {
		return true, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fn, err := g.compile(man)
	if err != nil {
		return false, err
	}

	cancel := ArmBudget(g.state, g.instLimit)
	defer cancel()

	g.state.SetGlobal("actor", g.combatantTable(actor))
	if target != nil {
		g.state.SetGlobal("target", g.combatantTable(target))
	} else {
		g.state.SetGlobal("target", lua.LNil)
	}

	if err := g.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		g.logger.Warn("maneuver precondition error",
			zap.String("maneuver_id", man.ID),
			zap.Error(err))
		return false, fmt.Errorf("scripting: precondition for %q: %w", man.ID, err)
	}
	ret := g.state.Get(-1)
	g.state.Pop(1)
	return lua.LVAsBool(ret), nil
}

// compile caches the precondition as a Lua function keyed by maneuver ID.
// Caller holds mu.
func (g *Gate) compile(man *gear.ManeuverDef) (*lua.LFunction, error) {
	if fn, ok := g.compiled[man.ID]; ok {
		return fn, nil
	}
	fn, err := g.state.LoadString("return (" + man.Precondition + ")")
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling precondition for %q: %w", man.ID, err)
	}
	g.compiled[man.ID] = fn
	return fn, nil
}

func (g *Gate) combatantTable(c combat.Combatant) *lua.LTable {
	t := g.state.NewTable()
	cur, max := c.HP()
	g.state.SetField(t, "hp", lua.LNumber(cur))
	g.state.SetField(t, "max_hp", lua.LNumber(max))
	g.state.SetField(t, "stamina", lua.LNumber(c.Stamina()))
	g.state.SetField(t, "dodging", lua.LNumber(c.Dodging()))
	return t
}
