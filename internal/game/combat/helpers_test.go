package combat

import (
	"sync"
	"time"

	"github.com/saltmere/mud/internal/game/clock"
	"github.com/saltmere/mud/internal/game/gear"
)

// scriptedSource replays a fixed list of Intn results, falling back to zero
// once the script runs out.
type scriptedSource struct {
	mu    sync.Mutex
	rolls []int
	i     int
}

func script(rolls ...int) *scriptedSource {
	return &scriptedSource{rolls: rolls}
}

func (s *scriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.rolls) {
		return 0
	}
	v := s.rolls[s.i] % n
	s.i++
	return v
}

// percentile converts a desired d100 result into the Intn value producing it.
func percentile(roll int) int { return roll - 1 }

// stubCombatant is a minimal in-memory Combatant for exercising the runtime.
type stubCombatant struct {
	id      string
	name    string
	player  bool
	hp      int
	maxHP   int
	stamina int
	dodging int
	prof    gear.AttackProfile
	armor   []*gear.ArmorPiece

	behavior string
	home     string
	leash    int
}

func newStub(id string, player bool) *stubCombatant {
	return &stubCombatant{
		id:      id,
		name:    id,
		player:  player,
		hp:      30,
		maxHP:   30,
		stamina: 20,
		dodging: 30,
		prof: gear.AttackProfile{
			SpeedMult:  1.0,
			Accuracy:   80,
			DamageMin:  5,
			DamageMax:  5,
			DamageType: "slashing",
		},
	}
}

func (s *stubCombatant) CombatID() string    { return s.id }
func (s *stubCombatant) DisplayName() string { return s.name }
func (s *stubCombatant) IsPlayer() bool      { return s.player }
func (s *stubCombatant) Alive() bool         { return s.hp > 0 }
func (s *stubCombatant) ApplyDamage(amount int) {
	s.hp -= amount
	if s.hp < 0 {
		s.hp = 0
	}
}
func (s *stubCombatant) HP() (int, int)                     { return s.hp, s.maxHP }
func (s *stubCombatant) Dodging() int                       { return s.dodging }
func (s *stubCombatant) AttackProfile() gear.AttackProfile  { return s.prof }
func (s *stubCombatant) ArmorPieces() []*gear.ArmorPiece    { return s.armor }
func (s *stubCombatant) Stamina() int                       { return s.stamina }
func (s *stubCombatant) SpendStamina(cost int) bool {
	if s.stamina < cost {
		return false
	}
	s.stamina -= cost
	return true
}

func (s *stubCombatant) PursuitBehavior() (string, string, int) {
	return s.behavior, s.home, s.leash
}

// fixedClock returns a world clock pinned to a controllable wall time so
// world-seconds arithmetic in tests is exact.
func fixedClock() (*clock.WorldClock, *time.Time) {
	now := time.Unix(1_000_000, 0)
	return clock.NewFixed(0, clock.DefaultRatio, func() time.Time { return now }), &now
}
