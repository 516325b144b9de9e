package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/saltmere/mud/internal/game/dice"
)

func TestBetween_BoundsHold(t *testing.T) {
	src := dice.NewSeededSource(1)
	rapid.Check(t, func(t *rapid.T) {
		min := rapid.IntRange(-50, 50).Draw(t, "min")
		max := rapid.IntRange(min, min+100).Draw(t, "max")
		v := dice.Between(src, min, max)
		if v < min || v > max {
			t.Fatalf("Between(%d, %d) = %d out of bounds", min, max, v)
		}
	})
}

func TestBetween_DegenerateRange(t *testing.T) {
	src := dice.NewSeededSource(1)
	assert.Equal(t, 7, dice.Between(src, 7, 7))
}

func TestPercentile_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := dice.Percentile(src)
		if v < 1 || v > 100 {
			t.Fatalf("percentile roll %d out of [1,100]", v)
		}
	}
}

func TestChance_Extremes(t *testing.T) {
	src := dice.NewSeededSource(42)
	assert.False(t, dice.Chance(src, 0))
	assert.False(t, dice.Chance(src, -0.5))
	assert.True(t, dice.Chance(src, 1))
	assert.True(t, dice.Chance(src, 1.5))
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(99)
	b := dice.NewSeededSource(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestWeightedPick_RespectsWeights(t *testing.T) {
	src := dice.NewSeededSource(7)
	counts := make([]int, 3)
	for i := 0; i < 10000; i++ {
		idx := dice.WeightedPick(src, []int{50, 30, 20})
		counts[idx]++
	}
	assert.Greater(t, counts[0], counts[1])
	assert.Greater(t, counts[1], counts[2])
}

func TestWeightedPick_SkipsZeroWeights(t *testing.T) {
	src := dice.NewSeededSource(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, dice.WeightedPick(src, []int{0, 10, 0}))
	}
}

func TestWeightedPick_AllZero(t *testing.T) {
	src := dice.NewSeededSource(7)
	assert.Equal(t, -1, dice.WeightedPick(src, []int{0, 0}))
}
