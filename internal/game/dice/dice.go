// Package dice provides the core randomness abstraction for the Saltmere
// combat and spawn engines: an injectable Source plus the small set of roll
// shapes the runtime actually uses (ranges, percentile checks, chance rolls).
package dice

// Source is the randomness provider for all rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Between returns a uniform random int in [min, max] inclusive.
//
// Precondition: src must be non-nil; min <= max.
// Postcondition: min <= result <= max.
func Between(src Source, min, max int) int {
	if min >= max {
		return min
	}
	return min + src.Intn(max-min+1)
}

// Percentile returns a d100 roll in [1, 100].
//
// Precondition: src must be non-nil.
func Percentile(src Source) int {
	return src.Intn(100) + 1
}

// chanceScale is the resolution used to convert float probabilities to
// integer rolls so Source needs only Intn.
const chanceScale = 1_000_000

// Chance reports whether an event with probability p occurred.
// p <= 0 never occurs; p >= 1 always occurs.
//
// Precondition: src must be non-nil.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Intn(chanceScale) < int(p*chanceScale)
}

// WeightedPick selects an index from weights proportionally to each weight.
// Zero or negative weights are never selected.
//
// Precondition: src must be non-nil; at least one weight must be > 0.
// Postcondition: Returns an index i with weights[i] > 0, or -1 when no
// weight is positive.
func WeightedPick(src Source, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := src.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return -1
}
