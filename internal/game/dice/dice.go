// Package dice provides the randomness abstraction shared by combat resolution:
// fuzzy rounding, probabilistic effects and battle setup all draw from a Source.
package dice

import "math"

// Source is the randomness provider for combat resolution.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// FuzzyRound rounds v to an integer so that the expected result equals v:
// floor(v) with probability 1-frac(v), ceil(v) otherwise.
//
// Precondition: src must be non-nil.
// Postcondition: Returns floor(v) or ceil(v).
func FuzzyRound(v float64, src Source) int {
	lo := math.Floor(v)
	frac := v - lo
	if frac == 0 {
		return int(lo)
	}
	if src.Float64() < 1-frac {
		return int(lo)
	}
	return int(lo) + 1
}

// Chance reports true with probability p. p <= 0 never hits and p >= 1 always hits.
//
// Precondition: src must be non-nil.
func Chance(p float64, src Source) bool {
	return src.Float64() < p
}
