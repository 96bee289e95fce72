package synth

import "math/rand/v2"

// Source is the primitive random stream behind Rand. *rand.Rand from
// math/rand/v2 satisfies it; tests substitute fixed draws.
type Source interface {
	Float64() float64
	Int64N(n int64) int64
}

// Rand is the single random source used for a generation run. Every draw
// made while building a dataset goes through one Rand, so a seed fully
// determines the output.
type Rand struct {
	src Source
}

// NewRand returns a reproducible Rand for seed.
func NewRand(seed uint64) *Rand {
	return &Rand{src: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// FromSource wraps an arbitrary Source.
func FromSource(src Source) *Rand {
	return &Rand{src: src}
}

// Uniform returns a float in [a, b).
func (r *Rand) Uniform(a, b float64) float64 {
	return a + (b-a)*r.src.Float64()
}

// IntRange returns an integer in [lo, hi], both ends inclusive.
// A collapsed or inverted range yields lo.
func (r *Rand) IntRange(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + r.src.Int64N(hi-lo+1)
}
