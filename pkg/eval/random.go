package eval

import "math/rand/v2"

// RandomSource produces the draws of unif, gauss and the other random
// functions. One source is shared by a context and its children, so a
// run with the same seed reproduces the same values.
type RandomSource struct {
	seed uint64
	r    *rand.Rand
}

func NewRandomSource(seed uint64) *RandomSource {
	return &RandomSource{seed: seed, r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomSource) Seed() uint64 { return s.seed }

// Float64 returns a uniform draw in [0, 1).
func (s *RandomSource) Float64() float64 { return s.r.Float64() }

// Norm returns a standard normal draw.
func (s *RandomSource) Norm() float64 { return s.r.NormFloat64() }
