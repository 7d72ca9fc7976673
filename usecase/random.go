package usecase

import "math/rand/v2"

// Random is the source of every draw. *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int   { return rand.IntN(n) }
func (globalRandom) Float64() float64 { return rand.Float64() }

// DefaultRandom returns the process-wide, automatically seeded generator.
func DefaultRandom() Random { return globalRandom{} }

// SeededRandom returns a deterministic generator, used by tests and reproducible runs.
func SeededRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
