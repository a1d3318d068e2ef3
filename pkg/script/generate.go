package script

import (
	"fmt"
	"math/rand/v2"
)

// Generator produces random step sequences for property-style tests.
// The same seed always yields the same sequence.
type Generator struct {
	rng *rand.Rand

	// BlockRatio is the share of WouldBlock steps.
	BlockRatio float64

	// LimitedRatio is the share of Limited steps, with counts in
	// [1, MaxLimit].
	LimitedRatio float64
	MaxLimit     int

	// ErrRatio is the share of Err steps. Errors are named E0, E1, ...
	ErrRatio float64

	errs int
}

// NewGenerator creates a generator that yields 75% Unlimited and 25%
// WouldBlock steps until the ratios are changed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		BlockRatio: 0.25,
		MaxLimit:   4,
	}
}

// Step returns one random step.
func (g *Generator) Step() Step {
	r := g.rng.Float64()
	switch {
	case r < g.BlockRatio:
		return WouldBlock()
	case r < g.BlockRatio+g.LimitedRatio:
		return Limited(1 + g.rng.IntN(max(g.MaxLimit, 1)))
	case r < g.BlockRatio+g.LimitedRatio+g.ErrRatio:
		err := &InjectedError{Name: fmt.Sprintf("E%d", g.errs)}
		g.errs++
		return Fail(err)
	default:
		return Unlimited()
	}
}

// Steps returns n random steps.
func (g *Generator) Steps(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = g.Step()
	}
	return steps
}
