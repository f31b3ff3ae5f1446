package search

import (
	"github.com/searchlab/querytuner/internal/space"
)

// Grid enumerates the full cartesian product of per-parameter value lists
// in lexicographic order: the first declared parameter varies slowest,
// matching nested-loop semantics. Deterministic, no randomness.
type Grid struct {
	domain *space.Domain
	axes   [][]any
	total  int
	index  int
}

// NewGrid materializes the grid for the domain with the given step count
// per numeric axis
func NewGrid(domain *space.Domain, steps int) *Grid {
	axes := domain.GridAxes(steps)
	total := 1
	for _, axis := range axes {
		total *= len(axis)
	}
	return &Grid{
		domain: domain,
		axes:   axes,
		total:  total,
	}
}

// HasNext reports whether any combinations remain
func (g *Grid) HasNext() bool {
	return g.index < g.total
}

// Next returns the next combination in enumeration order
func (g *Grid) Next() (space.Candidate, error) {
	if g.index >= g.total {
		return nil, &StateError{Op: "next", Reason: "grid exhausted"}
	}

	params := g.domain.Params()
	c := make(space.Candidate, len(params))

	// mixed-radix digits of index, last axis fastest
	rem := g.index
	for i := len(g.axes) - 1; i >= 0; i-- {
		card := len(g.axes[i])
		c[params[i].Name] = g.axes[i][rem%card]
		rem /= card
	}

	g.index++
	return c, nil
}

// Observe is a no-op: grid enumeration uses no feedback
func (g *Grid) Observe(space.Candidate, float64) error { return nil }

// Total returns the exact product of per-axis cardinalities
func (g *Grid) Total() int { return g.total }

// Recommend has nothing beyond the best observed candidate
func (g *Grid) Recommend() (space.Candidate, bool) { return nil, false }
