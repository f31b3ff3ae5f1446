package search

import (
	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/utils"
)

// Random draws a fixed budget of candidates uniformly from the domain.
// Given the same seed it produces an identical candidate sequence.
type Random struct {
	domain *space.Domain
	rng    *utils.RandSource
	budget int
	issued int
}

// NewRandom creates a random sampler with the given evaluation budget
func NewRandom(domain *space.Domain, iterations int, rng *utils.RandSource) *Random {
	return &Random{
		domain: domain,
		rng:    rng,
		budget: iterations,
	}
}

// HasNext reports whether the iteration budget has draws left
func (r *Random) HasNext() bool {
	return r.issued < r.budget
}

// Next draws the next candidate
func (r *Random) Next() (space.Candidate, error) {
	if r.issued >= r.budget {
		return nil, &StateError{Op: "next", Reason: "iteration budget consumed"}
	}
	r.issued++
	return r.domain.Sample(r.rng), nil
}

// Observe is a no-op: random sampling uses no feedback
func (r *Random) Observe(space.Candidate, float64) error { return nil }

// Total returns the configured iteration budget
func (r *Random) Total() int { return r.budget }

// Recommend has nothing beyond the best observed candidate
func (r *Random) Recommend() (space.Candidate, bool) { return nil, false }
