package search

import (
	"fmt"

	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/utils"
)

// Generator produces candidates to evaluate. Implementations are owned by
// exactly one run and are not safe for concurrent use; the run loop drives
// them strictly sequentially.
type Generator interface {
	// HasNext reports whether the generator can produce another candidate
	HasNext() bool
	// Next returns the next candidate to evaluate
	Next() (space.Candidate, error)
	// Observe feeds the score for a previously issued candidate back to
	// the generator. Methods without feedback treat this as a no-op.
	Observe(c space.Candidate, score float64) error
	// Total returns the total number of candidates the generator will issue
	Total() int
	// Recommend returns the generator's final-candidate recommendation,
	// or false when it has none beyond the best observed score.
	Recommend() (space.Candidate, bool)
}

// StateError reports a programming-contract violation: Next on an
// exhausted generator, or feedback-dependent generation out of order.
// It signals a defect in the caller, not a data problem.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("generator state error in %s: %s", e.Op, e.Reason)
}

// New builds the generator for the configured method
func New(cfg *config.Config, rng *utils.RandSource) (Generator, error) {
	domain := space.New(cfg.Parameters)
	switch cfg.Method {
	case config.MethodGrid:
		return NewGrid(domain, cfg.Options.Steps), nil
	case config.MethodRandom:
		return NewRandom(domain, cfg.Options.Iterations, rng), nil
	case config.MethodBayesian:
		return NewBayesian(domain, cfg.Options, rng), nil
	default:
		return nil, fmt.Errorf("unsupported search method %q", cfg.Method)
	}
}
