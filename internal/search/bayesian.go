package search

import (
	"fmt"
	"math"

	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/utils"
)

const (
	// candidates scored by the acquisition function per proposal
	acquisitionSamples = 256
	// local refinement rounds on the acquisition argmax
	refineRounds = 32
	refineSigma  = 0.05
)

type observation struct {
	candidate space.Candidate
	vector    []float64
	score     float64
}

// Bayesian proposes candidates by fitting a Gaussian-process surrogate to
// all prior observations and maximizing an expected-improvement
// acquisition over the domain. The first InitialRandom draws are uniform
// random (the surrogate needs observations before it can be fit). Strictly
// sequential: every issued candidate must be observed before the next one
// is requested.
type Bayesian struct {
	domain        *space.Domain
	rng           *utils.RandSource
	budget        int
	initialRandom int
	xi            float64
	issued        int
	pending       bool
	observations  []observation
}

// NewBayesian creates a Bayesian generator from validated method options
func NewBayesian(domain *space.Domain, opts config.Options, rng *utils.RandSource) *Bayesian {
	return &Bayesian{
		domain:        domain,
		rng:           rng,
		budget:        opts.Iterations,
		initialRandom: opts.InitialRandom,
		xi:            opts.Exploration,
	}
}

// HasNext reports whether the evaluation budget has draws left
func (b *Bayesian) HasNext() bool {
	return b.issued < b.budget
}

// Next proposes the next candidate. It is an error to call Next before the
// previously issued candidate has been observed.
func (b *Bayesian) Next() (space.Candidate, error) {
	if b.issued >= b.budget {
		return nil, &StateError{Op: "next", Reason: "iteration budget consumed"}
	}
	if b.pending {
		return nil, &StateError{Op: "next", Reason: "previously issued candidate has not been observed"}
	}

	var c space.Candidate
	if b.issued < b.initialRandom {
		c = b.domain.Sample(b.rng)
	} else {
		c = b.propose()
	}

	b.issued++
	b.pending = true
	return c, nil
}

// Observe appends the (candidate, score) pair to the accumulated
// observation set. A sentinel -Inf score is kept as-is and clamped only
// at fitting time.
func (b *Bayesian) Observe(c space.Candidate, score float64) error {
	if !b.pending {
		return &StateError{Op: "observe", Reason: "no candidate awaiting observation"}
	}
	v, err := b.domain.Encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode observed candidate: %w", err)
	}
	b.observations = append(b.observations, observation{candidate: c, vector: v, score: score})
	b.pending = false
	return nil
}

// Total returns the configured iteration budget
func (b *Bayesian) Total() int { return b.budget }

// propose refits the surrogate and maximizes expected improvement over
// sampled candidates, followed by local refinement in the encoded space.
// Falls back to a uniform draw when no surrogate can be fit.
func (b *Bayesian) propose() space.Candidate {
	gp, best, ok := b.fitSurrogate()
	if !ok {
		return b.domain.Sample(b.rng)
	}

	var bestVec []float64
	bestAcq := math.Inf(-1)
	for i := 0; i < acquisitionSamples; i++ {
		c := b.domain.Sample(b.rng)
		v, err := b.domain.Encode(c)
		if err != nil {
			continue
		}
		mu, sigma := gp.Predict(v)
		if acq := expectedImprovement(mu, sigma, best, b.xi); acq > bestAcq {
			bestAcq = acq
			bestVec = v
		}
	}
	if bestVec == nil {
		return b.domain.Sample(b.rng)
	}

	// Local refinement over the continuous relaxation; Decode snaps the
	// result back onto valid domain values.
	for i := 0; i < refineRounds; i++ {
		jittered := make([]float64, len(bestVec))
		for j, v := range bestVec {
			jittered[j] = utils.ClampFloat64(b.rng.NormFloat64(v, refineSigma), 0, 1)
		}
		mu, sigma := gp.Predict(jittered)
		if acq := expectedImprovement(mu, sigma, best, b.xi); acq > bestAcq {
			bestAcq = acq
			bestVec = jittered
		}
	}

	return b.domain.Decode(bestVec)
}

// Recommend returns the candidate with the highest posterior mean over the
// observed candidates plus a fresh sample of the domain: a recommendation
// robust to evaluation noise. Returns false when the surrogate cannot be
// fit (fewer than two successfully scored observations).
func (b *Bayesian) Recommend() (space.Candidate, bool) {
	gp, _, ok := b.fitSurrogate()
	if !ok {
		return nil, false
	}

	var best space.Candidate
	bestMean := math.Inf(-1)

	// Observed candidates first, so ties resolve to the earliest evaluated.
	for _, obs := range b.observations {
		if math.IsInf(obs.score, -1) {
			continue
		}
		if mu, _ := gp.Predict(obs.vector); mu > bestMean {
			bestMean = mu
			best = obs.candidate
		}
	}
	for i := 0; i < acquisitionSamples; i++ {
		c := b.domain.Sample(b.rng)
		v, err := b.domain.Encode(c)
		if err != nil {
			continue
		}
		if mu, _ := gp.Predict(v); mu > bestMean {
			bestMean = mu
			best = c
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

// fitSurrogate fits the GP over all observations, with sentinel scores
// clamped just below the worst finite score so failed regions repel the
// acquisition without wrecking the fit. Returns the best finite score.
func (b *Bayesian) fitSurrogate() (gp *gaussianProcess, best float64, ok bool) {
	finite := make([]float64, 0, len(b.observations))
	for _, obs := range b.observations {
		if !math.IsInf(obs.score, -1) && !math.IsNaN(obs.score) {
			finite = append(finite, obs.score)
		}
	}
	if len(finite) < 2 {
		return nil, 0, false
	}

	worst, bestFinite := finite[0], finite[0]
	for _, s := range finite[1:] {
		worst = math.Min(worst, s)
		bestFinite = math.Max(bestFinite, s)
	}
	spread := bestFinite - worst
	if spread <= 0 {
		spread = 1.0
	}
	penalty := worst - spread

	xs := make([][]float64, len(b.observations))
	ys := make([]float64, len(b.observations))
	for i, obs := range b.observations {
		xs[i] = obs.vector
		if math.IsInf(obs.score, -1) || math.IsNaN(obs.score) {
			ys[i] = penalty
		} else {
			ys[i] = obs.score
		}
	}

	fitted, err := fitGP(xs, ys)
	if err != nil {
		return nil, 0, false
	}
	return fitted, bestFinite, true
}
