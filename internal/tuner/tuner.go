// Package tuner runs the optimization loop: it draws candidates from a
// search generator, scores them with the evaluator, feeds scores back,
// and tracks the best assignment seen across the run.
package tuner

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/searchlab/querytuner/internal/evaluate"
	"github.com/searchlab/querytuner/internal/search"
	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/logger"
)

// FailedScore is the sentinel recorded for iterations whose candidate
// could not be scored. It compares below every real score.
var FailedScore = math.Inf(-1)

// Progress is a per-iteration snapshot delivered to the progress callback
type Progress struct {
	Iteration int
	Total     int
	Candidate space.Candidate
	Score     float64
	BestScore float64
	Failed    bool
	Duration  time.Duration
}

// ProgressFunc receives one Progress per completed iteration. It is
// called synchronously from the run loop.
type ProgressFunc func(Progress)

// Entry is one iteration in the run history
type Entry struct {
	Iteration int             `json:"iteration"`
	Candidate space.Candidate `json:"candidate"`
	Score     float64         `json:"score"`
	Failed    bool            `json:"failed,omitempty"`
	Duration  time.Duration   `json:"duration"`
	Err       string          `json:"error,omitempty"`
}

// Outcome is the result of a completed tuning run. It is valid even when
// the run was cut short by cancellation or every iteration failed.
type Outcome struct {
	RunID         string          `json:"run_id"`
	Method        config.Method   `json:"method"`
	BestScore     float64         `json:"best_score"`
	BestCandidate space.Candidate `json:"best_candidate"`
	// FinalCandidate is the assignment to adopt: the generator's
	// recommendation when it has one, otherwise the best observed.
	FinalCandidate space.Candidate `json:"final_candidate"`
	History        []Entry         `json:"history"`
	Elapsed        time.Duration   `json:"elapsed"`
}

// Scorer evaluates one candidate. *evaluate.Evaluator is the production
// implementation.
type Scorer interface {
	Score(ctx context.Context, candidate space.Candidate) (*evaluate.Result, error)
}

// Tuner drives one tuning run. It is single-use: build a fresh Tuner,
// with a fresh generator, for each run.
type Tuner struct {
	method    config.Method
	generator search.Generator
	scorer    Scorer
	progress  ProgressFunc
}

// New builds a Tuner. The progress callback may be nil.
func New(method config.Method, generator search.Generator, scorer Scorer, progress ProgressFunc) *Tuner {
	return &Tuner{
		method:    method,
		generator: generator,
		scorer:    scorer,
		progress:  progress,
	}
}

// Run executes the tuning loop until the generator is exhausted or the
// context is cancelled. A candidate that fails to score is recorded with
// FailedScore and the run continues; generator contract violations abort
// the run with the underlying *search.StateError.
func (t *Tuner) Run(ctx context.Context) (*Outcome, error) {
	outcome := &Outcome{
		RunID:     uuid.NewString(),
		Method:    t.method,
		BestScore: FailedScore,
	}
	total := t.generator.Total()
	start := time.Now()
	logger.Info("starting tuning run",
		"run_id", outcome.RunID, "method", t.method, "total", total)

	for iteration := 0; t.generator.HasNext(); iteration++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("tuning run cancelled",
				"run_id", outcome.RunID, "completed", iteration, "total", total)
			break
		}

		candidate, err := t.generator.Next()
		if err != nil {
			return nil, err
		}

		iterStart := time.Now()
		entry := Entry{Iteration: iteration, Candidate: candidate}
		result, err := t.scorer.Score(ctx, candidate)
		entry.Duration = time.Since(iterStart)
		if err != nil {
			entry.Failed = true
			entry.Score = FailedScore
			entry.Err = err.Error()
			logger.Warn("iteration failed",
				"run_id", outcome.RunID, "iteration", iteration, "error", err)
		} else {
			entry.Score = result.Score
		}
		outcome.History = append(outcome.History, entry)

		if err := t.generator.Observe(candidate, entry.Score); err != nil {
			return nil, err
		}

		if !entry.Failed && entry.Score > outcome.BestScore {
			outcome.BestScore = entry.Score
			outcome.BestCandidate = candidate
			logger.Debug("new best candidate",
				"run_id", outcome.RunID, "iteration", iteration, "score", entry.Score)
		}

		if t.progress != nil {
			t.progress(Progress{
				Iteration: iteration,
				Total:     total,
				Candidate: candidate,
				Score:     entry.Score,
				BestScore: outcome.BestScore,
				Failed:    entry.Failed,
				Duration:  entry.Duration,
			})
		}
	}

	if recommended, ok := t.generator.Recommend(); ok {
		outcome.FinalCandidate = recommended
	} else {
		outcome.FinalCandidate = outcome.BestCandidate
	}
	outcome.Elapsed = time.Since(start)

	logger.Info("tuning run finished",
		"run_id", outcome.RunID,
		"iterations", len(outcome.History),
		"best_score", outcome.BestScore,
		"elapsed", outcome.Elapsed)
	return outcome, nil
}
