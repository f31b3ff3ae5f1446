package rankeval

import (
	"context"
	"sync"
)

// Stub is an in-process Service for tests. ScoreFunc computes the score
// for a request; a nil ScoreFunc scores everything 0. It records every
// batch it receives.
type Stub struct {
	mu      sync.Mutex
	batches []Batch

	// ScoreFunc returns the score for one request. Returning an error
	// marks that request failed.
	ScoreFunc func(req Request) (float64, error)
	// EvaluateErr, when set, is returned from every Evaluate call
	EvaluateErr error
}

// Evaluate scores each request in order with ScoreFunc
func (s *Stub) Evaluate(ctx context.Context, batch Batch) ([]Result, error) {
	s.mu.Lock()
	s.batches = append(s.batches, batch)
	s.mu.Unlock()

	if s.EvaluateErr != nil {
		return nil, s.EvaluateErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, len(batch.Requests))
	for i, req := range batch.Requests {
		res := Result{RequestID: req.RequestID, QueryID: req.QueryID}
		if s.ScoreFunc != nil {
			score, err := s.ScoreFunc(req)
			if err != nil {
				res.Err = err.Error()
			} else {
				res.Score = score
			}
		}
		results[i] = res
	}
	return results, nil
}

// Calls reports how many batches the stub has evaluated
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// LastBatch returns the most recently evaluated batch
func (s *Stub) LastBatch() (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return Batch{}, false
	}
	return s.batches[len(s.batches)-1], true
}
