package evaluate

import (
	"context"
	"fmt"
	"time"

	"github.com/searchlab/querytuner/internal/rankeval"
	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/logger"
)

// EvalError reports that a candidate could not be scored at all. Like
// RenderError it fails the current candidate only; the run continues.
type EvalError struct {
	Reason string
}

func (e *EvalError) Error() string {
	return "evaluating candidate: " + e.Reason
}

// QueryScore is the scoring outcome for a single judged query
type QueryScore struct {
	QueryID string  `json:"query_id"`
	Score   float64 `json:"score"`
	Skipped bool    `json:"skipped,omitempty"`
	Err     string  `json:"error,omitempty"`
}

// Result is the scored outcome of one candidate evaluation
type Result struct {
	Candidate space.Candidate `json:"candidate"`
	Score     float64         `json:"score"`
	PerQuery  []QueryScore    `json:"per_query"`
	Duration  time.Duration   `json:"duration"`
}

// Inputs bundles the fixed collaborators and corpus of an Evaluator
type Inputs struct {
	Service    rankeval.Service
	Templates  config.TemplateSet
	TemplateID string
	Topics     []config.Topic
	Qrels      config.Qrels
	Metric     config.Metric
	// Defaults fills in template parameters the candidate leaves unset
	Defaults map[string]any
}

// Evaluator scores candidates against the topic set. It holds no mutable
// state, so a single Evaluator serves a whole tuning run.
type Evaluator struct {
	service    rankeval.Service
	templateID string
	template   string
	topics     []config.Topic
	qrels      config.Qrels
	metric     config.Metric
	defaults   map[string]any
}

// New validates the inputs and builds an Evaluator
func New(in Inputs) (*Evaluator, error) {
	if in.Service == nil {
		return nil, fmt.Errorf("evaluator requires a ranking-evaluation service")
	}
	if len(in.Topics) == 0 {
		return nil, fmt.Errorf("evaluator requires at least one topic")
	}
	template, ok := in.Templates[in.TemplateID]
	if !ok {
		return nil, fmt.Errorf("template %q not found in template set", in.TemplateID)
	}
	return &Evaluator{
		service:    in.Service,
		templateID: in.TemplateID,
		template:   template,
		topics:     in.Topics,
		qrels:      in.Qrels,
		metric:     in.Metric,
		defaults:   in.Defaults,
	}, nil
}

// Score evaluates one candidate: render the template per query, send the
// batch, and aggregate the per-query metric scores into their arithmetic
// mean. Queries without relevance judgments follow the metric's
// missing-judgments policy. Individual query failures are tolerated; the
// failed queries are excluded from the mean and reported in PerQuery.
// Score returns an error only when no query produced a usable score.
func (e *Evaluator) Score(ctx context.Context, candidate space.Candidate) (*Result, error) {
	start := time.Now()
	params := candidate.Merge(e.defaults)

	res := &Result{
		Candidate: candidate,
		PerQuery:  make([]QueryScore, len(e.topics)),
	}
	batch := rankeval.Batch{Metric: e.metric, Qrels: e.qrels}
	slots := make(map[string]int, len(e.topics))

	sum := 0.0
	scored := 0
	for i, topic := range e.topics {
		res.PerQuery[i] = QueryScore{QueryID: topic.ID}
		if len(e.qrels[topic.ID]) == 0 {
			if e.metric.MissingJudgments == config.MissingZero {
				// Counts as a zero score without a round trip
				scored++
			} else {
				res.PerQuery[i].Skipped = true
			}
			continue
		}

		values := params.Clone()
		values["query"] = topic.Text
		body, err := Render(e.templateID, e.template, values)
		if err != nil {
			return nil, err
		}
		slots[topic.ID] = i
		batch.Requests = append(batch.Requests, rankeval.Request{
			RequestID:  fmt.Sprintf("%s-%d", topic.ID, i),
			QueryID:    topic.ID,
			TemplateID: e.templateID,
			Template:   body,
			Params:     params,
			Query:      topic.Text,
		})
	}

	if len(batch.Requests) == 0 && scored == 0 {
		return nil, &EvalError{Reason: "no queries with relevance judgments"}
	}

	if len(batch.Requests) > 0 {
		results, err := e.service.Evaluate(ctx, batch)
		if err != nil {
			return nil, &EvalError{Reason: fmt.Sprintf("ranking-evaluation call failed: %v", err)}
		}

		failed := 0
		for _, r := range results {
			i, ok := slots[r.QueryID]
			if !ok {
				continue
			}
			if r.Failed() {
				res.PerQuery[i].Err = r.Err
				failed++
				continue
			}
			res.PerQuery[i].Score = r.Score
			sum += r.Score
			scored++
		}
		if failed > 0 {
			logger.Warn("some queries failed during evaluation",
				"failed", failed, "total", len(batch.Requests))
		}
	}

	if scored == 0 {
		return nil, &EvalError{Reason: "every query failed to score"}
	}
	res.Score = sum / float64(scored)
	res.Duration = time.Since(start)
	return res, nil
}
