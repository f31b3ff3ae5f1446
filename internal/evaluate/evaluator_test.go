package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/searchlab/querytuner/internal/rankeval"
	"github.com/searchlab/querytuner/internal/space"
	"github.com/searchlab/querytuner/pkg/config"
)

const testTemplate = `{"query": {"match": {"title": {"query": "{{query}}", "boost": {{k1}}}}}}`

func testInputs(stub *rankeval.Stub) Inputs {
	return Inputs{
		Service:    stub,
		Templates:  config.TemplateSet{"baseline": testTemplate},
		TemplateID: "baseline",
		Topics: []config.Topic{
			{ID: "q1", Text: "jupiter moons"},
			{ID: "q2", Text: "saturn rings"},
			{ID: "q3", Text: "mars rovers"},
		},
		Qrels: config.Qrels{
			"q1": {"doc1": 2},
			"q2": {"doc2": 1},
			"q3": {"doc3": 3},
		},
		Metric:   config.Metric{Name: "ndcg", AtK: 10, MissingJudgments: config.MissingSkip},
		Defaults: map[string]any{"k1": 1.2},
	}
}

func scoreByQuery(scores map[string]float64) func(req rankeval.Request) (float64, error) {
	return func(req rankeval.Request) (float64, error) {
		score, ok := scores[req.QueryID]
		if !ok {
			return 0, fmt.Errorf("unexpected query %s", req.QueryID)
		}
		return score, nil
	}
}

func TestScoreAveragesPerQueryScores(t *testing.T) {
	stub := &rankeval.Stub{ScoreFunc: scoreByQuery(map[string]float64{
		"q1": 0.9, "q2": 0.6, "q3": 0.3,
	})}
	ev, err := New(testInputs(stub))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := ev.Score(context.Background(), space.Candidate{"k1": 0.8})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if want := 0.6; math.Abs(res.Score-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", res.Score, want)
	}
	if len(res.PerQuery) != 3 {
		t.Fatalf("PerQuery len = %d", len(res.PerQuery))
	}
	if res.PerQuery[0].QueryID != "q1" || res.PerQuery[0].Score != 0.9 {
		t.Errorf("PerQuery[0] = %+v", res.PerQuery[0])
	}
	if res.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestScoreRendersCandidateOverDefaults(t *testing.T) {
	stub := &rankeval.Stub{ScoreFunc: func(rankeval.Request) (float64, error) { return 0.5, nil }}
	ev, err := New(testInputs(stub))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := ev.Score(context.Background(), space.Candidate{"k1": 0.8}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	batch, ok := stub.LastBatch()
	if !ok {
		t.Fatal("stub saw no batch")
	}
	if len(batch.Requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(batch.Requests))
	}
	req := batch.Requests[0]
	want := `{"query": {"match": {"title": {"query": "jupiter moons", "boost": 0.8}}}}`
	if req.Template != want {
		t.Errorf("Template = %q, want %q", req.Template, want)
	}
	if req.Params["k1"] != 0.8 {
		t.Errorf("Params = %v, candidate should override the default", req.Params)
	}
}

func TestScoreSkipsUnjudgedQueries(t *testing.T) {
	stub := &rankeval.Stub{ScoreFunc: scoreByQuery(map[string]float64{
		"q1": 0.8, "q3": 0.4,
	})}
	in := testInputs(stub)
	delete(in.Qrels, "q2")
	ev, err := New(in)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := ev.Score(context.Background(), space.Candidate{"k1": 1.0})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if want := 0.6; math.Abs(res.Score-want) > 1e-12 {
		t.Errorf("Score = %v, want mean over judged queries %v", res.Score, want)
	}
	if !res.PerQuery[1].Skipped {
		t.Error("expected q2 marked skipped")
	}
	batch, _ := stub.LastBatch()
	if len(batch.Requests) != 2 {
		t.Errorf("expected no request for the unjudged query, got %d requests", len(batch.Requests))
	}
}

func TestScoreCountsUnjudgedAsZero(t *testing.T) {
	stub := &rankeval.Stub{ScoreFunc: scoreByQuery(map[string]float64{
		"q1": 0.9, "q3": 0.6,
	})}
	in := testInputs(stub)
	delete(in.Qrels, "q2")
	in.Metric.MissingJudgments = config.MissingZero
	ev, err := New(in)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := ev.Score(context.Background(), space.Candidate{"k1": 1.0})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if want := 0.5; math.Abs(res.Score-want) > 1e-12 {
		t.Errorf("Score = %v, want %v with the unjudged query counted as zero", res.Score, want)
	}
	if res.PerQuery[1].Skipped {
		t.Error("zero policy should not mark the query skipped")
	}
}

func TestScoreToleratesPartialFailures(t *testing.T) {
	stub := &rankeval.Stub{ScoreFunc: func(req rankeval.Request) (float64, error) {
		if req.QueryID == "q2" {
			return 0, errors.New("timeout")
		}
		return 0.4, nil
	}}
	ev, err := New(testInputs(stub))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := ev.Score(context.Background(), space.Candidate{"k1": 1.0})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if want := 0.4; math.Abs(res.Score-want) > 1e-12 {
		t.Errorf("Score = %v, want mean over successful queries %v", res.Score, want)
	}
	if res.PerQuery[1].Err == "" {
		t.Error("expected the failed query's error recorded")
	}
}

func TestScoreFailsWhenEveryQueryFails(t *testing.T) {
	stub := &rankeval.Stub{ScoreFunc: func(rankeval.Request) (float64, error) {
		return 0, errors.New("index unavailable")
	}}
	ev, err := New(testInputs(stub))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = ev.Score(context.Background(), space.Candidate{"k1": 1.0})
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *EvalError, got %v", err)
	}
}

func TestScoreFailsOnTransportError(t *testing.T) {
	stub := &rankeval.Stub{EvaluateErr: errors.New("connection refused")}
	ev, err := New(testInputs(stub))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = ev.Score(context.Background(), space.Candidate{"k1": 1.0})
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *EvalError, got %v", err)
	}
}

func TestScoreReportsUnresolvedPlaceholder(t *testing.T) {
	stub := &rankeval.Stub{}
	in := testInputs(stub)
	in.Templates = config.TemplateSet{"baseline": `{"boost": {{b_unknown}}}`}
	ev, err := New(in)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = ev.Score(context.Background(), space.Candidate{"k1": 1.0})
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected *RenderError, got %v", err)
	}
	if stub.Calls() != 0 {
		t.Error("no batch should be sent when rendering fails")
	}
}

func TestNewValidatesInputs(t *testing.T) {
	stub := &rankeval.Stub{}

	in := testInputs(stub)
	in.TemplateID = "missing"
	if _, err := New(in); err == nil {
		t.Error("expected an error for an unknown template id")
	}

	in = testInputs(stub)
	in.Topics = nil
	if _, err := New(in); err == nil {
		t.Error("expected an error for an empty topic set")
	}

	in = testInputs(stub)
	in.Service = nil
	if _, err := New(in); err == nil {
		t.Error("expected an error for a nil service")
	}
}
