// Package rankeval is the boundary to the ranking-evaluation service: the
// search engine endpoint that executes a templated ranking request per
// judged query and scores the resulting ranking against the supplied
// relevance judgments. The Service interface is deliberately narrow so the
// optimization core can be tested against the in-process Stub.
package rankeval

import (
	"context"

	"github.com/searchlab/querytuner/pkg/config"
)

// Request is one templated ranking request for a single judged query
type Request struct {
	RequestID  string         `json:"request_id"`
	QueryID    string         `json:"query_id"`
	TemplateID string         `json:"template_id"`
	Template   string         `json:"template"`
	Params     map[string]any `json:"params"`
	Query      string         `json:"query"`
}

// Hit is one ranked document returned by the service
type Hit struct {
	DocID string  `json:"doc_id"`
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
}

// Result carries the per-query metric score and supporting detail.
// A failed request surfaces its error here, per request, never silently.
type Result struct {
	RequestID string  `json:"request_id"`
	QueryID   string  `json:"query_id"`
	Score     float64 `json:"score"`
	Hits      []Hit   `json:"hits,omitempty"`
	Err       string  `json:"error,omitempty"`
}

// Failed reports whether the request could not be scored
func (r *Result) Failed() bool { return r.Err != "" }

// Batch is one evaluation call: all per-query requests for a candidate,
// plus the judgments and metric definition the service scores them with.
type Batch struct {
	Requests []Request     `json:"requests"`
	Metric   config.Metric `json:"metric"`
	Qrels    config.Qrels  `json:"qrels"`
}

// Service evaluates a batch of ranking requests. Implementations bound
// the number of concurrently in-flight requests; errors are reported per
// request in the Results, transport-level failures as the error. Given
// identical inputs and a static index the results are deterministic.
type Service interface {
	Evaluate(ctx context.Context, batch Batch) ([]Result, error)
}
