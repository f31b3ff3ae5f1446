package rankeval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/searchlab/querytuner/pkg/config"
	"github.com/searchlab/querytuner/pkg/logger"
	"github.com/searchlab/querytuner/pkg/utils"
)

const rankEvalPath = "/rank_eval"

// Client talks to a remote ranking-evaluation endpoint over HTTP/JSON.
// Each request in a batch becomes one POST; the worker pool caps how many
// are in flight at once so a large topic set cannot overwhelm the engine.
type Client struct {
	endpoint   string
	httpClient *http.Client
	pool       *ants.Pool
	maxRetries int
	backoff    utils.BackoffStrategy
}

// NewClient builds a Client from connection settings. Close must be
// called when the client is no longer needed to release the worker pool.
func NewClient(settings *config.Settings) (*Client, error) {
	pool, err := ants.NewPool(settings.MaxConcurrency)
	if err != nil {
		return nil, fmt.Errorf("creating request pool: %w", err)
	}
	return &Client{
		endpoint: strings.TrimRight(settings.SearchURL, "/") + rankEvalPath,
		httpClient: &http.Client{
			Timeout: time.Duration(settings.TimeoutMs) * time.Millisecond,
		},
		pool:       pool,
		maxRetries: settings.MaxRetries,
		backoff: utils.NewExponentialBackoff(
			time.Duration(settings.RetryBaseMs)*time.Millisecond,
			time.Duration(settings.TimeoutMs)*time.Millisecond,
			2.0, true,
		),
	}, nil
}

// Close releases the underlying worker pool
func (c *Client) Close() {
	c.pool.Release()
}

type evalPayload struct {
	Request
	Ratings map[string]int `json:"ratings,omitempty"`
	Metric  config.Metric  `json:"metric"`
}

type evalResponse struct {
	Score float64 `json:"score"`
	Hits  []Hit   `json:"hits,omitempty"`
	Err   string  `json:"error,omitempty"`
}

// Evaluate sends every request in the batch, at most MaxConcurrency at a
// time, and returns one Result per request in request order. Per-request
// failures are reported in the Result; the error return is reserved for
// context cancellation.
func (c *Client) Evaluate(ctx context.Context, batch Batch) ([]Result, error) {
	results := make([]Result, len(batch.Requests))
	var wg sync.WaitGroup
	for i := range batch.Requests {
		i := i
		req := batch.Requests[i]
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			results[i] = c.evaluateOne(ctx, req, batch)
		}); err != nil {
			wg.Done()
			results[i] = Result{
				RequestID: req.RequestID,
				QueryID:   req.QueryID,
				Err:       fmt.Sprintf("submitting request: %v", err),
			}
		}
	}
	wg.Wait()
	return results, ctx.Err()
}

func (c *Client) evaluateOne(ctx context.Context, req Request, batch Batch) Result {
	payload := evalPayload{
		Request: req,
		Ratings: batch.Qrels[req.QueryID],
		Metric:  batch.Metric,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{RequestID: req.RequestID, QueryID: req.QueryID,
			Err: fmt.Sprintf("encoding request: %v", err)}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff.NextDelay(attempt - 1)
			logger.Debug("retrying ranking request",
				"request_id", req.RequestID, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return Result{RequestID: req.RequestID, QueryID: req.QueryID,
					Err: ctx.Err().Error()}
			case <-time.After(delay):
			}
		}

		resp, retryable, err := c.post(ctx, body)
		if err == nil {
			return Result{
				RequestID: req.RequestID,
				QueryID:   req.QueryID,
				Score:     resp.Score,
				Hits:      resp.Hits,
				Err:       resp.Err,
			}
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return Result{RequestID: req.RequestID, QueryID: req.QueryID, Err: lastErr.Error()}
}

// post performs one HTTP round trip. The bool reports whether the failure
// is worth retrying: transport errors and 5xx responses are, 4xx are not.
func (c *Client) post(ctx context.Context, body []byte) (*evalResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		retryable := httpResp.StatusCode >= http.StatusInternalServerError
		return nil, retryable, fmt.Errorf("unexpected status %d: %s",
			httpResp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var resp evalResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, false, nil
}
