// Package gateway wraps the external search API with retries, rate
// limiting, and evidence scoring.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/lineupscout/festival-cli/internal/config"
	"github.com/lineupscout/festival-cli/internal/evidence"
	"github.com/lineupscout/festival-cli/internal/model"
	"github.com/lineupscout/festival-cli/internal/resilience"
	"github.com/lineupscout/festival-cli/pkg/exa"
)

// Query is one templated search a phase wants answered.
type Query struct {
	Text           string
	Purpose        string
	NumResults     int
	IncludeDomains []string
	SummaryFocus   string
	HighlightFocus string
}

// Searcher is the search dependency phase extractors consume. A successful
// call with no matches returns an empty non-nil slice; a nil slice never
// means "no results", it means the call failed.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]model.Evidence, error)
}

// MaxRetrier is implemented by searchers whose retry bound can be
// overridden per run.
type MaxRetrier interface {
	WithMaxRetries(maxRetries int) Searcher
}

// Gateway implements Searcher over the Exa client with bounded retries,
// client-side rate limiting, and a shared circuit breaker.
type Gateway struct {
	client  exa.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// New creates a Gateway from configuration.
func New(client exa.Client, cfg config.GatewayConfig) *Gateway {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries + 1
	if cfg.BackoffBaseMS > 0 {
		retry.BaseBackoff = time.Duration(cfg.BackoffBaseMS) * time.Millisecond
	}
	retry.OnRetry = resilience.RetryLogger("exa", "search")

	return &Gateway{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: resilience.NewBreaker(5, 30*time.Second),
		retry:   retry,
	}
}

// WithMaxRetries returns a shallow copy using a per-run retry bound. The
// limiter and breaker stay shared so concurrent runs keep one budget.
func (g *Gateway) WithMaxRetries(maxRetries int) Searcher {
	if maxRetries < 0 {
		return g
	}
	clone := *g
	clone.retry.MaxAttempts = maxRetries + 1
	return &clone
}

func (g *Gateway) Search(ctx context.Context, q Query) ([]model.Evidence, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &CallError{Purpose: q.Purpose, Err: eris.Wrap(err, "gateway: rate limit wait")}
	}
	if !g.breaker.Allow() {
		return nil, &CallError{Purpose: q.Purpose, Err: resilience.ErrBreakerOpen}
	}

	req := exa.SearchRequest{
		Query:          q.Text,
		NumResults:     q.NumResults,
		IncludeDomains: q.IncludeDomains,
	}
	if q.SummaryFocus != "" || q.HighlightFocus != "" {
		req.Contents = &exa.Contents{Text: true}
		if q.SummaryFocus != "" {
			req.Contents.Summary = &exa.Summary{Query: q.SummaryFocus}
		}
		if q.HighlightFocus != "" {
			req.Contents.Highlights = &exa.Highlights{Query: q.HighlightFocus, NumSentences: 3}
		}
	} else {
		req.Contents = &exa.Contents{Text: true}
	}

	retry := g.retry
	retry.ShouldRetry = retryableSearchError

	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*exa.SearchResponse, error) {
		return g.client.Search(ctx, req)
	})
	// A caller abort says nothing about the upstream's health; it must not
	// open the breaker for unrelated runs.
	if !errors.Is(err, context.Canceled) {
		g.breaker.Record(err)
	}
	if err != nil {
		return nil, classify(q.Purpose, err)
	}

	results := make([]model.Evidence, 0, len(resp.Results))
	for _, r := range resp.Results {
		ev := evidence.Score(r.URL, r.Title, snippetText(r), q.Purpose)
		ev.Date = r.PublishedDate
		results = append(results, ev)
	}
	return results, nil
}

// snippetText picks the densest text the API returned for a result.
func snippetText(r exa.Result) string {
	switch {
	case r.Summary != "":
		return r.Summary
	case len(r.Highlights) > 0:
		joined := r.Highlights[0]
		for _, h := range r.Highlights[1:] {
			joined += " " + h
		}
		return joined
	default:
		return r.Text
	}
}

func retryableSearchError(err error) bool {
	var se *exa.StatusError
	if errors.As(err, &se) {
		return resilience.IsTransientHTTPStatus(se.StatusCode)
	}
	if isDeadline(err) {
		return true
	}
	return resilience.IsTransient(err)
}

// classify maps the terminal error into the gateway taxonomy so callers can
// apply different recovery for timeouts vs other failures.
func classify(purpose string, err error) error {
	if isDeadline(err) {
		return &TimeoutError{Purpose: purpose, Err: err}
	}
	var se *exa.StatusError
	if errors.As(err, &se) {
		return &CallError{Purpose: purpose, StatusCode: se.StatusCode, Err: err}
	}
	return &CallError{Purpose: purpose, Err: err}
}
