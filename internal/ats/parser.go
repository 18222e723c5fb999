// Package ats implements the ATS Parser Registry: one HTTP-fetching parser
// per applicant-tracking-system family, all exposed through the same
// interfaces.ATSParser contract so adding a new ATS means registering a new
// implementation and nothing else changes.
package ats

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/services/crawler"
)

// Registry maps an ATS tag to its parser. The zero value is not usable;
// construct with NewRegistry.
type Registry struct {
	parsers map[string]interfaces.ATSParser
}

// NewRegistry builds a registry with every parser this module ships
// registered under its tag.
func NewRegistry(client *http.Client, logger arbor.ILogger) *Registry {
	r := &Registry{parsers: make(map[string]interfaces.ATSParser)}

	limiter := crawler.NewRateLimiter(2 * time.Second)
	retryPolicy := crawler.NewRetryPolicy()
	retryPolicy.InitialBackoff = 2 * time.Second
	retryPolicy.MaxAttempts = 3

	base := &httpFetcher{
		client:  client,
		limiter: limiter,
		retry:   retryPolicy,
		logger:  logger,
	}

	r.Register(&GreenhouseParser{fetcher: base})
	r.Register(&LeverParser{fetcher: base})
	r.Register(&WorkdayParser{fetcher: base})
	r.Register(&AshbyParser{fetcher: base})
	r.Register(&SmartRecruitersParser{fetcher: base})

	return r
}

// Register adds or replaces the parser for p.Tag().
func (r *Registry) Register(p interfaces.ATSParser) {
	r.parsers[p.Tag()] = p
}

// Get returns the parser registered for tag, or false if none is.
func (r *Registry) Get(tag string) (interfaces.ATSParser, bool) {
	p, ok := r.parsers[tag]
	return p, ok
}

// Tags lists every registered ATS tag.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.parsers))
	for tag := range r.parsers {
		tags = append(tags, tag)
	}
	return tags
}

// httpFetcher centralizes the retry-with-backoff and per-domain rate
// limiting every parser needs, so individual parsers only implement their
// endpoint shape and response decoding.
type httpFetcher struct {
	client  *http.Client
	limiter *crawler.RateLimiter
	retry   *crawler.RetryPolicy
	logger  arbor.ILogger
}

// get performs a GET with retry-with-backoff on transient failures,
// returning the response body. Non-2xx responses with a 4xx code other than
// 408/429 are classified as PermanentError; a retryable status (408, 429,
// 5xx) that still comes back after MaxAttempts is also surfaced as
// PermanentError, since the parser has exhausted its own retry budget. A
// request-level error (timeout, connection failure) that persists through
// the retries is surfaced as TransientError.
func (f *httpFetcher) get(ctx context.Context, url string) ([]byte, error) {
	return f.do(ctx, http.MethodGet, url, nil)
}

func (f *httpFetcher) postJSON(ctx context.Context, url string, body []byte) ([]byte, error) {
	return f.do(ctx, http.MethodPost, url, body)
}

func (f *httpFetcher) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, &interfaces.TransientError{Err: err}
	}

	var respBody []byte
	statusCode, err := f.retry.ExecuteWithRetry(ctx, f.logger, func() (int, error) {
		req, reqErr := newRequest(ctx, method, url, body)
		if reqErr != nil {
			return 0, reqErr
		}
		resp, doErr := f.client.Do(req)
		if doErr != nil {
			return 0, doErr
		}
		defer resp.Body.Close()

		data, readErr := readAll(resp.Body)
		if readErr != nil {
			return resp.StatusCode, readErr
		}
		respBody = data
		return resp.StatusCode, nil
	})

	if err != nil {
		return nil, &interfaces.TransientError{Err: err}
	}
	if statusCode >= 400 {
		return nil, &interfaces.PermanentError{Err: fmt.Errorf("unexpected status %d from %s", statusCode, url)}
	}
	return respBody, nil
}
