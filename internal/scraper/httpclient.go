// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
httpclient.go - Rate-Limited Outbound HTTP Client

Every plugin reaches upstream services through this client. It layers three
resilience mechanisms around plain net/http:

  - Token bucket rate limiting (golang.org/x/time/rate), sized from the
    per-source requests-per-minute budget.
  - Retries with exponential backoff and jitter. Delay for attempt n is
    base * 2^n * jitter where jitter is uniform in [0.75, 1.25]. HTTP 429
    doubles the base delay. Non-429 4xx responses are never retried; the
    upstream told us the request itself is wrong.
  - A circuit breaker (sony/gobreaker) that opens after a 60% failure rate
    over at least 10 requests, so a dead upstream is not hammered for the
    rest of a run.
*/

//nolint:staticcheck // File documentation, not package doc
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
)

// maxResponseBodySize bounds how much of an upstream response is read.
const maxResponseBodySize = 10 * 1024 * 1024 // 10MB

// ErrCircuitOpen reports that the client refused the request because the
// source's circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// StatusError is returned for non-retryable HTTP status codes.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// ClientOptions configures a per-source Client.
type ClientOptions struct {
	// Source labels metrics and the circuit breaker.
	Source string

	UserAgent string
	Timeout   time.Duration

	// RequestsPerMinute sizes the token bucket. 0 disables rate limiting.
	RequestsPerMinute float64

	// MaxRetries bounds retry attempts after the first request.
	MaxRetries int

	// BackoffBase is the first retry delay. Defaults to 1s; tests shorten it.
	BackoffBase time.Duration

	// HTTPClient overrides the underlying client, e.g. for an OAuth2
	// transport. Timeout is still applied when the override has none.
	HTTPClient *http.Client
}

// Client is a rate-limited, retrying HTTP client bound to one source.
// Safe for concurrent use.
type Client struct {
	source      string
	userAgent   string
	http        *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a client for one source.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient.Timeout = timeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute/60.0), 1)
	}

	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Second
	}

	c := &Client{
		source:      opts.Source,
		userAgent:   opts.UserAgent,
		http:        httpClient,
		limiter:     limiter,
		maxRetries:  opts.MaxRetries,
		backoffBase: backoffBase,
	}
	c.breaker = newBreaker(opts.Source)
	return c
}

// newBreaker builds the per-source circuit breaker. Opens at a 60% failure
// rate with at least 10 requests in the window.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := breakerStateString(from), breakerStateString(to)
			logging.Warn().Str("source", name).Str("from", fromStr).Str("to", toStr).
				Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

// GetBody fetches a URL and returns the response body.
func (c *Client) GetBody(ctx context.Context, url string, header http.Header) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, url, header)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", c.source, ErrCircuitOpen)
		}
		return nil, err
	}
	return body, nil
}

// GetJSON fetches a URL and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, v interface{}) error {
	body, err := c.GetBody(ctx, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// doWithRetry runs the rate-limited request loop with backoff.
func (c *Client) doWithRetry(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt, lastErr); err != nil {
				return nil, err
			}
		}
		if err := c.waitLimiter(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.doOnce(ctx, url, header)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		metrics.HTTPRequestRetries.WithLabelValues(c.source, retryReason(err)).Inc()
		logging.Warn().Str("source", c.source).Str("url", url).Int("attempt", attempt+1).
			Err(err).Msg("Retrying request")
	}

	return nil, fmt.Errorf("request to %s failed after %d attempts: %w", url, c.maxRetries+1, lastErr)
}

// doOnce performs a single request. The bool reports whether the error is
// retryable.
func (c *Client) doOnce(ctx context.Context, url string, header http.Header) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer closeBody(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		if err != nil {
			return nil, true, fmt.Errorf("failed to read response body: %w", err)
		}
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, &StatusError{Code: resp.StatusCode, URL: url}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The request itself is wrong; retrying cannot help.
		return nil, false, &StatusError{Code: resp.StatusCode, URL: url}
	default:
		return nil, true, &StatusError{Code: resp.StatusCode, URL: url}
	}
}

// sleepBackoff waits before retry number attempt. The previous error decides
// the base delay: rate limit responses double it.
func (c *Client) sleepBackoff(ctx context.Context, attempt int, lastErr error) error {
	base := c.backoffBase
	if isRateLimitErr(lastErr) {
		base *= 2
	}

	delay := base * (1 << (attempt - 1))
	jitter := 0.75 + rand.Float64()*0.5 //nolint:gosec // jitter, not crypto
	delay = time.Duration(float64(delay) * jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// waitLimiter blocks until the token bucket admits a request.
func (c *Client) waitLimiter(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if c.limiter.Allow() {
		return nil
	}
	metrics.HTTPRateLimitWaits.WithLabelValues(c.source).Inc()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func isRateLimitErr(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests
}

func retryReason(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusTooManyRequests {
			return "429"
		}
		return "5xx"
	}
	return "network"
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close response body")
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
