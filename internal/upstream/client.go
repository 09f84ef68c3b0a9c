package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff matches the retry policy used for every public weather API.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Recorder receives one observation per HTTP attempt.
type Recorder interface {
	ObserveUpstream(service string, status int, d time.Duration)
}

// Client executes GET requests against one upstream service with retries,
// exponential backoff and a circuit breaker.
type Client struct {
	name      string
	http      *http.Client
	userAgent string
	backoff   BackoffConfig
	circuit   *gobreaker.CircuitBreaker
	recorder  Recorder

	// lastFailure is the most recent status error counted by the circuit.
	lastFailure atomic.Pointer[Error]
}

type Option func(*Client)

func WithBackoff(b BackoffConfig) Option {
	return func(c *Client) { c.backoff = b }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a client for the named service. The name labels errors,
// metrics and the circuit breaker.
func NewClient(name string, httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		name:    name,
		http:    httpClient,
		backoff: DefaultBackoff,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         name,
			MaxRequests:  5,
			Interval:     1 * time.Minute,
			Timeout:      2 * time.Minute,
			IsSuccessful: countsAsSuccess,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return c.name }

// countsAsSuccess keeps the circuit closed for answers that say nothing about
// the service's health: non-retryable 4xx statuses and cancelled requests.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *Error
	if errors.As(err, &statusErr) {
		return !statusErr.Retryable()
	}
	return false
}

// GetJSON fetches url and decodes the JSON body into target. Non-2xx
// statuses come back as *Error, undecodable bodies as ErrDataShape.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return DataShapeError(c.name, err)
	}
	return nil
}

// Get executes the request and returns the successful response. The caller
// must close the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		return req, nil
	})
}

func (c *Client) do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if c.http == nil {
		return nil, errNoHTTPClient
	}
	if c.backoff.MaxRetries < 0 || c.backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			start := time.Now()
			resp, execErr := c.http.Do(req)
			if execErr != nil {
				c.observe(0, start)
				return nil, execErr
			}
			c.observe(resp.StatusCode, start)

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				// Drain so the connection can be reused.
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil, &Error{Service: c.name, StatusCode: resp.StatusCode}
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Keep the status that tripped the circuit visible to callers.
			if last := c.lastFailure.Load(); last != nil {
				return nil, fmt.Errorf("%s: %w: %w", c.name, ErrCircuitOpen, last)
			}
			return nil, fmt.Errorf("%s: %w: %v", c.name, ErrCircuitOpen, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var statusErr *Error
		if errors.As(err, &statusErr) {
			if !statusErr.Retryable() {
				return nil, err
			}
			c.lastFailure.Store(statusErr)
		}

		if attempt >= c.backoff.MaxRetries {
			return nil, err
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.backoff.MaxInterval && c.backoff.MaxInterval > 0 {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func (c *Client) observe(status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveUpstream(c.name, status, time.Since(start))
	}
}
