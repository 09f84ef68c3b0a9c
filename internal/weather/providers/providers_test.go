package providers

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/i474232898/snowfall-check/internal/upstream"
)

// mockRoundTripper is a custom RoundTripper for testing
type mockRoundTripper struct {
	handler http.Handler
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	m.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

func mockClient(handler http.Handler) *http.Client {
	return &http.Client{Transport: &mockRoundTripper{handler: handler}}
}

// noRetry keeps tests of failing upstreams fast.
var noRetry = upstream.WithBackoff(upstream.BackoffConfig{
	MaxRetries:      0,
	InitialInterval: time.Millisecond,
})
