package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDataShape is returned when a response decodes but lacks the fields
	// the caller depends on, or does not decode at all.
	ErrDataShape = errors.New("unexpected response shape")

	ErrCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Error is a non-success HTTP status returned by an upstream service.
type Error struct {
	Service    string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.Service, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether repeating the request may succeed.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusCode extracts the upstream status from err, or 0 if err is not an
// upstream status error.
func StatusCode(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

// DataShapeError wraps a decoding problem in ErrDataShape.
func DataShapeError(service string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", service, ErrDataShape)
	}
	return fmt.Errorf("%s: %w: %v", service, ErrDataShape, cause)
}
