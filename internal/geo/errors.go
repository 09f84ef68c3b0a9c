package geo

import (
	"context"
	"errors"
)

// Typed failures of a position acquisition.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("location unavailable")
	ErrTimeout             = errors.New("location request timed out")
	ErrUnknown             = errors.New("unknown location error")
)

// ClassifyPositionError folds any acquisition error into one of the four
// typed failures, keeping the original error in the chain.
func ClassifyPositionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrPositionUnavailable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrUnknown):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	default:
		return errors.Join(ErrUnknown, err)
	}
}
