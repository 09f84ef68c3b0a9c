package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/snowfall-check/internal/geo"
)

const (
	DefaultLocationTimeout = 10 * time.Second
	DefaultLocationMaxAge  = 5 * time.Minute
)

// PositionSource is a device-level position capability such as a GPS
// receiver or an OS location service.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (geo.Coordinates, error)
}

// StaticPosition is a PositionSource backed by a configured fix. A nil
// Coords means the device has no position; Denied simulates a user refusing
// the permission prompt.
type StaticPosition struct {
	Coords *geo.Coordinates
	Denied bool
}

func (s StaticPosition) CurrentPosition(ctx context.Context) (geo.Coordinates, error) {
	if s.Denied {
		return geo.Coordinates{}, geo.ErrPermissionDenied
	}
	if s.Coords == nil {
		return geo.Coordinates{}, geo.ErrPositionUnavailable
	}
	if err := ctx.Err(); err != nil {
		return geo.Coordinates{}, err
	}
	return *s.Coords, nil
}

// DeviceLocator is the precise location adapter. It bounds each acquisition
// by timeout, reuses a fix for up to maxAge and reports failures as the
// typed errors of package geo.
type DeviceLocator struct {
	source  PositionSource
	timeout time.Duration
	maxAge  time.Duration
	now     func() time.Time

	mu      sync.Mutex
	last    geo.Fix
	lastAt  time.Time
	hasLast bool
}

func NewDeviceLocator(source PositionSource, timeout, maxAge time.Duration) *DeviceLocator {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	return &DeviceLocator{
		source:  source,
		timeout: timeout,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Name identifies the adapter in logs.
func (d *DeviceLocator) Name() string { return "device" }

// Locate returns a cached fix younger than maxAge or acquires a new one.
func (d *DeviceLocator) Locate(ctx context.Context) (geo.Fix, error) {
	d.mu.Lock()
	if d.hasLast && d.now().Sub(d.lastAt) <= d.maxAge {
		fix := d.last
		d.mu.Unlock()
		return fix, nil
	}
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type result struct {
		coords geo.Coordinates
		err    error
	}
	done := make(chan result, 1)
	go func() {
		c, err := d.source.CurrentPosition(ctx)
		done <- result{coords: c, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		r.err = ctx.Err()
	case r = <-done:
	}

	if r.err != nil {
		if errors.Is(r.err, context.Canceled) {
			return geo.Fix{}, r.err
		}
		return geo.Fix{}, geo.ClassifyPositionError(r.err)
	}
	if err := r.coords.Validate(); err != nil {
		return geo.Fix{}, errors.Join(geo.ErrPositionUnavailable, err)
	}

	fix := geo.Fix{Coords: r.coords}

	d.mu.Lock()
	d.last, d.lastAt, d.hasLast = fix, d.now(), true
	d.mu.Unlock()

	return fix, nil
}

// Forget drops the cached fix so the next Locate acquires a new one.
func (d *DeviceLocator) Forget() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasLast = false
}
