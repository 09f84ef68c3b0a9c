package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/snowfall-check/internal/geo"
	applog "github.com/i474232898/snowfall-check/internal/log"
)

// Service maps date ranges onto upstream queries and caches the results.
type Service struct {
	provider Provider
	cache    Cache
	observer CacheObserver
	now      func() time.Time
	logger   *zap.SugaredLogger
}

type Option func(*Service)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) { s.logger = applog.OrNop(l) }
}

func WithCacheObserver(o CacheObserver) Option {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new Service. cache may be nil to disable caching.
func NewService(provider Provider, cache Cache, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		cache:    cache,
		now:      time.Now,
		logger:   applog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns local midnight of the service clock.
func (s *Service) Today() time.Time {
	return Midnight(s.now())
}

// WeeklySnowfall returns per-day snowfall for the window r selects, serving
// fresh cached results when available.
func (s *Service) WeeklySnowfall(ctx context.Context, coords geo.Coordinates, r DateRange) (WeeklySnowfallData, error) {
	q, key, err := s.plan(coords, r)
	if err != nil {
		return WeeklySnowfallData{}, err
	}

	if s.cache != nil {
		data, err := s.cache.Get(key)
		s.observe(err == nil)
		if err == nil {
			return data, nil
		}
	}

	return s.fetchWeekly(ctx, q, key)
}

// Refetch drops any cached result and queries upstream again. It backs the
// "try again" action after a failed query.
func (s *Service) Refetch(ctx context.Context, coords geo.Coordinates, r DateRange) (WeeklySnowfallData, error) {
	q, key, err := s.plan(coords, r)
	if err != nil {
		return WeeklySnowfallData{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(key)
	}
	return s.fetchWeekly(ctx, q, key)
}

// TodaySnowfall asks the forecast endpoint for its first day at coords. The
// date comes from the response, which is in the location's own timezone.
func (s *Service) TodaySnowfall(ctx context.Context, coords geo.Coordinates) (SnowfallSample, error) {
	if err := coords.Validate(); err != nil {
		return SnowfallSample{}, err
	}

	key := "single|" + coords.Key() + "|" + s.Today().Format(DateLayout)
	if s.cache != nil {
		data, err := s.cache.Get(key)
		s.observe(err == nil)
		if err == nil && len(data.Days) > 0 {
			return data.Days[0], nil
		}
	}

	q := Query{
		Coords:    coords,
		Endpoint:  EndpointForecast,
		Window:    RangeToday.Window(s.now()),
		SingleDay: true,
	}
	daily, err := s.provider.FetchDaily(ctx, q)
	if err != nil {
		s.logger.Warnw("today snowfall fetch failed", "provider", s.provider.Name(), "coords", coords.Key(), "error", err)
		return SnowfallSample{}, fmt.Errorf("fetch today's snowfall: %w", err)
	}

	sample, err := BuildToday(daily)
	if err != nil {
		return SnowfallSample{}, err
	}
	if s.cache != nil {
		s.cache.Set(key, WeeklySnowfallData{Days: []SnowfallSample{sample}, TotalInches: sample.SnowfallInches})
	}
	return sample, nil
}

func (s *Service) plan(coords geo.Coordinates, r DateRange) (Query, string, error) {
	if err := coords.Validate(); err != nil {
		return Query{}, "", err
	}
	if _, err := ParseDateRange(string(r)); err != nil || r == "" {
		return Query{}, "", fmt.Errorf("%w: %q", ErrUnknownRange, r)
	}

	q := PlanQuery(coords, r, s.now())
	// The key carries the start day so cached windows roll over at midnight.
	key := fmt.Sprintf("weekly|%s|%s|%s", coords.Key(), r, q.Window.StartDate())
	return q, key, nil
}

func (s *Service) fetchWeekly(ctx context.Context, q Query, key string) (WeeklySnowfallData, error) {
	s.logger.Debugw("fetching snowfall",
		"provider", s.provider.Name(),
		"endpoint", q.Endpoint.String(),
		"start", q.Window.StartDate(),
		"end", q.Window.EndDate(),
	)

	daily, err := s.provider.FetchDaily(ctx, q)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warnw("snowfall fetch failed", "provider", s.provider.Name(), "endpoint", q.Endpoint.String(), "error", err)
		}
		return WeeklySnowfallData{}, fmt.Errorf("fetch %s snowfall: %w", q.Endpoint, err)
	}

	data, err := BuildWeekly(daily, q.Window)
	if err != nil {
		return WeeklySnowfallData{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, data)
	}
	return data, nil
}

func (s *Service) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(hit)
	}
}
