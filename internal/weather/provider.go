package weather

import (
	"context"

	"github.com/i474232898/snowfall-check/internal/geo"
)

// Query is one upstream snowfall request. SingleDay asks the forecast
// endpoint for its first day only instead of an explicit window.
type Query struct {
	Coords    geo.Coordinates
	Endpoint  Endpoint
	Window    Window
	SingleDay bool
}

// Provider abstracts the snowfall data source (Open-Meteo forecast + archive).
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, q Query) (DailySnowfall, error)
}

// Cache is the contract the query cache must satisfy.
type Cache interface {
	Get(key string) (WeeklySnowfallData, error)
	Set(key string, data WeeklySnowfallData)
	Invalidate(key string)
}

// CacheObserver is notified of every cache lookup.
type CacheObserver interface {
	ObserveCache(hit bool)
}
