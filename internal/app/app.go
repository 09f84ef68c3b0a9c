// Package app assembles the services shared by the server and the CLI.
package app

import (
	"context"
	"net/http"

	"github.com/i474232898/snowfall-check/internal/config"
	"github.com/i474232898/snowfall-check/internal/geo"
	applog "github.com/i474232898/snowfall-check/internal/log"
	"github.com/i474232898/snowfall-check/internal/location"
	"github.com/i474232898/snowfall-check/internal/metrics"
	"github.com/i474232898/snowfall-check/internal/store"
	"github.com/i474232898/snowfall-check/internal/upstream"
	"github.com/i474232898/snowfall-check/internal/weather"
	"github.com/i474232898/snowfall-check/internal/weather/providers"
)

// ReverseGeocoder names the place at a point.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords geo.Coordinates) (geo.PlaceName, error)
}

type Components struct {
	Snowfall *weather.Service
	Search   *location.SearchService
	Reverse  ReverseGeocoder
	IP       *providers.IPLocator
	Device   *providers.DeviceLocator
}

// New wires the upstream clients, cache and services. collector may be nil.
func New(cfg *config.AppConfig, collector *metrics.Collector) *Components {
	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	opts := []upstream.Option{upstream.WithUserAgent(cfg.UserAgent)}
	if collector != nil {
		opts = append(opts, upstream.WithRecorder(collector))
	}

	cache := store.NewQueryCache[weather.WeeklySnowfallData](cfg.CacheMaxEntries, cfg.CacheMaxAge)

	serviceOpts := []weather.Option{weather.WithLogger(applog.Named("weather"))}
	searchOpts := []location.SearchOption{location.WithSearchLogger(applog.Named("search"))}
	if collector != nil {
		serviceOpts = append(serviceOpts, weather.WithCacheObserver(collector))
		searchOpts = append(searchOpts, location.WithSearchObserver(collector))
	}

	provider := providers.NewOpenMeteoProvider(httpClient, cfg.ForecastURL, cfg.ArchiveURL, opts...)
	geocoder := providers.NewOpenMeteoGeocoder(httpClient, cfg.GeocodingURL, opts...)

	return &Components{
		Snowfall: weather.NewService(provider, cache, serviceOpts...),
		Search:   location.NewSearchService(geocoder, searchOpts...),
		Reverse:  newReverseGeocoder(cfg, httpClient, opts),
		IP:       providers.NewIPLocator(httpClient, cfg.IPLocationURL, opts...),
		Device:   providers.NewDeviceLocator(cfg.PositionSource(), cfg.LocationTimeout, cfg.LocationMaxAge),
	}
}

// Google is used when an API key is configured, Nominatim otherwise.
func newReverseGeocoder(cfg *config.AppConfig, httpClient *http.Client, opts []upstream.Option) ReverseGeocoder {
	if cfg.GoogleGeocoderAPIKey != "" {
		return providers.NewGoogleReverseGeocoder(cfg.GoogleGeocoderAPIKey)
	}
	return providers.NewNominatimGeocoder(httpClient, cfg.ReverseURL, opts...)
}
