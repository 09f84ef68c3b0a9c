package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// Upstream (Open-Meteo, Nominatim, ip-api) metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Location metrics
	ResolutionsTotal *prometheus.CounterVec
	SearchesTotal    *prometheus.CounterVec

	// Query cache metrics
	CacheLookupsTotal *prometheus.CounterVec
}

// NewCollector creates a collector registered on reg. Passing a fresh
// registry keeps tests independent of the global default registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream requests by service and status",
			},
			[]string{"service", "status"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"service"},
		),

		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "location_resolutions_total",
				Help:      "Location resolutions by resulting mode and source",
			},
			[]string{"mode", "source"},
		),

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "location_searches_total",
				Help:      "Manual location searches by outcome",
			},
			[]string{"outcome"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_lookups_total",
				Help:      "Snowfall query cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveUpstream records one upstream call. status is the HTTP status code,
// or 0 when the request never produced a response.
func (c *Collector) ObserveUpstream(service string, status int, d time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.UpstreamRequestsTotal.WithLabelValues(service, label).Inc()
	c.UpstreamRequestDuration.WithLabelValues(service).Observe(d.Seconds())
}

// ObserveResolution records the outcome of a location resolution.
func (c *Collector) ObserveResolution(mode, source string) {
	c.ResolutionsTotal.WithLabelValues(mode, source).Inc()
}

// ObserveSearch records a manual search outcome: found, not_found or error.
func (c *Collector) ObserveSearch(outcome string) {
	c.SearchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache hit or miss.
func (c *Collector) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookupsTotal.WithLabelValues(result).Inc()
}
