package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/weather/providers"
)

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// HTTPTimeout bounds every outbound request.
	HTTPTimeout time.Duration `validate:"gt=0"`
	UserAgent   string        `validate:"required"`

	ForecastURL   string `validate:"required,url"`
	ArchiveURL    string `validate:"required,url"`
	GeocodingURL  string `validate:"required,url"`
	ReverseURL    string `validate:"required,url"`
	IPLocationURL string `validate:"required,url"`

	// GoogleGeocoderAPIKey switches reverse geocoding from Nominatim to
	// Google when set.
	GoogleGeocoderAPIKey string

	// Device position used as the precise source. Nil means the device has
	// no fix.
	DevicePosition *geo.Coordinates
	DeviceLocation string        `validate:"oneof=allow deny"`
	LocationTimeout time.Duration `validate:"gt=0"`
	LocationMaxAge  time.Duration `validate:"gte=0"`

	// Query cache retention.
	CacheMaxEntries int           `validate:"gte=0"`
	CacheMaxAge     time.Duration `validate:"gte=0"`

	// RefreshInterval is how often watch mode refetches snowfall.
	RefreshInterval time.Duration `validate:"gte=1m"`

	Debug bool
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is loaded first if present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:                 getenvDefault("PORT", "8080"),
		UserAgent:            getenvDefault("USER_AGENT", "SnowfallCheck/1.0"),
		ForecastURL:          getenvDefault("FORECAST_URL", providers.DefaultForecastURL),
		ArchiveURL:           getenvDefault("ARCHIVE_URL", providers.DefaultArchiveURL),
		GeocodingURL:         getenvDefault("GEOCODING_URL", providers.DefaultGeocodingURL),
		ReverseURL:           getenvDefault("REVERSE_URL", providers.DefaultReverseURL),
		IPLocationURL:        getenvDefault("IP_LOCATION_URL", providers.DefaultIPLocationURL),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		DeviceLocation:       strings.ToLower(getenvDefault("DEVICE_LOCATION", "allow")),
		CacheMaxEntries:      getenvInt("CACHE_MAX_ENTRIES", 64),
		Debug:                getenvBool("DEBUG", false),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.LocationTimeout, err = getenvDuration("LOCATION_TIMEOUT", providers.DefaultLocationTimeout.String()); err != nil {
		return nil, err
	}
	if cfg.LocationMaxAge, err = getenvDuration("LOCATION_MAX_AGE", providers.DefaultLocationMaxAge.String()); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "10m"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	pos, err := loadDevicePosition()
	if err != nil {
		return nil, err
	}
	cfg.DevicePosition = pos

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadDevicePosition reads DEVICE_LATITUDE and DEVICE_LONGITUDE. Both or
// neither must be set.
func loadDevicePosition() (*geo.Coordinates, error) {
	latStr := os.Getenv("DEVICE_LATITUDE")
	lonStr := os.Getenv("DEVICE_LONGITUDE")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LATITUDE: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LONGITUDE: %w", err)
	}

	c, err := geo.NewCoordinates(lat, lon)
	if err != nil {
		return nil, fmt.Errorf("invalid device position: %w", err)
	}
	return &c, nil
}

// PositionSource builds the precise source from the device settings.
func (c *AppConfig) PositionSource() providers.StaticPosition {
	return providers.StaticPosition{
		Coords: c.DevicePosition,
		Denied: c.DeviceLocation == "deny",
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
