package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/snowfall-check/internal/upstream"
	"github.com/i474232898/snowfall-check/internal/weather"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"
)

// OpenMeteoProvider implements the weather.Provider interface for the
// Open-Meteo forecast and historical archive APIs.
type OpenMeteoProvider struct {
	name        string
	forecastURL string
	archiveURL  string
	forecast    *upstream.Client
	archive     *upstream.Client
}

func NewOpenMeteoProvider(client *http.Client, forecastURL, archiveURL string, opts ...upstream.Option) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:        "openmeteo",
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		forecast:    upstream.NewClient("openmeteo-forecast", client, opts...),
		archive:     upstream.NewClient("openmeteo-archive", client, opts...),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoDailyResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     *struct {
		Time        []string   `json:"time"`
		SnowfallSum []*float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

// FetchDaily queries daily snowfall sums in inches for q.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, q weather.Query) (weather.DailySnowfall, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(q.Coords.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(q.Coords.Longitude, 'f', -1, 64))
	values.Set("daily", "snowfall_sum")
	values.Set("precipitation_unit", "inch")
	values.Set("timezone", "auto")

	client, baseURL := p.forecast, p.forecastURL
	if q.Endpoint == weather.EndpointArchive {
		client, baseURL = p.archive, p.archiveURL
	}

	if q.SingleDay && q.Endpoint == weather.EndpointForecast {
		values.Set("forecast_days", "1")
	} else {
		values.Set("start_date", q.Window.StartDate())
		values.Set("end_date", q.Window.EndDate())
	}

	u := fmt.Sprintf("%s?%s", baseURL, values.Encode())

	var payload openMeteoDailyResponse
	if err := client.GetJSON(ctx, u, &payload); err != nil {
		return weather.DailySnowfall{}, err
	}

	if payload.Daily == nil || payload.Daily.Time == nil {
		return weather.DailySnowfall{}, upstream.DataShapeError(client.Name(), fmt.Errorf("missing daily block"))
	}

	return weather.DailySnowfall{
		Time:        payload.Daily.Time,
		SnowfallSum: payload.Daily.SnowfallSum,
	}, nil
}
