package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/upstream"
)

const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoGeocoder searches places by name through the Open-Meteo
// geocoding API.
type OpenMeteoGeocoder struct {
	baseURL string
	client  *upstream.Client
}

func NewOpenMeteoGeocoder(client *http.Client, baseURL string, opts ...upstream.Option) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		baseURL: baseURL,
		client:  upstream.NewClient("openmeteo-geocoding", client, opts...),
	}
}

/* Example result:
{
  "id": 5419384,
  "name": "Denver",
  "latitude": 39.73915,
  "longitude": -104.9847,
  "country": "United States",
  "admin1": "Colorado",
  ...
}
*/

// Search returns up to count candidates ranked by the provider. The API omits
// "results" entirely when nothing matches, which yields an empty slice.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, name string, count int) ([]geo.Place, error) {
	values := url.Values{}
	values.Set("name", name)
	values.Set("count", strconv.Itoa(count))
	values.Set("language", "en")
	values.Set("format", "json")

	u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())

	var payload struct {
		Results []geo.Place `json:"results"`
	}
	if err := g.client.GetJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}
