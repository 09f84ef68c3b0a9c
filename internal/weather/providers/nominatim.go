package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/snowfall-check/internal/common"
	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/upstream"
)

const (
	DefaultReverseURL = "https://nominatim.openstreetmap.org/reverse"

	// UnknownLocation is the name used when no address component matches.
	UnknownLocation = "Unknown Location"
)

// NominatimGeocoder resolves coordinates to a human-friendly place name
// using OpenStreetMap. Nominatim requires an identifying User-Agent, which is
// set through upstream.WithUserAgent.
type NominatimGeocoder struct {
	baseURL string
	client  *upstream.Client
}

func NewNominatimGeocoder(client *http.Client, baseURL string, opts ...upstream.Option) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: baseURL,
		client:  upstream.NewClient("nominatim", client, opts...),
	}
}

// ReverseResponse represents the Nominatim reverse response.
type ReverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
		Country      string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode names the place at coords, preferring city over town,
// village, municipality and county.
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, coords geo.Coordinates) (geo.PlaceName, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	values.Set("format", "json")

	u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())

	var resp ReverseResponse
	if err := g.client.GetJSON(ctx, u, &resp); err != nil {
		return geo.PlaceName{}, err
	}

	a := resp.Address
	name := common.FirstNonEmpty(a.City, a.Town, a.Village, a.Municipality, a.County)
	if name == "" {
		name = UnknownLocation
	}

	return geo.PlaceName{
		Name:    name,
		Region:  a.State,
		Country: a.Country,
	}, nil
}
