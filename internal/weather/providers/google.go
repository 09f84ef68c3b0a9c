package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/snowfall-check/internal/common"
	"github.com/i474232898/snowfall-check/internal/geo"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleReverseGeocoder names coordinates through the Google Geocoding API.
// It is an alternative to Nominatim when an API key is configured.
type GoogleReverseGeocoder struct {
	apiKey  string
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleReverseGeocoder(apiKey string) *GoogleReverseGeocoder {
	return &GoogleReverseGeocoder{
		apiKey:  apiKey,
		reverse: geocoder.GeocodingReverse,
	}
}

// ReverseGeocode names the place at coords. The underlying library has no
// context support, so the call runs in its own goroutine and is abandoned if
// ctx ends first.
func (g *GoogleReverseGeocoder) ReverseGeocode(ctx context.Context, coords geo.Coordinates) (geo.PlaceName, error) {
	if g.apiKey == "" {
		return geo.PlaceName{}, fmt.Errorf("google geocoder api key is not configured")
	}

	type result struct {
		addresses []geocoder.Address
		err       error
	}
	done := make(chan result, 1)

	go func() {
		googleKeyMu.Lock()
		geocoder.ApiKey = g.apiKey
		addresses, err := g.reverse(geocoder.Location{
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		})
		googleKeyMu.Unlock()
		done <- result{addresses: addresses, err: err}
	}()

	select {
	case <-ctx.Done():
		return geo.PlaceName{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return geo.PlaceName{}, fmt.Errorf("google reverse geocode: %w", r.err)
		}
		return placeFromGoogle(r.addresses), nil
	}
}

func placeFromGoogle(addresses []geocoder.Address) geo.PlaceName {
	for _, a := range addresses {
		if name := common.FirstNonEmpty(a.City, a.County); name != "" {
			return geo.PlaceName{Name: name, Region: a.State, Country: a.Country}
		}
	}
	return geo.PlaceName{Name: UnknownLocation}
}
