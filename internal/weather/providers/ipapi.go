package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/upstream"
)

const DefaultIPLocationURL = "http://ip-api.com/json"

// IPLocator estimates a position from an IP address using ip-api.com. No
// permission is involved and accuracy is roughly city level.
type IPLocator struct {
	baseURL string
	client  *upstream.Client
}

func NewIPLocator(client *http.Client, baseURL string, opts ...upstream.Option) *IPLocator {
	return &IPLocator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  upstream.NewClient("ip-api", client, opts...),
	}
}

// Name identifies the adapter in logs.
func (l *IPLocator) Name() string { return "ip-api" }

// Locate looks up the caller's own public address.
func (l *IPLocator) Locate(ctx context.Context) (geo.Fix, error) {
	return l.LocateIP(ctx, "")
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// LocateIP looks up ip, or the requester when ip is empty.
func (l *IPLocator) LocateIP(ctx context.Context, ip string) (geo.Fix, error) {
	values := url.Values{}
	values.Set("fields", "status,message,country,regionName,city,lat,lon")

	u := l.baseURL
	if ip != "" {
		u += "/" + url.PathEscape(ip)
	}
	u = fmt.Sprintf("%s?%s", u, values.Encode())

	var resp ipAPIResponse
	if err := l.client.GetJSON(ctx, u, &resp); err != nil {
		return geo.Fix{}, err
	}

	if resp.Status != "success" {
		// "private range", "reserved range" and "invalid query" all mean
		// there is nothing to locate.
		return geo.Fix{}, fmt.Errorf("ip-api: %s: %w", resp.Message, geo.ErrPositionUnavailable)
	}

	coords, err := geo.NewCoordinates(resp.Lat, resp.Lon)
	if err != nil {
		return geo.Fix{}, upstream.DataShapeError(l.client.Name(), err)
	}

	return geo.Fix{
		Coords:  coords,
		City:    resp.City,
		Region:  resp.RegionName,
		Country: resp.Country,
	}, nil
}
