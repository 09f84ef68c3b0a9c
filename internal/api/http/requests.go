package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/location"
	"github.com/i474232898/snowfall-check/internal/weather"
)

// coordinatesQuery holds the lat/lon query parameters.
type coordinatesQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func parseCoordinates(c *fiber.Ctx) (geo.Coordinates, error) {
	q := coordinatesQuery{Lat: c.Query("lat"), Lon: c.Query("lon")}
	if err := validate.Struct(q); err != nil {
		return geo.Coordinates{}, err
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return geo.Coordinates{}, err
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return geo.Coordinates{}, err
	}
	return geo.NewCoordinates(lat, lon)
}

type snowfallQuery struct {
	coords    geo.Coordinates
	dateRange weather.DateRange
}

func parseSnowfallQuery(c *fiber.Ctx) (snowfallQuery, error) {
	coords, err := parseCoordinates(c)
	if err != nil {
		return snowfallQuery{}, err
	}
	r, err := weather.ParseDateRange(c.Query("range"))
	if err != nil {
		return snowfallQuery{}, err
	}
	return snowfallQuery{coords: coords, dateRange: r}, nil
}

type searchQuery struct {
	Q string `validate:"required,max=200"`
}

type approximateQuery struct {
	IP string `validate:"omitempty,ip"`
}

// sourceState is one location source as reported by a client.
type sourceState struct {
	Status    string           `json:"status" validate:"omitempty,oneof=idle loading success error"`
	Coords    *geo.Coordinates `json:"coords" validate:"required_if=Status success"`
	PlaceName string           `json:"placeName"`
	City      string           `json:"city"`
	Region    string           `json:"region"`
	Error     string           `json:"error" validate:"omitempty,oneof=permission_denied position_unavailable timeout unknown"`
}

var sourceErrors = map[string]error{
	"permission_denied":    geo.ErrPermissionDenied,
	"position_unavailable": geo.ErrPositionUnavailable,
	"timeout":              geo.ErrTimeout,
	"unknown":              geo.ErrUnknown,
}

func (s sourceState) state() geo.State {
	status, _ := geo.ParseStatus(s.Status)
	switch status {
	case geo.StatusLoading:
		return geo.Loading()
	case geo.StatusSuccess:
		return geo.Succeeded(geo.Fix{
			Coords:    *s.Coords,
			PlaceName: s.PlaceName,
			City:      s.City,
			Region:    s.Region,
		})
	case geo.StatusError:
		err, ok := sourceErrors[s.Error]
		if !ok {
			err = geo.ErrUnknown
		}
		return geo.Failed(err)
	default:
		return geo.Idle()
	}
}

// resolveRequest is the client-side state of the three sources.
type resolveRequest struct {
	Precise          sourceState `json:"precise"`
	Approximate      sourceState `json:"approximate"`
	Manual           sourceState `json:"manual"`
	ForceManualInput bool        `json:"forceManualInput"`
}

func (r resolveRequest) resolve() location.Resolved {
	return location.Resolve(location.Inputs{
		Precise:          r.Precise.state(),
		Approximate:      r.Approximate.state(),
		Manual:           r.Manual.state(),
		ForceManualInput: r.ForceManualInput,
	})
}
