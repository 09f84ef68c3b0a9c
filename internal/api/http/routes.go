package httpapi

import (
	"context"
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/snowfall-check/internal/format"
	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/location"
	"github.com/i474232898/snowfall-check/internal/weather"
)

var validate = validator.New()

// SnowfallService fetches snowfall for a location.
type SnowfallService interface {
	WeeklySnowfall(ctx context.Context, coords geo.Coordinates, r weather.DateRange) (weather.WeeklySnowfallData, error)
	Refetch(ctx context.Context, coords geo.Coordinates, r weather.DateRange) (weather.WeeklySnowfallData, error)
	TodaySnowfall(ctx context.Context, coords geo.Coordinates) (weather.SnowfallSample, error)
}

// PlaceSearcher resolves free text such as "Denver, CO" to one place.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) (geo.Place, bool, error)
}

// ReverseGeocoder names the place at a point.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords geo.Coordinates) (geo.PlaceName, error)
}

// IPLocator estimates a position from an IP address; an empty ip means the
// server's own address.
type IPLocator interface {
	LocateIP(ctx context.Context, ip string) (geo.Fix, error)
}

// Deps are the collaborators behind the API.
type Deps struct {
	Snowfall SnowfallService
	Search   PlaceSearcher
	Reverse  ReverseGeocoder
	IP       IPLocator

	// Resolutions, when set, counts every policy evaluation.
	Resolutions location.ResolutionObserver
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/snowfall", func(c *fiber.Ctx) error {
		q, err := parseSnowfallQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		data, err := deps.Snowfall.WeeklySnowfall(c.UserContext(), q.coords, q.dateRange)
		if err != nil {
			return queryError(c, err)
		}
		return c.JSON(newSnowfallResponse(q.dateRange, data))
	})

	v1.Post("/snowfall/refetch", func(c *fiber.Ctx) error {
		q, err := parseSnowfallQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		data, err := deps.Snowfall.Refetch(c.UserContext(), q.coords, q.dateRange)
		if err != nil {
			return queryError(c, err)
		}
		return c.JSON(newSnowfallResponse(q.dateRange, data))
	})

	v1.Get("/snowfall/today", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sample, err := deps.Snowfall.TodaySnowfall(c.UserContext(), coords)
		if err != nil {
			return queryError(c, err)
		}
		return c.JSON(fiber.Map{
			"date":        sample.Date,
			"dateDisplay": format.DateString(sample.Date),
			"inches":      sample.SnowfallInches,
			"snowfall":    format.Snowfall(sample.SnowfallInches),
			"unit":        format.Unit(sample.SnowfallInches),
		})
	})

	v1.Get("/locations/search", func(c *fiber.Ctx) error {
		req := searchQuery{Q: c.Query("q")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		place, found, err := deps.Search.Search(c.UserContext(), req.Q)
		if err != nil {
			return queryError(c, err)
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "no places found for "+strconv.Quote(req.Q))
		}
		return c.JSON(fiber.Map{
			"name":        place.Name,
			"displayName": place.DisplayName(),
			"latitude":    place.Latitude,
			"longitude":   place.Longitude,
			"country":     place.Country,
			"admin1":      place.Admin1,
		})
	})

	v1.Get("/locations/reverse", func(c *fiber.Ctx) error {
		coords, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		name, err := deps.Reverse.ReverseGeocode(c.UserContext(), coords)
		if err != nil {
			return queryError(c, err)
		}
		return c.JSON(fiber.Map{
			"name":        name.Name,
			"region":      name.Region,
			"country":     name.Country,
			"displayName": format.LocationName(name),
		})
	})

	v1.Get("/locations/approximate", func(c *fiber.Ctx) error {
		req := approximateQuery{IP: c.Query("ip")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ip := req.IP
		if ip == "" {
			ip = publicIP(c.IP())
		}

		fix, err := deps.IP.LocateIP(c.UserContext(), ip)
		if err != nil {
			return queryError(c, err)
		}
		return c.JSON(fiber.Map{
			"coords":      fix.Coords,
			"city":        fix.City,
			"region":      fix.Region,
			"country":     fix.Country,
			"displayName": format.LocationName(geo.PlaceName{Name: fix.City, Region: fix.Region}),
			"note":        format.ApproximateNote(true),
		})
	})

	v1.Post("/locations/resolve", func(c *fiber.Ctx) error {
		var req resolveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res := req.resolve()
		location.Observe(deps.Resolutions, res)
		return c.JSON(newResolvedResponse(res))
	})
}

// publicIP returns ip unless it cannot be located, in which case the empty
// string asks the locator for the server's own address.
func publicIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return ""
	}
	return ip
}
