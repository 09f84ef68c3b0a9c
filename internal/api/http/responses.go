package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/snowfall-check/internal/format"
	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/location"
	"github.com/i474232898/snowfall-check/internal/upstream"
	"github.com/i474232898/snowfall-check/internal/weather"
)

type dayResponse struct {
	Date    string  `json:"date"`
	Day     string  `json:"day"`
	Inches  float64 `json:"inches"`
	Display string  `json:"display"`
}

type snowfallResponse struct {
	Range       string        `json:"range"`
	Label       string        `json:"label"`
	DateRange   string        `json:"dateRange"`
	TotalInches float64       `json:"totalInches"`
	Total       string        `json:"total"`
	Unit        string        `json:"unit"`
	Days        []dayResponse `json:"days"`
}

func newSnowfallResponse(r weather.DateRange, data weather.WeeklySnowfallData) snowfallResponse {
	days := make([]dayResponse, 0, len(data.Days))
	for _, d := range data.Days {
		days = append(days, dayResponse{
			Date:    d.Date,
			Day:     format.DayName(d.Date),
			Inches:  d.SnowfallInches,
			Display: format.DayAmount(d.SnowfallInches),
		})
	}
	return snowfallResponse{
		Range:       string(r),
		Label:       format.RangeLabel(r),
		DateRange:   format.Range(data),
		TotalInches: data.TotalInches,
		Total:       format.Snowfall(data.TotalInches),
		Unit:        format.Unit(data.TotalInches),
		Days:        days,
	}
}

type resolvedResponse struct {
	Mode            string           `json:"mode"`
	Coords          *geo.Coordinates `json:"coords,omitempty"`
	DisplayName     string           `json:"displayName,omitempty"`
	IsApproximate   bool             `json:"isApproximate"`
	Source          string           `json:"source,omitempty"`
	Hint            string           `json:"hint,omitempty"`
	ApproximateNote string           `json:"approximateNote,omitempty"`
}

func newResolvedResponse(r location.Resolved) resolvedResponse {
	resp := resolvedResponse{
		Mode:          r.Mode.String(),
		DisplayName:   r.DisplayName,
		IsApproximate: r.IsApproximate,
		Hint:          r.Hint,
	}
	if r.HasLocation() {
		coords := r.Coords
		resp.Coords = &coords
		resp.Source = r.Source.String()
		resp.ApproximateNote = format.ApproximateNote(r.IsApproximate)
	}
	return resp
}

// queryError renders a failed upstream query. Everything except bad input
// is reported as retryable so clients can offer "try again".
func queryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, location.ErrEmptyQuery):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, geo.ErrPositionUnavailable):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	status := fiber.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = fiber.StatusGatewayTimeout
	}

	body := fiber.Map{
		"error":     true,
		"message":   err.Error(),
		"retryable": true,
	}
	if code := upstream.StatusCode(err); code != 0 {
		body["upstreamStatus"] = code
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler renders every error as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
