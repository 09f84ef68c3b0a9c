package weather

import (
	"errors"
	"fmt"
	"time"
)

// DateRange selects which window of days a snowfall query covers.
type DateRange string

const (
	RangeLastWeek DateRange = "last-week"
	RangeToday    DateRange = "today"
	RangeNextWeek DateRange = "next-week"
)

// Ranges lists the selectable ranges in display order.
var Ranges = []DateRange{RangeLastWeek, RangeToday, RangeNextWeek}

var ErrUnknownRange = errors.New("unknown date range")

// ParseDateRange accepts the wire names of the three ranges. An empty string
// selects today, the widget's default tab.
func ParseDateRange(s string) (DateRange, error) {
	switch DateRange(s) {
	case RangeLastWeek, RangeToday, RangeNextWeek:
		return DateRange(s), nil
	case "":
		return RangeToday, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Endpoint is the upstream data source for a query.
type Endpoint int

const (
	EndpointForecast Endpoint = iota
	EndpointArchive
)

func (e Endpoint) String() string {
	if e == EndpointArchive {
		return "archive"
	}
	return "forecast"
}

// Window is an inclusive range of calendar days, both ends at local midnight.
type Window struct {
	Start time.Time
	End   time.Time
}

// SnowfallSample is the snowfall of one calendar day.
type SnowfallSample struct {
	Date           string  `json:"date"`
	SnowfallInches float64 `json:"snowfallInches"`
}

// WeeklySnowfallData holds chronologically ordered days and their total.
type WeeklySnowfallData struct {
	Days        []SnowfallSample `json:"days"`
	TotalInches float64          `json:"totalInches"`
}

// DailySnowfall is the raw daily block of an Open-Meteo response: two
// index-aligned arrays. Nil entries are days without a value.
type DailySnowfall struct {
	Time        []string
	SnowfallSum []*float64
}
