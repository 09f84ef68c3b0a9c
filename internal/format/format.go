// Package format renders snowfall values, dates and locations as the strings
// shown to users. Everything here is pure and uses a fixed English locale.
package format

import (
	"math"
	"strconv"
	"time"

	"github.com/i474232898/snowfall-check/internal/common"
	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/weather"
)

const (
	longDateLayout  = "Monday, January 2"
	shortDateLayout = "Jan 2"
	dayNameLayout   = "Mon"

	unknownLocation = "Unknown Location"
)

// Snowfall renders an amount with at most three decimals and no trailing
// zeros: 3 -> "3", 2.5 -> "2.5".
func Snowfall(inches float64) string {
	if math.IsNaN(inches) || math.IsInf(inches, 0) {
		return "0"
	}
	v := math.Round(inches*1000) / 1000
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Unit is "inch" when the amount renders as exactly one and "inches"
// otherwise, so it always agrees with Snowfall.
func Unit(inches float64) string {
	if Snowfall(inches) == "1" {
		return "inch"
	}
	return "inches"
}

// Amount is Snowfall followed by Unit.
func Amount(inches float64) string {
	return Snowfall(inches) + " " + Unit(inches)
}

// Date renders t like "Friday, January 10".
func Date(t time.Time) string {
	return t.Format(longDateLayout)
}

// DateString renders a YYYY-MM-DD date in long form. An empty date means the
// current day; an unparsable one is returned as is.
func DateString(date string) string {
	if date == "" {
		return "Today"
	}
	t, err := time.Parse(weather.DateLayout, date)
	if err != nil {
		return date
	}
	return Date(t)
}

// Range renders the first and last day of data as "Jan 8 - Jan 14".
func Range(data weather.WeeklySnowfallData) string {
	if len(data.Days) == 0 {
		return ""
	}
	start, err := time.Parse(weather.DateLayout, data.Days[0].Date)
	if err != nil {
		return ""
	}
	end, err := time.Parse(weather.DateLayout, data.Days[len(data.Days)-1].Date)
	if err != nil {
		return ""
	}
	return start.Format(shortDateLayout) + " - " + end.Format(shortDateLayout)
}

// DayName is the abbreviated weekday of a YYYY-MM-DD date.
func DayName(date string) string {
	t, err := time.Parse(weather.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.Format(dayNameLayout)
}

// DayAmount is the compact per-day cell: `2.5"`, or "-" for no snow.
func DayAmount(inches float64) string {
	if Snowfall(inches) == "0" {
		return "-"
	}
	return Snowfall(inches) + `"`
}

// LocationName renders a reverse geocoding result as "Name, Region".
func LocationName(p geo.PlaceName) string {
	if p.Name == "" {
		return unknownLocation
	}
	return common.JoinNonEmpty(", ", p.Name, p.Region)
}

// RangeLabel is the heading for a date range selector.
func RangeLabel(r weather.DateRange) string {
	switch r {
	case weather.RangeLastWeek:
		return "Last 7 Days"
	case weather.RangeNextWeek:
		return "Next 7 Days"
	default:
		return "Today"
	}
}

// ApproximateNote qualifies a location that came from the network address.
func ApproximateNote(isApproximate bool) string {
	if !isApproximate {
		return ""
	}
	return "Approximate location based on your network"
}
