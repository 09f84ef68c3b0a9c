package weather

import (
	"time"

	"github.com/i474232898/snowfall-check/internal/geo"
)

// DateLayout is the ISO calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Window maps the range onto concrete days relative to today. Last week ends
// yesterday so it never overlaps the forecast view of today.
func (r DateRange) Window(today time.Time) Window {
	today = Midnight(today)

	switch r {
	case RangeLastWeek:
		return Window{Start: today.AddDate(0, 0, -7), End: today.AddDate(0, 0, -1)}
	case RangeNextWeek:
		return Window{Start: today.AddDate(0, 0, 1), End: today.AddDate(0, 0, 7)}
	default:
		return Window{Start: today, End: today}
	}
}

// Endpoint routes past windows to the archive and everything else to the
// forecast API: forecasts do not serve past dates reliably and the archive
// serves no future dates.
func (r DateRange) Endpoint() Endpoint {
	if r == RangeLastWeek {
		return EndpointArchive
	}
	return EndpointForecast
}

func (w Window) StartDate() string { return w.Start.Format(DateLayout) }

func (w Window) EndDate() string { return w.End.Format(DateLayout) }

// Dates lists every day of the window as an ISO date, oldest first.
func (w Window) Dates() []string {
	var dates []string
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// PlanQuery builds the upstream query for coords and r as of today.
func PlanQuery(coords geo.Coordinates, r DateRange, today time.Time) Query {
	return Query{
		Coords:   coords,
		Endpoint: r.Endpoint(),
		Window:   r.Window(today),
	}
}
