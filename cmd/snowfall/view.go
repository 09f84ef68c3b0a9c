package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/i474232898/snowfall-check/internal/app"
	"github.com/i474232898/snowfall-check/internal/format"
	"github.com/i474232898/snowfall-check/internal/geo"
	applog "github.com/i474232898/snowfall-check/internal/log"
	"github.com/i474232898/snowfall-check/internal/location"
	"github.com/i474232898/snowfall-check/internal/weather"
)

// view renders snowfall for the location the controller last resolved.
type view struct {
	out      io.Writer
	snowfall *weather.Service
	reverse  app.ReverseGeocoder
	rng      weather.DateRange
	logger   *zap.SugaredLogger

	renderMu sync.Mutex

	mu     sync.Mutex
	theme  format.Theme
	res    location.Resolved
	name   string
	placed bool
	moved  bool
}

func newView(out io.Writer, snowfall *weather.Service, reverse app.ReverseGeocoder, r weather.DateRange, theme format.Theme, logger *zap.SugaredLogger) *view {
	return &view{
		out:      out,
		snowfall: snowfall,
		reverse:  reverse,
		rng:      r,
		theme:    theme,
		logger:   applog.OrNop(logger),
	}
}

// follow is the controller subscription. It tracks the latest location and
// ignores resolutions without one, such as loading or the search form.
func (v *view) follow(res location.Resolved) {
	if !res.HasLocation() {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.placed && res.Coords == v.res.Coords && res.Source == v.res.Source {
		return
	}
	v.res, v.name = res, res.DisplayName
	v.placed, v.moved = true, true
}

func (v *view) setTheme(t format.Theme) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.theme = t
}

// renderIfMoved renders only when the location changed since the last render.
func (v *view) renderIfMoved(ctx context.Context) error {
	v.mu.Lock()
	moved := v.moved
	v.mu.Unlock()
	if !moved {
		return nil
	}
	return v.render(ctx, false)
}

func (v *view) render(ctx context.Context, refetch bool) error {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()

	v.mu.Lock()
	res, name, theme, placed := v.res, v.name, v.theme, v.placed
	v.moved = false
	v.mu.Unlock()

	if !placed {
		return nil
	}
	if name == "" {
		name = v.placeName(ctx, res)
		v.mu.Lock()
		if v.res == res {
			v.name = name
		}
		v.mu.Unlock()
	}

	fetch := v.snowfall.WeeklySnowfall
	if refetch {
		fetch = v.snowfall.Refetch
	}
	data, err := fetch(ctx, res.Coords, v.rng)
	if err != nil {
		return err
	}

	header := "Snowfall in " + name
	if theme == format.ThemeBlizzard {
		header = "* * * " + header + " * * *"
	}
	fmt.Fprintln(v.out, header)
	if note := format.ApproximateNote(res.IsApproximate); note != "" {
		fmt.Fprintln(v.out, note)
	}

	if v.rng == weather.RangeToday {
		date := ""
		if len(data.Days) > 0 {
			date = data.Days[0].Date
		}
		fmt.Fprintf(v.out, "%s: %s\n\n", format.DateString(date), format.Amount(data.TotalInches))
		return nil
	}

	fmt.Fprintf(v.out, "%s (%s)\n", format.RangeLabel(v.rng), format.Range(data))
	tw := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	for _, d := range data.Days {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", format.DayName(d.Date), d.Date, format.DayAmount(d.SnowfallInches))
	}
	tw.Flush()
	fmt.Fprintf(v.out, "Total: %s\n\n", format.Amount(data.TotalInches))
	return nil
}

// placeName reverse geocodes precise fixes, which carry no name of their own.
func (v *view) placeName(ctx context.Context, res location.Resolved) string {
	if v.reverse == nil {
		return format.LocationName(geo.PlaceName{})
	}
	name, err := v.reverse.ReverseGeocode(ctx, res.Coords)
	if err != nil {
		v.logger.Warnw("reverse geocoding failed", "coords", res.Coords.String(), "error", err)
		return format.LocationName(geo.PlaceName{})
	}
	return format.LocationName(name)
}
