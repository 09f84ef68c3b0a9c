package weather

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/snowfall-check/internal/upstream"
)

// BuildWeekly turns a raw daily block into one sample per day of w. Days the
// response does not cover, or covers with null, count as zero inches.
func BuildWeekly(daily DailySnowfall, w Window) (WeeklySnowfallData, error) {
	byDate, err := indexDaily(daily)
	if err != nil {
		return WeeklySnowfallData{}, err
	}

	dates := w.Dates()
	days := make([]SnowfallSample, 0, len(dates))
	for _, date := range dates {
		days = append(days, SnowfallSample{
			Date:           date,
			SnowfallInches: byDate[date],
		})
	}

	return WeeklySnowfallData{
		Days:        days,
		TotalInches: Total(days),
	}, nil
}

// BuildToday returns the first day reported by a single-day forecast.
func BuildToday(daily DailySnowfall) (SnowfallSample, error) {
	if len(daily.Time) == 0 || len(daily.SnowfallSum) == 0 {
		return SnowfallSample{}, upstream.DataShapeError("forecast", fmt.Errorf("empty daily block"))
	}
	if _, err := time.Parse(DateLayout, daily.Time[0]); err != nil {
		return SnowfallSample{}, upstream.DataShapeError("forecast", err)
	}
	return SnowfallSample{
		Date:           daily.Time[0],
		SnowfallInches: amount(daily.SnowfallSum[0]),
	}, nil
}

// Total sums the samples in order with plain float addition.
func Total(days []SnowfallSample) float64 {
	var sum float64
	for _, d := range days {
		sum += d.SnowfallInches
	}
	return sum
}

func indexDaily(daily DailySnowfall) (map[string]float64, error) {
	if daily.Time == nil {
		return nil, upstream.DataShapeError("snowfall", fmt.Errorf("missing daily.time"))
	}

	byDate := make(map[string]float64, len(daily.Time))
	for i, date := range daily.Time {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, upstream.DataShapeError("snowfall", err)
		}
		var v *float64
		if i < len(daily.SnowfallSum) {
			v = daily.SnowfallSum[i]
		}
		byDate[date] = amount(v)
	}
	return byDate, nil
}

// amount normalizes a reported value; snowfall is never negative.
func amount(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return 0
	}
	return *v
}
