package location

import (
	"errors"

	"github.com/i474232898/snowfall-check/internal/common"
	"github.com/i474232898/snowfall-check/internal/geo"
)

// Mode tells the view what to show.
type Mode int

const (
	ModeLoading Mode = iota
	ModeNeedManualInput
	ModeHaveLocation
)

func (m Mode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeNeedManualInput:
		return "need_manual_input"
	case ModeHaveLocation:
		return "have_location"
	default:
		return "unknown"
	}
}

// Inputs is everything the policy looks at.
type Inputs struct {
	Precise          geo.State
	Approximate      geo.State
	Manual           geo.State
	ForceManualInput bool

	// Notice is an inline message from the last search, carried through to
	// the result unchanged.
	Notice string
}

// Resolved is the single authoritative location view. It is derived from
// Inputs and never stored.
type Resolved struct {
	Coords        geo.Coordinates
	DisplayName   string
	IsApproximate bool
	Mode          Mode
	Source        geo.Source // meaningful only when Mode is ModeHaveLocation
	Hint          string
	Notice        string
}

func (r Resolved) HasLocation() bool { return r.Mode == ModeHaveLocation }

// Resolve combines the three sources. Manual input wins when forced;
// otherwise precise beats approximate no matter which finished first. While
// either automatic source may still report, the mode is loading.
func Resolve(in Inputs) Resolved {
	out := Resolved{Notice: in.Notice}

	if in.ForceManualInput {
		if in.Manual.OK() {
			out.Mode = ModeHaveLocation
			out.Source = geo.SourceManual
			out.Coords = in.Manual.Fix.Coords
			out.DisplayName = in.Manual.Fix.PlaceName
			return out
		}
		out.Mode = ModeNeedManualInput
		return out
	}

	switch {
	case in.Precise.OK():
		out.Mode = ModeHaveLocation
		out.Source = geo.SourcePrecise
		out.Coords = in.Precise.Fix.Coords
	case in.Approximate.OK():
		fix := in.Approximate.Fix
		out.Mode = ModeHaveLocation
		out.Source = geo.SourceApproximate
		out.Coords = fix.Coords
		out.IsApproximate = true
		out.DisplayName = common.JoinNonEmpty(", ", fix.City, fix.Region)
	case in.Precise.Pending() || in.Approximate.Pending():
		out.Mode = ModeLoading
	default:
		out.Mode = ModeNeedManualInput
		out.Hint = hintFor(in.Precise.Err)
	}
	return out
}

// hintFor explains why automatic detection gave up, based on the precise
// source's failure.
func hintFor(err error) string {
	switch {
	case errors.Is(err, geo.ErrPermissionDenied):
		return "Location access was denied. Search for a place instead."
	case errors.Is(err, geo.ErrTimeout):
		return "Finding your location took too long. Search for a place instead."
	case errors.Is(err, geo.ErrPositionUnavailable):
		return "Your location is unavailable right now. Search for a place instead."
	default:
		return "We couldn't detect your location. Search for a place instead."
	}
}
