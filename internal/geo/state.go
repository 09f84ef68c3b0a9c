package geo

// Source identifies one of the three location sources.
type Source int

const (
	SourcePrecise Source = iota
	SourceApproximate
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourcePrecise:
		return "precise"
	case SourceApproximate:
		return "approximate"
	case SourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Status is the lifecycle of a single location source.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseStatus maps the wire name of a status back to its value.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "idle", "":
		return StatusIdle, true
	case "loading":
		return StatusLoading, true
	case "success":
		return StatusSuccess, true
	case "error":
		return StatusError, true
	}
	return StatusIdle, false
}

// Fix is the value a source produces on success. Precise fixes carry only
// coordinates, approximate fixes carry City/Region, manual fixes carry the
// place name the user confirmed.
type Fix struct {
	Coords    Coordinates `json:"coords"`
	PlaceName string      `json:"placeName,omitempty"`
	City      string      `json:"city,omitempty"`
	Region    string      `json:"region,omitempty"`
	Country   string      `json:"country,omitempty"`
}

// State is the observable state of one location source.
type State struct {
	Status Status
	Fix    Fix
	Err    error
}

func Idle() State { return State{Status: StatusIdle} }

func Loading() State { return State{Status: StatusLoading} }

func Succeeded(f Fix) State { return State{Status: StatusSuccess, Fix: f} }

func Failed(err error) State { return State{Status: StatusError, Err: err} }

// Settled reports whether the source has finished, with or without data.
func (s State) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// Pending reports whether a result may still arrive. Idle counts as pending:
// a source that has not started yet has not failed either.
func (s State) Pending() bool {
	return s.Status == StatusIdle || s.Status == StatusLoading
}

func (s State) OK() bool { return s.Status == StatusSuccess }
