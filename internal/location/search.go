package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/i474232898/snowfall-check/internal/geo"
	applog "github.com/i474232898/snowfall-check/internal/log"
)

// ErrEmptyQuery is returned when a search has no place name to look up.
var ErrEmptyQuery = errors.New("search query is empty")

const (
	plainSearchCount    = 1
	filteredSearchCount = 20
)

// Geocoder searches places by name.
type Geocoder interface {
	Search(ctx context.Context, name string, count int) ([]geo.Place, error)
}

// SearchObserver receives one outcome per search: found, not_found or error.
type SearchObserver interface {
	ObserveSearch(outcome string)
}

// SearchService turns free text such as "Denver, CO" into a single place.
type SearchService struct {
	geocoder Geocoder
	observer SearchObserver
	logger   *zap.SugaredLogger
}

type SearchOption func(*SearchService)

func WithSearchObserver(o SearchObserver) SearchOption {
	return func(s *SearchService) { s.observer = o }
}

func WithSearchLogger(l *zap.SugaredLogger) SearchOption {
	return func(s *SearchService) { s.logger = l }
}

func NewSearchService(geocoder Geocoder, opts ...SearchOption) *SearchService {
	s := &SearchService{geocoder: geocoder}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = applog.OrNop(s.logger)
	return s
}

// ParseQuery splits a query on its first comma into a place name and an
// optional region filter.
func ParseQuery(query string) (name, region string) {
	name, region, _ = strings.Cut(query, ",")
	return strings.TrimSpace(name), strings.TrimSpace(region)
}

// Search resolves query to one place. found is false, with a nil error, when
// the geocoder has no candidates. Transport and HTTP failures are returned
// as errors so callers can offer a retry instead of a "not found" message.
func (s *SearchService) Search(ctx context.Context, query string) (place geo.Place, found bool, err error) {
	name, region := ParseQuery(query)
	if name == "" {
		return geo.Place{}, false, ErrEmptyQuery
	}

	count := plainSearchCount
	if region != "" {
		count = filteredSearchCount
	}

	candidates, err := s.geocoder.Search(ctx, name, count)
	if err != nil {
		s.observe("error")
		s.logger.Warnw("place search failed", "query", query, "error", err)
		return geo.Place{}, false, fmt.Errorf("search %q: %w", name, err)
	}
	if len(candidates) == 0 {
		s.observe("not_found")
		return geo.Place{}, false, nil
	}

	s.observe("found")
	if region == "" {
		return candidates[0], true, nil
	}
	if p, ok := matchRegion(candidates, region); ok {
		return p, true, nil
	}
	s.logger.Debugw("no candidate matched region, using top result",
		"query", query, "region", region, "top", candidates[0].DisplayName())
	return candidates[0], true, nil
}

func (s *SearchService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSearch(outcome)
	}
}

// matchRegion returns the candidate whose admin1 is the state a US
// abbreviation stands for, or else the first whose admin1 contains region.
// Abbreviations are checked first so "IA" picks Iowa over Pennsylvania.
func matchRegion(candidates []geo.Place, region string) (geo.Place, bool) {
	fold := cases.Fold()

	if full, ok := usStates[strings.ToUpper(region)]; ok {
		full = fold.String(full)
		for _, c := range candidates {
			if fold.String(c.Admin1) == full {
				return c, true
			}
		}
	}

	want := fold.String(region)
	for _, c := range candidates {
		if c.Admin1 != "" && strings.Contains(fold.String(c.Admin1), want) {
			return c, true
		}
	}
	return geo.Place{}, false
}

// US state and district abbreviations.
var usStates = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "District of Columbia",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
}
