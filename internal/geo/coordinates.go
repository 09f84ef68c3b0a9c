package geo

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinates is a WGS84 position. Values are immutable once built through
// NewCoordinates.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// NewCoordinates returns validated coordinates.
func NewCoordinates(lat, lon float64) (Coordinates, error) {
	c := Coordinates{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Validate checks latitude and longitude bounds.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fmt.Errorf("invalid coordinates: NaN component")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid coordinates (%f, %f): %w", c.Latitude, c.Longitude, err)
	}
	return nil
}

// Key returns a canonical string key for caching requests about this point.
// Four decimals is roughly 11m, well below any forecast grid.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", c.Latitude, c.Longitude)
}
