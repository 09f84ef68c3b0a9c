package geo

// Place is a forward geocoding candidate.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1,omitempty"`
}

func (p Place) Coords() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// DisplayName is "Name, Admin1" when the region is known.
func (p Place) DisplayName() string {
	if p.Admin1 != "" {
		return p.Name + ", " + p.Admin1
	}
	return p.Name
}

// PlaceName is the result of reverse geocoding a point.
type PlaceName struct {
	Name    string `json:"name"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}
