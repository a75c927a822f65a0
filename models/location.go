package models

// Commute modes queried against the distance matrix
const (
	CommuteDriving   = "driving"
	CommuteTransit   = "transit"
	CommuteWalking   = "walking"
	CommuteBicycling = "bicycling"
)

// LocationInfo is the geo section of a report. Everything except the
// neighborhood entry needs a maps key.
type LocationInfo struct {
	Lat              *float64          `json:"lat,omitempty"`
	Lng              *float64          `json:"lng,omitempty"`
	FormattedAddress string            `json:"formattedAddress,omitempty"`
	Neighborhood     *NeighborhoodInfo `json:"neighborhood,omitempty"`
	Commute          []CommuteTime     `json:"commute,omitempty"`
	Nearby           []NearbyPlaces    `json:"nearby,omitempty"`
}

type NeighborhoodInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights,omitempty"`
}

// CommuteTime is the travel time to the configured destination for one mode
type CommuteTime struct {
	Mode        string  `json:"mode"`
	DurationMin int     `json:"durationMin"`
	DistanceKm  float64 `json:"distanceKm"`
	Text        string  `json:"text,omitempty"`
}

// NearbyPlaces counts places of one category around the listing
type NearbyPlaces struct {
	Type    string   `json:"type"`
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	Closest []string `json:"closest,omitempty"`
}

// HasCoordinates reports whether both lat and lng are known
func (l *LocationInfo) HasCoordinates() bool {
	return l != nil && l.Lat != nil && l.Lng != nil
}
