package domain

import "time"

// TravelMode selects the routing profile used for directions.
type TravelMode string

const (
	TravelModeDriving TravelMode = "driving"
	TravelModeWalking TravelMode = "walking"
)

// TextValue is a human readable measurement with its numeric value
// (seconds for durations, meters for distances).
type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type DirectionsLeg struct {
	Duration TextValue   `json:"duration"`
	Distance TextValue   `json:"distance"`
	Start    Coordinates `json:"start"`
	End      Coordinates `json:"end"`
}

type DirectionsRoute struct {
	Summary  string          `json:"summary,omitempty"`
	Polyline string          `json:"polyline,omitempty"`
	Legs     []DirectionsLeg `json:"legs"`
}

// Directions is the routing provider result. It is passed through to
// callers untouched so they can render the path.
type Directions struct {
	Provider string            `json:"provider"`
	Mode     TravelMode        `json:"mode"`
	Routes   []DirectionsRoute `json:"routes"`
}

// FirstLeg returns routes[0].legs[0] when present.
func (d *Directions) FirstLeg() (DirectionsLeg, bool) {
	if d == nil || len(d.Routes) == 0 || len(d.Routes[0].Legs) == 0 {
		return DirectionsLeg{}, false
	}
	return d.Routes[0].Legs[0], true
}

// ETAResult is the outcome of one estimation: how long the chosen vehicle
// needs to reach the next stop on its route.
type ETAResult struct {
	SystemID        int
	VehicleName     string
	RouteName       string
	NearestStopName string
	StopName        string
	Duration        string
	Distance        string
	DurationSeconds int
	DistanceMeters  int
	VehiclePosition Coordinates
	StopPosition    Coordinates
	Directions      *Directions
	EstimatedAt     time.Time
}
