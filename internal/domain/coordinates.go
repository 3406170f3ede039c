package domain

import (
	"math"
	"strconv"
)

// Mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// String renders "lat,lon", the form accepted by most directions APIs.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Key renders the coordinates rounded to 5 decimals (~1m) for cache lookups.
func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(c.Lon, 'f', 5, 64)
}

// DistanceMeters returns the great-circle distance to other using the
// haversine formula.
func (c Coordinates) DistanceMeters(other Coordinates) float64 {
	phi1 := c.Lat * math.Pi / 180
	phi2 := other.Lat * math.Pi / 180
	dPhi := (other.Lat - c.Lat) * math.Pi / 180
	dLambda := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
