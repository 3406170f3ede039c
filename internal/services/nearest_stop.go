package services

import (
	"math"

	"bus-eta-service/internal/domain"
)

// ClosestStop returns the stop nearest to position by great-circle distance.
//
// The scan is linear and keeps the first stop on ties, so the result depends
// on the order of stops when two candidates are equidistant. It returns false
// when stops is empty.
func ClosestStop(position domain.Coordinates, stops []domain.Stop) (domain.Stop, bool) {
	if len(stops) == 0 {
		return domain.Stop{}, false
	}

	best := -1
	minDistance := math.Inf(1)
	for i, s := range stops {
		d := position.DistanceMeters(s.Position)
		if d < minDistance {
			minDistance = d
			best = i
		}
	}

	if best == -1 {
		// Every distance was NaN (invalid coordinates).
		return domain.Stop{}, false
	}
	return stops[best], true
}

// stopsOnRoute keeps the stops whose names are part of the route sequence.
func stopsOnRoute(stops []domain.Stop, inRoute func(name string) bool) []domain.Stop {
	out := make([]domain.Stop, 0, len(stops))
	for _, s := range stops {
		if inRoute(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// findStopByName returns the first stop whose name equals name exactly.
func findStopByName(stops []domain.Stop, name string) (domain.Stop, bool) {
	for _, s := range stops {
		if s.Name == name {
			return s, true
		}
	}
	return domain.Stop{}, false
}
