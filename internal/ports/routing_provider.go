package ports

import (
	"context"

	"bus-eta-service/internal/domain"
)

// Contract for retrieving travel directions between two coordinates.
type RoutingProvider interface {
	// Return directions from origin to destination. Callers consume
	// routes[0].legs[0]; an empty route list is a valid provider answer.
	Route(ctx context.Context, origin, destination domain.Coordinates, mode domain.TravelMode) (*domain.Directions, error)
}

// Persistent cache for directions keyed by rounded origin/destination.
type DirectionsCache interface {
	// Return the cached directions and true on a fresh hit.
	Get(ctx context.Context, origin, destination domain.Coordinates, mode domain.TravelMode) (*domain.Directions, bool, error)
	Put(ctx context.Context, origin, destination domain.Coordinates, mode domain.TravelMode, d *domain.Directions) error
}
