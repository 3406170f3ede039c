package ports

import (
	"context"
	"errors"

	"bus-eta-service/internal/domain"
)

// ErrSystemNotFound is returned by TransitProvider.GetSystem when the
// provider does not know the requested system id.
var ErrSystemNotFound = errors.New("transit system not found")

// Contract for resolving a transit system by id.
type TransitProvider interface {
	GetSystem(ctx context.Context, systemID int) (TransitSystem, error)
}

// TransitSystem exposes the live data of one system. All calls hit the
// provider and may fail with network or parse errors.
type TransitSystem interface {
	ID() int
	Name() string
	GetVehicles(ctx context.Context) ([]domain.Vehicle, error)
	GetStops(ctx context.Context) ([]domain.Stop, error)
	GetRoutes(ctx context.Context) ([]domain.Route, error)
	GetAlerts(ctx context.Context) ([]domain.Alert, error)
}

// VehicleSource fetches the current vehicle positions of a system.
// It is what a position poller needs, and nothing more.
type VehicleSource interface {
	FetchVehicles(ctx context.Context, systemID int) ([]domain.Vehicle, error)
}

// PositionPublisher fans vehicle positions out to downstream consumers.
type PositionPublisher interface {
	PublishPositions(ctx context.Context, systemID int, tick uint64, vehicles []domain.Vehicle) error
}
