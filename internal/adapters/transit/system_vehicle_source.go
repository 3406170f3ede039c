package transit

import (
	"context"
	"fmt"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

// SystemVehicleSource adapts a TransitProvider to the VehicleSource port by
// resolving the system and fetching its vehicles on every call.
type SystemVehicleSource struct {
	provider ports.TransitProvider
}

func NewSystemVehicleSource(provider ports.TransitProvider) *SystemVehicleSource {
	return &SystemVehicleSource{provider: provider}
}

func (s *SystemVehicleSource) FetchVehicles(ctx context.Context, systemID int) ([]domain.Vehicle, error) {
	sys, err := s.provider.GetSystem(ctx, systemID)
	if err != nil {
		return nil, fmt.Errorf("fetch vehicles: get system %d: %w", systemID, err)
	}
	if sys == nil {
		return nil, fmt.Errorf("fetch vehicles: get system %d: %w", systemID, ports.ErrSystemNotFound)
	}

	vehicles, err := sys.GetVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch vehicles: system %d: %w", systemID, err)
	}
	return vehicles, nil
}
