package transit

import (
	"context"
	"slices"
	"sync"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

// MockSystem is an in-memory TransitSystem for tests and demos.
// VehiclesFunc, when set, overrides Vehicles and receives the 1-based call number.
type MockSystem struct {
	SystemID   int
	SystemName string

	Vehicles []domain.Vehicle
	Stops    []domain.Stop
	Routes   []domain.Route
	Alerts   []domain.Alert

	VehiclesErr error
	StopsErr    error
	RoutesErr   error
	AlertsErr   error

	VehiclesFunc func(call int) ([]domain.Vehicle, error)

	mu           sync.Mutex
	vehicleCalls int
}

func (s *MockSystem) ID() int      { return s.SystemID }
func (s *MockSystem) Name() string { return s.SystemName }

func (s *MockSystem) GetVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	s.mu.Lock()
	s.vehicleCalls++
	call := s.vehicleCalls
	fn := s.VehiclesFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	if s.VehiclesErr != nil {
		return nil, s.VehiclesErr
	}
	return slices.Clone(s.Vehicles), nil
}

func (s *MockSystem) GetStops(ctx context.Context) ([]domain.Stop, error) {
	if s.StopsErr != nil {
		return nil, s.StopsErr
	}
	return slices.Clone(s.Stops), nil
}

func (s *MockSystem) GetRoutes(ctx context.Context) ([]domain.Route, error) {
	if s.RoutesErr != nil {
		return nil, s.RoutesErr
	}
	return slices.Clone(s.Routes), nil
}

func (s *MockSystem) GetAlerts(ctx context.Context) ([]domain.Alert, error) {
	if s.AlertsErr != nil {
		return nil, s.AlertsErr
	}
	return slices.Clone(s.Alerts), nil
}

// VehicleCalls reports how many times GetVehicles was invoked.
func (s *MockSystem) VehicleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicleCalls
}

type MockTransitProvider struct {
	systems map[int]*MockSystem
}

func NewMockTransitProvider(systems ...*MockSystem) *MockTransitProvider {
	m := make(map[int]*MockSystem, len(systems))
	for _, s := range systems {
		m[s.SystemID] = s
	}
	return &MockTransitProvider{systems: m}
}

func (p *MockTransitProvider) GetSystem(ctx context.Context, systemID int) (ports.TransitSystem, error) {
	s, ok := p.systems[systemID]
	if !ok {
		return nil, ports.ErrSystemNotFound
	}
	return s, nil
}
