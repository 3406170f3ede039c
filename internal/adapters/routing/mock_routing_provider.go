package routing

import (
	"context"
	"sync"

	"bus-eta-service/internal/domain"
)

// MockRoutingProvider returns a fixed single-leg answer, or Err when set.
type MockRoutingProvider struct {
	Duration domain.TextValue
	Distance domain.TextValue
	Err      error

	mu    sync.Mutex
	calls []MockRouteCall
}

type MockRouteCall struct {
	Origin      domain.Coordinates
	Destination domain.Coordinates
	Mode        domain.TravelMode
}

func NewMockRoutingProvider(durationText string, durationSeconds int, distanceText string, distanceMeters int) *MockRoutingProvider {
	return &MockRoutingProvider{
		Duration: domain.TextValue{Text: durationText, Value: durationSeconds},
		Distance: domain.TextValue{Text: distanceText, Value: distanceMeters},
	}
}

func (p *MockRoutingProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
) (*domain.Directions, error) {
	p.mu.Lock()
	p.calls = append(p.calls, MockRouteCall{Origin: origin, Destination: destination, Mode: mode})
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}

	return &domain.Directions{
		Provider: "mock",
		Mode:     mode,
		Routes: []domain.DirectionsRoute{{
			Legs: []domain.DirectionsLeg{{
				Duration: p.Duration,
				Distance: p.Distance,
				Start:    origin,
				End:      destination,
			}},
		}},
	}, nil
}

// Calls returns the requests seen so far.
func (p *MockRoutingProvider) Calls() []MockRouteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MockRouteCall(nil), p.calls...)
}
