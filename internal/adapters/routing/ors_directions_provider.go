package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/obs"
)

const orsProvider = "ors"

// ORSDirectionsProvider implements RoutingProvider using OpenRouteService.
// ORS reports raw meters and seconds; text fields are rendered locally.
//
// The provider is safe for concurrent use.
type ORSDirectionsProvider struct {
	settings
}

func NewORSDirectionsProvider(apiKey string, opts ...Option) (*ORSDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	s := newSettings("https://api.openrouteservice.org", opts)
	s.client.Header.Set("Authorization", apiKey)

	return &ORSDirectionsProvider{settings: s}, nil
}

// profile maps a travel mode to an ORS routing profile.
func (o *ORSDirectionsProvider) profile(mode domain.TravelMode) string {
	if mode == domain.TravelModeWalking {
		return "foot-walking"
	}
	return "driving-car"
}

type orsDirectionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type orsDirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"segments"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func (o *ORSDirectionsProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
) (_ *domain.Directions, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	start := time.Now()
	defer func() { o.metrics.ObserveDirections(orsProvider, resultLabel(err), time.Since(start)) }()

	if mode == "" {
		mode = domain.TravelModeDriving
	}

	payload, err := json.Marshal(orsDirectionsRequest{
		Coordinates: [][]float64{origin.CoordsToList(), destination.CoordsToList()},
	})
	if err != nil {
		return nil, fmt.Errorf("ORS directions: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile(mode))

	var body orsDirectionsResponse
	if err := o.client.DoJSON(ctx, http.MethodPost, endpoint, payload, &body); err != nil {
		return nil, fmt.Errorf("ORS directions %s -> %s: %w", origin, destination, err)
	}

	out := &domain.Directions{
		Provider: orsProvider,
		Mode:     mode,
		Routes:   make([]domain.DirectionsRoute, 0, len(body.Routes)),
	}
	for _, r := range body.Routes {
		// A two-point request yields one segment; fall back to the summary
		// when ORS omits segments.
		legs := make([]domain.DirectionsLeg, 0, max(1, len(r.Segments)))
		if len(r.Segments) == 0 {
			legs = append(legs, orsLeg(r.Summary.Duration, r.Summary.Distance, origin, destination))
		}
		for _, s := range r.Segments {
			legs = append(legs, orsLeg(s.Duration, s.Distance, origin, destination))
		}

		out.Routes = append(out.Routes, domain.DirectionsRoute{
			Polyline: r.Geometry,
			Legs:     legs,
		})
	}

	return out, nil
}

func orsLeg(seconds, meters float64, origin, destination domain.Coordinates) domain.DirectionsLeg {
	return domain.DirectionsLeg{
		Duration: domain.TextValue{Text: FormatDuration(seconds), Value: int(math.Round(seconds))},
		Distance: domain.TextValue{Text: FormatDistance(meters), Value: int(math.Round(meters))},
		Start:    origin,
		End:      destination,
	}
}
