package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/obs"
)

const googleProvider = "google"

// GoogleDirectionsProvider implements RoutingProvider with the Google Maps
// Directions web service. Durations and distances keep Google's own text.
type GoogleDirectionsProvider struct {
	settings
	apiKey string
}

func NewGoogleDirectionsProvider(apiKey string, opts ...Option) (*GoogleDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google directions api key is empty")
	}

	return &GoogleDirectionsProvider{
		settings: newSettings("https://maps.googleapis.com", opts),
		apiKey:   apiKey,
	}, nil
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleDirectionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary          string `json:"summary"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Duration      domain.TextValue `json:"duration"`
			Distance      domain.TextValue `json:"distance"`
			StartLocation googleLatLng     `json:"start_location"`
			EndLocation   googleLatLng     `json:"end_location"`
		} `json:"legs"`
	} `json:"routes"`
}

func (g *GoogleDirectionsProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
) (_ *domain.Directions, err error) {
	defer obs.Time(ctx, "google.Route")(&err)

	start := time.Now()
	defer func() { g.metrics.ObserveDirections(googleProvider, resultLabel(err), time.Since(start)) }()

	if mode == "" {
		mode = domain.TravelModeDriving
	}

	q := url.Values{}
	q.Set("origin", origin.String())
	q.Set("destination", destination.String())
	q.Set("mode", string(mode))
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "/maps/api/directions/json?" + q.Encode()

	var body googleDirectionsResponse
	if err := g.client.DoJSON(ctx, http.MethodGet, endpoint, nil, &body); err != nil {
		return nil, fmt.Errorf("google directions %s -> %s: %w", origin, destination, err)
	}

	switch body.Status {
	case "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf(
			"google directions %s -> %s: status %s: %s",
			origin, destination, body.Status, body.ErrorMessage,
		)
	}

	out := &domain.Directions{
		Provider: googleProvider,
		Mode:     mode,
		Routes:   make([]domain.DirectionsRoute, 0, len(body.Routes)),
	}
	for _, r := range body.Routes {
		route := domain.DirectionsRoute{
			Summary:  r.Summary,
			Polyline: r.OverviewPolyline.Points,
			Legs:     make([]domain.DirectionsLeg, 0, len(r.Legs)),
		}
		for _, l := range r.Legs {
			route.Legs = append(route.Legs, domain.DirectionsLeg{
				Duration: l.Duration,
				Distance: l.Distance,
				Start:    domain.Coordinates{Lat: l.StartLocation.Lat, Lon: l.StartLocation.Lng},
				End:      domain.Coordinates{Lat: l.EndLocation.Lat, Lon: l.EndLocation.Lng},
			})
		}
		out.Routes = append(out.Routes, route)
	}

	return out, nil
}
