package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/obs"
	"bus-eta-service/internal/ports"
	"bus-eta-service/internal/topology"
)

var (
	ErrNoTransitData     = errors.New("no vehicles, stops, or routes found")
	ErrIneligibleVehicle = errors.New("vehicle is not on a tracked route")
	ErrNoClosestStop     = errors.New("could not find closest stop")
	ErrNoNextStop        = errors.New("could not find next stop in sequence")
	ErrStopNotFound      = errors.New("could not find next stop object")
	ErrDirections        = errors.New("directions unavailable")
)

const (
	unknownText    = "Unknown"
	unknownVehicle = "Unknown Vehicle"
	unknownStop    = "Unknown Stop"
)

// EstimatorMetrics receives one observation per estimation attempt.
type EstimatorMetrics interface {
	ObserveEstimate(outcome string, dur time.Duration)
}

type nopEstimatorMetrics struct{}

func (nopEstimatorMetrics) ObserveEstimate(string, time.Duration) {}

// ETAEstimator computes how long a randomly chosen bus needs to reach the
// next stop on its route.
//
// It performs a single attempt per call: an ineligible vehicle or any failed
// lookup ends the attempt and the caller decides whether to try again.
type ETAEstimator struct {
	transit  ports.TransitProvider
	routing  ports.RoutingProvider
	topology *topology.Table
	pick     func(n int) int
	now      func() time.Time
	metrics  EstimatorMetrics
}

type EstimatorOption func(*ETAEstimator)

// WithPicker replaces the uniform vehicle picker. fn must return a value in [0, n).
func WithPicker(fn func(n int) int) EstimatorOption {
	return func(e *ETAEstimator) { e.pick = fn }
}

func WithEstimatorMetrics(m EstimatorMetrics) EstimatorOption {
	return func(e *ETAEstimator) { e.metrics = m }
}

func WithClock(now func() time.Time) EstimatorOption {
	return func(e *ETAEstimator) { e.now = now }
}

func NewETAEstimator(
	transit ports.TransitProvider,
	routing ports.RoutingProvider,
	table *topology.Table,
	opts ...EstimatorOption,
) (*ETAEstimator, error) {
	if transit == nil {
		return nil, errors.New("new eta estimator: transit provider is nil")
	}
	if routing == nil {
		return nil, errors.New("new eta estimator: routing provider is nil")
	}
	if table == nil {
		return nil, errors.New("new eta estimator: topology table is nil")
	}

	e := &ETAEstimator{
		transit:  transit,
		routing:  routing,
		topology: table,
		pick:     rand.IntN,
		now:      time.Now,
		metrics:  nopEstimatorMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EstimateRandomETA returns an estimate, or nil when any step fails. Failures
// are logged; nil means "try again". The call has no timeout of its own, so
// callers should bound ctx.
func (e *ETAEstimator) EstimateRandomETA(ctx context.Context, systemID int) *domain.ETAResult {
	res, err := e.Estimate(ctx, systemID)
	if err != nil {
		ev := log.Warn()
		if errors.Is(err, ErrIneligibleVehicle) {
			ev = log.Info()
		}
		ev.Str("req_id", obs.RequestID(ctx)).
			Int("system_id", systemID).
			Str("outcome", EstimateOutcome(err)).
			Err(err).
			Msg("eta estimate unavailable, try again")
		return nil
	}

	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Int("system_id", systemID).
		Str("vehicle", res.VehicleName).
		Str("route", res.RouteName).
		Str("stop", res.StopName).
		Str("duration", res.Duration).
		Msg("eta estimated")
	return res
}

// Estimate runs one estimation and reports why it failed. Errors wrap
// ports.ErrSystemNotFound or one of the Err* values of this package.
func (e *ETAEstimator) Estimate(ctx context.Context, systemID int) (_ *domain.ETAResult, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveEstimate(EstimateOutcome(err), time.Since(start)) }()

	system, err := e.transit.GetSystem(ctx, systemID)
	if err != nil {
		return nil, fmt.Errorf("estimate eta: get system %d: %w", systemID, err)
	}
	if system == nil {
		return nil, fmt.Errorf("estimate eta: get system %d: %w", systemID, ports.ErrSystemNotFound)
	}

	var (
		vehicles []domain.Vehicle
		stops    []domain.Stop
		routes   []domain.Route
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		v, err := system.GetVehicles(ctx)
		if err != nil {
			return fmt.Errorf("get vehicles: %w", err)
		}
		vehicles = v
		return nil
	})
	p.Go(func(ctx context.Context) error {
		s, err := system.GetStops(ctx)
		if err != nil {
			return fmt.Errorf("get stops: %w", err)
		}
		stops = s
		return nil
	})
	p.Go(func(ctx context.Context) error {
		r, err := system.GetRoutes(ctx)
		if err != nil {
			return fmt.Errorf("get routes: %w", err)
		}
		routes = r
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("estimate eta: system %d: %w", systemID, err)
	}

	if len(vehicles) == 0 || len(stops) == 0 || len(routes) == 0 {
		return nil, fmt.Errorf(
			"estimate eta: system %d: vehicles=%d stops=%d routes=%d: %w",
			systemID, len(vehicles), len(stops), len(routes), ErrNoTransitData,
		)
	}

	vehicle := vehicles[e.pick(len(vehicles))]

	if vehicle.RouteName == "" || !e.topology.HasRoute(vehicle.RouteName) {
		return nil, fmt.Errorf(
			"estimate eta: vehicle %q route %q: %w",
			vehicle.Name, vehicle.RouteName, ErrIneligibleVehicle,
		)
	}

	candidates := stopsOnRoute(stops, func(name string) bool {
		return e.topology.Contains(vehicle.RouteName, name)
	})
	nearest, ok := ClosestStop(vehicle.Position, candidates)
	if !ok {
		return nil, fmt.Errorf(
			"estimate eta: vehicle %q route %q: %d candidate stops: %w",
			vehicle.Name, vehicle.RouteName, len(candidates), ErrNoClosestStop,
		)
	}

	nextName, ok := e.topology.NextStop(nearest.Name, vehicle.RouteName)
	if !ok {
		return nil, fmt.Errorf(
			"estimate eta: after %q on route %q: %w",
			nearest.Name, vehicle.RouteName, ErrNoNextStop,
		)
	}

	next, ok := findStopByName(stops, nextName)
	if !ok {
		return nil, fmt.Errorf("estimate eta: stop %q: %w", nextName, ErrStopNotFound)
	}

	directions, err := e.routing.Route(ctx, vehicle.Position, next.Position, domain.TravelModeDriving)
	if err != nil {
		return nil, fmt.Errorf(
			"estimate eta: route %s -> %q: %w: %w",
			vehicle.Position, next.Name, ErrDirections, err,
		)
	}

	leg, ok := directions.FirstLeg()
	if !ok {
		return nil, fmt.Errorf(
			"estimate eta: route %s -> %q: empty routes or legs: %w",
			vehicle.Position, next.Name, ErrDirections,
		)
	}

	return &domain.ETAResult{
		SystemID:        systemID,
		VehicleName:     orDefault(vehicle.Name, unknownVehicle),
		RouteName:       vehicle.RouteName,
		NearestStopName: nearest.Name,
		StopName:        orDefault(next.Name, unknownStop),
		Duration:        orDefault(leg.Duration.Text, unknownText),
		Distance:        orDefault(leg.Distance.Text, unknownText),
		DurationSeconds: leg.Duration.Value,
		DistanceMeters:  leg.Distance.Value,
		VehiclePosition: vehicle.Position,
		StopPosition:    next.Position,
		Directions:      directions,
		EstimatedAt:     e.now(),
	}, nil
}

// EstimateOutcome classifies an Estimate error into a short label used by
// logs and metrics.
func EstimateOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ports.ErrSystemNotFound):
		return "system_not_found"
	case errors.Is(err, ErrNoTransitData):
		return "no_data"
	case errors.Is(err, ErrIneligibleVehicle):
		return "ineligible_vehicle"
	case errors.Is(err, ErrNoClosestStop):
		return "no_closest_stop"
	case errors.Is(err, ErrNoNextStop):
		return "no_next_stop"
	case errors.Is(err, ErrStopNotFound):
		return "stop_not_found"
	case errors.Is(err, ErrDirections):
		return "directions_error"
	default:
		return "provider_error"
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
