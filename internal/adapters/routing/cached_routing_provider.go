package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

// CacheMetrics counts directions cache lookups.
type CacheMetrics interface {
	DirectionsCacheLookup(hit bool)
}

// CachedRoutingProvider checks a persistent directions cache before calling
// the wrapped provider, and stores successful answers.
type CachedRoutingProvider struct {
	next    ports.RoutingProvider
	cache   ports.DirectionsCache
	metrics CacheMetrics
}

func NewCachedRoutingProvider(next ports.RoutingProvider, cache ports.DirectionsCache, metrics CacheMetrics) (*CachedRoutingProvider, error) {
	if next == nil {
		return nil, errors.New("cached routing provider: next provider is nil")
	}
	if cache == nil {
		return nil, errors.New("cached routing provider: cache is nil")
	}
	return &CachedRoutingProvider{next: next, cache: cache, metrics: metrics}, nil
}

func (c *CachedRoutingProvider) Route(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
) (*domain.Directions, error) {
	hit, ok, err := c.cache.Get(ctx, origin, destination, mode)
	if err != nil {
		// Cache errors fall through to the provider.
		log.Warn().Err(err).Msg("directions cache read failed")
	}
	if c.metrics != nil {
		c.metrics.DirectionsCacheLookup(ok)
	}
	if ok {
		return hit, nil
	}

	d, err := c.next.Route(ctx, origin, destination, mode)
	if err != nil {
		return nil, fmt.Errorf("cached routing: %w", err)
	}

	if _, hasLeg := d.FirstLeg(); hasLeg {
		if err := c.cache.Put(ctx, origin, destination, mode, d); err != nil {
			log.Warn().Err(err).Msg("directions cache write failed")
		}
	}
	return d, nil
}
