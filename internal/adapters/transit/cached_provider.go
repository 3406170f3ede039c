package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

const DefaultTransitCacheTTL = 10 * time.Minute

// CacheMetrics receives one observation per transit cache lookup.
type CacheMetrics interface {
	TransitCacheLookup(kind string, hit bool)
}

type nopCacheMetrics struct{}

func (nopCacheMetrics) TransitCacheLookup(string, bool) {}

// CachedProvider wraps a TransitProvider and keeps the slow-changing system
// data (stops, routes, alerts) in redis. Vehicles are never cached.
type CachedProvider struct {
	next    ports.TransitProvider
	cache   *cache.Cache[string]
	metrics CacheMetrics

	mu      sync.Mutex
	systems map[int]ports.TransitSystem
}

func NewCachedProvider(next ports.TransitProvider, client *redis.Client, ttl time.Duration, metrics CacheMetrics) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultTransitCacheTTL
	}
	if metrics == nil {
		metrics = nopCacheMetrics{}
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &CachedProvider{
		next:    next,
		cache:   cache.New[string](redisStore),
		metrics: metrics,
		systems: make(map[int]ports.TransitSystem),
	}
}

func (c *CachedProvider) GetSystem(ctx context.Context, systemID int) (ports.TransitSystem, error) {
	c.mu.Lock()
	sys, ok := c.systems[systemID]
	c.mu.Unlock()
	if ok {
		return sys, nil
	}

	inner, err := c.next.GetSystem(ctx, systemID)
	if err != nil {
		return nil, err
	}

	sys = &cachedSystem{TransitSystem: inner, owner: c}

	c.mu.Lock()
	c.systems[systemID] = sys
	c.mu.Unlock()

	return sys, nil
}

type cachedSystem struct {
	ports.TransitSystem
	owner *CachedProvider
}

func (s *cachedSystem) GetStops(ctx context.Context) ([]domain.Stop, error) {
	return cachedList(ctx, s.owner, s.cacheKey("stops"), "stops", s.TransitSystem.GetStops)
}

func (s *cachedSystem) GetRoutes(ctx context.Context) ([]domain.Route, error) {
	return cachedList(ctx, s.owner, s.cacheKey("routes"), "routes", s.TransitSystem.GetRoutes)
}

func (s *cachedSystem) GetAlerts(ctx context.Context) ([]domain.Alert, error) {
	return cachedList(ctx, s.owner, s.cacheKey("alerts"), "alerts", s.TransitSystem.GetAlerts)
}

func (s *cachedSystem) cacheKey(kind string) string {
	return fmt.Sprintf("bus-eta:transit:%d:%s", s.ID(), kind)
}

// cachedList reads key from the cache and falls back to fetch on a miss.
// Cache errors fall through to the provider.
func cachedList[T any](
	ctx context.Context,
	c *CachedProvider,
	key string,
	kind string,
	fetch func(context.Context) ([]T, error),
) ([]T, error) {
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var items []T
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			c.metrics.TransitCacheLookup(kind, true)
			return items, nil
		}
		log.Warn().Str("key", key).Msg("transit cache: dropping undecodable entry")
	}
	c.metrics.TransitCacheLookup(kind, false)

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("transit cache: encode failed")
		return items, nil
	}
	if err := c.cache.Set(ctx, key, string(payload)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("transit cache: write failed")
	}

	return items, nil
}
