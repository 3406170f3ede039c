package transit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

type lookupRecorder struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
}

func newLookupRecorder() *lookupRecorder {
	return &lookupRecorder{hits: map[string]int{}, misses: map[string]int{}}
}

func (l *lookupRecorder) TransitCacheLookup(kind string, hit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hit {
		l.hits[kind]++
	} else {
		l.misses[kind]++
	}
}

type countingSystem struct {
	*MockSystem
	mu         sync.Mutex
	stopCalls  int
	routeCalls int
}

func (c *countingSystem) GetStops(ctx context.Context) ([]domain.Stop, error) {
	c.mu.Lock()
	c.stopCalls++
	c.mu.Unlock()
	return c.MockSystem.GetStops(ctx)
}

func (c *countingSystem) GetRoutes(ctx context.Context) ([]domain.Route, error) {
	c.mu.Lock()
	c.routeCalls++
	c.mu.Unlock()
	return c.MockSystem.GetRoutes(ctx)
}

type singleSystemProvider struct{ sys ports.TransitSystem }

func (p singleSystemProvider) GetSystem(ctx context.Context, id int) (ports.TransitSystem, error) {
	if id != p.sys.ID() {
		return nil, ports.ErrSystemNotFound
	}
	return p.sys, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedProvider_CachesStaticData(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	inner := &countingSystem{MockSystem: &MockSystem{
		SystemID:   3994,
		SystemName: "UGA",
		Stops:      []domain.Stop{{ID: "1", Name: "Ramsey Center", Position: domain.Coordinates{Lat: 33.93, Lon: -83.37}}},
		Routes:     []domain.Route{{ID: "55", Name: "Orbit"}},
		Vehicles:   []domain.Vehicle{{Name: "Bus 1", RouteName: "Orbit"}},
	}}
	rec := newLookupRecorder()
	p := NewCachedProvider(singleSystemProvider{sys: inner}, client, time.Minute, rec)

	sys, err := p.GetSystem(ctx, 3994)
	if err != nil {
		t.Fatalf("get system: %v", err)
	}

	for i := 0; i < 3; i++ {
		stops, err := sys.GetStops(ctx)
		if err != nil {
			t.Fatalf("stops: %v", err)
		}
		if len(stops) != 1 || stops[0].Name != "Ramsey Center" || stops[0].Position.Lat != 33.93 {
			t.Fatalf("unexpected stops: %+v", stops)
		}
		if _, err := sys.GetRoutes(ctx); err != nil {
			t.Fatalf("routes: %v", err)
		}
		if _, err := sys.GetVehicles(ctx); err != nil {
			t.Fatalf("vehicles: %v", err)
		}
	}

	if inner.stopCalls != 1 || inner.routeCalls != 1 {
		t.Fatalf("expected one upstream call per kind, got stops=%d routes=%d", inner.stopCalls, inner.routeCalls)
	}
	if inner.VehicleCalls() != 3 {
		t.Fatalf("vehicles must not be cached, got %d calls", inner.VehicleCalls())
	}
	if rec.hits["stops"] != 2 || rec.misses["stops"] != 1 {
		t.Fatalf("unexpected stop lookups: hits=%d misses=%d", rec.hits["stops"], rec.misses["stops"])
	}

	again, err := p.GetSystem(ctx, 3994)
	if err != nil || again != sys {
		t.Fatalf("expected memoized system handle")
	}
}

func TestCachedProvider_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	inner := &countingSystem{MockSystem: &MockSystem{
		SystemID: 3994,
		Stops:    []domain.Stop{{ID: "1", Name: "Ramsey Center"}},
	}}
	p := NewCachedProvider(singleSystemProvider{sys: inner}, client, time.Minute, nil)

	sys, err := p.GetSystem(ctx, 3994)
	if err != nil {
		t.Fatalf("get system: %v", err)
	}
	if _, err := sys.GetStops(ctx); err != nil {
		t.Fatalf("stops: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := sys.GetStops(ctx); err != nil {
		t.Fatalf("stops: %v", err)
	}
	if inner.stopCalls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", inner.stopCalls)
	}
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	boom := errors.New("upstream down")
	inner := &countingSystem{MockSystem: &MockSystem{SystemID: 3994, StopsErr: boom}}
	p := NewCachedProvider(singleSystemProvider{sys: inner}, client, time.Minute, nil)

	sys, _ := p.GetSystem(ctx, 3994)
	for i := 0; i < 2; i++ {
		if _, err := sys.GetStops(ctx); !errors.Is(err, boom) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	if inner.stopCalls != 2 {
		t.Fatalf("expected errors to bypass cache, got %d calls", inner.stopCalls)
	}

	if _, err := p.GetSystem(ctx, 1); !errors.Is(err, ports.ErrSystemNotFound) {
		t.Fatalf("expected ErrSystemNotFound, got %v", err)
	}
}
