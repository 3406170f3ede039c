package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"bus-eta-service/internal/adapters/repositories"
	"bus-eta-service/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := repositories.InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func sampleDirections() *domain.Directions {
	return &domain.Directions{
		Provider: "google",
		Mode:     domain.TravelModeDriving,
		Routes: []domain.DirectionsRoute{{
			Legs: []domain.DirectionsLeg{{
				Duration: domain.TextValue{Text: "5 mins", Value: 300},
				Distance: domain.TextValue{Text: "1.2 mi", Value: 1931},
			}},
		}},
	}
}

func TestSqliteDirectionsCache_PutThenGet(t *testing.T) {
	ctx := context.Background()
	c := NewSqliteDirectionsCache(openTestDB(t), time.Minute)

	origin := domain.Coordinates{Lat: 33.9480, Lon: -83.3773}
	dest := domain.Coordinates{Lat: 33.9519, Lon: -83.3576}

	if _, ok, err := c.Get(ctx, origin, dest, domain.TravelModeDriving); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	if err := c.Put(ctx, origin, dest, domain.TravelModeDriving, sampleDirections()); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := c.Get(ctx, origin, dest, domain.TravelModeDriving)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	leg, ok := got.FirstLeg()
	if !ok || leg.Duration.Text != "5 mins" || leg.Distance.Value != 1931 {
		t.Fatalf("unexpected cached leg: %+v", leg)
	}

	if _, ok, _ := c.Get(ctx, origin, dest, domain.TravelModeWalking); ok {
		t.Fatalf("expected miss for a different mode")
	}
}

func TestSqliteDirectionsCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewSqliteDirectionsCache(openTestDB(t), time.Minute)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	origin := domain.Coordinates{Lat: 1, Lon: 2}
	dest := domain.Coordinates{Lat: 3, Lon: 4}
	if err := c.Put(ctx, origin, dest, domain.TravelModeDriving, sampleDirections()); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := c.Get(ctx, origin, dest, domain.TravelModeDriving); err != nil || ok {
		t.Fatalf("expected expired entry to miss, got ok=%v err=%v", ok, err)
	}

	n, err := c.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged row, got %d", n)
	}
}

func TestSqliteDirectionsCache_PutNil(t *testing.T) {
	c := NewSqliteDirectionsCache(openTestDB(t), time.Minute)
	err := c.Put(context.Background(), domain.Coordinates{}, domain.Coordinates{}, domain.TravelModeDriving, nil)
	if err == nil {
		t.Fatalf("expected error for nil directions")
	}
}
