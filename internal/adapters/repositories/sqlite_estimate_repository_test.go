package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

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

	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitSchema(db); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestInitSchema_NilDB(t *testing.T) {
	if err := InitSchema(nil); err == nil {
		t.Fatalf("expected error for nil DB")
	}
}

func TestSqliteEstimateRepository_RecordAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteEstimateRepository(openTestDB(t))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Bus 1", "Bus 2", "Bus 3"} {
		err := repo.RecordEstimate(ctx, &domain.ETAResult{
			SystemID:        3994,
			VehicleName:     name,
			RouteName:       "Orbit",
			StopName:        "Ramsey Center",
			Duration:        "5 mins",
			Distance:        "1.2 mi",
			DurationSeconds: 300,
			DistanceMeters:  1931,
			EstimatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record %s: %v", name, err)
		}
	}

	got, err := repo.ListRecentEstimates(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].VehicleName != "Bus 3" || got[1].VehicleName != "Bus 2" {
		t.Fatalf("expected newest first, got %q then %q", got[0].VehicleName, got[1].VehicleName)
	}
	if !got[0].EstimatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected timestamp: %v", got[0].EstimatedAt)
	}
	if got[0].DurationSeconds != 300 || got[0].StopName != "Ramsey Center" {
		t.Fatalf("unexpected record: %+v", got[0])
	}
}

func TestSqliteEstimateRepository_ZeroLimit(t *testing.T) {
	repo := NewSqliteEstimateRepository(openTestDB(t))
	got, err := repo.ListRecentEstimates(context.Background(), 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", got, err)
	}
}

func TestSqliteEstimateRepository_RecordNil(t *testing.T) {
	repo := NewSqliteEstimateRepository(openTestDB(t))
	if err := repo.RecordEstimate(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil estimate")
	}
}
