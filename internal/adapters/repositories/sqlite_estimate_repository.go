package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/ports"
)

// SQLite-backed implementation of the EstimateRepository port.
type SqliteEstimateRepository struct{ DB *sql.DB }

func NewSqliteEstimateRepository(db *sql.DB) *SqliteEstimateRepository {
	return &SqliteEstimateRepository{DB: db}
}

func (s *SqliteEstimateRepository) RecordEstimate(ctx context.Context, eta *domain.ETAResult) error {
	if s.DB == nil {
		return errors.New("sqlite estimate repository: DB is nil")
	}
	if eta == nil {
		return errors.New("record estimate: eta is nil")
	}

	estimatedAt := eta.EstimatedAt
	if estimatedAt.IsZero() {
		estimatedAt = time.Now()
	}

	query := `
	INSERT INTO estimates (
		system_id,
		vehicle_name,
		route_name,
		stop_name,
		duration_text,
		distance_text,
		duration_seconds,
		distance_meters,
		estimated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := s.DB.ExecContext(ctx, query,
		eta.SystemID,
		eta.VehicleName,
		eta.RouteName,
		eta.StopName,
		eta.Duration,
		eta.Distance,
		eta.DurationSeconds,
		eta.DistanceMeters,
		estimatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record estimate vehicle=%q: %w", eta.VehicleName, err)
	}
	return nil
}

// Return the most recent estimates, newest first.
func (s *SqliteEstimateRepository) ListRecentEstimates(ctx context.Context, limit int) ([]ports.EstimateRecord, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite estimate repository: DB is nil")
	}
	if limit <= 0 {
		return []ports.EstimateRecord{}, nil
	}

	query := `
	SELECT
		id,
		system_id,
		vehicle_name,
		route_name,
		stop_name,
		duration_text,
		distance_text,
		duration_seconds,
		distance_meters,
		estimated_at
	FROM estimates
	ORDER BY estimated_at DESC, id DESC
	LIMIT ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list estimates: query estimates table: %w", err)
	}
	defer rows.Close()

	records := make([]ports.EstimateRecord, 0, limit)
	for rows.Next() {
		var r ports.EstimateRecord
		var estimatedAt int64
		err := rows.Scan(
			&r.ID,
			&r.SystemID,
			&r.VehicleName,
			&r.RouteName,
			&r.StopName,
			&r.Duration,
			&r.Distance,
			&r.DurationSeconds,
			&r.DistanceMeters,
			&estimatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list estimates: scan row: %w", err)
		}
		r.EstimatedAt = time.UnixMilli(estimatedAt).UTC()
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list estimates: row iteration: %w", err)
	}

	return records, nil
}
