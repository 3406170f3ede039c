package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/obs"
	"bus-eta-service/internal/ports"
)

// Postgres-backed implementation of the EstimateRepository port.
type SQLEstimateRepository struct{ DB *sql.DB }

func NewSQLEstimateRepository(db *sql.DB) *SQLEstimateRepository {
	return &SQLEstimateRepository{DB: db}
}

func (s *SQLEstimateRepository) RecordEstimate(ctx context.Context, eta *domain.ETAResult) (err error) {
	defer obs.Time(ctx, "estimates.sql.Record")(&err)

	if s.DB == nil {
		return errors.New("sql estimate repository: DB is nil")
	}
	if eta == nil {
		return errors.New("record estimate: eta is nil")
	}

	estimatedAt := eta.EstimatedAt
	if estimatedAt.IsZero() {
		estimatedAt = time.Now()
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO estimates (
		system_id, vehicle_name, route_name, stop_name,
		duration_text, distance_text, duration_seconds, distance_meters,
		estimated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`,
		eta.SystemID, eta.VehicleName, eta.RouteName, eta.StopName,
		eta.Duration, eta.Distance, eta.DurationSeconds, eta.DistanceMeters,
		estimatedAt,
	)
	if err != nil {
		return fmt.Errorf("record estimate vehicle=%q: %w", eta.VehicleName, err)
	}
	return nil
}

func (s *SQLEstimateRepository) ListRecentEstimates(ctx context.Context, limit int) (_ []ports.EstimateRecord, err error) {
	defer obs.Time(ctx, "estimates.sql.ListRecent")(&err)

	if s.DB == nil {
		return nil, errors.New("sql estimate repository: DB is nil")
	}
	if limit <= 0 {
		return []ports.EstimateRecord{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT id, system_id, vehicle_name, route_name, stop_name,
		duration_text, distance_text, duration_seconds, distance_meters,
		estimated_at
	FROM estimates
	ORDER BY estimated_at DESC, id DESC
	LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list estimates: query estimates table: %w", err)
	}
	defer rows.Close()

	records := make([]ports.EstimateRecord, 0, limit)
	for rows.Next() {
		var r ports.EstimateRecord
		if err := rows.Scan(
			&r.ID, &r.SystemID, &r.VehicleName, &r.RouteName, &r.StopName,
			&r.Duration, &r.Distance, &r.DurationSeconds, &r.DistanceMeters,
			&r.EstimatedAt,
		); err != nil {
			return nil, fmt.Errorf("list estimates: scan row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list estimates: row iteration: %w", err)
	}

	return records, nil
}
