package repositories

import (
	"database/sql"
	"errors"
)

// Initialize the postgres database schema.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS estimates (
			id BIGSERIAL PRIMARY KEY,
			system_id INTEGER NOT NULL,
			vehicle_name TEXT NOT NULL,
			route_name TEXT NOT NULL,
			stop_name TEXT NOT NULL,
			duration_text TEXT NOT NULL,
			distance_text TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			distance_meters INTEGER NOT NULL,
			estimated_at TIMESTAMPTZ NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS directions_cache (
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			mode TEXT NOT NULL,
			payload JSONB NOT NULL,
			cached_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (origin, destination, mode)
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_estimates_estimated_at
		ON estimates(estimated_at DESC);
		`,
	}

	return execInTx(db, statements)
}
