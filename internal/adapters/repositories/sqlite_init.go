package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	createEstimatesQuery := `
	CREATE TABLE IF NOT EXISTS estimates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		system_id INTEGER NOT NULL,
		vehicle_name TEXT NOT NULL,
		route_name TEXT NOT NULL,
		stop_name TEXT NOT NULL,
		duration_text TEXT NOT NULL,
		distance_text TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		distance_meters INTEGER NOT NULL,
		estimated_at INTEGER NOT NULL
	);
	`

	createDirectionsCacheQuery := `
	CREATE TABLE IF NOT EXISTS directions_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		mode TEXT NOT NULL,
		payload TEXT NOT NULL,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (origin, destination, mode)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_estimates_estimated_at
	ON estimates(estimated_at DESC);
	`

	statements := []string{
		createEstimatesQuery,
		createDirectionsCacheQuery,
		createIndexQuery,
	}

	return execInTx(db, statements)
}

func execInTx(db *sql.DB, statements []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
