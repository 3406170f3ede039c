package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/obs"
)

// SQLDirectionsCache is a postgres-backed cache for origin->destination directions.
type SQLDirectionsCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLDirectionsCache(db *sql.DB, ttl time.Duration) *SQLDirectionsCache {
	return &SQLDirectionsCache{DB: db, TTL: ttl}
}

func (s *SQLDirectionsCache) Get(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
) (_ *domain.Directions, _ bool, err error) {
	defer obs.Time(ctx, "directions.cache.sql.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("directions cache: db is nil")
	}

	q := `
	SELECT payload
	FROM directions_cache
	WHERE origin = $1
		AND destination = $2
		AND mode = $3
		AND ($4::bigint <= 0 OR cached_at > now() - make_interval(secs => $4::bigint));
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, origin.Key(), destination.Key(), string(mode), int64(s.TTL.Seconds())).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get directions cache: query directions_cache table: %w", err)
	}

	var d domain.Directions
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, false, fmt.Errorf("get directions cache: decode payload: %w", err)
	}

	return &d, true, nil
}

func (s *SQLDirectionsCache) Put(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
	d *domain.Directions,
) error {
	if s.DB == nil {
		return errors.New("directions cache: db is nil")
	}
	if d == nil {
		return errors.New("insert directions cache: directions must not be nil")
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("insert directions cache: encode payload: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO directions_cache (origin, destination, mode, payload, cached_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (origin, destination, mode) DO UPDATE
	SET payload = EXCLUDED.payload,
		cached_at = EXCLUDED.cached_at;
	`, origin.Key(), destination.Key(), string(mode), string(payload))
	if err != nil {
		return fmt.Errorf("insert directions cache %s -> %s: %w", origin.Key(), destination.Key(), err)
	}

	return nil
}

// Purge deletes entries older than the TTL and returns how many were removed.
func (s *SQLDirectionsCache) Purge(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("directions cache: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM directions_cache
	WHERE cached_at < now() - make_interval(secs => $1::bigint);
	`, int64(s.TTL.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("purge directions cache: %w", err)
	}
	return res.RowsAffected()
}
