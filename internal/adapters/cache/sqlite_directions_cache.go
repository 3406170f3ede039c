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

// SQLite backed cache for origin->destination directions.
// Coordinates are keyed rounded to ~1m so a parked bus reuses its answer.
// Entries older than TTL are treated as misses.
type SqliteDirectionsCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

func NewSqliteDirectionsCache(db *sql.DB, ttl time.Duration) *SqliteDirectionsCache {
	return &SqliteDirectionsCache{DB: db, TTL: ttl, now: time.Now}
}

func (s *SqliteDirectionsCache) Get(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TravelMode,
) (_ *domain.Directions, _ bool, err error) {
	defer obs.Time(ctx, "directions.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("directions cache: db is nil")
	}

	q := `
	SELECT payload, cached_at
	FROM directions_cache
	WHERE origin = ?
		AND destination = ?
		AND mode = ?;
	`

	var payload string
	var cachedAt int64
	err = s.DB.QueryRowContext(ctx, q, origin.Key(), destination.Key(), string(mode)).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get directions cache: query directions_cache table: %w", err)
	}

	if s.TTL > 0 && s.now().Sub(time.Unix(cachedAt, 0)) > s.TTL {
		return nil, false, nil
	}

	var d domain.Directions
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, false, fmt.Errorf("get directions cache: decode payload: %w", err)
	}

	return &d, true, nil
}

func (s *SqliteDirectionsCache) Put(
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
	INSERT OR REPLACE INTO directions_cache (
		origin,
		destination,
		mode,
		payload,
		cached_at
	)
	VALUES (?, ?, ?, ?, ?);
	`, origin.Key(), destination.Key(), string(mode), string(payload), s.now().Unix())
	if err != nil {
		return fmt.Errorf("insert directions cache %s -> %s: %w", origin.Key(), destination.Key(), err)
	}

	return nil
}

// Purge deletes entries older than the TTL and returns how many were removed.
func (s *SqliteDirectionsCache) Purge(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("directions cache: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM directions_cache WHERE cached_at < ?;`, s.now().Add(-s.TTL).Unix())
	if err != nil {
		return 0, fmt.Errorf("purge directions cache: %w", err)
	}
	return res.RowsAffected()
}
