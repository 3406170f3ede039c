package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/adapters/cache"
	"bus-eta-service/internal/adapters/repositories"
	"bus-eta-service/internal/adapters/routing"
	"bus-eta-service/internal/adapters/transit"
	"bus-eta-service/internal/config"
	"bus-eta-service/internal/metrics"
	"bus-eta-service/internal/platform/db"
	"bus-eta-service/internal/platform/kv"
	"bus-eta-service/internal/ports"
	"bus-eta-service/internal/services"
	"bus-eta-service/internal/topology"
)

// App holds the concrete adapters behind the ports, wired from config.
type App struct {
	Config  *config.Config
	Metrics *metrics.Collector

	DB      *sql.DB
	Dialect db.Dialect
	Redis   *redis.Client

	Topology  *topology.Table
	Transit   ports.TransitProvider
	Vehicles  ports.VehicleSource
	Routing   ports.RoutingProvider
	Estimator *services.ETAEstimator
	Estimates ports.EstimateRepository
}

// Build opens every backing store and wires the ETA pipeline. Redis is
// optional; the routing API key is required.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Collector) (*App, error) {
	a := &App{Config: cfg, Metrics: m}

	if err := a.OpenStore(); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.buildTransit(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.buildRouting(); err != nil {
		a.Close()
		return nil, err
	}

	table, err := topology.Load(cfg.TopologyPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Topology = table

	opts := []services.EstimatorOption{}
	if m != nil {
		opts = append(opts, services.WithEstimatorMetrics(m))
	}
	a.Estimator, err = services.NewETAEstimator(a.Transit, a.Routing, table, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// OpenStore opens postgres when DATABASE_URL is set and sqlite otherwise,
// and creates the schema.
func (a *App) OpenStore() error {
	conn, dialect, err := db.OpenFor(a.Config.DatabaseURL, a.Config.DBPath)
	if err != nil {
		return err
	}
	a.DB, a.Dialect = conn, dialect

	if err := InitSchema(conn, dialect); err != nil {
		_ = conn.Close()
		a.DB = nil
		return err
	}

	a.Estimates = NewEstimateRepository(conn, dialect)
	log.Info().Str("dialect", string(dialect)).Msg("store ready")
	return nil
}

// InitSchema creates the tables for the given dialect.
func InitSchema(conn *sql.DB, dialect db.Dialect) error {
	if dialect == db.Postgres {
		return repositories.InitPostgresSchema(conn)
	}
	return repositories.InitSchema(conn)
}

func NewEstimateRepository(conn *sql.DB, dialect db.Dialect) ports.EstimateRepository {
	if dialect == db.Postgres {
		return repositories.NewSQLEstimateRepository(conn)
	}
	return repositories.NewSqliteEstimateRepository(conn)
}

// DirectionsCache is a persistent directions cache that can drop expired rows.
type DirectionsCache interface {
	ports.DirectionsCache
	Purge(ctx context.Context) (int64, error)
}

func (a *App) NewDirectionsCache() DirectionsCache {
	if a.Dialect == db.Postgres {
		return cache.NewSQLDirectionsCache(a.DB, a.Config.DirectionsTTL)
	}
	return cache.NewSqliteDirectionsCache(a.DB, a.Config.DirectionsTTL)
}

// BuildTransit wires only the transit side, for tools that do not estimate.
func BuildTransit(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.buildTransit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) buildTransit(ctx context.Context) error {
	cfg := a.Config

	passio := transit.NewPassioProvider(cfg.PassioBaseURL, nil)
	a.Transit = passio

	if cfg.RedisAddr != "" {
		client, err := kv.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		a.Redis = client

		var cm transit.CacheMetrics
		if a.Metrics != nil {
			cm = a.Metrics
		}
		a.Transit = transit.NewCachedProvider(passio, client, cfg.TransitCacheTTL, cm)
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.TransitCacheTTL).Msg("transit cache enabled")
	}

	if cfg.GTFSVehiclesURL != "" {
		a.Vehicles = transit.NewGTFSRealtimeVehicleSource(cfg.GTFSVehiclesURL, nil)
		log.Info().Str("url", cfg.GTFSVehiclesURL).Msg("vehicle positions from gtfs-rt feed")
	} else {
		a.Vehicles = transit.NewSystemVehicleSource(a.Transit)
	}
	return nil
}

func (a *App) buildRouting() error {
	cfg := a.Config

	key := strings.TrimSpace(cfg.RoutingAPIKey())
	if key == "" {
		if cfg.RoutingProvider == "ors" {
			return errors.New("ORS_API_KEY is required")
		}
		return errors.New("GOOGLE_MAPS_API_KEY is required")
	}

	var opts []routing.Option
	if a.Metrics != nil {
		opts = append(opts, routing.WithMetrics(a.Metrics))
	}

	var next ports.RoutingProvider
	var err error
	switch cfg.RoutingProvider {
	case "ors":
		next, err = routing.NewORSDirectionsProvider(key, opts...)
	default:
		next, err = routing.NewGoogleDirectionsProvider(key, opts...)
	}
	if err != nil {
		return fmt.Errorf("build routing provider: %w", err)
	}

	if a.DB == nil {
		a.Routing = next
		return nil
	}

	var cm routing.CacheMetrics
	if a.Metrics != nil {
		cm = a.Metrics
	}
	cached, err := routing.NewCachedRoutingProvider(next, a.NewDirectionsCache(), cm)
	if err != nil {
		return fmt.Errorf("build routing provider: %w", err)
	}
	a.Routing = cached
	return nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
