package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/adapters/publisher"
	"bus-eta-service/internal/api"
	"bus-eta-service/internal/app"
	"bus-eta-service/internal/config"
	"bus-eta-service/internal/metrics"
	"bus-eta-service/internal/platform/logging"
	"bus-eta-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Passio, routing, SQL, redis, NATS) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	a, err := app.Build(ctx, cfg, collector)
	if err != nil {
		log.Fatal().Err(err).Msg("build app")
	}
	defer a.Close()

	if cfg.FleetPublish {
		fleet, err := startFleetPublisher(ctx, cfg, a, collector)
		if err != nil {
			log.Fatal().Err(err).Msg("start fleet publisher")
		}
		defer fleet()
	}

	router := api.NewRouter(api.Deps{
		Transit:      a.Transit,
		Vehicles:     a.Vehicles,
		Estimator:    a.Estimator,
		Estimates:    a.Estimates,
		Metrics:      collector,
		ETATimeout:   cfg.ETATimeout,
		PollInterval: cfg.PollInterval,
		CORSOrigins:  cfg.CORSOrigins,
	})

	// WriteTimeout stays zero so vehicle streams are not cut off.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Int("system_id", cfg.SystemID).Str("routing", cfg.RoutingProvider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// startFleetPublisher polls every vehicle of the configured system and
// publishes each snapshot on NATS. The returned func stops both.
func startFleetPublisher(ctx context.Context, cfg *config.Config, a *app.App, collector *metrics.Collector) (func(), error) {
	if cfg.NATSURL == "" {
		return nil, errors.New("FLEET_PUBLISH requires NATS_URL")
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, collector)
	if err != nil {
		return nil, err
	}

	poller, err := services.NewPositionPoller(cfg.SystemID, a.Vehicles, func(u services.PositionUpdate) {
		pubCtx, cancel := context.WithTimeout(ctx, cfg.PollInterval)
		defer cancel()
		if err := pub.PublishPositions(pubCtx, u.SystemID, u.Tick, u.Vehicles); err != nil {
			log.Warn().Err(err).Uint64("tick", u.Tick).Msg("fleet publish failed")
		}
	}, cfg.PollInterval,
		services.WithPollerName("fleet"),
		services.WithPollerMetrics(collector),
	)
	if err != nil {
		pub.Close()
		return nil, err
	}

	if err := poller.Start(ctx); err != nil {
		pub.Close()
		return nil, err
	}
	log.Info().Str("nats", cfg.NATSURL).Str("prefix", cfg.NATSSubjectPrefix).Msg("fleet publishing enabled")

	return func() {
		poller.Stop()
		<-poller.Done()
		pub.Close()
	}, nil
}
