package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bus-eta-service/internal/api/handlers"
	"bus-eta-service/internal/metrics"
	"bus-eta-service/internal/ports"
)

// Deps are the collaborators the HTTP API is built from. Estimates and
// Metrics are optional.
type Deps struct {
	Transit   ports.TransitProvider
	Vehicles  ports.VehicleSource
	Estimator handlers.Estimator
	Estimates ports.EstimateRepository
	Metrics   *metrics.Collector

	ETATimeout   time.Duration
	PollInterval time.Duration
	CORSOrigins  []string
	Coin         func() bool
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	var observer RequestObserver
	var streamMetrics handlers.StreamMetrics
	if d.Metrics != nil {
		observer = d.Metrics
		streamMetrics = d.Metrics
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(loggingMiddleware(observer))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	etaHandler := &handlers.ETAHandler{
		Estimator: d.Estimator,
		Repo:      d.Estimates,
		Timeout:   d.ETATimeout,
		Coin:      d.Coin,
	}
	transitHandler := &handlers.TransitHandler{Provider: d.Transit}
	streamHandler := &handlers.StreamHandler{
		Source:   d.Vehicles,
		Interval: d.PollInterval,
		Metrics:  streamMetrics,
	}

	r.Get("/health", handlers.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/systems/{systemID}", func(r chi.Router) {
		r.Get("/eta", etaHandler.ETA)
		r.Post("/rounds", etaHandler.Round)
		r.Get("/routes", transitHandler.Routes)
		r.Get("/stops", transitHandler.Stops)
		r.Get("/alerts", transitHandler.Alerts)
		r.Get("/vehicles", transitHandler.Vehicles)
		r.Get("/vehicles/stream", streamHandler.Stream)
	})
	r.Post("/rounds/settle", etaHandler.Settle)

	if d.Estimates != nil {
		estimatesHandler := &handlers.EstimatesHandler{Repo: d.Estimates}
		r.Get("/estimates", estimatesHandler.List)
	}

	return r
}
