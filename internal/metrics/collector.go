package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Estimates        *prometheus.CounterVec // outcome label
	EstimateDuration prometheus.Histogram

	DirectionsCalls    *prometheus.CounterVec // provider, result
	DirectionsDuration *prometheus.HistogramVec
	DirectionsCache    *prometheus.CounterVec // result: hit|miss
	TransitCache       *prometheus.CounterVec // kind, result

	PollTicks      *prometheus.CounterVec // result: ok|error
	PollDuration   prometheus.Histogram
	ActivePollers  prometheus.Gauge
	StreamSessions prometheus.Gauge

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	HTTPRequests *prometheus.CounterVec // method, status
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buseta_estimates_total",
			Help: "ETA estimations by outcome.",
		}, []string{"outcome"}),
		EstimateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buseta_estimate_duration_seconds",
			Help:    "Duration of one ETA estimation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		DirectionsCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buseta_directions_requests_total",
			Help: "Upstream directions requests by provider and result.",
		}, []string{"provider", "result"}),
		DirectionsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "buseta_directions_duration_seconds",
			Help:    "Duration of upstream directions requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider"}),
		DirectionsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buseta_directions_cache_lookups_total",
			Help: "Directions cache lookups by result.",
		}, []string{"result"}),
		TransitCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buseta_transit_cache_lookups_total",
			Help: "Transit data cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		PollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buseta_poll_ticks_total",
			Help: "Position poller ticks by result.",
		}, []string{"result"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buseta_poll_duration_seconds",
			Help:    "Duration of one vehicle position fetch.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ActivePollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buseta_active_pollers",
			Help: "Number of running position pollers.",
		}),
		StreamSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buseta_stream_sessions",
			Help: "Number of open vehicle stream connections.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buseta_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buseta_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "buseta_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buseta_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buseta_http_requests_total",
			Help: "HTTP requests served by method and status.",
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		c.Estimates, c.EstimateDuration,
		c.DirectionsCalls, c.DirectionsDuration, c.DirectionsCache, c.TransitCache,
		c.PollTicks, c.PollDuration, c.ActivePollers, c.StreamSessions,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.HTTPRequests,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) ObserveEstimate(outcome string, dur time.Duration) {
	c.Estimates.WithLabelValues(outcome).Inc()
	c.EstimateDuration.Observe(dur.Seconds())
}

func (c *Collector) ObserveDirections(provider, result string, dur time.Duration) {
	c.DirectionsCalls.WithLabelValues(provider, result).Inc()
	c.DirectionsDuration.WithLabelValues(provider).Observe(dur.Seconds())
}

func (c *Collector) DirectionsCacheLookup(hit bool) {
	c.DirectionsCache.WithLabelValues(hitLabel(hit)).Inc()
}

func (c *Collector) TransitCacheLookup(kind string, hit bool) {
	c.TransitCache.WithLabelValues(kind, hitLabel(hit)).Inc()
}

func (c *Collector) ObservePollTick(result string, dur time.Duration) {
	c.PollTicks.WithLabelValues(result).Inc()
	c.PollDuration.Observe(dur.Seconds())
}

func (c *Collector) PollerStarted() { c.ActivePollers.Inc() }
func (c *Collector) PollerStopped() { c.ActivePollers.Dec() }

func (c *Collector) StreamOpened() { c.StreamSessions.Inc() }
func (c *Collector) StreamClosed() { c.StreamSessions.Dec() }

func (c *Collector) NATSPublishedInc()               { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()              { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}

func (c *Collector) ObserveHTTPRequest(method string, status int) {
	c.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
