package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ObserveEstimate("ok", 120*time.Millisecond)
	c.ObserveEstimate("ok", 80*time.Millisecond)
	c.ObserveEstimate("ineligible_vehicle", time.Millisecond)
	c.DirectionsCacheLookup(true)
	c.DirectionsCacheLookup(false)
	c.DirectionsCacheLookup(false)
	c.TransitCacheLookup("stops", true)
	c.ObserveDirections("google", "ok", 50*time.Millisecond)
	c.ObservePollTick("error", time.Millisecond)
	c.NATSPublishedInc()
	c.ObserveHTTPRequest(http.MethodGet, 503)

	if got := testutil.ToFloat64(c.Estimates.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok estimates, got %v", got)
	}
	if got := testutil.ToFloat64(c.Estimates.WithLabelValues("ineligible_vehicle")); got != 1 {
		t.Fatalf("expected 1 ineligible estimate, got %v", got)
	}
	if got := testutil.ToFloat64(c.DirectionsCache.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 cache misses, got %v", got)
	}
	if got := testutil.ToFloat64(c.TransitCache.WithLabelValues("stops", "hit")); got != 1 {
		t.Fatalf("expected 1 transit cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(c.DirectionsCalls.WithLabelValues("google", "ok")); got != 1 {
		t.Fatalf("expected 1 directions call, got %v", got)
	}
	if got := testutil.ToFloat64(c.PollTicks.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed tick, got %v", got)
	}
	if got := testutil.ToFloat64(c.NATSPublished); got != 1 {
		t.Fatalf("expected 1 published message, got %v", got)
	}
	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "503")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector()

	c.PollerStarted()
	c.PollerStarted()
	c.PollerStopped()
	if got := testutil.ToFloat64(c.ActivePollers); got != 1 {
		t.Fatalf("expected 1 active poller, got %v", got)
	}

	c.NATSSetConnected(true)
	if got := testutil.ToFloat64(c.NATSConnected); got != 1 {
		t.Fatalf("expected connected gauge 1, got %v", got)
	}
	c.NATSSetConnected(false)
	if got := testutil.ToFloat64(c.NATSConnected); got != 0 {
		t.Fatalf("expected connected gauge 0, got %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveEstimate("ok", time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `buseta_estimates_total{outcome="ok"} 1`) {
		t.Fatalf("expected estimate counter in exposition, got:\n%s", rec.Body.String())
	}
}
