package routing

import (
	"net/http"
	"time"

	"bus-eta-service/internal/platform/httpx"
)

// DirectionsMetrics receives one observation per upstream directions call.
type DirectionsMetrics interface {
	ObserveDirections(provider, result string, dur time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveDirections(string, string, time.Duration) {}

type settings struct {
	baseURL string
	client  *httpx.Client
	metrics DirectionsMetrics
}

type Option func(*settings)

// WithBaseURL points the provider at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

func WithHTTPClient(c *httpx.Client) Option {
	return func(s *settings) { s.client = c }
}

func WithMetrics(m DirectionsMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

func newSettings(defaultBaseURL string, opts []Option) settings {
	s := settings{
		baseURL: defaultBaseURL,
		client:  httpx.New(10 * time.Second),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.client.Header == nil {
		s.client.Header = http.Header{}
	}
	return s
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
