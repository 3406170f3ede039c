package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/domain"
)

const DefaultSubjectPrefix = "buses"

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// NATSPublisher fans vehicle positions out on NATS, one message per vehicle
// on <prefix>.<system>.<vehicle>.
type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	metrics PublisherMetrics
}

func NewNATSPublisher(url, prefix string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("bus-eta-service"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}

	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: subjectToken(prefix), metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

type PositionMessage struct {
	SystemID  int       `json:"systemId"`
	Tick      uint64    `json:"tick"`
	VehicleID string    `json:"vehicleId,omitempty"`
	Vehicle   string    `json:"vehicle"`
	Route     string    `json:"route,omitempty"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishPositions publishes every vehicle and returns the joined errors of
// the messages that failed.
func (p *NATSPublisher) PublishPositions(ctx context.Context, systemID int, tick uint64, vehicles []domain.Vehicle) error {
	now := time.Now().UTC()

	var errs []error
	for _, v := range vehicles {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := PositionMessage{
			SystemID:  systemID,
			Tick:      tick,
			VehicleID: v.ID,
			Vehicle:   v.Name,
			Route:     v.RouteName,
			Lat:       v.Position.Lat,
			Lon:       v.Position.Lon,
			Timestamp: now,
		}
		if err := p.publish(Subject(p.prefix, systemID, v.Name), msg); err != nil {
			errs = append(errs, fmt.Errorf("publish vehicle=%q: %w", v.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *NATSPublisher) publish(subject string, msg PositionMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	log.Trace().Str("subject", subject).Msg("nats publish")

	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// Subject builds the position subject for one vehicle.
func Subject(prefix string, systemID int, vehicle string) string {
	return fmt.Sprintf("%s.%d.%s", prefix, systemID, subjectToken(vehicle))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
