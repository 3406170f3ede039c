package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/api/dto"
	"bus-eta-service/internal/ports"
	"bus-eta-service/internal/services"
)

const streamKeepalive = 15 * time.Second

// StreamMetrics tracks open stream sessions and their pollers.
type StreamMetrics interface {
	services.PollerMetrics
	StreamOpened()
	StreamClosed()
}

// StreamHandler serves live vehicle positions as server-sent events. Each
// connection owns one poller, stopped when the client goes away.
type StreamHandler struct {
	Source   ports.VehicleSource
	Interval time.Duration
	Metrics  StreamMetrics
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	systemID, ok := systemIDParam(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sessionID := uuid.NewString()
	vehicle := strings.TrimSpace(r.URL.Query().Get("vehicle"))

	updates := make(chan services.PositionUpdate, 8)
	opts := []services.PollerOption{services.WithPollerName("stream:" + sessionID)}
	if vehicle != "" {
		opts = append(opts, services.WithVehicleFilter(services.ByVehicleName(vehicle)))
	}
	if h.Metrics != nil {
		opts = append(opts, services.WithPollerMetrics(h.Metrics))
	}

	poller, err := services.NewPositionPoller(systemID, h.Source, func(u services.PositionUpdate) {
		select {
		case updates <- u:
		default:
			// Slow client, drop the frame.
		}
	}, h.Interval, opts...)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	if err := poller.Start(ctx); err != nil {
		return
	}
	defer poller.Stop()

	if h.Metrics != nil {
		h.Metrics.StreamOpened()
		defer h.Metrics.StreamClosed()
	}

	logger := log.With().Str("session", sessionID).Int("system_id", systemID).Str("vehicle", vehicle).Logger()
	logger.Info().Msg("stream opened")
	defer logger.Info().Msg("stream closed")

	writeEvent(w, flusher, "connected", map[string]string{"session_id": sessionID})

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poller.Done():
			return
		case u := <-updates:
			err := writeEvent(w, flusher, "positions", dto.PositionEvent{
				SystemID:  u.SystemID,
				Tick:      u.Tick,
				FetchedAt: u.FetchedAt,
				Vehicles:  dto.NewVehicleResponses(u.Vehicles),
			})
			if err != nil {
				logger.Debug().Err(err).Msg("stream write failed")
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
