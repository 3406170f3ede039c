package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/api/dto"
	"bus-eta-service/internal/platform/obs"
	"bus-eta-service/internal/ports"
)

// TransitHandler passes live transit data through to clients.
type TransitHandler struct {
	Provider ports.TransitProvider
}

func (h *TransitHandler) Routes(w http.ResponseWriter, r *http.Request) {
	sys, ok := h.system(w, r)
	if !ok {
		return
	}
	routes, err := sys.GetRoutes(r.Context())
	if err != nil {
		h.upstreamError(w, r, "routes", err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, dto.NewRouteResponse(rt))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TransitHandler) Stops(w http.ResponseWriter, r *http.Request) {
	sys, ok := h.system(w, r)
	if !ok {
		return
	}
	stops, err := sys.GetStops(r.Context())
	if err != nil {
		h.upstreamError(w, r, "stops", err)
		return
	}

	res := dto.ListStopsResponse{Stops: make([]dto.StopResponse, 0, len(stops))}
	for _, s := range stops {
		res.Stops = append(res.Stops, dto.NewStopResponse(s))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TransitHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	sys, ok := h.system(w, r)
	if !ok {
		return
	}
	alerts, err := sys.GetAlerts(r.Context())
	if err != nil {
		h.upstreamError(w, r, "alerts", err)
		return
	}

	res := dto.ListAlertsResponse{Alerts: make([]dto.AlertResponse, 0, len(alerts))}
	for _, a := range alerts {
		res.Alerts = append(res.Alerts, dto.NewAlertResponse(a))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TransitHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	sys, ok := h.system(w, r)
	if !ok {
		return
	}
	vehicles, err := sys.GetVehicles(r.Context())
	if err != nil {
		h.upstreamError(w, r, "vehicles", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListVehiclesResponse{Vehicles: dto.NewVehicleResponses(vehicles)})
}

func (h *TransitHandler) system(w http.ResponseWriter, r *http.Request) (ports.TransitSystem, bool) {
	id, ok := systemIDParam(w, r)
	if !ok {
		return nil, false
	}

	sys, err := h.Provider.GetSystem(r.Context(), id)
	if errors.Is(err, ports.ErrSystemNotFound) {
		writeError(w, r, http.StatusNotFound, "system not found")
		return nil, false
	}
	if err != nil {
		h.upstreamError(w, r, "system", err)
		return nil, false
	}
	return sys, true
}

func (h *TransitHandler) upstreamError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Warn().Str("req_id", obs.RequestID(r.Context())).Str("data", what).Err(err).Msg("transit lookup failed")
	writeError(w, r, http.StatusBadGateway, "transit provider unavailable")
}
