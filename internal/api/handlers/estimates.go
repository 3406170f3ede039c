package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/api/dto"
	"bus-eta-service/internal/ports"
)

const (
	defaultEstimatesLimit = 20
	maxEstimatesLimit     = 200
)

// EstimatesHandler exposes the recorded estimate history.
type EstimatesHandler struct {
	Repo ports.EstimateRepository
}

func (h *EstimatesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultEstimatesLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxEstimatesLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	records, err := h.Repo.ListRecentEstimates(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list estimates failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListEstimatesResponse{
		Estimates: make([]dto.EstimateResponse, 0, len(records)),
	}
	for _, e := range records {
		res.Estimates = append(res.Estimates, dto.EstimateResponse{
			ID:              e.ID,
			SystemID:        e.SystemID,
			Vehicle:         e.VehicleName,
			Route:           e.RouteName,
			Stop:            e.StopName,
			Duration:        e.Duration,
			Distance:        e.Distance,
			DurationSeconds: e.DurationSeconds,
			DistanceMeters:  e.DistanceMeters,
			EstimatedAt:     e.EstimatedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
