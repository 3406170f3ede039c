package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/api/dto"
	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/obs"
	"bus-eta-service/internal/ports"
)

const noEstimateMsg = "no estimate available, try again"

// Estimator produces one random vehicle ETA, or nil when the attempt failed.
type Estimator interface {
	EstimateRandomETA(ctx context.Context, systemID int) *domain.ETAResult
}

// ETAHandler serves estimates and the bet rounds built on them.
type ETAHandler struct {
	Estimator Estimator
	// Repo, when set, records every estimate served.
	Repo    ports.EstimateRepository
	Timeout time.Duration
	// Coin picks the fake baseline direction for rounds; nil flips a fair coin.
	Coin func() bool
	Now  func() time.Time
}

func (h *ETAHandler) ETA(w http.ResponseWriter, r *http.Request) {
	systemID, ok := systemIDParam(w, r)
	if !ok {
		return
	}

	eta := h.estimate(r.Context(), systemID)
	if eta == nil {
		writeError(w, r, http.StatusServiceUnavailable, noEstimateMsg)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewETAResponse(eta))
}

func (h *ETAHandler) estimate(ctx context.Context, systemID int) *domain.ETAResult {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	eta := h.Estimator.EstimateRandomETA(ctx, systemID)
	if eta == nil || h.Repo == nil {
		return eta
	}

	if err := h.Repo.RecordEstimate(ctx, eta); err != nil {
		log.Warn().Str("req_id", obs.RequestID(ctx)).Err(err).Msg("record estimate failed")
	}
	return eta
}

func (h *ETAHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
