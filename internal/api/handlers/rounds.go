package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"bus-eta-service/internal/api/dto"
	"bus-eta-service/internal/platform/obs"
	"bus-eta-service/internal/services"
)

// Round estimates an ETA and opens a betting round against a skewed baseline.
func (h *ETAHandler) Round(w http.ResponseWriter, r *http.Request) {
	systemID, ok := systemIDParam(w, r)
	if !ok {
		return
	}

	eta := h.estimate(r.Context(), systemID)
	if eta == nil {
		writeError(w, r, http.StatusServiceUnavailable, noEstimateMsg)
		return
	}

	round, err := services.NewBetRound(eta, h.Coin, h.now())
	if err != nil {
		log.Warn().Str("req_id", obs.RequestID(r.Context())).Err(err).Msg("open round failed")
		writeError(w, r, http.StatusServiceUnavailable, noEstimateMsg)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RoundResponse{
		ETA:         dto.NewETAResponse(round.ETA),
		FakeETA:     round.FakeETA,
		FakeMinutes: round.FakeMinutes,
		OpenedAt:    round.OpenedAt,
		ClosesAt:    round.ClosesAt,
	})
}

// Settle resolves an over/under choice for a finished round.
func (h *ETAHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.ActualMinutes < 1 || req.FakeMinutes < 1 {
		writeError(w, r, http.StatusBadRequest, "actual_minutes and fake_minutes must be positive")
		return
	}

	choice, err := services.ParseChoice(strings.TrimSpace(req.Choice))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, `choice must be "over" or "under"`)
		return
	}

	round := &services.BetRound{
		ActualMinutes: req.ActualMinutes,
		FakeMinutes:   req.FakeMinutes,
	}

	var out services.Outcome
	if req.ClosesAt != nil {
		round.ClosesAt = *req.ClosesAt
		out, err = round.SettleAt(choice, h.now())
	} else {
		out, err = round.Settle(choice)
	}
	if errors.Is(err, services.ErrBettingClosed) {
		writeError(w, r, http.StatusConflict, "betting window closed")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SettleResponse{
		Choice:        string(out.Choice),
		ActualMinutes: out.ActualMinutes,
		FakeMinutes:   out.FakeMinutes,
		ActualIsUnder: out.ActualIsUnder,
		Won:           out.Won,
		Points:        out.Points,
	})
}
