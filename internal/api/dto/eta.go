package dto

import (
	"time"

	"bus-eta-service/internal/domain"
)

type ETAResponse struct {
	SystemID        int                `json:"system_id"`
	Vehicle         string             `json:"vehicle"`
	Route           string             `json:"route"`
	NearestStop     string             `json:"nearest_stop"`
	Stop            string             `json:"stop"`
	Duration        string             `json:"duration"`
	Distance        string             `json:"distance"`
	DurationSeconds int                `json:"duration_seconds"`
	DistanceMeters  int                `json:"distance_meters"`
	VehiclePosition PositionResponse   `json:"vehicle_position"`
	StopPosition    PositionResponse   `json:"stop_position"`
	Directions      *domain.Directions `json:"directions"`
	EstimatedAt     time.Time          `json:"estimated_at"`
}

func NewETAResponse(eta *domain.ETAResult) ETAResponse {
	return ETAResponse{
		SystemID:        eta.SystemID,
		Vehicle:         eta.VehicleName,
		Route:           eta.RouteName,
		NearestStop:     eta.NearestStopName,
		Stop:            eta.StopName,
		Duration:        eta.Duration,
		Distance:        eta.Distance,
		DurationSeconds: eta.DurationSeconds,
		DistanceMeters:  eta.DistanceMeters,
		VehiclePosition: NewPositionResponse(eta.VehiclePosition),
		StopPosition:    NewPositionResponse(eta.StopPosition),
		Directions:      eta.Directions,
		EstimatedAt:     eta.EstimatedAt,
	}
}

type EstimateResponse struct {
	ID              int64     `json:"id"`
	SystemID        int       `json:"system_id"`
	Vehicle         string    `json:"vehicle"`
	Route           string    `json:"route"`
	Stop            string    `json:"stop"`
	Duration        string    `json:"duration"`
	Distance        string    `json:"distance"`
	DurationSeconds int       `json:"duration_seconds"`
	DistanceMeters  int       `json:"distance_meters"`
	EstimatedAt     time.Time `json:"estimated_at"`
}

type ListEstimatesResponse struct {
	Estimates []EstimateResponse `json:"estimates"`
}
