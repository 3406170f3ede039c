package ports

import (
	"context"
	"time"

	"bus-eta-service/internal/domain"
)

// EstimateRecord is one stored ETA estimate.
type EstimateRecord struct {
	ID              int64
	SystemID        int
	VehicleName     string
	RouteName       string
	StopName        string
	Duration        string
	Distance        string
	DurationSeconds int
	DistanceMeters  int
	EstimatedAt     time.Time
}

// Port: a boundary for recording and listing produced estimates.
type EstimateRepository interface {
	RecordEstimate(ctx context.Context, eta *domain.ETAResult) error
	// Return the most recent estimates, newest first.
	ListRecentEstimates(ctx context.Context, limit int) ([]EstimateRecord, error)
}
