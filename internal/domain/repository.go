package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PredictionRequest is the travel time model input built from a route summary
type PredictionRequest struct {
	Direction       Cardinal `json:"direction"`
	Length          float64  `json:"length"`
	StreetHeading   float64  `json:"street_heading"`
	StartLatitude   float64  `json:"start_latitude"`
	StartLongitude  float64  `json:"start_longitude"`
	EndLatitude     float64  `json:"end_latitude"`
	EndLongitude    float64  `json:"end_longitude"`
	CurrentSpeed    float64  `json:"current_speed"`
	CongestionLevel float64  `json:"congestion_level"`
	Datetime        string   `json:"datetime_str"`
}

// PredictionResponse is the travel time model output
type PredictionResponse struct {
	TravelTimeMin float64 `json:"travel_time_min"`
}

// HeatmapRequest asks the model to score every grid point under one set of conditions
type HeatmapRequest struct {
	Points          []GeoPoint `json:"points"`
	CurrentSpeed    float64    `json:"current_speed"`
	CongestionLevel float64    `json:"congestion_level"`
	Datetime        string     `json:"datetime_str"`
}

// HeatmapWeight is one scored grid point
type HeatmapWeight struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// HeatmapResponse is aligned positionally with HeatmapRequest.Points
type HeatmapResponse struct {
	Data []HeatmapWeight `json:"data"`
}

// CommuteRecord is a persisted route-then-predict result
type CommuteRecord struct {
	ID              uuid.UUID       `json:"id"`
	Origin          string          `json:"origin"`
	Destination     string          `json:"destination"`
	Summary         RouteSummary    `json:"summary"`
	Estimate        CommuteEstimate `json:"estimate"`
	SpeedMph        float64         `json:"speed_mph"`
	CongestionLevel float64         `json:"congestion_level"`
	DepartAt        time.Time       `json:"depart_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// HeatmapRun is a persisted heatmap refresh
type HeatmapRun struct {
	ID          uuid.UUID `json:"id"`
	Requested   int       `json:"requested"`
	Received    int       `json:"received"`
	RealizedMax float64   `json:"realized_max"`
	Partial     bool      `json:"partial"`
	CreatedAt   time.Time `json:"created_at"`
}

// DataRepository defines the interface for data persistence
type DataRepository interface {
	// SaveCommute persists a commute estimate with its route
	SaveCommute(ctx context.Context, rec CommuteRecord) error

	// GetCommuteHistory retrieves commute estimates created in [from, to]
	GetCommuteHistory(ctx context.Context, from, to time.Time) ([]CommuteRecord, error)

	// SaveHeatmapRun persists heatmap refresh metadata
	SaveHeatmapRun(ctx context.Context, run HeatmapRun) error

	// Health checks database connectivity
	Health(ctx context.Context) error
}
