package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/heatmap"
	"github.com/smartcity/commute/internal/route"
	"github.com/smartcity/commute/pkg/utils"
)

// Demo-mode collaborators used when no model service or directions key is
// configured. They are deterministic so the UI and tests see stable output.

type hotspot struct {
	lat, lng float64
	name     string
	weight   float64
}

// Chicago corridors with recurring congestion
var chicagoHotspots = []hotspot{
	{41.8781, -87.6298, "Loop", 1.3},
	{41.8755, -87.6450, "Circle Interchange", 1.4},
	{41.8920, -87.6450, "Kennedy/Ohio", 1.2},
	{41.8310, -87.6310, "Dan Ryan/35th", 1.1},
	{41.9110, -87.6260, "Lake Shore/North Ave", 0.9},
	{41.7860, -87.7520, "Midway", 1.0},
	{41.9700, -87.7300, "Edens Junction", 0.9},
}

// hotspotRadiusKM is the distance at which a hotspot's influence drops to 1/e
const hotspotRadiusKM = 1.5

// SyntheticWeights scores grid points from distance to known hotspots
type SyntheticWeights struct{}

// NewSyntheticWeights creates the demo weight source
func NewSyntheticWeights() *SyntheticWeights {
	return &SyntheticWeights{}
}

// Weights returns one sample per point, in order
func (s *SyntheticWeights) Weights(_ context.Context, points []domain.GeoPoint, q heatmap.WeightQuery) ([]domain.WeightSample, error) {
	index := congestionIndex(q.At) / 100
	level := 0.5 + q.CongestionLevel/4
	speed := 1.0
	if q.CurrentSpeed > 0 {
		speed = 30 / q.CurrentSpeed
	}

	samples := make([]domain.WeightSample, len(points))
	for i, p := range points {
		w := 0.0
		for _, spot := range chicagoHotspots {
			d := utils.Haversine(p.Lat, p.Lng, spot.lat, spot.lng)
			w += spot.weight * math.Exp(-(d*d)/(hotspotRadiusKM*hotspotRadiusKM))
		}
		samples[i] = domain.WeightSample{
			Point:     p,
			RawWeight: w * index * level * speed,
		}
	}
	return samples, nil
}

// congestionIndex returns 0-100 from time-of-day patterns
func congestionIndex(at time.Time) float64 {
	if at.IsZero() {
		return 45
	}
	weekday := at.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return 35
	}

	hour := at.Hour()
	switch {
	case hour >= 7 && hour <= 9: // Morning rush
		return 82
	case hour >= 16 && hour <= 18: // Evening rush
		return 85
	case hour >= 12 && hour <= 14: // Lunch
		return 57
	case hour >= 22 || hour <= 5: // Night
		return 15
	default:
		return 45
	}
}

// MockPredictor estimates travel time from a congestion-discounted speed
type MockPredictor struct{}

// NewMockPredictor creates the demo predictor
func NewMockPredictor() *MockPredictor {
	return &MockPredictor{}
}

// Predict returns minutes for the route length at an effective speed
func (p *MockPredictor) Predict(_ context.Context, req domain.PredictionRequest) (float64, error) {
	speed := req.CurrentSpeed
	if speed <= 0 {
		speed = 30
	}
	speed *= 1 - 0.12*utils.Clamp(req.CongestionLevel, 0, 4)

	if at, err := time.Parse(DatetimeLayout, req.Datetime); err == nil {
		speed *= 1 - congestionIndex(at)/250
	}
	speed = math.Max(5, speed)

	return req.Length / speed * 60, nil
}

// StraightLineOracle answers "lat,lng" origins and destinations with a
// single great-circle leg. Anything else is NOT_FOUND.
type StraightLineOracle struct{}

// NewStraightLineOracle creates the demo routing oracle
func NewStraightLineOracle() *StraightLineOracle {
	return &StraightLineOracle{}
}

// Directions builds a one-leg route between two coordinates
func (o *StraightLineOracle) Directions(_ context.Context, q route.DirectionsQuery) (route.OracleResponse, error) {
	start, ok1 := ParseLatLng(q.Origin)
	end, ok2 := ParseLatLng(q.Destination)
	if !ok1 || !ok2 {
		return route.OracleResponse{Status: "NOT_FOUND"}, nil
	}

	km := utils.Haversine(start.Lat, start.Lng, end.Lat, end.Lng)
	return route.OracleResponse{
		Status: route.StatusOK,
		Routes: []route.OracleRoute{{
			Legs: []route.OracleLeg{{
				Start:          start,
				End:            end,
				DistanceMeters: km * 1000,
			}},
		}},
	}, nil
}

// ParseLatLng parses "lat,lng"
func ParseLatLng(s string) (domain.GeoPoint, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.GeoPoint{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, true
}
