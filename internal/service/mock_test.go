package service

import (
	"context"
	"sync"
	"time"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/route"
)

type recordingRepo struct {
	mu       sync.Mutex
	commutes []domain.CommuteRecord
	runs     []domain.HeatmapRun
	err      error
}

func (r *recordingRepo) SaveCommute(_ context.Context, rec domain.CommuteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commutes = append(r.commutes, rec)
	return r.err
}

func (r *recordingRepo) GetCommuteHistory(_ context.Context, from, to time.Time) ([]domain.CommuteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CommuteRecord
	for _, c := range r.commutes {
		if !c.CreatedAt.Before(from) && !c.CreatedAt.After(to) {
			out = append(out, c)
		}
	}
	return out, r.err
}

func (r *recordingRepo) SaveHeatmapRun(_ context.Context, run domain.HeatmapRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}

func (r *recordingRepo) Health(context.Context) error { return r.err }

// oracleFunc and predictorFunc adapt closures for tests
type oracleFunc func(ctx context.Context, q route.DirectionsQuery) (route.OracleResponse, error)

func (f oracleFunc) Directions(ctx context.Context, q route.DirectionsQuery) (route.OracleResponse, error) {
	return f(ctx, q)
}

type predictorFunc func(ctx context.Context, req domain.PredictionRequest) (float64, error)

func (f predictorFunc) Predict(ctx context.Context, req domain.PredictionRequest) (float64, error) {
	return f(ctx, req)
}

func okRoute(start, end domain.GeoPoint, meters float64) route.OracleResponse {
	return route.OracleResponse{
		Status: route.StatusOK,
		Routes: []route.OracleRoute{{Legs: []route.OracleLeg{{Start: start, End: end, DistanceMeters: meters}}}},
	}
}
