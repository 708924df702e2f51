package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartcity/commute/internal/domain"
)

// MockRepository implements domain.DataRepository in memory for demo mode
type MockRepository struct {
	mu       sync.RWMutex
	commutes []domain.CommuteRecord
	runs     []domain.HeatmapRun
}

var _ domain.DataRepository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveCommute keeps the estimate in memory, dropping the oldest past the history limit
func (r *MockRepository) SaveCommute(_ context.Context, rec domain.CommuteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commutes = append(r.commutes, rec)
	if len(r.commutes) > historyLimit {
		r.commutes = r.commutes[len(r.commutes)-historyLimit:]
	}
	return nil
}

// GetCommuteHistory returns stored estimates created in [from, to], newest first
func (r *MockRepository) GetCommuteHistory(_ context.Context, from, to time.Time) ([]domain.CommuteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CommuteRecord, 0, len(r.commutes))
	for _, c := range r.commutes {
		if c.CreatedAt.Before(from) || c.CreatedAt.After(to) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SaveHeatmapRun keeps the run in memory
func (r *MockRepository) SaveHeatmapRun(_ context.Context, run domain.HeatmapRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	if len(r.runs) > historyLimit {
		r.runs = r.runs[len(r.runs)-historyLimit:]
	}
	return nil
}

// HeatmapRuns returns a copy of the stored runs
func (r *MockRepository) HeatmapRuns() []domain.HeatmapRun {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.HeatmapRun(nil), r.runs...)
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(context.Context) error {
	return nil
}
