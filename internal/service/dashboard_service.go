package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/state"
)

// HealthChecker is anything that can report its own connectivity
type HealthChecker interface {
	Health(ctx context.Context) error
}

// DependencyStatus is the health of one collaborator
type DependencyStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DashboardData aggregates the current results and dependency health
type DashboardData struct {
	Heatmap      *state.Snapshot[HeatmapLayer]  `json:"heatmap"`
	Commute      *state.Snapshot[CommuteResult] `json:"commute"`
	Dependencies []DependencyStatus             `json:"dependencies"`
	Timestamp    time.Time                      `json:"timestamp"`
}

// DashboardService aggregates the current state of the pipeline
type DashboardService struct {
	heatmapSvc *HeatmapService
	commuteSvc *CommuteService
	checks     map[string]HealthChecker
	order      []string
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(heatmapSvc *HeatmapService, commuteSvc *CommuteService) *DashboardService {
	return &DashboardService{
		heatmapSvc: heatmapSvc,
		commuteSvc: commuteSvc,
		checks:     map[string]HealthChecker{},
	}
}

// AddCheck registers a dependency health check under name
func (s *DashboardService) AddCheck(name string, hc HealthChecker) {
	if _, ok := s.checks[name]; !ok {
		s.order = append(s.order, name)
	}
	s.checks[name] = hc
}

// WaitBackground blocks until background persistence of both services completes.
// Call during graceful shutdown to avoid dropped writes.
func (s *DashboardService) WaitBackground() {
	s.heatmapSvc.WaitBackground()
	s.commuteSvc.WaitBackground()
}

// GetDashboardData runs the health checks concurrently and attaches the
// current heatmap and commute results. Failed checks are reported, not returned.
func (s *DashboardService) GetDashboardData(ctx context.Context) DashboardData {
	var (
		wg       sync.WaitGroup
		statuses = make([]DependencyStatus, len(s.order))
	)

	for i, name := range s.order {
		wg.Add(1)
		go func(i int, name string, hc HealthChecker) {
			defer wg.Done()
			st := DependencyStatus{Name: name, OK: true}
			if err := hc.Health(ctx); err != nil {
				st.OK = false
				st.Error = err.Error()
				zap.L().Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			}
			statuses[i] = st
		}(i, name, s.checks[name])
	}

	data := DashboardData{Timestamp: time.Now()}
	if snap, ok := s.heatmapSvc.Latest(); ok {
		data.Heatmap = &snap
	}
	if snap, ok := s.commuteSvc.Latest(); ok {
		data.Commute = &snap
	}

	wg.Wait()
	data.Dependencies = statuses
	return data
}
