package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/geo"
	"github.com/smartcity/commute/internal/heatmap"
	"github.com/smartcity/commute/internal/metrics"
	"github.com/smartcity/commute/internal/state"
)

// HeatmapSettings configures the lattice and the default scoring context
type HeatmapSettings struct {
	Bounds          domain.Bounds
	Step            float64
	CurrentSpeed    float64
	CongestionLevel float64
	Normalize       heatmap.NormalizeOptions
}

// HeatmapRefresh overrides the scoring context for one refresh
type HeatmapRefresh struct {
	CurrentSpeed    *float64
	CongestionLevel *float64
	At              time.Time
}

// HeatmapLayer is one rendered heatmap refresh
type HeatmapLayer struct {
	ID              uuid.UUID                  `json:"id"`
	Result          domain.NormalizationResult `json:"result"`
	CurrentSpeed    float64                    `json:"current_speed"`
	CongestionLevel float64                    `json:"congestion_level"`
	Datetime        string                     `json:"datetime_str"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	IsMock          bool                       `json:"is_mock"`
}

// HeatmapService refreshes the delay heatmap and keeps the current layer
type HeatmapService struct {
	settings HeatmapSettings
	grid     []domain.GeoPoint
	mapper   *heatmap.Mapper
	source   heatmap.WeightSource
	repo     DataRepository
	metrics  *metrics.Metrics
	isMock   bool

	latest state.Latest[HeatmapLayer]
	wgBg   sync.WaitGroup
	now    func() time.Time
}

// NewHeatmapService builds the grid once; it is reused by every refresh.
func NewHeatmapService(settings HeatmapSettings, source heatmap.WeightSource, repo DataRepository, m *metrics.Metrics) (*HeatmapService, error) {
	grid, err := geo.GenerateGrid(settings.Bounds, settings.Step)
	if err != nil {
		return nil, err
	}
	mapper, err := heatmap.NewMapper(settings.Normalize)
	if err != nil {
		return nil, err
	}

	_, isMock := source.(*SyntheticWeights)

	zap.L().Info("heatmap grid ready",
		zap.Int("points", len(grid)),
		zap.Float64("step", settings.Step),
	)

	return &HeatmapService{
		settings: settings,
		grid:     grid,
		mapper:   mapper,
		source:   source,
		repo:     repo,
		metrics:  m,
		isMock:   isMock,
		now:      time.Now,
	}, nil
}

// Grid returns the sampling lattice
func (s *HeatmapService) Grid() []domain.GeoPoint {
	return s.grid
}

// WaitBackground blocks until all background save goroutines complete.
func (s *HeatmapService) WaitBackground() {
	s.wgBg.Wait()
}

// Refresh scores the grid and normalizes the answer. The returned bool is
// false when a newer refresh was issued while this one was in flight; the
// layer is still returned but did not replace the current one.
func (s *HeatmapService) Refresh(ctx context.Context, r HeatmapRefresh) (HeatmapLayer, bool, error) {
	tok := s.latest.Issue()
	log := zap.L().With(zap.Uint64("token", uint64(tok)))

	q := heatmap.WeightQuery{
		CurrentSpeed:    s.settings.CurrentSpeed,
		CongestionLevel: s.settings.CongestionLevel,
		At:              r.At,
	}
	if r.CurrentSpeed != nil {
		q.CurrentSpeed = *r.CurrentSpeed
	}
	if r.CongestionLevel != nil {
		q.CongestionLevel = *r.CongestionLevel
	}
	if q.At.IsZero() {
		q.At = s.now()
	}

	start := time.Now()
	result, err := s.mapper.Build(ctx, s.grid, s.source, q)
	s.observe(start, result, err)
	if err != nil {
		log.Error("heatmap refresh failed", zap.Error(err))
		return HeatmapLayer{}, false, err
	}

	layer := HeatmapLayer{
		ID:              uuid.New(),
		Result:          result,
		CurrentSpeed:    q.CurrentSpeed,
		CongestionLevel: q.CongestionLevel,
		Datetime:        FormatDatetime(q.At),
		GeneratedAt:     s.now(),
		IsMock:          s.isMock,
	}

	current := s.latest.Commit(tok, layer)
	if !current {
		log.Info("discarding stale heatmap refresh", zap.Uint64("latest", uint64(s.latest.LastIssued())))
		if s.metrics != nil {
			s.metrics.StaleResponses.WithLabelValues("heatmap").Inc()
		}
		return layer, false, nil
	}

	log.Info("heatmap refreshed",
		zap.Int("requested", result.Requested),
		zap.Int("received", result.Received),
		zap.Bool("partial", result.Partial),
		zap.Float64("realized_max", result.RealizedMax),
	)
	s.persist(layer)
	return layer, true, nil
}

// Latest returns the current layer
func (s *HeatmapService) Latest() (state.Snapshot[HeatmapLayer], bool) {
	return s.latest.Snapshot()
}

func (s *HeatmapService) observe(start time.Time, result domain.NormalizationResult, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case result.Partial:
		outcome = metrics.OutcomePartial
	}
	s.metrics.HeatmapBuilds.WithLabelValues(outcome).Inc()
	s.metrics.HeatmapDuration.Observe(time.Since(start).Seconds())
	s.metrics.HeatmapPoints.Observe(float64(len(s.grid)))
}

// persist stores refresh metadata asynchronously (tracked for graceful shutdown)
func (s *HeatmapService) persist(layer HeatmapLayer) {
	if s.repo == nil {
		return
	}
	run := domain.HeatmapRun{
		ID:          layer.ID,
		Requested:   layer.Result.Requested,
		Received:    layer.Result.Received,
		RealizedMax: layer.Result.RealizedMax,
		Partial:     layer.Result.Partial,
		CreatedAt:   layer.GeneratedAt,
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveHeatmapRun(bgCtx, run); err != nil {
			zap.L().Warn("failed to save heatmap run", zap.Error(err))
		}
	}()
}
