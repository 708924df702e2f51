package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/metrics"
	"github.com/smartcity/commute/internal/route"
	"github.com/smartcity/commute/internal/state"
)

// CommuteDefaults fill in request fields the caller leaves out
type CommuteDefaults struct {
	SpeedMph        float64
	CongestionLevel float64
}

// CommuteRequest asks for a route-then-predict cycle
type CommuteRequest struct {
	Origin          string
	Destination     string
	SpeedMph        *float64
	CongestionLevel *float64
	DepartAt        time.Time
}

// FormattedTimes are the human-readable breakdown values
type FormattedTimes struct {
	Base      string `json:"base"`
	Delay     string `json:"delay"`
	Total     string `json:"total"`
	Reference string `json:"reference"`
}

// CommuteResult is one completed route-then-predict cycle
type CommuteResult struct {
	ID              uuid.UUID              `json:"id"`
	Origin          string                 `json:"origin"`
	Destination     string                 `json:"destination"`
	Summary         domain.RouteSummary    `json:"summary"`
	Estimate        domain.CommuteEstimate `json:"estimate"`
	TotalMinutes    *float64               `json:"total_minutes"`
	Formatted       FormattedTimes         `json:"formatted"`
	SpeedMph        float64                `json:"speed_mph"`
	CongestionLevel float64                `json:"congestion_level"`
	DepartAt        time.Time              `json:"depart_at"`
	CreatedAt       time.Time              `json:"created_at"`
}

// CommuteService runs route-then-predict and keeps the current estimate
type CommuteService struct {
	builder   *route.Builder
	predictor Predictor
	repo      DataRepository
	defaults  CommuteDefaults
	metrics   *metrics.Metrics

	latest state.Latest[CommuteResult]
	wgBg   sync.WaitGroup
	now    func() time.Time
}

// NewCommuteService creates a new commute service
func NewCommuteService(oracle route.Oracle, predictor Predictor, repo DataRepository, defaults CommuteDefaults, m *metrics.Metrics) *CommuteService {
	return &CommuteService{
		builder:   route.NewBuilder(oracle),
		predictor: predictor,
		repo:      repo,
		defaults:  defaults,
		metrics:   m,
		now:       time.Now,
	}
}

// WaitBackground blocks until all background save goroutines complete.
func (s *CommuteService) WaitBackground() {
	s.wgBg.Wait()
}

// Estimate routes first, then predicts with the route-derived features.
// The returned bool is false when a newer request superseded this one.
func (s *CommuteService) Estimate(ctx context.Context, req CommuteRequest) (CommuteResult, bool, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return CommuteResult{}, false, eris.Wrap(domain.ErrInvalidConfig, "commute: origin and destination are required")
	}

	tok := s.latest.Issue()
	log := zap.L().With(zap.Uint64("token", uint64(tok)))

	speed := s.defaults.SpeedMph
	if req.SpeedMph != nil {
		speed = *req.SpeedMph
	}
	congestion := s.defaults.CongestionLevel
	if req.CongestionLevel != nil {
		congestion = *req.CongestionLevel
	}
	departAt := req.DepartAt
	if departAt.IsZero() {
		departAt = s.now()
	}

	summary, err := s.builder.Build(ctx, route.DirectionsQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		DepartAt:    departAt,
	})
	if err != nil {
		s.count(metrics.OutcomeError)
		log.Warn("commute route failed", zap.Error(err))
		return CommuteResult{}, false, err
	}

	predicted, err := s.predictor.Predict(ctx, NewPredictionRequest(summary, speed, congestion, departAt))
	if err != nil {
		s.count(metrics.OutcomeError)
		log.Warn("commute prediction failed", zap.Error(err))
		return CommuteResult{}, false, err
	}

	est := route.Decompose(summary.LengthMiles, speed, &predicted, summary.ReferenceMinutes)
	result := CommuteResult{
		ID:              uuid.New(),
		Origin:          req.Origin,
		Destination:     req.Destination,
		Summary:         summary,
		Estimate:        est,
		TotalMinutes:    est.TotalMinutes(),
		Formatted:       formatEstimate(est),
		SpeedMph:        speed,
		CongestionLevel: congestion,
		DepartAt:        departAt,
		CreatedAt:       s.now(),
	}

	if !s.latest.Commit(tok, result) {
		s.count(metrics.OutcomeStale)
		if s.metrics != nil {
			s.metrics.StaleResponses.WithLabelValues("commute").Inc()
		}
		log.Info("discarding stale commute estimate", zap.Uint64("latest", uint64(s.latest.LastIssued())))
		return result, false, nil
	}

	s.count(metrics.OutcomeOK)
	log.Info("commute estimated",
		zap.Float64("miles", summary.LengthMiles),
		zap.String("cardinal", string(summary.Cardinal)),
		zap.Float64("predicted_min", predicted),
	)
	s.persist(result)
	return result, true, nil
}

// Latest returns the current estimate
func (s *CommuteService) Latest() (state.Snapshot[CommuteResult], bool) {
	return s.latest.Snapshot()
}

// History returns persisted estimates from the last window
func (s *CommuteService) History(ctx context.Context, window time.Duration) ([]domain.CommuteRecord, error) {
	if s.repo == nil {
		return []domain.CommuteRecord{}, nil
	}
	to := s.now()
	return s.repo.GetCommuteHistory(ctx, to.Add(-window), to)
}

// NewPredictionRequest builds the model input from a route summary
func NewPredictionRequest(summary domain.RouteSummary, speedMph, congestion float64, at time.Time) domain.PredictionRequest {
	return domain.PredictionRequest{
		Direction:       summary.Cardinal,
		Length:          summary.LengthMiles,
		StreetHeading:   summary.HeadingDeg,
		StartLatitude:   summary.Start.Lat,
		StartLongitude:  summary.Start.Lng,
		EndLatitude:     summary.End.Lat,
		EndLongitude:    summary.End.Lng,
		CurrentSpeed:    speedMph,
		CongestionLevel: congestion,
		Datetime:        FormatDatetime(at),
	}
}

func formatEstimate(est domain.CommuteEstimate) FormattedTimes {
	return FormattedTimes{
		Base:      domain.FormatMinutes(est.BaseMinutes),
		Delay:     domain.FormatMinutes(est.DelayMinutes),
		Total:     domain.FormatMinutes(est.TotalMinutes()),
		Reference: domain.FormatMinutes(est.ReferenceMinutes),
	}
}

func (s *CommuteService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.CommuteEstimates.WithLabelValues(outcome).Inc()
	}
}

// persist saves the estimate asynchronously (tracked for graceful shutdown)
func (s *CommuteService) persist(r CommuteResult) {
	if s.repo == nil {
		return
	}
	rec := domain.CommuteRecord{
		ID:              r.ID,
		Origin:          r.Origin,
		Destination:     r.Destination,
		Summary:         r.Summary,
		Estimate:        r.Estimate,
		SpeedMph:        r.SpeedMph,
		CongestionLevel: r.CongestionLevel,
		DepartAt:        r.DepartAt,
		CreatedAt:       r.CreatedAt,
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveCommute(bgCtx, rec); err != nil {
			zap.L().Warn("failed to save commute estimate", zap.Error(err))
		}
	}()
}
