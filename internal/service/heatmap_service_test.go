package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/heatmap"
	"github.com/smartcity/commute/internal/metrics"
)

func smallSettings() HeatmapSettings {
	return HeatmapSettings{
		Bounds:          domain.Bounds{North: 41.80, South: 41.78, East: -87.76, West: -87.78},
		Step:            0.01,
		CurrentSpeed:    30,
		CongestionLevel: 2,
		Normalize:       heatmap.DefaultNormalizeOptions(),
	}
}

func linearSource() heatmap.WeightSourceFunc {
	return func(_ context.Context, points []domain.GeoPoint, _ heatmap.WeightQuery) ([]domain.WeightSample, error) {
		out := make([]domain.WeightSample, len(points))
		for i, p := range points {
			out[i] = domain.WeightSample{Point: p, RawWeight: float64(i)}
		}
		return out, nil
	}
}

func TestNewHeatmapService_InvalidGrid(t *testing.T) {
	settings := smallSettings()
	settings.Step = 0

	_, err := NewHeatmapService(settings, linearSource(), nil, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestHeatmapService_Refresh(t *testing.T) {
	repo := &recordingRepo{}
	m := metrics.New(nil)

	var gotQuery heatmap.WeightQuery
	src := heatmap.WeightSourceFunc(func(ctx context.Context, points []domain.GeoPoint, q heatmap.WeightQuery) ([]domain.WeightSample, error) {
		gotQuery = q
		return linearSource()(ctx, points, q)
	})

	svc, err := NewHeatmapService(smallSettings(), src, repo, m)
	require.NoError(t, err)
	require.Len(t, svc.Grid(), 9)

	speed := 45.0
	at := time.Date(2026, 10, 16, 17, 5, 30, 0, time.UTC)
	layer, current, err := svc.Refresh(context.Background(), HeatmapRefresh{CurrentSpeed: &speed, At: at})
	require.NoError(t, err)
	svc.WaitBackground()

	assert.True(t, current)
	assert.Equal(t, 45.0, gotQuery.CurrentSpeed)
	assert.Equal(t, 2.0, gotQuery.CongestionLevel)
	assert.Equal(t, "2026-10-16T17:05:00", layer.Datetime)
	assert.Len(t, layer.Result.Samples, 9)
	assert.Equal(t, 50.0, layer.Result.RealizedMax)
	assert.False(t, layer.IsMock)

	snap, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, layer.ID, snap.Value.ID)

	require.Len(t, repo.runs, 1)
	assert.Equal(t, 9, repo.runs[0].Requested)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HeatmapBuilds.WithLabelValues(metrics.OutcomeOK)))
}

func TestHeatmapService_PartialIsNotFatal(t *testing.T) {
	m := metrics.New(nil)
	src := heatmap.WeightSourceFunc(func(_ context.Context, points []domain.GeoPoint, _ heatmap.WeightQuery) ([]domain.WeightSample, error) {
		return []domain.WeightSample{{RawWeight: 1}, {RawWeight: 2}}, nil
	})

	svc, err := NewHeatmapService(smallSettings(), src, nil, m)
	require.NoError(t, err)

	layer, current, err := svc.Refresh(context.Background(), HeatmapRefresh{})
	require.NoError(t, err)
	assert.True(t, current)
	assert.True(t, layer.Result.Partial)
	assert.Len(t, layer.Result.Samples, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HeatmapBuilds.WithLabelValues(metrics.OutcomePartial)))
}

func TestHeatmapService_UpstreamFailureKeepsPreviousLayer(t *testing.T) {
	fail := false
	src := heatmap.WeightSourceFunc(func(ctx context.Context, points []domain.GeoPoint, q heatmap.WeightQuery) ([]domain.WeightSample, error) {
		if fail {
			return nil, errors.New("503")
		}
		return linearSource()(ctx, points, q)
	})

	svc, err := NewHeatmapService(smallSettings(), src, nil, nil)
	require.NoError(t, err)

	first, _, err := svc.Refresh(context.Background(), HeatmapRefresh{})
	require.NoError(t, err)

	fail = true
	_, current, err := svc.Refresh(context.Background(), HeatmapRefresh{})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.False(t, current)

	snap, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, first.ID, snap.Value.ID)
}

func TestHeatmapService_StaleRefreshIsDiscarded(t *testing.T) {
	m := metrics.New(nil)
	release := make(chan struct{})
	entered := make(chan struct{})
	calls := 0

	src := heatmap.WeightSourceFunc(func(ctx context.Context, points []domain.GeoPoint, q heatmap.WeightQuery) ([]domain.WeightSample, error) {
		calls++
		if calls == 1 {
			close(entered)
			<-release
		}
		return linearSource()(ctx, points, q)
	})

	svc, err := NewHeatmapService(smallSettings(), src, nil, m)
	require.NoError(t, err)

	type outcome struct {
		layer   HeatmapLayer
		current bool
		err     error
	}
	slow := make(chan outcome, 1)
	go func() {
		l, c, err := svc.Refresh(context.Background(), HeatmapRefresh{})
		slow <- outcome{l, c, err}
	}()
	<-entered

	fast, current, err := svc.Refresh(context.Background(), HeatmapRefresh{})
	require.NoError(t, err)
	require.True(t, current)

	close(release)
	late := <-slow
	require.NoError(t, late.err)
	assert.False(t, late.current)

	snap, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, fast.ID, snap.Value.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses.WithLabelValues("heatmap")))
}

func TestHeatmapService_SyntheticIsMock(t *testing.T) {
	svc, err := NewHeatmapService(smallSettings(), NewSyntheticWeights(), nil, nil)
	require.NoError(t, err)

	layer, _, err := svc.Refresh(context.Background(), HeatmapRefresh{})
	require.NoError(t, err)
	assert.True(t, layer.IsMock)
}
