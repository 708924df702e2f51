package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/metrics"
	"github.com/smartcity/commute/internal/route"
)

var (
	loop     = domain.GeoPoint{Lat: 41.88, Lng: -87.63}
	eastLoop = domain.GeoPoint{Lat: 41.88, Lng: -87.60}
)

func TestCommuteService_RouteThenPredict(t *testing.T) {
	repo := &recordingRepo{}
	var order []string
	var gotReq domain.PredictionRequest

	oracle := oracleFunc(func(_ context.Context, q route.DirectionsQuery) (route.OracleResponse, error) {
		order = append(order, "route")
		assert.Equal(t, "UIC", q.Origin)
		resp := okRoute(loop, eastLoop, 16093.4)
		secs := 1500.0
		resp.Routes[0].Legs[0].DurationInTrafficSeconds = &secs
		return resp, nil
	})
	predictor := predictorFunc(func(_ context.Context, req domain.PredictionRequest) (float64, error) {
		order = append(order, "predict")
		gotReq = req
		return 25, nil
	})

	svc := NewCommuteService(oracle, predictor, repo, CommuteDefaults{SpeedMph: 62, CongestionLevel: 2}, metrics.New(nil))

	speed := 30.0
	depart := time.Date(2026, 10, 16, 8, 15, 42, 0, time.UTC)
	res, current, err := svc.Estimate(context.Background(), CommuteRequest{
		Origin:      "UIC",
		Destination: "Art Institute",
		SpeedMph:    &speed,
		DepartAt:    depart,
	})
	require.NoError(t, err)
	svc.WaitBackground()

	assert.True(t, current)
	assert.Equal(t, []string{"route", "predict"}, order)

	assert.Equal(t, domain.East, gotReq.Direction)
	assert.InDelta(t, 10.0, gotReq.Length, 1e-9)
	assert.InDelta(t, 90.0, gotReq.StreetHeading, 1.0)
	assert.Equal(t, loop.Lat, gotReq.StartLatitude)
	assert.Equal(t, eastLoop.Lng, gotReq.EndLongitude)
	assert.Equal(t, 30.0, gotReq.CurrentSpeed)
	assert.Equal(t, 2.0, gotReq.CongestionLevel)
	assert.Equal(t, "2026-10-16T08:15:00", gotReq.Datetime)

	require.NotNil(t, res.Estimate.BaseMinutes)
	assert.InDelta(t, 20.0, *res.Estimate.BaseMinutes, 1e-9)
	assert.InDelta(t, 5.0, *res.Estimate.DelayMinutes, 1e-9)
	assert.InDelta(t, 25.0, *res.TotalMinutes, 1e-9)
	assert.InDelta(t, 25.0, *res.Estimate.ReferenceMinutes, 1e-9)
	assert.Equal(t, "20 mins", res.Formatted.Base)
	assert.Equal(t, "25 mins", res.Formatted.Total)

	snap, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, res.ID, snap.Value.ID)

	require.Len(t, repo.commutes, 1)
	assert.Equal(t, res.ID, repo.commutes[0].ID)
}

func TestCommuteService_NoRouteSkipsPrediction(t *testing.T) {
	m := metrics.New(nil)
	predicted := false
	oracle := oracleFunc(func(context.Context, route.DirectionsQuery) (route.OracleResponse, error) {
		return route.OracleResponse{Status: "ZERO_RESULTS"}, nil
	})
	predictor := predictorFunc(func(context.Context, domain.PredictionRequest) (float64, error) {
		predicted = true
		return 0, nil
	})

	svc := NewCommuteService(oracle, predictor, nil, CommuteDefaults{SpeedMph: 62}, m)
	_, _, err := svc.Estimate(context.Background(), CommuteRequest{Origin: "a", Destination: "b"})
	assert.True(t, errors.Is(err, domain.ErrRouteUnavailable))
	assert.False(t, predicted)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommuteEstimates.WithLabelValues(metrics.OutcomeError)))

	_, ok := svc.Latest()
	assert.False(t, ok)
}

func TestCommuteService_PredictionFailure(t *testing.T) {
	oracle := oracleFunc(func(context.Context, route.DirectionsQuery) (route.OracleResponse, error) {
		return okRoute(loop, eastLoop, 5000), nil
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	predictor := NewMLBridge(srv.URL, time.Second, nil)

	svc := NewCommuteService(oracle, predictor, nil, CommuteDefaults{SpeedMph: 62}, nil)
	_, current, err := svc.Estimate(context.Background(), CommuteRequest{Origin: "a", Destination: "b"})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.False(t, current)
}

func TestCommuteService_MissingEndpoints(t *testing.T) {
	svc := NewCommuteService(NewStraightLineOracle(), NewMockPredictor(), nil, CommuteDefaults{SpeedMph: 62}, nil)
	_, _, err := svc.Estimate(context.Background(), CommuteRequest{Origin: " ", Destination: "b"})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestCommuteService_ZeroSpeedHasNoBase(t *testing.T) {
	oracle := oracleFunc(func(context.Context, route.DirectionsQuery) (route.OracleResponse, error) {
		return okRoute(loop, eastLoop, 5000), nil
	})
	predictor := predictorFunc(func(context.Context, domain.PredictionRequest) (float64, error) { return 12, nil })

	zero := 0.0
	svc := NewCommuteService(oracle, predictor, nil, CommuteDefaults{SpeedMph: 62}, nil)
	res, _, err := svc.Estimate(context.Background(), CommuteRequest{Origin: "a", Destination: "b", SpeedMph: &zero})
	require.NoError(t, err)
	assert.Nil(t, res.Estimate.BaseMinutes)
	assert.Nil(t, res.Estimate.DelayMinutes)
	assert.Equal(t, "--", res.Formatted.Delay)
	assert.Equal(t, "12 mins", res.Formatted.Total)
}

func TestCommuteService_StaleEstimateIsDiscarded(t *testing.T) {
	m := metrics.New(nil)
	release := make(chan struct{})
	entered := make(chan struct{})

	oracle := oracleFunc(func(_ context.Context, q route.DirectionsQuery) (route.OracleResponse, error) {
		if q.Origin == "slow" {
			close(entered)
			<-release
		}
		return okRoute(loop, eastLoop, 5000), nil
	})
	predictor := predictorFunc(func(context.Context, domain.PredictionRequest) (float64, error) { return 9, nil })
	svc := NewCommuteService(oracle, predictor, nil, CommuteDefaults{SpeedMph: 62}, m)

	type outcome struct {
		res     CommuteResult
		current bool
	}
	slow := make(chan outcome, 1)
	go func() {
		r, c, _ := svc.Estimate(context.Background(), CommuteRequest{Origin: "slow", Destination: "b"})
		slow <- outcome{r, c}
	}()
	<-entered

	fast, current, err := svc.Estimate(context.Background(), CommuteRequest{Origin: "fast", Destination: "b"})
	require.NoError(t, err)
	require.True(t, current)

	close(release)
	late := <-slow
	assert.False(t, late.current)
	assert.Equal(t, "slow", late.res.Origin)

	snap, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, fast.ID, snap.Value.ID)
	assert.Equal(t, "fast", snap.Value.Origin)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses.WithLabelValues("commute")))
}

func TestCommuteService_History(t *testing.T) {
	repo := &recordingRepo{}
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	repo.commutes = []domain.CommuteRecord{
		{Origin: "recent", CreatedAt: now.Add(-time.Hour)},
		{Origin: "old", CreatedAt: now.Add(-48 * time.Hour)},
	}

	svc := NewCommuteService(NewStraightLineOracle(), NewMockPredictor(), repo, CommuteDefaults{}, nil)
	svc.now = func() time.Time { return now }

	got, err := svc.History(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].Origin)
}

func TestCommuteService_DemoCollaborators(t *testing.T) {
	svc := NewCommuteService(NewStraightLineOracle(), NewMockPredictor(), nil, CommuteDefaults{SpeedMph: 62, CongestionLevel: 2}, nil)

	res, current, err := svc.Estimate(context.Background(), CommuteRequest{
		Origin:      "41.8719,-87.6492",
		Destination: "41.8796,-87.6237",
	})
	require.NoError(t, err)
	assert.True(t, current)
	assert.Equal(t, domain.East, res.Summary.Cardinal)
	assert.NotNil(t, res.Estimate.DelayMinutes)
	assert.Nil(t, res.Estimate.ReferenceMinutes)
}
