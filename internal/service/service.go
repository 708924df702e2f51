package service

import (
	"context"
	"time"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/metrics"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// Predictor scores one route with the travel time model
type Predictor interface {
	Predict(ctx context.Context, req domain.PredictionRequest) (float64, error)
}

// DatetimeLayout is the minute-truncated timestamp the model expects
const DatetimeLayout = "2006-01-02T15:04:05"

// FormatDatetime truncates t to the minute and renders it for the model
func FormatDatetime(t time.Time) string {
	return t.Truncate(time.Minute).Format(DatetimeLayout)
}

// observeUpstream records one external call. m may be nil.
func observeUpstream(m *metrics.Metrics, service string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	m.UpstreamRequests.WithLabelValues(service, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}
