package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/heatmap"
	"github.com/smartcity/commute/internal/metrics"
)

// MLBridge handles communication with the travel time model service.
// It serves both single-route predictions and whole-grid heatmap scoring.
type MLBridge struct {
	serviceURL string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewMLBridge creates a new ML bridge
func NewMLBridge(serviceURL string, timeout time.Duration, m *metrics.Metrics) *MLBridge {
	return &MLBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
	}
}

// Predict asks the model for the travel time of one route, in minutes
func (b *MLBridge) Predict(ctx context.Context, req domain.PredictionRequest) (minutes float64, err error) {
	start := time.Now()
	defer func() { observeUpstream(b.metrics, "ml_predict", start, err) }()

	var prediction domain.PredictionResponse
	if err := b.post(ctx, "/predict", req, &prediction); err != nil {
		return 0, err
	}
	return prediction.TravelTimeMin, nil
}

// Weights scores every grid point in a single request. The answer is
// aligned positionally with points and may be shorter.
func (b *MLBridge) Weights(ctx context.Context, points []domain.GeoPoint, q heatmap.WeightQuery) (samples []domain.WeightSample, err error) {
	start := time.Now()
	defer func() { observeUpstream(b.metrics, "ml_heatmap", start, err) }()

	req := domain.HeatmapRequest{
		Points:          points,
		CurrentSpeed:    q.CurrentSpeed,
		CongestionLevel: q.CongestionLevel,
		Datetime:        FormatDatetime(q.At),
	}

	var resp domain.HeatmapResponse
	if err := b.post(ctx, "/heatmap", req, &resp); err != nil {
		return nil, err
	}

	samples = make([]domain.WeightSample, len(resp.Data))
	for i, w := range resp.Data {
		samples[i] = domain.WeightSample{
			Point:     domain.GeoPoint{Lat: w.Lat, Lng: w.Lng},
			RawWeight: w.Weight,
		}
	}
	return samples, nil
}

// Health checks ML service connectivity
func (b *MLBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "ml_bridge: failed to create health request")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(domain.ErrUpstreamUnavailable, "ml_bridge: health check failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Wrapf(domain.ErrUpstreamUnavailable, "ml_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}

// post sends one JSON request. Every failure is ErrUpstreamUnavailable;
// there is no retry and no mock fallback.
func (b *MLBridge) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrap(err, "ml_bridge: failed to marshal request")
	}

	url := b.serviceURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "ml_bridge: failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return eris.Wrapf(domain.ErrUpstreamUnavailable, "ml_bridge: POST %s: %v", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Wrapf(domain.ErrUpstreamUnavailable, "ml_bridge: POST %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(domain.ErrUpstreamUnavailable, "ml_bridge: failed to decode %s response: %v", path, err)
	}

	return nil
}
