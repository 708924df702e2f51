package heatmap

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/domain"
)

// WeightQuery carries the conditions every grid point is scored under
type WeightQuery struct {
	CurrentSpeed    float64
	CongestionLevel float64
	At              time.Time
}

// WeightSource scores grid points. Results are aligned positionally with
// points and may be shorter than requested.
type WeightSource interface {
	Weights(ctx context.Context, points []domain.GeoPoint, q WeightQuery) ([]domain.WeightSample, error)
}

// WeightSourceFunc adapts a plain function to WeightSource
type WeightSourceFunc func(ctx context.Context, points []domain.GeoPoint, q WeightQuery) ([]domain.WeightSample, error)

// Weights calls f
func (f WeightSourceFunc) Weights(ctx context.Context, points []domain.GeoPoint, q WeightQuery) ([]domain.WeightSample, error) {
	return f(ctx, points, q)
}

// Mapper builds a renderable intensity field from a grid and a weight source
type Mapper struct {
	opts NormalizeOptions
}

// NewMapper creates a mapper; options are validated once here
func NewMapper(opts NormalizeOptions) (*Mapper, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{opts: opts}, nil
}

// Options returns the normalization options in use
func (m *Mapper) Options() NormalizeOptions {
	return m.opts
}

// Build queries the source once for the whole grid and normalizes the
// answer. A short answer is paired by position and flagged Partial rather
// than failing. Source errors are wrapped as ErrUpstreamUnavailable.
func (m *Mapper) Build(ctx context.Context, grid []domain.GeoPoint, source WeightSource, q WeightQuery) (domain.NormalizationResult, error) {
	result := domain.NormalizationResult{
		Samples:   []domain.VisualSample{},
		Requested: len(grid),
	}
	if len(grid) == 0 {
		return result, nil
	}

	samples, err := source.Weights(ctx, grid, q)
	if err != nil {
		if eris.Is(err, domain.ErrUpstreamUnavailable) {
			return result, err
		}
		return result, eris.Wrapf(domain.ErrUpstreamUnavailable, "heatmap: weight source: %v", err)
	}
	result.Received = len(samples)

	n := min(len(grid), len(samples))
	if len(samples) < len(grid) {
		result.Partial = true
		zap.L().Warn("heatmap: weight source returned fewer points than requested",
			zap.Int("requested", len(grid)),
			zap.Int("received", len(samples)),
		)
	} else if len(samples) > len(grid) {
		zap.L().Debug("heatmap: ignoring surplus weights",
			zap.Int("requested", len(grid)),
			zap.Int("received", len(samples)),
		)
	}

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		raw[i] = samples[i].RawWeight
	}
	intensities := Normalize(raw, m.opts)

	result.Samples = make([]domain.VisualSample, n)
	for i, v := range intensities {
		result.Samples[i] = domain.VisualSample{Point: grid[i], Intensity: v}
		if v > result.RealizedMax {
			result.RealizedMax = v
		}
	}
	return result, nil
}
