// Package heatmap turns raw per-point delay predictions into a bounded,
// perceptually stretched intensity field for the map renderer.
package heatmap

import (
	"math"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/pkg/utils"
)

// minSpread guards the percentile band against a zero width
const minSpread = 1e-6

// NormalizeOptions controls the percentile band and the power-law stretch
type NormalizeOptions struct {
	LowPct   float64 `json:"low_pct" yaml:"low_pct" mapstructure:"low_pct"`
	HighPct  float64 `json:"high_pct" yaml:"high_pct" mapstructure:"high_pct"`
	Floor    float64 `json:"floor" yaml:"floor" mapstructure:"floor"`
	Gamma    float64 `json:"gamma" yaml:"gamma" mapstructure:"gamma"`
	MaxScale float64 `json:"max_scale" yaml:"max_scale" mapstructure:"max_scale"`
}

// DefaultNormalizeOptions clamps to the 5th..95th percentile band with a
// 0.05 floor, a 0.35 exponent and a 0..50 output scale.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		LowPct:   5,
		HighPct:  95,
		Floor:    0.05,
		Gamma:    0.35,
		MaxScale: 50,
	}
}

// Validate rejects options that would break boundedness or monotonicity
func (o NormalizeOptions) Validate() error {
	switch {
	case o.LowPct < 0 || o.HighPct > 100 || o.LowPct > o.HighPct:
		return eris.Wrapf(domain.ErrInvalidConfig, "heatmap: percentile band [%g, %g]", o.LowPct, o.HighPct)
	case o.Floor <= 0 || o.Floor > 1:
		return eris.Wrapf(domain.ErrInvalidConfig, "heatmap: floor %g outside (0, 1]", o.Floor)
	case o.Gamma <= 0:
		return eris.Wrapf(domain.ErrInvalidConfig, "heatmap: gamma %g must be positive", o.Gamma)
	case o.MaxScale <= 0:
		return eris.Wrapf(domain.ErrInvalidConfig, "heatmap: max scale %g must be positive", o.MaxScale)
	}
	return nil
}

// MinIntensity is the lowest value Normalize can emit
func (o NormalizeOptions) MinIntensity() float64 {
	return math.Pow(o.Floor, o.Gamma) * o.MaxScale
}

// Percentile returns the nearest-rank percentile of values: the element at
// floor(p/100*(n-1)) of the sorted copy. Empty input yields 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	idx := int(math.Floor(p / 100 * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Normalize maps raw weights into [MinIntensity, MaxScale], same length and
// order. Values outside the percentile band are clamped so outliers cannot
// flatten the rest of the scale. Non-finite weights count as 0.
func Normalize(raw []float64, opts NormalizeOptions) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	clean := make([]float64, len(raw))
	for i, w := range raw {
		clean[i] = finiteOrZero(w)
	}

	sorted := slices.Clone(clean)
	slices.Sort(sorted)
	low := percentileSorted(sorted, opts.LowPct)
	high := percentileSorted(sorted, opts.HighPct)
	denom := math.Max(minSpread, high-low)

	for i, w := range clean {
		t := utils.Clamp((w-low)/denom, opts.Floor, 1)
		out[i] = math.Pow(t, opts.Gamma) * opts.MaxScale
	}
	return out
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
