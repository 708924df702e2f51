// Package geo holds the pure geometry of the pipeline: sampling lattices
// over a bounding box and initial bearings between two coordinates.
package geo

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/smartcity/commute/internal/domain"
)

// GridEpsilon keeps the north/east edge row and column when float steps
// land a hair past the bound.
const GridEpsilon = 1e-9

// MaxGridPoints caps a single lattice.
const MaxGridPoints = 1_000_000

// GenerateGrid scans bounds row-major, south to north then west to east,
// at the given step in degrees. Both edges are inclusive.
func GenerateGrid(bounds domain.Bounds, step float64) ([]domain.GeoPoint, error) {
	if err := ValidateGrid(bounds, step); err != nil {
		return nil, err
	}

	rows := axisCount(bounds.South, bounds.North, step)
	cols := axisCount(bounds.West, bounds.East, step)

	points := make([]domain.GeoPoint, 0, rows*cols)
	for i := 0; i < rows; i++ {
		lat := bounds.South + float64(i)*step
		for j := 0; j < cols; j++ {
			points = append(points, domain.GeoPoint{
				Lat: lat,
				Lng: bounds.West + float64(j)*step,
			})
		}
	}
	return points, nil
}

// ValidateGrid checks grid parameters without materializing the lattice
func ValidateGrid(bounds domain.Bounds, step float64) error {
	for _, v := range []float64{bounds.North, bounds.South, bounds.East, bounds.West, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Wrap(domain.ErrInvalidConfig, "grid: non-finite parameter")
		}
	}
	if step <= 0 {
		return eris.Wrapf(domain.ErrInvalidConfig, "grid: step must be positive, got %g", step)
	}
	if bounds.North < bounds.South {
		return eris.Wrapf(domain.ErrInvalidConfig, "grid: north %g below south %g", bounds.North, bounds.South)
	}
	if bounds.East < bounds.West {
		return eris.Wrapf(domain.ErrInvalidConfig, "grid: east %g below west %g", bounds.East, bounds.West)
	}

	rows := axisCount(bounds.South, bounds.North, step)
	cols := axisCount(bounds.West, bounds.East, step)
	if rows > MaxGridPoints || cols > MaxGridPoints || rows*cols > MaxGridPoints {
		return eris.Wrapf(domain.ErrInvalidConfig, "grid: %d x %d points exceeds limit %d", rows, cols, MaxGridPoints)
	}
	return nil
}

// axisCount is the number of samples from lo to hi inclusive. Index-based
// so repeated runs never drift.
func axisCount(lo, hi, step float64) int {
	n := 0
	for lo+float64(n)*step <= hi+GridEpsilon {
		n++
		if n > MaxGridPoints {
			break
		}
	}
	return n
}
