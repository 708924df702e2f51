package domain

// GeoPoint is a WGS84 coordinate
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a rectangular region limited by north/south/east/west coordinates
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// ChicagoCoreBounds covers the downtown and near-side neighborhoods
var ChicagoCoreBounds = Bounds{
	North: 42.03,
	South: 41.78,
	East:  -87.52,
	West:  -87.78,
}

// ChicagoCenter is the Loop
var ChicagoCenter = GeoPoint{Lat: 41.8781, Lng: -87.6298}

// WeightSample is one unnormalized delay prediction for a grid point
type WeightSample struct {
	Point     GeoPoint `json:"point"`
	RawWeight float64  `json:"weight"`
}

// VisualSample is a normalized heatmap intensity for a grid point
type VisualSample struct {
	Point     GeoPoint `json:"point"`
	Intensity float64  `json:"intensity"`
}

// NormalizationResult is a renderable intensity field.
// RealizedMax calibrates the renderer's color scale.
type NormalizationResult struct {
	Samples     []VisualSample `json:"samples"`
	RealizedMax float64        `json:"realized_max"`
	Partial     bool           `json:"partial"`
	Requested   int            `json:"requested"`
	Received    int            `json:"received"`
}

// Err reports ErrPartialResult when the weight source returned fewer
// samples than requested. It is a signal, not a failure.
func (r NormalizationResult) Err() error {
	if r.Partial {
		return ErrPartialResult
	}
	return nil
}
