package domain

import "github.com/rotisserie/eris"

// Error taxonomy shared by the pipeline. Wrap with eris and match with errors.Is.
var (
	// ErrInvalidConfig is returned for bad grid or normalization parameters
	ErrInvalidConfig = eris.New("invalid config")

	// ErrRouteUnavailable means the routing oracle found no route
	ErrRouteUnavailable = eris.New("route unavailable")

	// ErrUpstreamUnavailable covers network or service failures of the
	// weight source, the prediction service and the routing oracle
	ErrUpstreamUnavailable = eris.New("upstream unavailable")

	// ErrPartialResult flags a weight source that answered fewer points than asked
	ErrPartialResult = eris.New("partial result")

	// ErrDegenerateInput names inputs that are handled by fallback values
	// (empty weights, non-positive speed, coincident coordinates). It is
	// never returned by the pipeline.
	ErrDegenerateInput = eris.New("degenerate input")
)
