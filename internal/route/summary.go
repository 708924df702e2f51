// Package route derives a route descriptor from a routing oracle answer and
// decomposes a predicted travel time against a distance/speed baseline.
package route

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/geo"
	"github.com/smartcity/commute/pkg/utils"
)

// StatusOK is the oracle status for a usable answer
const StatusOK = "OK"

// DirectionsQuery asks the oracle for a driving route
type DirectionsQuery struct {
	Origin      string
	Destination string
	DepartAt    time.Time
}

// OracleLeg is one leg of a route alternative. Durations are optional.
type OracleLeg struct {
	Start                    domain.GeoPoint
	End                      domain.GeoPoint
	DistanceMeters           float64
	DurationSeconds          *float64
	DurationInTrafficSeconds *float64
}

// OracleRoute is one route alternative
type OracleRoute struct {
	Legs []OracleLeg
}

// OracleResponse is the routing oracle answer
type OracleResponse struct {
	Status string
	Routes []OracleRoute
}

// Oracle finds routes between two places
type Oracle interface {
	Directions(ctx context.Context, q DirectionsQuery) (OracleResponse, error)
}

// BuildSummary extracts the first leg of the first route. A non-OK status or
// an empty answer is ErrRouteUnavailable.
func BuildSummary(resp OracleResponse) (domain.RouteSummary, error) {
	if !strings.EqualFold(resp.Status, StatusOK) {
		return domain.RouteSummary{}, eris.Wrapf(domain.ErrRouteUnavailable, "route: oracle status %q", resp.Status)
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return domain.RouteSummary{}, eris.Wrap(domain.ErrRouteUnavailable, "route: no legs in answer")
	}

	leg := resp.Routes[0].Legs[0]
	heading, cardinal := geo.Heading(leg.Start, leg.End)

	return domain.RouteSummary{
		Start:            leg.Start,
		End:              leg.End,
		LengthMiles:      math.Max(0, leg.DistanceMeters) / utils.MetersPerMile,
		HeadingDeg:       heading,
		Cardinal:         cardinal,
		ReferenceMinutes: referenceMinutes(leg),
	}, nil
}

// referenceMinutes prefers the traffic-aware duration over the plain one
func referenceMinutes(leg OracleLeg) *float64 {
	for _, secs := range []*float64{leg.DurationInTrafficSeconds, leg.DurationSeconds} {
		if secs != nil && *secs > 0 {
			m := *secs / 60
			return &m
		}
	}
	return nil
}

// Builder asks the oracle for a route and summarizes it
type Builder struct {
	oracle Oracle
}

// NewBuilder creates a summary builder
func NewBuilder(oracle Oracle) *Builder {
	return &Builder{oracle: oracle}
}

// Build makes exactly one oracle call. Transport failures are
// ErrUpstreamUnavailable; a missing route is ErrRouteUnavailable.
func (b *Builder) Build(ctx context.Context, q DirectionsQuery) (domain.RouteSummary, error) {
	resp, err := b.oracle.Directions(ctx, q)
	if err != nil {
		if eris.Is(err, domain.ErrRouteUnavailable) || eris.Is(err, domain.ErrUpstreamUnavailable) {
			return domain.RouteSummary{}, err
		}
		return domain.RouteSummary{}, eris.Wrapf(domain.ErrUpstreamUnavailable, "route: oracle: %v", err)
	}
	return BuildSummary(resp)
}
