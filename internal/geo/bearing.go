package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/smartcity/commute/internal/domain"
)

// Bearing returns the initial great-circle bearing from p1 to p2 in
// degrees, normalized to [0, 360). Coincident points yield 0.
func Bearing(p1, p2 domain.GeoPoint) float64 {
	a := s2.LatLngFromDegrees(p1.Lat, p1.Lng)
	b := s2.LatLngFromDegrees(p2.Lat, p2.Lng)

	phi1 := a.Lat.Radians()
	phi2 := b.Lat.Radians()
	dLambda := b.Lng.Radians() - a.Lng.Radians()

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	theta := math.Atan2(y, x) * 180 / math.Pi
	if theta < 0 {
		theta += 360
	}
	if theta >= 360 {
		theta = 0
	}
	return theta
}

// CardinalFor reduces a heading to N/E/S/W using half-open quadrants:
// [45,135) E, [135,225) S, [225,315) W, everything else N.
func CardinalFor(deg float64) domain.Cardinal {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	switch {
	case deg >= 45 && deg < 135:
		return domain.East
	case deg >= 135 && deg < 225:
		return domain.South
	case deg >= 225 && deg < 315:
		return domain.West
	default:
		return domain.North
	}
}

// Heading returns the bearing and its cardinal in one call
func Heading(p1, p2 domain.GeoPoint) (float64, domain.Cardinal) {
	deg := Bearing(p1, p2)
	return deg, CardinalFor(deg)
}
