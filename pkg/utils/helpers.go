package utils

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKM is the mean Earth radius
const EarthRadiusKM = 6371.0

// MetersPerMile converts routing oracle distances to miles
const MetersPerMile = 1609.34

// Haversine calculates great-circle distance between two points in kilometers
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKM
}

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// RoundPtr rounds a nullable value, keeping nil as nil
func RoundPtr(value *float64, places int) *float64 {
	if value == nil {
		return nil
	}
	v := RoundTo(*value, places)
	return &v
}
