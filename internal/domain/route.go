package domain

import (
	"fmt"
	"math"
)

// Cardinal is a coarse four-way heading
type Cardinal string

const (
	North Cardinal = "N"
	East  Cardinal = "E"
	South Cardinal = "S"
	West  Cardinal = "W"
)

// Code returns the integer encoding the travel time model was trained with
func (c Cardinal) Code() int {
	switch c {
	case South:
		return 1
	case East:
		return 2
	case West:
		return 3
	default:
		return 0
	}
}

// RouteSummary describes the first leg of a routing oracle answer
type RouteSummary struct {
	Start            GeoPoint `json:"start"`
	End              GeoPoint `json:"end"`
	LengthMiles      float64  `json:"length_miles"`
	HeadingDeg       float64  `json:"heading_deg"`
	Cardinal         Cardinal `json:"cardinal"`
	ReferenceMinutes *float64 `json:"reference_minutes"`
}

// CommuteEstimate breaks a predicted travel time into base, delay and total.
// A nil field means the value could not be derived.
type CommuteEstimate struct {
	BaseMinutes      *float64 `json:"base_minutes"`
	PredictedMinutes *float64 `json:"predicted_minutes"`
	DelayMinutes     *float64 `json:"delay_minutes"`
	ReferenceMinutes *float64 `json:"reference_minutes"`
}

// TotalMinutes is the displayed total. It is the prediction itself, not
// base+delay, so the two disagree whenever the prediction beats the base time.
func (e CommuteEstimate) TotalMinutes() *float64 {
	return e.PredictedMinutes
}

// FormatMinutes renders minutes as "Z mins" or "X hr(s) Y mins"; nil renders "--".
// Minutes are rounded before splitting so 59.6 renders "1 hr 0 mins".
func FormatMinutes(mins *float64) string {
	if mins == nil {
		return "--"
	}
	total := int(math.Round(*mins))
	hours := total / 60
	minutes := total % 60
	if hours <= 0 {
		return fmt.Sprintf("%d mins", minutes)
	}
	suffix := ""
	if hours > 1 {
		suffix = "s"
	}
	return fmt.Sprintf("%d hr%s %d mins", hours, suffix, minutes)
}
