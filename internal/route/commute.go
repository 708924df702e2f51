package route

import "github.com/smartcity/commute/internal/domain"

// Decompose splits a predicted travel time into base, delay and total.
//
// Base is the naive lengthMiles/speedMph time and is nil for a non-positive
// speed. Delay is |predicted - base| when both exist. The total shown to
// users is the prediction itself, so base+delay only equals the total when
// the prediction is at least the base time. Reference is passed through and
// never enters the arithmetic.
func Decompose(lengthMiles, speedMph float64, predicted, reference *float64) domain.CommuteEstimate {
	est := domain.CommuteEstimate{
		PredictedMinutes: copyPtr(predicted),
		ReferenceMinutes: copyPtr(reference),
	}

	if speedMph > 0 {
		base := lengthMiles / speedMph * 60
		est.BaseMinutes = &base
	}

	if est.BaseMinutes != nil && est.PredictedMinutes != nil {
		delay := *est.PredictedMinutes - *est.BaseMinutes
		if delay < 0 {
			delay = -delay
		}
		est.DelayMinutes = &delay
	}
	return est
}

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
