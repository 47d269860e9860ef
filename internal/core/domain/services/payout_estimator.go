package services

import (
	"dispatch/internal/pkg/errs"
)

// PayoutEstimator is a domain service that prices a route for the offer
// SMS and for settlement fallback when completion metrics are missing.
//
// Pricing model:
//   - estimate = perStopRate * stops + perMileRate * miles
//   - estimated duration = the route's measured duration when known,
//     otherwise perStopMinutes * stops
type PayoutEstimator struct {
	perStopRate    float64
	perMileRate    float64
	perStopMinutes float64
}

// NewPayoutEstimator creates a PayoutEstimator with the given rates.
func NewPayoutEstimator(perStopRate, perMileRate, perStopMinutes float64) (PayoutEstimator, error) {
	if perStopRate < 0 {
		return PayoutEstimator{}, errs.NewValueIsInvalidError("per stop rate")
	}
	if perMileRate < 0 {
		return PayoutEstimator{}, errs.NewValueIsInvalidError("per mile rate")
	}
	if perStopMinutes <= 0 {
		return PayoutEstimator{}, errs.NewValueIsInvalidError("per stop minutes")
	}
	return PayoutEstimator{
		perStopRate:    perStopRate,
		perMileRate:    perMileRate,
		perStopMinutes: perStopMinutes,
	}, nil
}

// Estimate prices a route given its stop count and planned distance.
func (e PayoutEstimator) Estimate(stops int, miles float64) float64 {
	if stops < 0 {
		stops = 0
	}
	if miles < 0 {
		miles = 0
	}
	return e.perStopRate*float64(stops) + e.perMileRate*miles
}

// EstimateDuration returns the expected working minutes for a route.
// When a measured duration is available it wins; otherwise the estimate
// falls back to a fixed per-stop allowance.
func (e PayoutEstimator) EstimateDuration(stops int, measuredMinutes *float64) float64 {
	if measuredMinutes != nil && *measuredMinutes > 0 {
		return *measuredMinutes
	}
	if stops < 0 {
		stops = 0
	}
	return e.perStopMinutes * float64(stops)
}
