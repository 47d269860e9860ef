package services

import (
	"errors"
	"sort"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/route"
)

// ErrNoEligibleDrivers is returned when the candidate pool for a route is
// empty after every eligibility filter has been applied. Callers treat it
// as the cascade-exhausted signal and escalate the route to an operator.
var ErrNoEligibleDrivers = errors.New("no eligible drivers")

// DriverSelector is a domain service that picks the next driver to offer
// a route to.
//
// Eligibility filters, applied in order:
//   - The driver must clear every offer gate: approved, active,
//     application complete, payout-capable, platform-registered
//   - The driver must be onboarded for delivery work
//   - The driver's schedule must fully cover the route's operating window
//     on the route's date
//   - The driver must not be in the route's exclusion set (already offered,
//     declined, expired, or released from this route)
//   - The driver must not already hold an active commitment for the date
//     (callers pre-filter via the repository and pass committed IDs)
//
// Ranking among survivors:
//   - Higher rating first
//   - More completed jobs second
//   - Identifier string order last, so repeated runs over the same pool
//     pick the same driver
type DriverSelector struct{}

// NewDriverSelector creates a new DriverSelector instance.
func NewDriverSelector() DriverSelector {
	return DriverSelector{}
}

// SelectNext returns the best eligible candidate for the route, or
// ErrNoEligibleDrivers when the pool is exhausted.
//
// committed holds IDs of drivers with an active commitment on the route's
// date (an accepted route or an unanswered offer). It is keyed by the
// UUID's string form.
func (s DriverSelector) SelectNext(r *route.Route, candidates []*driver.Driver, committed map[string]bool) (*driver.Driver, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	eligible := make([]*driver.Driver, 0, len(candidates))
	for _, d := range candidates {
		if err := d.Validate(); err != nil {
			return nil, err
		}

		if !d.CanReceiveOffers() {
			continue
		}
		if !d.HasCapability(driver.CapabilityDelivery) {
			continue
		}
		if !d.IsAvailableFor(r.Date(), r.WindowStart(), r.WindowEnd()) {
			continue
		}
		if r.IsDriverExcluded(d.ID()) {
			continue
		}
		if committed[d.ID().String()] {
			continue
		}

		eligible = append(eligible, d)
	}

	if len(eligible) == 0 {
		return nil, ErrNoEligibleDrivers
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Rating() != b.Rating() {
			return a.Rating() > b.Rating()
		}
		if a.CompletedJobs() != b.CompletedJobs() {
			return a.CompletedJobs() > b.CompletedJobs()
		}
		return a.ID().String() < b.ID().String()
	})

	return eligible[0], nil
}
