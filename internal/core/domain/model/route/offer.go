package route

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// OfferStatus represents where a route stands in the driver-offer cascade.
//
// State transitions:
//
//	Unoffered ──> OfferPending ──> OfferSent ──> OfferAccepted
//	    ▲              │               │
//	    │              │               ├──> OfferDeclined ──┐
//	    │              │               └──> OfferExpired ───┤
//	    │              │                                    │
//	    └──────────────│────────────────────────────────────┘
//	                   └──> OfferEscalated        (cascade retry)
//
// OfferPending is a short-lived claim state: exactly one caller wins the
// Unoffered/Declined/Expired -> OfferPending conditional update, which is
// what prevents a manual retry and the expiry sweep from both issuing
// offers for the same route. OfferEscalated is terminal for the automated
// path and requires operator action.
type OfferStatus int

const (
	// OfferUnknown represents an invalid or undefined offer status.
	OfferUnknown OfferStatus = iota

	// OfferUnoffered means no offer activity has happened yet.
	OfferUnoffered

	// OfferPending means a cascade step has claimed the route and is
	// selecting a candidate.
	OfferPending

	// OfferSent means a time-bounded offer is out with one driver.
	OfferSent

	// OfferAccepted means the offered driver accepted in time.
	OfferAccepted

	// OfferDeclined means the offered driver declined; the cascade
	// re-enters selection with the driver excluded.
	OfferDeclined

	// OfferExpired means the offer validity window lapsed unanswered;
	// the cascade re-enters selection with the driver excluded.
	OfferExpired

	// OfferEscalated means the candidate pool was exhausted and an
	// operator was alerted. No further automated attempts.
	OfferEscalated
)

func getOfferStatusStrings() map[OfferStatus]string {
	return map[OfferStatus]string{
		OfferUnknown:   "Unknown",
		OfferUnoffered: "Unoffered",
		OfferPending:   "Pending",
		OfferSent:      "Sent",
		OfferAccepted:  "Accepted",
		OfferDeclined:  "Declined",
		OfferExpired:   "Expired",
		OfferEscalated: "Escalated",
	}
}

// Validate checks the OfferStatus is one of the defined states.
func (s OfferStatus) Validate() error {
	if s == OfferUnknown {
		return invalidOfferStatus(int(s))
	}
	if _, ok := getOfferStatusStrings()[s]; !ok {
		return invalidOfferStatus(int(s))
	}
	return nil
}

// String implements fmt.Stringer.
func (s OfferStatus) String() string {
	if str, ok := getOfferStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// CanBeginOffer reports whether a cascade step may claim the route from
// this state. Declined and expired offers loop back through selection.
func (s OfferStatus) CanBeginOffer() bool {
	return s == OfferUnoffered || s == OfferDeclined || s == OfferExpired
}

// IsActiveCommitment reports whether the offered driver is considered
// busy for the route's date while the offer sits in this state.
func (s OfferStatus) IsActiveCommitment() bool {
	return s == OfferSent || s == OfferAccepted
}

// EscalationReason classifies why a route's candidate pool was exhausted.
// Carried on the operator alert and persisted for the escalated-routes view.
type EscalationReason string

const (
	// ReasonDeclinedExhausted: the last candidate declined and no one is left.
	ReasonDeclinedExhausted EscalationReason = "all_offers_declined"

	// ReasonExpiredExhausted: the last offer expired and no one is left.
	ReasonExpiredExhausted EscalationReason = "offer_expired_no_candidates"

	// ReasonFailedExhausted: a reassignment after a failed attempt found no one.
	ReasonFailedExhausted EscalationReason = "assignment_failed_no_candidates"
)

// Validate checks the reason is one of the defined classifications.
func (r EscalationReason) Validate() error {
	switch r {
	case ReasonDeclinedExhausted, ReasonExpiredExhausted, ReasonFailedExhausted:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("escalation reason is invalid",
			fmt.Errorf("%q is not a valid escalation reason", string(r)))
	}
}

func invalidOfferStatus(v int) error {
	return errs.NewValueIsInvalidErrorWithCause("offer status is invalid",
		fmt.Errorf("%d is not a valid offer status", v))
}
