// Package payout defines the settlement lifecycle shared by orders and routes.
// Payout state is tracked separately from delivery state: a delivery that has
// physically happened stays delivered even when the money movement fails and
// is reconciled later.
package payout

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the settlement state of a completed unit of work.
//
// State transitions:
//
//	None ──> Processing ──> Paid
//	              │
//	              └──────> Failed
//
// Failed is not terminal for the business (operators reconcile manually),
// but it is terminal for the automated path.
type Status int

const (
	// Unknown represents an invalid or undefined payout status.
	Unknown Status = iota

	// None means no settlement has been attempted yet.
	None

	// Processing means a settlement attempt has been claimed by exactly
	// one caller. The transition None -> Processing is the idempotency
	// guard for standalone settlements.
	Processing

	// Paid means the payout transfer succeeded.
	Paid

	// Failed means the payout transfer failed and needs operator
	// reconciliation.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		None:       "None",
		Processing: "Processing",
		Paid:       "Paid",
		Failed:     "Failed",
	}
}

// Validate checks the Status is one of the defined payout states.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("payout status is invalid",
			fmt.Errorf("%d is not a valid payout status", s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payout status is invalid",
			fmt.Errorf("%d is not a valid payout status", s))
	}
	return nil
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}
