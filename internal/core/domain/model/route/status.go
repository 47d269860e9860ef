package route

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the operational lifecycle of a route.
//
// State transitions:
//
//	Optimized ──> Assigned ──> InProgress ──> Completed
//	                  │             │
//	                  └─────────────┴──> Failed
//
// Optimized means stop ordering is done and the route is waiting for a
// worker. Assignment happens through the offer cascade, never directly.
type Status int

const (
	// StatusUnknown represents an invalid or undefined status.
	StatusUnknown Status = iota

	// StatusOptimized means the route is planned and needs a worker.
	StatusOptimized

	// StatusAssigned means a worker accepted the route's offer.
	StatusAssigned

	// StatusInProgress means at least one stop has been started.
	StatusInProgress

	// StatusCompleted means every member order reached terminal success.
	// Terminal; set through the conditional completion update only.
	StatusCompleted

	// StatusFailed means the route was abandoned. Terminal.
	StatusFailed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown:    "Unknown",
		StatusOptimized:  "Optimized",
		StatusAssigned:   "Assigned",
		StatusInProgress: "InProgress",
		StatusCompleted:  "Completed",
		StatusFailed:     "Failed",
	}
}

// Validate checks the Status is one of the defined states.
func (s Status) Validate() error {
	if s == StatusUnknown {
		return invalidStatus(int(s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return invalidStatus(int(s))
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

// IsTerminal reports whether the route reached a final operational state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActiveCommitment reports whether a worker holding a route in this
// status is considered busy for the route's calendar date. Used by the
// candidate query to exclude drivers with conflicting commitments.
func (s Status) IsActiveCommitment() bool {
	return s == StatusAssigned || s == StatusInProgress
}

func invalidStatus(v int) error {
	return errs.NewValueIsInvalidErrorWithCause("route status is invalid",
		fmt.Errorf("%d is not a valid route status", v))
}
