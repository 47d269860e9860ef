package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of a delivery order.
// It implements a state machine driven by webhook triggers from the
// external dispatch platform.
//
// State transitions:
//
//	Created ──> Scheduled ──> InTransit ──> DriverArrived ──> Delivered
//	    │            │            │               │
//	    └────────────┴────────────┴───────────────┴──> Failed / Cancelled
//
// Delivered, Failed, and Cancelled are terminal. Webhook events may arrive
// out of order, so every transition validates the current state; a stale
// trigger (e.g. a late "started" after delivery) fails validation and the
// caller treats it as a no-op rather than regressing state.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Created is the initial status at booking time.
	Created

	// Scheduled means the order has been placed on a route or dispatched
	// standalone for a target date.
	Scheduled

	// InTransit means the worker has started the dispatch task.
	InTransit

	// DriverArrived means the worker reached the delivery location.
	DriverArrived

	// Delivered is the terminal success state.
	Delivered

	// Failed is the terminal state for an unsuccessful delivery attempt.
	Failed

	// Cancelled is the terminal state for an order withdrawn before work
	// started.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:       "Unknown",
		Created:       "Created",
		Scheduled:     "Scheduled",
		InTransit:     "InTransit",
		DriverArrived: "DriverArrived",
		Delivered:     "Delivered",
		Failed:        "Failed",
		Cancelled:     "Cancelled",
	}
}

// Validate checks if the Status value is one of the defined states.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if s == Unknown {
		return invalidStatus(s)
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return invalidStatus(s)
	}
	return nil
}

// String returns the human-readable name of the status.
// Safe to call on any Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed || s == Cancelled
}

// IsTerminalSuccess reports whether the order finished successfully.
// Only Delivered counts; Failed and Cancelled are terminal but not
// successful, so they never contribute to route completion.
func (s Status) IsTerminalSuccess() bool {
	return s == Delivered
}

// Schedule transitions the status to Scheduled.
//
// Valid transitions:
//   - Created -> Scheduled
//   - Scheduled -> Scheduled (re-planning onto another route)
func (s Status) Schedule() (Status, error) {
	if s != Created && s != Scheduled {
		return 0, invalidTransition(s, "schedule")
	}
	return Scheduled, nil
}

// Start transitions the status to InTransit on a "started" trigger.
//
// Valid transitions:
//   - Created -> InTransit (platform can start before scheduling syncs)
//   - Scheduled -> InTransit
//
// A "started" arriving after arrival or a terminal state is stale and
// fails validation.
func (s Status) Start() (Status, error) {
	if s != Created && s != Scheduled {
		return 0, invalidTransition(s, "start")
	}
	return InTransit, nil
}

// Arrive transitions the status to DriverArrived on an "arrival" trigger.
//
// Valid transitions:
//   - Created / Scheduled -> DriverArrived (tolerates a dropped "started")
//   - InTransit -> DriverArrived
func (s Status) Arrive() (Status, error) {
	if s.IsTerminal() || s == DriverArrived {
		return 0, invalidTransition(s, "arrive")
	}
	return DriverArrived, nil
}

// Deliver transitions the status to Delivered on a "completed" trigger.
// Allowed from any non-terminal state because completion is the
// authoritative signal even when intermediate triggers were dropped.
func (s Status) Deliver() (Status, error) {
	if s.IsTerminal() {
		return 0, invalidTransition(s, "deliver")
	}
	return Delivered, nil
}

// Fail transitions the status to Failed on a "failed" trigger.
// Allowed from any non-terminal state.
func (s Status) Fail() (Status, error) {
	if s.IsTerminal() {
		return 0, invalidTransition(s, "fail")
	}
	return Failed, nil
}

// Cancel transitions the status to Cancelled.
// Only allowed before work starts; in-flight orders must run to a
// delivered or failed outcome through the platform.
func (s Status) Cancel() (Status, error) {
	if s != Created && s != Scheduled {
		return 0, invalidTransition(s, "cancel")
	}
	return Cancelled, nil
}

func invalidStatus(s Status) error {
	return errs.NewValueIsInvalidErrorWithCause("status is invalid",
		fmt.Errorf("%d is not a valid status", s))
}

func invalidTransition(s Status, action string) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%s is not a valid status to %s", s.String(), action),
	)
}
