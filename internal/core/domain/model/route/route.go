package route

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/payout"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrRouteIsNotConstructed is returned when a Route instance was not
	// created through the NewRoute or RestoreRoute factory methods.
	ErrRouteIsNotConstructed = errors.New("Route must be created via NewRoute constructor")

	// ErrTotalStopsIsRequired is returned when a route is created with no stops.
	ErrTotalStopsIsRequired = errs.NewValueIsRequiredError("total stops")

	// ErrDateIsRequired is returned when a route is created without a
	// delivery date.
	ErrDateIsRequired = errs.NewValueIsRequiredError("delivery date")

	// ErrOperatingWindowIsInvalid is returned when the operating window end
	// does not come after its start or either bound falls outside the day.
	ErrOperatingWindowIsInvalid = errs.NewValueIsInvalidError("operating window")

	// ErrNoOfferedDriver is returned when an offer response arrives for a
	// route with no driver on the current offer.
	ErrNoOfferedDriver = errors.New("route has no offered driver")
)

const minutesPerDay = 24 * 60

// Route represents an ordered batch of delivery stops assigned, or offered,
// to one worker for one calendar day. It is the aggregate root of the
// driver-offer cascade: the offer status machine, the exclusion set of
// already-tried drivers, and the offer token live here.
//
// Route follows these invariants:
//   - completedStops never exceeds totalStops
//   - At most one offer is in flight at a time (single offeredDriverID,
//     token, and expiry)
//   - A driver in the exclusion set is never offered this route again
//   - The route reaches StatusCompleted only when every member order
//     reached terminal success; callers enforce this through the
//     conditional completion update
//
// The aggregate validates transitions for in-memory copies; concurrent
// callers racing on the same row are serialized by the repository's
// single-row conditional updates, not by this struct.
type Route struct {
	id kernel.UUID

	// driverID is the worker committed to the route (nil until an offer
	// is accepted)
	driverID *kernel.UUID

	// offeredDriverID is the worker holding the current offer
	offeredDriverID *kernel.UUID

	// date is the calendar day the route is worked (UTC midnight)
	date time.Time

	// windowStart and windowEnd bound the operating window in minutes
	// from midnight (e.g. 720 and 1080 for midday to evening)
	windowStart int
	windowEnd   int

	totalStops     int
	completedStops int

	status      Status
	offerStatus OfferStatus

	offerToken     *string
	offerSentAt    *time.Time
	offerExpiresAt *time.Time

	// excludedDriverIDs is the set of drivers already tried for this
	// route/date; it only grows
	excludedDriverIDs []kernel.UUID

	escalationReason *EscalationReason

	distanceMiles   *float64
	durationMinutes *float64

	payoutAmount *float64
	payoutStatus payout.Status

	isConstructed bool
}

// NewRoute creates a newly optimized route waiting for a worker.
//
// Parameters:
//   - id: unique identifier (must be a valid UUID)
//   - date: the calendar day the route is worked
//   - windowStart, windowEnd: operating window in minutes from midnight
//   - totalStops: number of member orders (must be positive)
func NewRoute(id kernel.UUID, date time.Time, windowStart, windowEnd, totalStops int) (*Route, error) {
	r := &Route{
		status:        StatusOptimized,
		offerStatus:   OfferUnoffered,
		payoutStatus:  payout.None,
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(id),
		r.setDate(date),
		r.setWindow(windowStart, windowEnd),
		r.setTotalStops(totalStops),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// RestoreRoute reconstructs a Route aggregate from persistent storage.
func RestoreRoute(
	id kernel.UUID,
	date time.Time,
	windowStart, windowEnd int,
	totalStops, completedStops int,
	status Status,
	offerStatus OfferStatus,
	driverID *kernel.UUID,
	offeredDriverID *kernel.UUID,
	offerToken *string,
	offerSentAt *time.Time,
	offerExpiresAt *time.Time,
	excludedDriverIDs []kernel.UUID,
	escalationReason *EscalationReason,
	distanceMiles *float64,
	durationMinutes *float64,
	payoutAmount *float64,
	payoutStatus payout.Status,
) (*Route, error) {
	r := &Route{
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(id),
		r.setDate(date),
		r.setWindow(windowStart, windowEnd),
		r.setTotalStops(totalStops),
		r.setStatus(status),
		r.setOfferStatus(offerStatus),
		r.setPayoutStatus(payoutStatus),
		r.setCompletedStops(completedStops),
	); err != nil {
		return nil, err
	}

	r.driverID = driverID
	r.offeredDriverID = offeredDriverID
	r.offerToken = offerToken
	r.offerSentAt = offerSentAt
	r.offerExpiresAt = offerExpiresAt
	r.excludedDriverIDs = make([]kernel.UUID, len(excludedDriverIDs))
	copy(r.excludedDriverIDs, excludedDriverIDs)
	r.escalationReason = escalationReason
	r.distanceMiles = distanceMiles
	r.durationMinutes = durationMinutes
	r.payoutAmount = payoutAmount
	return r, nil
}

// Validate ensures the Route instance was properly constructed.
func (r *Route) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRouteIsNotConstructed
	}
	return nil
}

// IsEqual compares two routes by their unique identifiers.
func (r *Route) IsEqual(other *Route) bool {
	return other != nil && r.id.IsEqual(other.id)
}

// ID returns the route's unique identifier.
func (r *Route) ID() kernel.UUID {
	return r.id
}

// DriverID returns the committed worker, or nil while unassigned.
func (r *Route) DriverID() *kernel.UUID {
	return r.driverID
}

// OfferedDriverID returns the worker holding the current offer, or nil.
func (r *Route) OfferedDriverID() *kernel.UUID {
	return r.offeredDriverID
}

// Date returns the calendar day the route is worked.
func (r *Route) Date() time.Time {
	return r.date
}

// WindowStart returns the operating window start in minutes from midnight.
func (r *Route) WindowStart() int {
	return r.windowStart
}

// WindowEnd returns the operating window end in minutes from midnight.
func (r *Route) WindowEnd() int {
	return r.windowEnd
}

// TotalStops returns the number of member orders.
func (r *Route) TotalStops() int {
	return r.totalStops
}

// CompletedStops returns the number of member orders delivered so far.
func (r *Route) CompletedStops() int {
	return r.completedStops
}

// Status returns the operational lifecycle status.
func (r *Route) Status() Status {
	return r.status
}

// OfferStatus returns the cascade state.
func (r *Route) OfferStatus() OfferStatus {
	return r.offerStatus
}

// OfferToken returns the bearer token of the offer in flight, or nil.
func (r *Route) OfferToken() *string {
	return r.offerToken
}

// OfferSentAt returns when the current offer was sent, or nil.
func (r *Route) OfferSentAt() *time.Time {
	return r.offerSentAt
}

// OfferExpiresAt returns the current offer's absolute deadline, or nil.
func (r *Route) OfferExpiresAt() *time.Time {
	return r.offerExpiresAt
}

// ExcludedDriverIDs returns a copy of the set of already-tried drivers.
func (r *Route) ExcludedDriverIDs() []kernel.UUID {
	out := make([]kernel.UUID, len(r.excludedDriverIDs))
	copy(out, r.excludedDriverIDs)
	return out
}

// EscalationReason returns why the route escalated, or nil.
func (r *Route) EscalationReason() *EscalationReason {
	return r.escalationReason
}

// DistanceMiles returns the route distance metric, or nil when unknown.
func (r *Route) DistanceMiles() *float64 {
	return r.distanceMiles
}

// DurationMinutes returns the route duration metric, or nil when unknown.
func (r *Route) DurationMinutes() *float64 {
	return r.durationMinutes
}

// PayoutAmount returns the settled payout amount, or nil before settlement.
func (r *Route) PayoutAmount() *float64 {
	return r.payoutAmount
}

// PayoutStatus returns the settlement state.
func (r *Route) PayoutStatus() payout.Status {
	return r.payoutStatus
}

// IsDriverExcluded reports whether the driver was already tried for this
// route and must not be offered it again.
func (r *Route) IsDriverExcluded(driverID kernel.UUID) bool {
	for _, id := range r.excludedDriverIDs {
		if id.IsEqual(driverID) {
			return true
		}
	}
	return false
}

// ExcludeDriver adds a driver to the exclusion set. Adding an already
// excluded driver is a no-op; the set only grows.
func (r *Route) ExcludeDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if r.IsDriverExcluded(driverID) {
		return nil
	}

	r.excludedDriverIDs = append(r.excludedDriverIDs, driverID)
	return nil
}

// OfferIsExpired reports whether the offer in flight has passed its
// data-level deadline. Expiry is enforced lazily: by the sweep and by
// accept/decline handlers calling this, never by a live timer.
func (r *Route) OfferIsExpired(now time.Time) bool {
	return r.offerStatus == OfferSent &&
		r.offerExpiresAt != nil &&
		now.After(*r.offerExpiresAt)
}

// BeginOffer claims the route for one cascade step.
// Valid from Unoffered, Declined, and Expired; the declined and expired
// states loop back through selection with the exclusion set grown.
func (r *Route) BeginOffer() error {
	if !r.offerStatus.CanBeginOffer() {
		return invalidOfferTransition(r.offerStatus, "begin an offer on")
	}

	r.offerStatus = OfferPending
	return nil
}

// SendOffer records a time-bounded offer to one driver.
// Valid only from OfferPending, the claim state owned by a single cascade
// step.
func (r *Route) SendOffer(driverID kernel.UUID, token string, sentAt, expiresAt time.Time) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	if r.offerStatus != OfferPending {
		return invalidOfferTransition(r.offerStatus, "send an offer on")
	}
	if !expiresAt.After(sentAt) {
		return errs.NewValueIsInvalidError("offer expiry")
	}

	r.offerStatus = OfferSent
	r.offeredDriverID = &driverID
	r.offerToken = &token
	r.offerSentAt = &sentAt
	r.offerExpiresAt = &expiresAt
	return nil
}

// AcceptOffer commits the offered driver to the route.
// Valid only while an offer is in flight and unexpired.
func (r *Route) AcceptOffer(now time.Time) error {
	if r.offerStatus != OfferSent {
		return invalidOfferTransition(r.offerStatus, "accept an offer on")
	}
	if r.offeredDriverID == nil {
		return ErrNoOfferedDriver
	}
	if r.OfferIsExpired(now) {
		return invalidOfferTransition(OfferExpired, "accept an offer on")
	}

	r.offerStatus = OfferAccepted
	r.driverID = r.offeredDriverID
	r.status = StatusAssigned
	return nil
}

// DeclineOffer records a decline, excludes the driver from future
// candidacy for this route, and clears the offer so the cascade can
// re-enter selection.
func (r *Route) DeclineOffer() error {
	return r.reclaimOffer(OfferDeclined)
}

// ExpireOffer records a lapsed offer, excludes the driver, and clears the
// offer so the cascade can re-enter selection.
func (r *Route) ExpireOffer() error {
	return r.reclaimOffer(OfferExpired)
}

// Escalate marks the cascade exhausted with a classified reason.
// Valid only from OfferPending: the escalating caller owns the claim, so
// the operator alert fires exactly once per exhaustion event.
func (r *Route) Escalate(reason EscalationReason) error {
	if err := reason.Validate(); err != nil {
		return err
	}
	if r.offerStatus != OfferPending {
		return invalidOfferTransition(r.offerStatus, "escalate")
	}

	r.offerStatus = OfferEscalated
	r.escalationReason = &reason
	return nil
}

// ReleaseForReassignment puts an already assigned route back into the
// cascade after a failed assignment: the committed driver is excluded,
// the commitment cleared, and the offer state reset to Unoffered.
func (r *Route) ReleaseForReassignment() error {
	if r.status.IsTerminal() {
		return errs.NewValueIsInvalidErrorWithCause("route status is invalid",
			fmt.Errorf("%s is not a valid status to release", r.status.String()))
	}

	if r.driverID != nil {
		if err := r.ExcludeDriver(*r.driverID); err != nil {
			return err
		}
	}

	r.driverID = nil
	r.status = StatusOptimized
	r.clearOffer()
	r.offerStatus = OfferUnoffered
	return nil
}

// MarkInProgress records that work on the route has started.
func (r *Route) MarkInProgress() error {
	if r.status != StatusAssigned && r.status != StatusInProgress {
		return errs.NewValueIsInvalidErrorWithCause("route status is invalid",
			fmt.Errorf("%s is not a valid status to start", r.status.String()))
	}

	r.status = StatusInProgress
	return nil
}

// RecordProgress updates the completed stop count.
// Enforces completedStops <= totalStops and forbids the count shrinking.
func (r *Route) RecordProgress(completedStops int) error {
	if completedStops < r.completedStops {
		return errs.NewValueIsOutOfRangeError("completed stops", completedStops, r.completedStops, r.totalStops)
	}
	return r.setCompletedStops(completedStops)
}

// CompleteWithMetrics marks the route finished with its aggregate metrics.
// Callers must have won the conditional completion update first; this
// method only mirrors the transition onto the in-memory copy.
func (r *Route) CompleteWithMetrics(distanceMiles, durationMinutes float64) error {
	if !r.status.IsActiveCommitment() {
		return errs.NewValueIsInvalidErrorWithCause("route status is invalid",
			fmt.Errorf("%s is not a valid status to complete", r.status.String()))
	}

	r.status = StatusCompleted
	r.completedStops = r.totalStops
	r.distanceMiles = &distanceMiles
	r.durationMinutes = &durationMinutes
	return nil
}

// MarkFailed abandons the route.
func (r *Route) MarkFailed() error {
	if r.status.IsTerminal() {
		return errs.NewValueIsInvalidErrorWithCause("route status is invalid",
			fmt.Errorf("%s is not a valid status to fail", r.status.String()))
	}

	r.status = StatusFailed
	return nil
}

// RecordPayout marks the route settlement as paid.
func (r *Route) RecordPayout(amount float64) error {
	r.payoutStatus = payout.Paid
	r.payoutAmount = &amount
	return nil
}

// RecordPayoutFailure marks the route settlement as failed for operator
// reconciliation. The route stays Completed.
func (r *Route) RecordPayoutFailure() {
	r.payoutStatus = payout.Failed
}

// reclaimOffer records the outcome of a dead offer and clears it so the
// cascade can try the next candidate. The offered driver joins the
// exclusion set.
func (r *Route) reclaimOffer(outcome OfferStatus) error {
	if r.offerStatus != OfferSent {
		return invalidOfferTransition(r.offerStatus, "reclaim an offer on")
	}
	if r.offeredDriverID == nil {
		return ErrNoOfferedDriver
	}

	if err := r.ExcludeDriver(*r.offeredDriverID); err != nil {
		return err
	}

	r.offerStatus = outcome
	r.clearOffer()
	return nil
}

func (r *Route) clearOffer() {
	r.offeredDriverID = nil
	r.offerToken = nil
	r.offerSentAt = nil
	r.offerExpiresAt = nil
}

func (r *Route) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Route) setDate(date time.Time) error {
	if date.IsZero() {
		return ErrDateIsRequired
	}
	r.date = date
	return nil
}

func (r *Route) setWindow(start, end int) error {
	if start < 0 || end > minutesPerDay || end <= start {
		return ErrOperatingWindowIsInvalid
	}
	r.windowStart = start
	r.windowEnd = end
	return nil
}

func (r *Route) setTotalStops(totalStops int) error {
	if totalStops <= 0 {
		return ErrTotalStopsIsRequired
	}
	r.totalStops = totalStops
	return nil
}

func (r *Route) setCompletedStops(completedStops int) error {
	if completedStops < 0 || completedStops > r.totalStops {
		return errs.NewValueIsOutOfRangeError("completed stops", completedStops, 0, r.totalStops)
	}
	r.completedStops = completedStops
	return nil
}

func (r *Route) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	r.status = status
	return nil
}

func (r *Route) setOfferStatus(status OfferStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	r.offerStatus = status
	return nil
}

func (r *Route) setPayoutStatus(status payout.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	r.payoutStatus = status
	return nil
}

func invalidOfferTransition(s OfferStatus, action string) error {
	return errs.NewValueIsInvalidErrorWithCause(
		"offer status is invalid",
		fmt.Errorf("%s is not a valid offer status to %s", s.String(), action),
	)
}
