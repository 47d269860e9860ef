package order

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/payout"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrCustomerPhoneIsRequired is returned when an order is created without a
	// customer phone number. Completion and feedback notifications depend on it.
	ErrCustomerPhoneIsRequired = errs.NewValueIsRequiredError("customer phone")

	// ErrDeliveryWindowIsInvalid is returned when the delivery window end does
	// not come after its start.
	ErrDeliveryWindowIsInvalid = errs.NewValueIsInvalidError("delivery window")
)

// CompletionRecord carries the delivery evidence extracted from a
// "completed" webhook event: the completion instant, the primary photo,
// the photo gallery, and the drive metrics the platform measured.
// Metric fields are pointers because the platform reports null distance
// and time while a task is still in flight.
type CompletionRecord struct {
	At                 time.Time
	PhotoURL           *string
	PhotoGallery       []string
	DriveDistanceMiles *float64
	DriveTimeMinutes   *float64
}

// Order represents a single customer delivery unit. It is the aggregate root
// for the order lifecycle from booking through webhook-driven transitions to
// a terminal state and settlement.
//
// Order follows these invariants:
//   - Must have a valid unique identifier and a customer phone
//   - Delivery window end must be after its start
//   - Status transitions follow the rules defined on Status
//   - Completion evidence is recorded exactly once, together with the
//     Delivered transition
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	id kernel.UUID

	// routeID is the route this order is a stop on (nil when dispatched
	// standalone)
	routeID *kernel.UUID

	// driverID is the assigned worker (nil while unassigned)
	driverID *kernel.UUID

	customerPhone string

	// windowStart and windowEnd bound the promised delivery window
	windowStart time.Time
	windowEnd   time.Time

	status Status

	// completion evidence, set once by MarkDelivered
	photoURL           *string
	photoGallery       []string
	deliveredAt        *time.Time
	driveDistanceMiles *float64
	driveTimeMinutes   *float64

	payoutAmount *float64
	payoutStatus payout.Status

	isConstructed bool
}

// NewOrder creates a new Order at booking time with validation.
//
// Parameters:
//   - id: unique identifier (must be a valid UUID)
//   - customerPhone: recipient phone for completion notifications
//   - windowStart, windowEnd: promised delivery window bounds
//
// The order starts in Created status with no route, no driver, and no
// settlement state.
func NewOrder(id kernel.UUID, customerPhone string, windowStart, windowEnd time.Time) (*Order, error) {
	o := &Order{
		status:        Created,
		payoutStatus:  payout.None,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerPhone(customerPhone),
		o.setWindow(windowStart, windowEnd),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an Order aggregate from persistent storage,
// preserving its lifecycle and settlement state at the time of persistence.
func RestoreOrder(
	id kernel.UUID,
	customerPhone string,
	windowStart, windowEnd time.Time,
	status Status,
	routeID *kernel.UUID,
	driverID *kernel.UUID,
	photoURL *string,
	photoGallery []string,
	deliveredAt *time.Time,
	driveDistanceMiles *float64,
	driveTimeMinutes *float64,
	payoutAmount *float64,
	payoutStatus payout.Status,
) (*Order, error) {
	o := &Order{
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerPhone(customerPhone),
		o.setWindow(windowStart, windowEnd),
		o.setStatus(status),
		o.setPayoutStatus(payoutStatus),
	); err != nil {
		return nil, err
	}

	o.routeID = routeID
	o.driverID = driverID
	o.photoURL = photoURL
	o.photoGallery = photoGallery
	o.deliveredAt = deliveredAt
	o.driveDistanceMiles = driveDistanceMiles
	o.driveTimeMinutes = driveTimeMinutes
	o.payoutAmount = payoutAmount
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// RouteID returns the route this order belongs to, or nil when standalone.
func (o *Order) RouteID() *kernel.UUID {
	return o.routeID
}

// DriverID returns the assigned worker's ID, or nil when unassigned.
func (o *Order) DriverID() *kernel.UUID {
	return o.driverID
}

// CustomerPhone returns the recipient phone number.
func (o *Order) CustomerPhone() string {
	return o.customerPhone
}

// WindowStart returns the start of the promised delivery window.
func (o *Order) WindowStart() time.Time {
	return o.windowStart
}

// WindowEnd returns the end of the promised delivery window.
func (o *Order) WindowEnd() time.Time {
	return o.windowEnd
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// PhotoURL returns the primary completion photo, or nil when none was taken.
func (o *Order) PhotoURL() *string {
	return o.photoURL
}

// PhotoGallery returns the full ordered list of completion photo URLs.
func (o *Order) PhotoGallery() []string {
	out := make([]string, len(o.photoGallery))
	copy(out, o.photoGallery)
	return out
}

// DeliveredAt returns the completion instant, or nil while undelivered.
func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

// DriveDistanceMiles returns the platform-measured drive distance, or nil.
func (o *Order) DriveDistanceMiles() *float64 {
	return o.driveDistanceMiles
}

// DriveTimeMinutes returns the platform-measured drive time, or nil.
func (o *Order) DriveTimeMinutes() *float64 {
	return o.driveTimeMinutes
}

// PayoutAmount returns the settled payout amount, or nil before settlement.
func (o *Order) PayoutAmount() *float64 {
	return o.payoutAmount
}

// PayoutStatus returns the settlement state.
func (o *Order) PayoutStatus() payout.Status {
	return o.payoutStatus
}

// AssignRoute places the order on a route as one of its stops.
// Moves the order to Scheduled; not allowed once the order is terminal.
func (o *Order) AssignRoute(routeID kernel.UUID) error {
	if err := routeID.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Schedule()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.routeID = &routeID
	return nil
}

// AssignDriver records the worker responsible for this order.
// Driver assignment follows route offer acceptance and may be repeated
// when a route is reassigned after a failure.
func (o *Order) AssignDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if o.status.IsTerminal() {
		return invalidTransition(o.status, "assign a driver to")
	}

	o.driverID = &driverID
	return nil
}

// MarkInTransit applies a "started" trigger.
func (o *Order) MarkInTransit() error {
	newStatus, err := o.status.Start()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// MarkDriverArrived applies an "arrival" trigger.
func (o *Order) MarkDriverArrived() error {
	newStatus, err := o.status.Arrive()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// MarkDelivered applies a "completed" trigger together with its completion
// evidence. The Delivered transition and the evidence are recorded as one
// mutation so an order can never be Delivered without its completion record.
func (o *Order) MarkDelivered(record CompletionRecord) error {
	newStatus, err := o.status.Deliver()
	if err != nil {
		return err
	}

	o.status = newStatus
	at := record.At
	o.deliveredAt = &at
	o.photoURL = record.PhotoURL
	o.photoGallery = record.PhotoGallery
	o.driveDistanceMiles = record.DriveDistanceMiles
	o.driveTimeMinutes = record.DriveTimeMinutes
	return nil
}

// MarkFailed applies a "failed" trigger.
func (o *Order) MarkFailed() error {
	newStatus, err := o.status.Fail()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// Cancel withdraws the order before work starts.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// RecordPayout marks the order's individual settlement as paid.
func (o *Order) RecordPayout(amount float64) error {
	o.payoutStatus = payout.Paid
	o.payoutAmount = &amount
	return nil
}

// RecordPayoutFailure marks the order's individual settlement as failed
// for later operator reconciliation.
func (o *Order) RecordPayoutFailure() {
	o.payoutStatus = payout.Failed
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerPhone(phone string) error {
	if phone == "" {
		return ErrCustomerPhoneIsRequired
	}
	o.customerPhone = phone
	return nil
}

func (o *Order) setWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return ErrDeliveryWindowIsInvalid
	}
	o.windowStart = start
	o.windowEnd = end
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setPayoutStatus(status payout.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.payoutStatus = status
	return nil
}
