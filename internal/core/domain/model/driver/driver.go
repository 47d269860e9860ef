// Package driver implements the driver aggregate: a worker who can be
// offered routes. The aggregate carries the onboarding flags that gate
// offer eligibility, the recurring availability schedule, and the
// performance counters the cascade ranks candidates by.
package driver

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const maxRating = 5.0

var (
	// ErrDriverIsNotConstructed is returned when a Driver instance was not
	// created through the NewDriver or RestoreDriver factory methods.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")

	// ErrNameIsRequired is returned when a driver is created without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")

	// ErrPhoneIsRequired is returned when a driver is created without a
	// phone number. Offers go out over SMS, so a driver without a phone
	// cannot participate in the cascade.
	ErrPhoneIsRequired = errs.NewValueIsRequiredError("phone")

	// ErrCapabilityIsRequired is returned when a driver is created without
	// a service capability.
	ErrCapabilityIsRequired = errs.NewValueIsRequiredError("capability")
)

// Capability identifies the kind of work a driver is onboarded for.
// Routes are only offered to drivers whose capability matches the
// service being dispatched.
type Capability string

// CapabilityDelivery marks drivers onboarded for delivery routes.
const CapabilityDelivery Capability = "delivery"

// Validate checks the capability is set.
func (c Capability) Validate() error {
	if c == "" {
		return ErrCapabilityIsRequired
	}
	return nil
}

// Driver represents a worker who may receive route offers once onboarding
// is complete.
type Driver struct {
	id    kernel.UUID
	name  string
	phone string

	// platformWorkerID is the driver's account id on the dispatch
	// platform; empty until the platform registration is linked
	platformWorkerID string

	capability Capability

	// rating in [0, 5]; the primary cascade ranking key
	rating float64

	// completedJobs breaks rating ties in favor of experience
	completedJobs int

	// onboarding and standing flags; all must hold before the driver
	// enters the candidate pool
	approved            bool
	active              bool
	applicationComplete bool
	payoutReady         bool

	availability []AvailabilityWindow

	isConstructed bool
}

// NewDriver creates a new active Driver with an empty schedule. The
// driver starts unapproved, with an incomplete application and no payout
// account; each gate is lifted as onboarding progresses. The platform
// worker id may be empty until the platform registration is linked.
func NewDriver(id kernel.UUID, name, phone, platformWorkerID string, capability Capability) (*Driver, error) {
	d := &Driver{
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setPhone(phone),
		d.setCapability(capability),
	); err != nil {
		return nil, err
	}

	d.platformWorkerID = platformWorkerID
	d.active = true
	return d, nil
}

// RestoreDriver reconstructs a Driver aggregate from persistent storage.
func RestoreDriver(
	id kernel.UUID,
	name, phone, platformWorkerID string,
	capability Capability,
	rating float64,
	completedJobs int,
	approved, active, applicationComplete, payoutReady bool,
	availability []AvailabilityWindow,
) (*Driver, error) {
	d := &Driver{
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setPhone(phone),
		d.setCapability(capability),
		d.setRating(rating),
	); err != nil {
		return nil, err
	}

	d.platformWorkerID = platformWorkerID
	d.completedJobs = completedJobs
	d.approved = approved
	d.active = active
	d.applicationComplete = applicationComplete
	d.payoutReady = payoutReady
	d.availability = availability
	return d, nil
}

// Validate ensures the Driver instance was properly constructed.
func (d *Driver) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDriverIsNotConstructed
	}
	return nil
}

// ID returns the driver's unique identifier.
func (d *Driver) ID() kernel.UUID {
	return d.id
}

// Name returns the driver's display name.
func (d *Driver) Name() string {
	return d.name
}

// Phone returns the driver's SMS-capable phone number.
func (d *Driver) Phone() string {
	return d.phone
}

// PlatformWorkerID returns the driver's account id on the dispatch
// platform, or "" when the registration is not linked yet.
func (d *Driver) PlatformWorkerID() string {
	return d.platformWorkerID
}

// Capability returns the kind of work the driver is onboarded for.
func (d *Driver) Capability() Capability {
	return d.capability
}

// Rating returns the driver's rating in [0, 5].
func (d *Driver) Rating() float64 {
	return d.rating
}

// CompletedJobs returns the driver's lifetime completed job count.
func (d *Driver) CompletedJobs() int {
	return d.completedJobs
}

// IsApproved reports whether an operator approved the driver.
func (d *Driver) IsApproved() bool {
	return d.approved
}

// IsActive reports whether the driver's account is in good standing.
func (d *Driver) IsActive() bool {
	return d.active
}

// IsApplicationComplete reports whether the driver finished onboarding
// paperwork.
func (d *Driver) IsApplicationComplete() bool {
	return d.applicationComplete
}

// IsPayoutReady reports whether the driver can be paid out.
func (d *Driver) IsPayoutReady() bool {
	return d.payoutReady
}

// CanReceiveOffers reports whether the driver clears every eligibility
// gate: approved, active, application complete, payout-capable, and
// registered on the dispatch platform.
func (d *Driver) CanReceiveOffers() bool {
	return d.approved &&
		d.active &&
		d.applicationComplete &&
		d.payoutReady &&
		d.platformWorkerID != ""
}

// HasCapability reports whether the driver is onboarded for the given
// kind of work.
func (d *Driver) HasCapability(c Capability) bool {
	return d.capability == c
}

// Availability returns the driver's recurring weekly schedule.
func (d *Driver) Availability() []AvailabilityWindow {
	out := make([]AvailabilityWindow, len(d.availability))
	copy(out, d.availability)
	return out
}

// SetAvailability replaces the driver's weekly schedule.
func (d *Driver) SetAvailability(windows []AvailabilityWindow) error {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	d.availability = windows
	return nil
}

// Approve marks the driver as operator-approved.
func (d *Driver) Approve() {
	d.approved = true
}

// CompleteApplication marks the onboarding paperwork as finished.
func (d *Driver) CompleteApplication() {
	d.applicationComplete = true
}

// EnablePayout marks the driver's payout account as ready.
func (d *Driver) EnablePayout() {
	d.payoutReady = true
}

// LinkPlatformWorker attaches the driver's account id on the dispatch
// platform.
func (d *Driver) LinkPlatformWorker(workerID string) error {
	if workerID == "" {
		return errs.NewValueIsRequiredError("platformWorkerID")
	}
	d.platformWorkerID = workerID
	return nil
}

// Activate makes the driver eligible for offers again.
func (d *Driver) Activate() {
	d.active = true
}

// Deactivate removes the driver from the candidate pool.
func (d *Driver) Deactivate() {
	d.active = false
}

// UpdateRating sets the driver's rating.
func (d *Driver) UpdateRating(rating float64) error {
	return d.setRating(rating)
}

// RecordCompletedJob bumps the lifetime completed job counter.
func (d *Driver) RecordCompletedJob() {
	d.completedJobs++
}

// IsAvailableFor reports whether the driver's schedule fully covers the
// interval [start, end) on the given date's weekday. A driver with no
// declared windows is never available.
func (d *Driver) IsAvailableFor(date time.Time, start, end int) bool {
	weekday := date.Weekday()
	for _, w := range d.availability {
		if w.Covers(weekday, start, end) {
			return true
		}
	}
	return false
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	d.name = name
	return nil
}

func (d *Driver) setPhone(phone string) error {
	if phone == "" {
		return ErrPhoneIsRequired
	}
	d.phone = phone
	return nil
}

func (d *Driver) setCapability(capability Capability) error {
	if err := capability.Validate(); err != nil {
		return err
	}
	d.capability = capability
	return nil
}

func (d *Driver) setRating(rating float64) error {
	if rating < 0 || rating > maxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, 0, maxRating)
	}
	d.rating = rating
	return nil
}
