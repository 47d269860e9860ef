// Package task implements the dispatch task aggregate: the atomic unit of
// work tracked by the external dispatch platform, one per stop or per
// appointment step. The task is where webhook idempotency is anchored:
// completion evidence is written at most once, and replayed events are
// detected by comparing the incoming trigger against already persisted
// state.
package task

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrTaskIsNotConstructed is returned when a Task instance was not
	// created through the NewTask or RestoreTask factory methods.
	ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask constructor")

	// ErrProviderTaskIDIsRequired is returned when a task is created
	// without the platform's task identifier.
	ErrProviderTaskIDIsRequired = errs.NewValueIsRequiredError("provider task id")

	// ErrShortIDIsRequired is returned when a task is created without the
	// platform's short identifier, the key webhook events arrive under.
	ErrShortIDIsRequired = errs.NewValueIsRequiredError("short id")

	// ErrTaskAlreadyCompleted signals a replayed "completed" event.
	// Callers treat it as an idempotency short-circuit: success with no
	// further side effects.
	ErrTaskAlreadyCompleted = errors.New("task completion already recorded")

	// ErrTaskAlreadyFailed signals a replayed "failed" event.
	ErrTaskAlreadyFailed = errors.New("task failure already recorded")

	// ErrStaleWebhookTime signals a replayed or out-of-order "started"
	// event whose timestamp does not advance the recorded one.
	ErrStaleWebhookTime = errors.New("webhook time does not advance recorded time")
)

// Task represents one unit of dispatch work the platform tracks.
// It belongs to either an order (a route stop) or an appointment step.
//
// Invariants:
//   - At most one completion photo set and completion timestamp, ever
//   - The last-seen webhook time only advances
//   - A failed flag, once set, stays set
type Task struct {
	id kernel.UUID

	// providerTaskID is the platform's long task identifier
	providerTaskID string

	// shortID is the platform's short identifier; webhook events reference
	// tasks by it
	shortID string

	// orderID is the owning order for route stops (nil for appointment steps)
	orderID *kernel.UUID

	// appointmentID is the owning appointment for multi-step flows
	appointmentID *kernel.UUID

	// stepNumber orders the steps of a multi-step appointment flow
	stepNumber int

	driverID *kernel.UUID

	verified bool

	photoURL     *string
	photoGallery []string
	completedAt  *time.Time

	// webhookTime is the last-seen "started" webhook timestamp
	webhookTime *time.Time

	failed bool

	isConstructed bool
}

// NewTask creates a Task for a route stop or an appointment step.
// Exactly one of orderID and appointmentID is expected to be set by the
// caller; the aggregate does not force it because the platform also
// creates orphan tasks that get linked later.
func NewTask(id kernel.UUID, providerTaskID, shortID string, orderID, appointmentID *kernel.UUID, stepNumber int) (*Task, error) {
	t := &Task{
		isConstructed: true,
	}

	if err := errors.Join(
		t.setID(id),
		t.setProviderTaskID(providerTaskID),
		t.setShortID(shortID),
	); err != nil {
		return nil, err
	}

	t.orderID = orderID
	t.appointmentID = appointmentID
	t.stepNumber = stepNumber
	return t, nil
}

// RestoreTask reconstructs a Task aggregate from persistent storage.
func RestoreTask(
	id kernel.UUID,
	providerTaskID, shortID string,
	orderID, appointmentID *kernel.UUID,
	stepNumber int,
	driverID *kernel.UUID,
	verified bool,
	photoURL *string,
	photoGallery []string,
	completedAt *time.Time,
	webhookTime *time.Time,
	failed bool,
) (*Task, error) {
	t := &Task{
		isConstructed: true,
	}

	if err := errors.Join(
		t.setID(id),
		t.setProviderTaskID(providerTaskID),
		t.setShortID(shortID),
	); err != nil {
		return nil, err
	}

	t.orderID = orderID
	t.appointmentID = appointmentID
	t.stepNumber = stepNumber
	t.driverID = driverID
	t.verified = verified
	t.photoURL = photoURL
	t.photoGallery = photoGallery
	t.completedAt = completedAt
	t.webhookTime = webhookTime
	t.failed = failed
	return t, nil
}

// Validate ensures the Task instance was properly constructed.
func (t *Task) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTaskIsNotConstructed
	}
	return nil
}

// ID returns the task's unique identifier.
func (t *Task) ID() kernel.UUID {
	return t.id
}

// ProviderTaskID returns the platform's long task identifier.
func (t *Task) ProviderTaskID() string {
	return t.providerTaskID
}

// ShortID returns the platform's short identifier.
func (t *Task) ShortID() string {
	return t.shortID
}

// OrderID returns the owning order, or nil for appointment steps.
func (t *Task) OrderID() *kernel.UUID {
	return t.orderID
}

// AppointmentID returns the owning appointment, or nil for route stops.
func (t *Task) AppointmentID() *kernel.UUID {
	return t.appointmentID
}

// StepNumber returns the task's position in a multi-step appointment flow.
func (t *Task) StepNumber() int {
	return t.stepNumber
}

// DriverID returns the assigned worker, or nil.
func (t *Task) DriverID() *kernel.UUID {
	return t.driverID
}

// Verified reports whether the task passed completion verification.
func (t *Task) Verified() bool {
	return t.verified
}

// PhotoURL returns the primary completion photo, or nil.
func (t *Task) PhotoURL() *string {
	return t.photoURL
}

// PhotoGallery returns the full ordered list of completion photo URLs.
func (t *Task) PhotoGallery() []string {
	out := make([]string, len(t.photoGallery))
	copy(out, t.photoGallery)
	return out
}

// CompletedAt returns the completion instant, or nil while incomplete.
func (t *Task) CompletedAt() *time.Time {
	return t.completedAt
}

// WebhookTime returns the last-seen "started" webhook timestamp, or nil.
func (t *Task) WebhookTime() *time.Time {
	return t.webhookTime
}

// Failed reports whether the task was marked failed by the platform.
func (t *Task) Failed() bool {
	return t.failed
}

// IsCompleted reports whether completion evidence has been recorded.
func (t *Task) IsCompleted() bool {
	return t.completedAt != nil
}

// AssignDriver records the worker responsible for this task.
func (t *Task) AssignDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	t.driverID = &driverID
	return nil
}

// RecordWebhookTime records a "started" trigger timestamp.
// Returns ErrStaleWebhookTime when the timestamp does not advance the
// recorded one, so a replayed event is detectable without extra state.
func (t *Task) RecordWebhookTime(at time.Time) error {
	if t.webhookTime != nil && !at.After(*t.webhookTime) {
		return ErrStaleWebhookTime
	}
	t.webhookTime = &at
	return nil
}

// Complete records completion evidence exactly once.
// A second completion, replayed or duplicated by the platform, returns
// ErrTaskAlreadyCompleted and leaves the recorded evidence untouched.
func (t *Task) Complete(at time.Time, photoURL *string, photoGallery []string) error {
	if t.IsCompleted() {
		return ErrTaskAlreadyCompleted
	}

	completedAt := at
	t.completedAt = &completedAt
	t.photoURL = photoURL
	t.photoGallery = photoGallery
	return nil
}

// MarkFailed records a "failed" trigger. Repeats are replays.
func (t *Task) MarkFailed() error {
	if t.failed {
		return ErrTaskAlreadyFailed
	}
	t.failed = true
	return nil
}

// MarkVerified flags the task's completion as verified.
func (t *Task) MarkVerified() {
	t.verified = true
}

func (t *Task) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Task) setProviderTaskID(providerTaskID string) error {
	if providerTaskID == "" {
		return ErrProviderTaskIDIsRequired
	}
	t.providerTaskID = providerTaskID
	return nil
}

func (t *Task) setShortID(shortID string) error {
	if shortID == "" {
		return ErrShortIDIsRequired
	}
	t.shortID = shortID
	return nil
}
