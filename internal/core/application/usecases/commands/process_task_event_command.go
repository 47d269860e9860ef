package commands

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

// EventTrigger is a canonical webhook trigger applied by the task state
// updater. Values match the normalized trigger names produced by the
// inbound platform adapter.
type EventTrigger string

const (
	EventStarted   EventTrigger = "started"
	EventArrival   EventTrigger = "arrival"
	EventCompleted EventTrigger = "completed"
	EventFailed    EventTrigger = "failed"
)

// Validate checks the trigger is one of the canonical values.
func (t EventTrigger) Validate() error {
	switch t {
	case EventStarted, EventArrival, EventCompleted, EventFailed:
		return nil
	default:
		return ErrTriggerIsInvalid
	}
}

var (
	ErrProcessTaskEventCommandIsNotConstructed = errors.New(
		"ProcessTaskEventCommand must be created via NewProcessTaskEventCommand constructor",
	)
	ErrTaskShortIDIsRequired = errors.New("task short id is required")
	ErrTriggerIsInvalid      = errors.New("trigger is not a known webhook trigger")
	ErrEventTimeIsRequired   = errors.New("event time is required")
)

// ProcessTaskEventCommand represents one normalized webhook event to apply
// to the task it concerns and the order the task belongs to.
//
// Optional fields mirror the normalizer's output: completion evidence is
// present only on completed triggers, and drive metrics may be nil even
// then.
type ProcessTaskEventCommand struct { //nolint:recvcheck //using for validation
	taskShortID string
	trigger     EventTrigger
	eventTime   time.Time

	photoURL           *string
	photoGallery       []string
	workerName         *string
	driveDistanceMiles *float64
	driveTimeMinutes   *float64

	guard guard.ConstructorGuard
}

// NewProcessTaskEventCommand creates a command carrying one webhook event.
// Validates the task reference, trigger, and timestamp; the rest is
// optional by contract.
func NewProcessTaskEventCommand(
	taskShortID string,
	trigger EventTrigger,
	eventTime time.Time,
	photoURL *string,
	photoGallery []string,
	workerName *string,
	driveDistanceMiles *float64,
	driveTimeMinutes *float64,
) (ProcessTaskEventCommand, error) {
	cmd := ProcessTaskEventCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setTaskShortID(taskShortID),
		cmd.setTrigger(trigger),
		cmd.setEventTime(eventTime),
	); err != nil {
		return ProcessTaskEventCommand{}, err
	}

	cmd.photoURL = photoURL
	cmd.photoGallery = photoGallery
	cmd.workerName = workerName
	cmd.driveDistanceMiles = driveDistanceMiles
	cmd.driveTimeMinutes = driveTimeMinutes
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ProcessTaskEventCommand) Validate() error {
	return c.guard.Validate(ErrProcessTaskEventCommandIsNotConstructed)
}

// TaskShortID returns the platform short id of the task the event concerns.
func (c ProcessTaskEventCommand) TaskShortID() string {
	return c.taskShortID
}

// Trigger returns the canonical trigger.
func (c ProcessTaskEventCommand) Trigger() EventTrigger {
	return c.trigger
}

// EventTime returns the normalized event timestamp.
func (c ProcessTaskEventCommand) EventTime() time.Time {
	return c.eventTime
}

// PhotoURL returns the primary completion photo, or nil.
func (c ProcessTaskEventCommand) PhotoURL() *string {
	return c.photoURL
}

// PhotoGallery returns the ordered completion photo list.
func (c ProcessTaskEventCommand) PhotoGallery() []string {
	return c.photoGallery
}

// WorkerName returns the worker-supplied display name, or nil.
func (c ProcessTaskEventCommand) WorkerName() *string {
	return c.workerName
}

// DriveDistanceMiles returns the measured drive distance, or nil.
func (c ProcessTaskEventCommand) DriveDistanceMiles() *float64 {
	return c.driveDistanceMiles
}

// DriveTimeMinutes returns the measured drive time, or nil.
func (c ProcessTaskEventCommand) DriveTimeMinutes() *float64 {
	return c.driveTimeMinutes
}

func (c *ProcessTaskEventCommand) setTaskShortID(taskShortID string) error {
	if taskShortID == "" {
		return ErrTaskShortIDIsRequired
	}

	c.taskShortID = taskShortID
	return nil
}

func (c *ProcessTaskEventCommand) setTrigger(trigger EventTrigger) error {
	if err := trigger.Validate(); err != nil {
		return err
	}

	c.trigger = trigger
	return nil
}

func (c *ProcessTaskEventCommand) setEventTime(eventTime time.Time) error {
	if eventTime.IsZero() {
		return ErrEventTimeIsRequired
	}

	c.eventTime = eventTime
	return nil
}
