package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/guard"
)

var ErrRunOfferCascadeCommandIsNotConstructed = errors.New(
	"RunOfferCascadeCommand must be created via NewRunOfferCascadeCommand constructor",
)

// RunOfferCascadeCommand requests one cascade step for a route: claim it,
// select the next candidate, and either send an offer or escalate.
//
// The exhaustion reason classifies what drove this step, so an escalation
// triggered by a decline reads differently to the operator than one
// triggered by an expired offer.
type RunOfferCascadeCommand struct { //nolint:recvcheck //using for validation
	routeID          kernel.UUID
	exhaustionReason route.EscalationReason

	// taskID and triggerName carry the failed-task context when the
	// cascade reassigns a route after a stop failure; the signed offer
	// token echoes them so the accepting side can tie the new offer back
	// to the event that forced it.
	taskID      *kernel.UUID
	triggerName string

	guard guard.ConstructorGuard
}

// NewRunOfferCascadeCommand creates a command for one cascade step.
func NewRunOfferCascadeCommand(routeID kernel.UUID, exhaustionReason route.EscalationReason) (RunOfferCascadeCommand, error) {
	cmd := RunOfferCascadeCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setRouteID(routeID),
		cmd.setExhaustionReason(exhaustionReason),
	); err != nil {
		return RunOfferCascadeCommand{}, err
	}

	return cmd, nil
}

// NewRunOfferCascadeCommandForTask creates a cascade step command carrying
// the failed task that triggered the reassignment.
func NewRunOfferCascadeCommandForTask(
	routeID kernel.UUID,
	exhaustionReason route.EscalationReason,
	taskID kernel.UUID,
	triggerName string,
) (RunOfferCascadeCommand, error) {
	cmd, err := NewRunOfferCascadeCommand(routeID, exhaustionReason)
	if err != nil {
		return RunOfferCascadeCommand{}, err
	}

	if err = taskID.Validate(); err != nil {
		return RunOfferCascadeCommand{}, err
	}

	cmd.taskID = &taskID
	cmd.triggerName = triggerName
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RunOfferCascadeCommand) Validate() error {
	return c.guard.Validate(ErrRunOfferCascadeCommandIsNotConstructed)
}

// RouteID returns the route to run the cascade for.
func (c RunOfferCascadeCommand) RouteID() kernel.UUID {
	return c.routeID
}

// ExhaustionReason returns the escalation reason to record when the
// candidate pool turns out to be empty.
func (c RunOfferCascadeCommand) ExhaustionReason() route.EscalationReason {
	return c.exhaustionReason
}

// TaskID returns the failed task that triggered this reassignment step,
// or nil for a fresh dispatch or expiry sweep.
func (c RunOfferCascadeCommand) TaskID() *kernel.UUID {
	return c.taskID
}

// TriggerName returns the webhook trigger behind this step, or "".
func (c RunOfferCascadeCommand) TriggerName() string {
	return c.triggerName
}

func (c *RunOfferCascadeCommand) setRouteID(routeID kernel.UUID) error {
	if err := routeID.Validate(); err != nil {
		return err
	}

	c.routeID = routeID
	return nil
}

func (c *RunOfferCascadeCommand) setExhaustionReason(reason route.EscalationReason) error {
	if err := reason.Validate(); err != nil {
		return err
	}

	c.exhaustionReason = reason
	return nil
}
