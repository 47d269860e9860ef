package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSettleCompletedWorkCommandIsNotConstructed = errors.New(
	"SettleCompletedWorkCommand must be created via NewSettleCompletedWorkCommand constructor",
)

// SettleCompletedWorkCommand asks the settlement coordinator to look at a
// just-delivered order: notify the customer, and when the delivery closed
// out a route (or was standalone) trigger the payout exactly once.
type SettleCompletedWorkCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	// driverName is the display name to use for the driver in the
	// customer's completion message; "" leaves the driver unnamed
	driverName string

	guard guard.ConstructorGuard
}

// NewSettleCompletedWorkCommand creates a settlement command for an order.
func NewSettleCompletedWorkCommand(orderID kernel.UUID, driverName string) (SettleCompletedWorkCommand, error) {
	cmd := SettleCompletedWorkCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return SettleCompletedWorkCommand{}, err
	}

	cmd.driverName = driverName
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c SettleCompletedWorkCommand) Validate() error {
	return c.guard.Validate(ErrSettleCompletedWorkCommandIsNotConstructed)
}

// OrderID returns the delivered order to settle around.
func (c SettleCompletedWorkCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverName returns the driver display name for the customer's
// completion message, or "".
func (c SettleCompletedWorkCommand) DriverName() string {
	return c.driverName
}

func (c *SettleCompletedWorkCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}
