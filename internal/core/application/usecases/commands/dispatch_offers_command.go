package commands

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var (
	ErrDispatchOffersCommandIsNotConstructed = errors.New(
		"DispatchOffersCommand must be created via NewDispatchOffersCommand constructor",
	)
	ErrDatesAreRequired = errors.New("at least one target date is required")
)

// DispatchOffersCommand requests the opening move of the cascade for every
// optimized route on the target dates that has seen no offer activity yet.
type DispatchOffersCommand struct { //nolint:recvcheck //using for validation
	dates []time.Time

	guard guard.ConstructorGuard
}

// NewDispatchOffersCommand creates a dispatch command for the given dates.
func NewDispatchOffersCommand(dates []time.Time) (DispatchOffersCommand, error) {
	cmd := DispatchOffersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setDates(dates); err != nil {
		return DispatchOffersCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c DispatchOffersCommand) Validate() error {
	return c.guard.Validate(ErrDispatchOffersCommandIsNotConstructed)
}

// Dates returns the target delivery dates.
func (c DispatchOffersCommand) Dates() []time.Time {
	out := make([]time.Time, len(c.dates))
	copy(out, c.dates)
	return out
}

func (c *DispatchOffersCommand) setDates(dates []time.Time) error {
	if len(dates) == 0 {
		return ErrDatesAreRequired
	}
	for _, d := range dates {
		if d.IsZero() {
			return ErrDatesAreRequired
		}
	}

	c.dates = dates
	return nil
}
