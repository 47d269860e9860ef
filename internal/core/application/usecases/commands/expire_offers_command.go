package commands

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var (
	ErrExpireOffersCommandIsNotConstructed = errors.New(
		"ExpireOffersCommand must be created via NewExpireOffersCommand constructor",
	)
	ErrNowIsRequired = errors.New("sweep time is required")
)

// ExpireOffersCommand requests one pass of the lazy offer expiry sweep.
// Expiry is a data-level deadline, not a live timer: nothing happens to a
// lapsed offer until this sweep, or an inbound reply, looks at the clock.
type ExpireOffersCommand struct { //nolint:recvcheck //using for validation
	now time.Time

	guard guard.ConstructorGuard
}

// NewExpireOffersCommand creates a sweep command for the given instant.
func NewExpireOffersCommand(now time.Time) (ExpireOffersCommand, error) {
	cmd := ExpireOffersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setNow(now); err != nil {
		return ExpireOffersCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ExpireOffersCommand) Validate() error {
	return c.guard.Validate(ErrExpireOffersCommandIsNotConstructed)
}

// Now returns the instant offers are measured against.
func (c ExpireOffersCommand) Now() time.Time {
	return c.now
}

func (c *ExpireOffersCommand) setNow(now time.Time) error {
	if now.IsZero() {
		return ErrNowIsRequired
	}

	c.now = now
	return nil
}
