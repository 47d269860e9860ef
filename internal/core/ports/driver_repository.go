package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// DriverQuery is a typed specification for candidate lookup. It captures
// the storage-level eligibility filters; in-memory filters (exclusion,
// commitments, ranking) stay in the domain selector.
type DriverQuery struct {
	// Date is the route's calendar day; the weekday drives schedule matching.
	Date time.Time

	// WindowStart and WindowEnd bound the route's operating window in
	// minutes from midnight. A candidate's schedule must fully cover it.
	WindowStart int
	WindowEnd   int

	// ExcludedIDs removes already-tried drivers at the query level.
	ExcludedIDs []kernel.UUID

	// Capability restricts candidates to drivers onboarded for the given
	// kind of work.
	Capability driver.Capability
}

// DriverRepository defines the persistence contract for driver aggregates.
type DriverRepository interface {
	// Add persists a new driver aggregate to storage.
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update persists changes to an existing driver aggregate.
	Update(ctx context.Context, aggregate *driver.Driver) error

	// Get retrieves a driver aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// GetByPhone retrieves a driver by SMS phone number.
	GetByPhone(ctx context.Context, phone string) (*driver.Driver, error)

	// FindEligible retrieves offer-eligible drivers matching the query:
	// approved, active, application complete, payout-capable, registered
	// on the dispatch platform, and carrying the requested capability.
	// Results still go through the domain selector for ranking and
	// commitment filtering.
	FindEligible(ctx context.Context, query DriverQuery) ([]*driver.Driver, error)
}
