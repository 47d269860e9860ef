// Package ports defines repository and gateway interfaces for the dispatch
// domain. These interfaces establish contracts between the domain layer and
// infrastructure, enabling dependency inversion and testability.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByRoute retrieves every order that belongs to the given route.
	// Used by the settlement coordinator to check sibling completion and
	// by offer acceptance to stamp the driver onto member orders.
	GetByRoute(ctx context.Context, routeID kernel.UUID) ([]*order.Order, error)

	// AssignDriverByRoute stamps the driver onto all orders of a route in
	// one statement. Used when an offer is accepted.
	AssignDriverByRoute(ctx context.Context, routeID, driverID kernel.UUID) error

	// BeginPayout atomically claims a standalone order for settlement by
	// moving its payout status from none to processing. Returns false
	// without error when another caller already holds or finished the
	// claim, which makes settlement exactly-once under concurrent
	// completion events.
	BeginPayout(ctx context.Context, id kernel.UUID) (bool, error)
}
