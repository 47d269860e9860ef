package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetActiveOffersQueryIsNotConstructed = errors.New(
		"GetActiveOffersQuery must be created via NewGetActiveOffersQuery constructor",
	)
)

// GetActiveOffersQuery retrieves every offer currently out with a driver
// and still inside its validity window. Backs the dispatcher dashboard.
type GetActiveOffersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveOffersQuery creates a query for in-flight offers.
func NewGetActiveOffersQuery() GetActiveOffersQuery {
	return GetActiveOffersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOffersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOffersQueryIsNotConstructed)
}

// GetActiveOffersQueryResponse describes one in-flight offer: which route,
// which driver is holding it, and when it lapses.
type GetActiveOffersQueryResponse struct {
	RouteID    kernel.UUID
	DriverID   kernel.UUID
	Date       time.Time
	TotalStops int
	SentAt     time.Time
	ExpiresAt  time.Time
}
