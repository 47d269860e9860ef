// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetEscalatedRoutesQueryIsNotConstructed = errors.New(
		"GetEscalatedRoutesQuery must be created via NewGetEscalatedRoutesQuery constructor",
	)
)

// GetEscalatedRoutesQuery retrieves routes whose offer cascade exhausted
// its candidate pool and now waits on an operator.
//
// Example:
//
//	query := NewGetEscalatedRoutesQuery()
//	handler := NewGetEscalatedRoutesQueryHandler(db)
//
//	escalated, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve escalated routes: %w", err)
//	}
//
//	for _, r := range escalated {
//	    fmt.Printf("Route %s (%d stops) escalated: %s\n", r.ID, r.TotalStops, r.Reason)
//	}
type GetEscalatedRoutesQuery struct {
	guard guard.ConstructorGuard
}

// NewGetEscalatedRoutesQuery creates a query for the operator work queue.
// This is a parameterless query that fetches every escalated route.
func NewGetEscalatedRoutesQuery() GetEscalatedRoutesQuery {
	return GetEscalatedRoutesQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetEscalatedRoutesQueryIsNotConstructed if validation fails.
func (q GetEscalatedRoutesQuery) Validate() error {
	return q.guard.Validate(ErrGetEscalatedRoutesQueryIsNotConstructed)
}

// GetEscalatedRoutesQueryResponse is one row of the operator work queue.
// Carries enough context to staff the route manually without loading the
// full aggregate.
type GetEscalatedRoutesQueryResponse struct {
	ID          kernel.UUID
	Date        time.Time
	WindowStart int
	WindowEnd   int
	TotalStops  int
	Reason      string
}
