package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetEscalatedRoutesQueryHandler reads the operator work queue straight
// from the database. Uses direct SQL for optimal read performance in the
// CQRS pattern.
type GetEscalatedRoutesQueryHandler struct {
	db *gorm.DB
}

// NewGetEscalatedRoutesQueryHandler creates a handler for the escalated
// routes view. Requires a GORM database connection for query execution.
func NewGetEscalatedRoutesQueryHandler(db *gorm.DB) GetEscalatedRoutesQueryHandler {
	return GetEscalatedRoutesQueryHandler{db: db}
}

// Handle executes the query. Returns escalated routes ordered by delivery
// date so the most urgent staffing gaps come first.
func (h GetEscalatedRoutesQueryHandler) Handle(
	ctx context.Context,
	query GetEscalatedRoutesQuery,
) ([]GetEscalatedRoutesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	routes := make([]GetEscalatedRoutesQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			date,
			window_start,
			window_end,
			total_stops,
			escalation_reason
		FROM routes
		WHERE offer_status = ?
		ORDER BY date, window_start
	`, int(route.OfferEscalated)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var response GetEscalatedRoutesQueryResponse
		var id uuid.UUID
		var reason *string

		err = rows.Scan(
			&id,
			&response.Date,
			&response.WindowStart,
			&response.WindowEnd,
			&response.TotalStops,
			&reason,
		)
		if err != nil {
			return nil, err
		}

		routeID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		response.ID = routeID

		if reason != nil {
			response.Reason = *reason
		}
		routes = append(routes, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return routes, nil
}
