package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveOffersQueryHandler reads in-flight offers straight from the
// database, soonest deadline first.
type GetActiveOffersQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOffersQueryHandler creates a handler for the in-flight
// offers view.
func NewGetActiveOffersQueryHandler(db *gorm.DB) GetActiveOffersQueryHandler {
	return GetActiveOffersQueryHandler{db: db}
}

// Handle executes the query. Offers already past their deadline are
// filtered out here even if the expiry sweep has not caught them yet.
func (h GetActiveOffersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOffersQuery,
) ([]GetActiveOffersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	offers := make([]GetActiveOffersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			offered_driver_id,
			date,
			total_stops,
			offer_sent_at,
			offer_expires_at
		FROM routes
		WHERE offer_status = ?
		  AND offer_expires_at > now()
		ORDER BY offer_expires_at
	`, int(route.OfferSent)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var response GetActiveOffersQueryResponse
		var routeID, driverID uuid.UUID

		err = rows.Scan(
			&routeID,
			&driverID,
			&response.Date,
			&response.TotalStops,
			&response.SentAt,
			&response.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}

		rID, idErr := kernel.UUIDFromBytes(routeID[:])
		if idErr != nil {
			return nil, idErr
		}
		response.RouteID = rID

		dID, idErr := kernel.UUIDFromBytes(driverID[:])
		if idErr != nil {
			return nil, idErr
		}
		response.DriverID = dID

		offers = append(offers, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}
