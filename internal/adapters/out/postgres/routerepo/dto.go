// Package routerepo provides data transfer objects and mapping functions for route persistence.
// This package implements the repository pattern for the route domain aggregate, including
// the conditional single-row updates that serialize the offer cascade and route settlement.
package routerepo

import (
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/payout"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
)

// RouteDTO represents the database structure for persisting route aggregates.
// offer_status and offer_expires_at are indexed for the cascade claim and
// the expiry sweep; date is indexed for the commitment query.
type RouteDTO struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Date              time.Time  `gorm:"not null;index"`
	WindowStart       int        `gorm:"type:int;not null"`
	WindowEnd         int        `gorm:"type:int;not null"`
	TotalStops        int        `gorm:"type:int;not null"`
	CompletedStops    int        `gorm:"type:int;not null"`
	Status            int        `gorm:"type:int;not null;index"`
	OfferStatus       int        `gorm:"type:int;not null;index"`
	DriverID          *uuid.UUID `gorm:"type:uuid;index"`
	OfferedDriverID   *uuid.UUID `gorm:"type:uuid"`
	OfferToken        *string    `gorm:"type:text"`
	OfferSentAt       *time.Time
	OfferExpiresAt    *time.Time `gorm:"index"`
	ExcludedDriverIDs string     `gorm:"type:text"`
	EscalationReason  *string    `gorm:"type:varchar(64)"`
	DistanceMiles     *float64
	DurationMinutes   *float64
	PayoutAmount      *float64
	PayoutStatus      int `gorm:"type:int;not null"`
}

// TableName specifies the database table name for route entities.
// Overrides GORM's default naming convention to use "routes".
func (RouteDTO) TableName() string {
	return "routes"
}

// fromDomain converts a route domain aggregate to its database representation.
func fromDomain(aggregate *route.Route) RouteDTO {
	var reason *string
	if r := aggregate.EscalationReason(); r != nil {
		raw := string(*r)
		reason = &raw
	}

	return RouteDTO{
		ID:                aggregate.ID().Bytes(),
		Date:              aggregate.Date(),
		WindowStart:       aggregate.WindowStart(),
		WindowEnd:         aggregate.WindowEnd(),
		TotalStops:        aggregate.TotalStops(),
		CompletedStops:    aggregate.CompletedStops(),
		Status:            int(aggregate.Status()),
		OfferStatus:       int(aggregate.OfferStatus()),
		DriverID:          optionalUUID(aggregate.DriverID()),
		OfferedDriverID:   optionalUUID(aggregate.OfferedDriverID()),
		OfferToken:        aggregate.OfferToken(),
		OfferSentAt:       aggregate.OfferSentAt(),
		OfferExpiresAt:    aggregate.OfferExpiresAt(),
		ExcludedDriverIDs: joinIDs(aggregate.ExcludedDriverIDs()),
		EscalationReason:  reason,
		DistanceMiles:     aggregate.DistanceMiles(),
		DurationMinutes:   aggregate.DurationMinutes(),
		PayoutAmount:      aggregate.PayoutAmount(),
		PayoutStatus:      int(aggregate.PayoutStatus()),
	}
}

// toDomain converts a database DTO to a route domain aggregate.
// Reconstructs the complete aggregate including offer state using RestoreRoute.
func toDomain(dto RouteDTO) (*route.Route, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	driverID, err := optionalKernelUUID(dto.DriverID)
	if err != nil {
		return nil, err
	}

	offeredDriverID, err := optionalKernelUUID(dto.OfferedDriverID)
	if err != nil {
		return nil, err
	}

	excluded, err := splitIDs(dto.ExcludedDriverIDs)
	if err != nil {
		return nil, err
	}

	var reason *route.EscalationReason
	if dto.EscalationReason != nil {
		converted := route.EscalationReason(*dto.EscalationReason)
		reason = &converted
	}

	return route.RestoreRoute(
		id,
		dto.Date,
		dto.WindowStart,
		dto.WindowEnd,
		dto.TotalStops,
		dto.CompletedStops,
		route.Status(dto.Status),
		route.OfferStatus(dto.OfferStatus),
		driverID,
		offeredDriverID,
		dto.OfferToken,
		dto.OfferSentAt,
		dto.OfferExpiresAt,
		excluded,
		reason,
		dto.DistanceMiles,
		dto.DurationMinutes,
		dto.PayoutAmount,
		payout.Status(dto.PayoutStatus),
	)
}

func optionalUUID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func optionalKernelUUID(id *uuid.UUID) (*kernel.UUID, error) {
	if id == nil {
		return nil, nil
	}
	converted, err := kernel.UUIDFromBytes((*id)[:])
	if err != nil {
		return nil, err
	}
	return &converted, nil
}

// joinIDs flattens the exclusion set into a comma-separated column. The
// set is only ever scanned as a whole, never queried by member.
func joinIDs(ids []kernel.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

func splitIDs(raw string) ([]kernel.UUID, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]kernel.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := kernel.UUIDFromString(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
