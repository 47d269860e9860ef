// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/payout"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Indexed by status, route and driver for the settlement and dispatch queries.
type OrderDTO struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerPhone      string     `gorm:"type:varchar(32);not null"`
	WindowStart        time.Time  `gorm:"not null"`
	WindowEnd          time.Time  `gorm:"not null"`
	Status             int        `gorm:"type:int;not null;index"`
	RouteID            *uuid.UUID `gorm:"type:uuid;index"`
	DriverID           *uuid.UUID `gorm:"type:uuid;index"`
	PhotoURL           *string    `gorm:"type:text"`
	PhotoGallery       string     `gorm:"type:text"`
	DeliveredAt        *time.Time
	DriveDistanceMiles *float64
	DriveTimeMinutes   *float64
	PayoutAmount       *float64
	PayoutStatus       int `gorm:"type:int;not null"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	return OrderDTO{
		ID:                 aggregate.ID().Bytes(),
		CustomerPhone:      aggregate.CustomerPhone(),
		WindowStart:        aggregate.WindowStart(),
		WindowEnd:          aggregate.WindowEnd(),
		Status:             int(aggregate.Status()),
		RouteID:            optionalUUID(aggregate.RouteID()),
		DriverID:           optionalUUID(aggregate.DriverID()),
		PhotoURL:           aggregate.PhotoURL(),
		PhotoGallery:       joinGallery(aggregate.PhotoGallery()),
		DeliveredAt:        aggregate.DeliveredAt(),
		DriveDistanceMiles: aggregate.DriveDistanceMiles(),
		DriveTimeMinutes:   aggregate.DriveTimeMinutes(),
		PayoutAmount:       aggregate.PayoutAmount(),
		PayoutStatus:       int(aggregate.PayoutStatus()),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including settlement state using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	routeID, err := optionalKernelUUID(dto.RouteID)
	if err != nil {
		return nil, err
	}

	driverID, err := optionalKernelUUID(dto.DriverID)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id,
		dto.CustomerPhone,
		dto.WindowStart,
		dto.WindowEnd,
		order.Status(dto.Status),
		routeID,
		driverID,
		dto.PhotoURL,
		splitGallery(dto.PhotoGallery),
		dto.DeliveredAt,
		dto.DriveDistanceMiles,
		dto.DriveTimeMinutes,
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

func joinGallery(urls []string) string {
	return strings.Join(urls, "\n")
}

func splitGallery(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}
