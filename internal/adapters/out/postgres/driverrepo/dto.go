// Package driverrepo provides data transfer objects and mapping functions for driver persistence.
// This package implements the repository pattern for the driver domain aggregate, handling
// the conversion between domain entities and database representations.
package driverrepo

import (
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DriverDTO represents the database structure for persisting driver aggregates.
// Availability windows live in their own table with a foreign key back to
// the driver, mirroring the aggregate's one-to-many shape.
type DriverDTO struct {
	ID                  uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Name                string                  `gorm:"type:varchar(255);not null"`
	Phone               string                  `gorm:"type:varchar(32);not null;uniqueIndex"`
	PlatformWorkerID    string                  `gorm:"type:varchar(64);not null;default:''"`
	Capability          string                  `gorm:"type:varchar(32);not null;index"`
	Rating              float64                 `gorm:"not null"`
	CompletedJobs       int                     `gorm:"type:int;not null"`
	Approved            bool                    `gorm:"not null;index"`
	Active              bool                    `gorm:"not null;index"`
	ApplicationComplete bool                    `gorm:"not null"`
	PayoutReady         bool                    `gorm:"not null"`
	Availability        []AvailabilityWindowDTO `gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for driver entities.
// Overrides GORM's default naming convention to use "drivers".
func (DriverDTO) TableName() string {
	return "drivers"
}

// AvailabilityWindowDTO represents one recurring weekly working window.
// Windows are value objects; rows are replaced wholesale on update.
type AvailabilityWindowDTO struct {
	ID          uint      `gorm:"primaryKey"`
	DriverID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Weekday     int       `gorm:"type:int;not null"`
	StartMinute int       `gorm:"type:int;not null"`
	EndMinute   int       `gorm:"type:int;not null"`
}

// TableName specifies the database table name for availability windows.
func (AvailabilityWindowDTO) TableName() string {
	return "availability_windows"
}

// fromDomain converts a driver domain aggregate to its database representation.
func fromDomain(aggregate *driver.Driver) DriverDTO {
	driverID := aggregate.ID().Bytes()
	windows := make([]AvailabilityWindowDTO, 0, len(aggregate.Availability()))
	for _, w := range aggregate.Availability() {
		windows = append(windows, AvailabilityWindowDTO{
			DriverID:    driverID,
			Weekday:     int(w.Weekday),
			StartMinute: w.Start,
			EndMinute:   w.End,
		})
	}

	return DriverDTO{
		ID:                  driverID,
		Name:                aggregate.Name(),
		Phone:               aggregate.Phone(),
		PlatformWorkerID:    aggregate.PlatformWorkerID(),
		Capability:          string(aggregate.Capability()),
		Rating:              aggregate.Rating(),
		CompletedJobs:       aggregate.CompletedJobs(),
		Approved:            aggregate.IsApproved(),
		Active:              aggregate.IsActive(),
		ApplicationComplete: aggregate.IsApplicationComplete(),
		PayoutReady:         aggregate.IsPayoutReady(),
		Availability:        windows,
	}
}

// toDomain converts a database DTO to a driver domain aggregate.
// Reconstructs the complete aggregate including its schedule using RestoreDriver.
func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	windows := make([]driver.AvailabilityWindow, 0, len(dto.Availability))
	for _, w := range dto.Availability {
		windows = append(windows, driver.AvailabilityWindow{
			Weekday: time.Weekday(w.Weekday),
			Start:   w.StartMinute,
			End:     w.EndMinute,
		})
	}

	return driver.RestoreDriver(
		id,
		dto.Name,
		dto.Phone,
		dto.PlatformWorkerID,
		driver.Capability(dto.Capability),
		dto.Rating,
		dto.CompletedJobs,
		dto.Approved,
		dto.Active,
		dto.ApplicationComplete,
		dto.PayoutReady,
		windows,
	)
}
