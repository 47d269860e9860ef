// Package taskrepo provides data transfer objects and mapping functions
// for task persistence. Tasks mirror the delivery platform's dispatch
// units; the short ID column is how inbound webhooks find their row.
package taskrepo

import (
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO represents the database structure for persisting task aggregates.
type TaskDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProviderTaskID string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	ShortID        string     `gorm:"type:varchar(16);not null;index"`
	OrderID        *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentID  *uuid.UUID `gorm:"type:uuid;index"`
	StepNumber     int        `gorm:"type:int;not null"`
	DriverID       *uuid.UUID `gorm:"type:uuid"`
	Verified       bool       `gorm:"not null"`
	PhotoURL       *string    `gorm:"type:text"`
	PhotoGallery   string     `gorm:"type:text"`
	CompletedAt    *time.Time
	WebhookTime    *time.Time
	Failed         bool `gorm:"not null"`
}

// TableName specifies the database table name for task entities.
func (TaskDTO) TableName() string {
	return "tasks"
}

func fromDomain(aggregate *task.Task) TaskDTO {
	return TaskDTO{
		ID:             aggregate.ID().Bytes(),
		ProviderTaskID: aggregate.ProviderTaskID(),
		ShortID:        aggregate.ShortID(),
		OrderID:        optionalUUID(aggregate.OrderID()),
		AppointmentID:  optionalUUID(aggregate.AppointmentID()),
		StepNumber:     aggregate.StepNumber(),
		DriverID:       optionalUUID(aggregate.DriverID()),
		Verified:       aggregate.Verified(),
		PhotoURL:       aggregate.PhotoURL(),
		PhotoGallery:   strings.Join(aggregate.PhotoGallery(), "\n"),
		CompletedAt:    aggregate.CompletedAt(),
		WebhookTime:    aggregate.WebhookTime(),
		Failed:         aggregate.Failed(),
	}
}

func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	orderID, err := optionalKernelUUID(dto.OrderID)
	if err != nil {
		return nil, err
	}

	appointmentID, err := optionalKernelUUID(dto.AppointmentID)
	if err != nil {
		return nil, err
	}

	driverID, err := optionalKernelUUID(dto.DriverID)
	if err != nil {
		return nil, err
	}

	var gallery []string
	if dto.PhotoGallery != "" {
		gallery = strings.Split(dto.PhotoGallery, "\n")
	}

	return task.RestoreTask(
		id,
		dto.ProviderTaskID,
		dto.ShortID,
		orderID,
		appointmentID,
		dto.StepNumber,
		driverID,
		dto.Verified,
		dto.PhotoURL,
		gallery,
		dto.CompletedAt,
		dto.WebhookTime,
		dto.Failed,
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
