package driverrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDriverRepository implements DriverRepository using GORM.
type GormDriverRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormDriverRepository creates a new GORM driver repository.
func NewGormDriverRepository(db *gorm.DB, tracker aggregateTracker) *GormDriverRepository {
	return &GormDriverRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new driver and their schedule to the database.
func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing driver. Availability windows are value rows,
// so the schedule is replaced wholesale rather than diffed.
func (r *GormDriverRepository) Update(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)

	result := r.db.WithContext(ctx).
		Model(&DriverDTO{}).
		Where("id = ?", dto.ID).
		Select("name", "phone", "platform_worker_id", "capability", "rating",
			"completed_jobs", "approved", "active", "application_complete", "payout_ready").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).
		Delete(&AvailabilityWindowDTO{}, "driver_id = ?", dto.ID).Error; err != nil {
		return err
	}

	if len(dto.Availability) > 0 {
		if err := r.db.WithContext(ctx).Create(&dto.Availability).Error; err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a driver by ID.
func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).
		Preload("Availability").
		First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByPhone retrieves a driver by phone number. Inbound SMS replies only
// carry the sender's number.
func (r *GormDriverRepository) GetByPhone(ctx context.Context, phone string) (*driver.Driver, error) {
	if phone == "" {
		return nil, errs.NewValueIsRequiredError("phone")
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).
		Preload("Availability").
		First(&dto, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", phone)
		}
		return nil, err
	}

	return toDomain(dto)
}

// FindEligible retrieves drivers who clear every eligibility gate
// (approved, active, application complete, payout-capable, registered on
// the dispatch platform, matching capability) and whose weekly schedule
// covers the query's delivery window. Drivers in the query's exclusion
// set are filtered here; commitment conflicts are the caller's concern
// since they live on routes.
func (r *GormDriverRepository) FindEligible(ctx context.Context, query ports.DriverQuery) ([]*driver.Driver, error) {
	tx := r.db.WithContext(ctx).
		Table("drivers").
		Select("DISTINCT drivers.id").
		Joins("JOIN availability_windows ON availability_windows.driver_id = drivers.id").
		Where("drivers.approved = ?", true).
		Where("drivers.active = ?", true).
		Where("drivers.application_complete = ?", true).
		Where("drivers.payout_ready = ?", true).
		Where("drivers.platform_worker_id <> ''").
		Where("drivers.capability = ?", string(query.Capability)).
		Where("availability_windows.weekday = ?", int(query.Date.Weekday())).
		Where("availability_windows.start_minute <= ? AND availability_windows.end_minute >= ?",
			query.WindowStart, query.WindowEnd)

	if len(query.ExcludedIDs) > 0 {
		excluded := make([]uuid.UUID, 0, len(query.ExcludedIDs))
		for _, id := range query.ExcludedIDs {
			excluded = append(excluded, id.Bytes())
		}
		tx = tx.Where("drivers.id NOT IN ?", excluded)
	}

	var ids []uuid.UUID
	if err := tx.Scan(&ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*driver.Driver{}, nil
	}

	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).
		Preload("Availability").
		Find(&dtos, "id IN ?", ids).Error; err != nil {
		return nil, err
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, nil
}
