package orderrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/payout"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
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

// Update saves an existing order to the database. Writes every column so
// cleared optional fields are not silently kept.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByRoute retrieves all member orders of a route, in window order.
func (r *GormOrderRepository) GetByRoute(ctx context.Context, routeID kernel.UUID) ([]*order.Order, error) {
	if err := routeID.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Order("window_start").
		Find(&dtos, "route_id = ?", routeID.Bytes()).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// AssignDriverByRoute stamps the accepted driver onto every non-terminal
// member order of the route in one statement.
func (r *GormOrderRepository) AssignDriverByRoute(ctx context.Context, routeID, driverID kernel.UUID) error {
	if err := errors.Join(routeID.Validate(), driverID.Validate()); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("route_id = ? AND status NOT IN ?", routeID.Bytes(),
			[]int{int(order.Delivered), int(order.Failed), int(order.Cancelled)}).
		Update("driver_id", driverID.Bytes()).Error
}

// BeginPayout claims the standalone settlement for an order. The
// None -> Processing conditional update admits exactly one caller; the
// boolean reports whether this caller won the claim.
func (r *GormOrderRepository) BeginPayout(ctx context.Context, id kernel.UUID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND payout_status = ?", id.Bytes(), int(payout.None)).
		Update("payout_status", int(payout.Processing))
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
