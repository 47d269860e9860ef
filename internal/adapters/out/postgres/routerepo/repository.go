package routerepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRouteRepository implements RouteRepository using GORM.
//
// The cascade and settlement race on routes: the expiry sweep, inbound
// replies and completion webhooks can all touch the same row at once.
// Every state-changing method here is a single conditional UPDATE whose
// row count reports whether this caller won, so callers never need
// SELECT FOR UPDATE.
type GormRouteRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormRouteRepository creates a new GORM route repository.
func NewGormRouteRepository(db *gorm.DB, tracker aggregateTracker) *GormRouteRepository {
	return &GormRouteRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new route to the database.
func (r *GormRouteRepository) Add(ctx context.Context, aggregate *route.Route) error {
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

// Update saves an existing route unconditionally. Use the conditional
// methods below for any transition that may race.
func (r *GormRouteRepository) Update(ctx context.Context, aggregate *route.Route) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&RouteDTO{}).
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

// Get retrieves a route by ID.
func (r *GormRouteRepository) Get(ctx context.Context, id kernel.UUID) (*route.Route, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RouteDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("route", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// FindUnoffered retrieves planned routes on the given dates that have had
// no offer activity yet. Feeds the dispatch job.
func (r *GormRouteRepository) FindUnoffered(ctx context.Context, dates []time.Time) ([]*route.Route, error) {
	var dtos []RouteDTO
	if err := r.db.WithContext(ctx).
		Order("date, window_start").
		Find(&dtos, "status = ? AND offer_status = ? AND date IN ?",
			int(route.StatusOptimized), int(route.OfferUnoffered), dates).Error; err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// FindExpiredOffers retrieves routes whose outstanding offer deadline has
// passed. Feeds the expiry sweep.
func (r *GormRouteRepository) FindExpiredOffers(ctx context.Context, now time.Time) ([]*route.Route, error) {
	var dtos []RouteDTO
	if err := r.db.WithContext(ctx).
		Find(&dtos, "offer_status = ? AND offer_expires_at <= ?",
			int(route.OfferSent), now).Error; err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetSentOfferByDriverPhone finds the route whose outstanding offer is
// held by the driver with this phone number. An offer is out with at most
// one driver and a driver holds at most one live offer, so the result is
// unique. Resolves inbound SMS replies to their route.
func (r *GormRouteRepository) GetSentOfferByDriverPhone(ctx context.Context, phone string) (*route.Route, error) {
	var dto RouteDTO
	err := r.db.WithContext(ctx).
		Table("routes").
		Select("routes.*").
		Joins("JOIN drivers ON drivers.id = routes.offered_driver_id").
		Where("drivers.phone = ? AND routes.offer_status = ?", phone, int(route.OfferSent)).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("sent offer for driver phone", phone)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetEscalated retrieves all routes waiting on an operator.
func (r *GormRouteRepository) GetEscalated(ctx context.Context) ([]*route.Route, error) {
	var dtos []RouteDTO
	if err := r.db.WithContext(ctx).
		Order("date, window_start").
		Find(&dtos, "offer_status = ?", int(route.OfferEscalated)).Error; err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetActiveOffers retrieves all routes with an offer currently out.
func (r *GormRouteRepository) GetActiveOffers(ctx context.Context) ([]*route.Route, error) {
	var dtos []RouteDTO
	if err := r.db.WithContext(ctx).
		Order("offer_expires_at").
		Find(&dtos, "offer_status = ?", int(route.OfferSent)).Error; err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// FindCommittedDriverIDs returns the drivers already committed on a date:
// assigned to an active route, or holding a live offer for one. The
// cascade filters its candidates through this set so one driver is never
// double-booked for the same day.
func (r *GormRouteRepository) FindCommittedDriverIDs(ctx context.Context, date time.Time) ([]kernel.UUID, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT driver_id, offered_driver_id
		FROM routes
		WHERE date = ?
		  AND (status IN ? OR offer_status IN ?)
	`, date,
		[]int{int(route.StatusAssigned), int(route.StatusInProgress)},
		[]int{int(route.OfferSent), int(route.OfferAccepted)},
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]bool)
	ids := make([]kernel.UUID, 0)

	for rows.Next() {
		var driverID, offeredDriverID *uuid.UUID
		if err = rows.Scan(&driverID, &offeredDriverID); err != nil {
			return nil, err
		}

		for _, raw := range []*uuid.UUID{driverID, offeredDriverID} {
			if raw == nil || seen[*raw] {
				continue
			}
			seen[*raw] = true

			id, idErr := kernel.UUIDFromBytes((*raw)[:])
			if idErr != nil {
				return nil, idErr
			}
			ids = append(ids, id)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// BeginOffer claims the route for one cascade step. Only Unoffered,
// Declined and Expired routes can be claimed; the boolean reports whether
// this caller won.
func (r *GormRouteRepository) BeginOffer(ctx context.Context, id kernel.UUID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Model(&RouteDTO{}).
		Where("id = ? AND offer_status IN ?", id.Bytes(),
			[]int{int(route.OfferUnoffered), int(route.OfferDeclined), int(route.OfferExpired)}).
		Update("offer_status", int(route.OfferPending))
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// MarkOfferSent persists the aggregate's sent offer, guarded on the row
// still holding this caller's Pending claim.
func (r *GormRouteRepository) MarkOfferSent(ctx context.Context, aggregate *route.Route) (bool, error) {
	return r.conditionalSave(ctx, aggregate, "offer_status = ?", int(route.OfferPending))
}

// TransitionOfferStatus persists the aggregate, guarded on the row still
// being in the expected offer state. The expiry sweep and reply handling
// both funnel through this; exactly one of them wins per offer.
func (r *GormRouteRepository) TransitionOfferStatus(ctx context.Context, aggregate *route.Route, from route.OfferStatus) (bool, error) {
	return r.conditionalSave(ctx, aggregate, "offer_status = ?", int(from))
}

// MarkCompleted persists the aggregate's completion, guarded on the route
// still being an active commitment. The winner of this update owns the
// route's settlement.
func (r *GormRouteRepository) MarkCompleted(ctx context.Context, aggregate *route.Route) (bool, error) {
	return r.conditionalSave(ctx, aggregate, "status IN ?",
		[]int{int(route.StatusAssigned), int(route.StatusInProgress)})
}

func (r *GormRouteRepository) conditionalSave(
	ctx context.Context,
	aggregate *route.Route,
	guardQuery string,
	guardArg any,
) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&RouteDTO{}).
		Where("id = ?", dto.ID).
		Where(guardQuery, guardArg).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return false, result.Error
	}

	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return true, nil
}

func toDomainSlice(dtos []RouteDTO) ([]*route.Route, error) {
	routes := make([]*route.Route, 0, len(dtos))
	for _, dto := range dtos {
		rt, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	return routes, nil
}
