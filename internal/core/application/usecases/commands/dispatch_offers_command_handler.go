package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// DispatchOffersCommandHandler finds routes awaiting their first offer.
// It only reads; the caller runs a cascade step per returned route, which
// is where the claim-and-offer work actually happens.
type DispatchOffersCommandHandler struct {
	uowFactory RouteUoWFactory
}

// NewDispatchOffersCommandHandler creates a handler for offer dispatch runs.
func NewDispatchOffersCommandHandler(uowFactory RouteUoWFactory) DispatchOffersCommandHandler {
	return DispatchOffersCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns the ids of unoffered optimized routes for the target dates.
func (h *DispatchOffersCommandHandler) Handle(ctx context.Context, cmd DispatchOffersCommand) ([]kernel.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	routes, err := uow.RouteRepository().FindUnoffered(ctx, cmd.Dates())
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(routes))
	for _, rt := range routes {
		ids = append(ids, rt.ID())
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return ids, nil
}
