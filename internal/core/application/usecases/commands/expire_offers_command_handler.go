package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// ExpireOffersCommandHandler sweeps sent offers whose deadline has passed,
// expiring each and excluding its driver so the cascade can try the next
// candidate.
//
// The sweep and the reply handler converge on the same conditional
// transition from OfferSent, so an offer answered in the instant the
// sweep runs is expired or accepted exactly once, never both.
type ExpireOffersCommandHandler struct {
	uowFactory RouteUoWFactory
}

// NewExpireOffersCommandHandler creates a handler for expiry sweeps.
func NewExpireOffersCommandHandler(uowFactory RouteUoWFactory) ExpireOffersCommandHandler {
	return ExpireOffersCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle expires lapsed offers and returns the freed route ids. The
// caller re-runs the cascade for each.
func (h *ExpireOffersCommandHandler) Handle(ctx context.Context, cmd ExpireOffersCommand) ([]kernel.UUID, error) {
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

	routeRepo := uow.RouteRepository()
	lapsed, err := routeRepo.FindExpiredOffers(ctx, cmd.Now())
	if err != nil {
		return nil, err
	}

	var freed []kernel.UUID
	for _, rt := range lapsed {
		if err = rt.ExpireOffer(); err != nil {
			return nil, err
		}

		won, err := routeRepo.TransitionOfferStatus(ctx, rt, route.OfferSent)
		if err != nil {
			return nil, err
		}
		if !won {
			// a reply got to this offer first
			continue
		}

		freed = append(freed, rt.ID())
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return freed, nil
}
