package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/offertoken"
)

// ResponseOutcome says what an offer response ended up doing.
type ResponseOutcome int

const (
	// OutcomeSuperseded: the token named an offer that is no longer the
	// route's current one, or a concurrent transition won.
	OutcomeSuperseded ResponseOutcome = iota

	// OutcomeAccepted: the driver is now committed to the route.
	OutcomeAccepted

	// OutcomeDeclined: the offer was declined; the cascade should re-run.
	OutcomeDeclined

	// OutcomeExpired: the offer's deadline had passed before the reply;
	// the cascade should re-run.
	OutcomeExpired

	// OutcomeClarificationSent: the reply was ambiguous and the driver
	// was asked to answer yes or no.
	OutcomeClarificationSent
)

// RespondToOfferResult reports the outcome of an offer response, plus the
// route the caller should re-run the cascade for when one reply freed it.
type RespondToOfferResult struct {
	Outcome       ResponseOutcome
	RouteID       kernel.UUID
	NeedsCascade  bool
	CascadeReason route.EscalationReason
}

// RespondToOfferCommandHandler applies a driver's accept or decline to
// the offer its token names.
//
// Expiry is enforced here as well as in the sweep: an accept that arrives
// after the deadline expires the offer instead of committing the driver.
// Both paths converge on the repository's conditional transition from
// OfferSent, so a reply racing the sweep resolves to exactly one outcome.
type RespondToOfferCommandHandler struct {
	uowFactory  OfferResponseUoWFactory
	notifier    ports.NotificationGateway
	tokenSecret []byte
}

// NewRespondToOfferCommandHandler creates a handler for offer responses.
func NewRespondToOfferCommandHandler(
	uowFactory OfferResponseUoWFactory,
	notifier ports.NotificationGateway,
	tokenSecret []byte,
) RespondToOfferCommandHandler {
	return RespondToOfferCommandHandler{
		uowFactory:  uowFactory,
		notifier:    notifier,
		tokenSecret: tokenSecret,
	}
}

// Handle applies one offer response.
//
// Token failures surface as offertoken.ErrTokenMalformed or
// offertoken.ErrTokenExpired so the transport can answer the two
// differently.
func (h *RespondToOfferCommandHandler) Handle(ctx context.Context, cmd RespondToOfferCommand) (RespondToOfferResult, error) {
	if err := cmd.Validate(); err != nil {
		return RespondToOfferResult{}, err
	}

	claims, err := offertoken.Parse(cmd.Token(), h.tokenSecret)
	if err != nil {
		return RespondToOfferResult{}, err
	}

	routeID, err := kernel.UUIDFromString(claims.RouteID)
	if err != nil {
		return RespondToOfferResult{}, offertoken.ErrTokenMalformed
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return RespondToOfferResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	routeRepo := uow.RouteRepository()
	rt, err := routeRepo.Get(ctx, routeID)
	if err != nil {
		return RespondToOfferResult{}, err
	}

	// the token must name the route's current offer, not an older one
	if rt.OfferStatus() != route.OfferSent || rt.OfferToken() == nil || *rt.OfferToken() != cmd.Token() {
		return RespondToOfferResult{Outcome: OutcomeSuperseded, RouteID: routeID}, nil
	}

	if cmd.Reply() == ReplyAmbiguous {
		return h.askForClarification(ctx, uow, rt)
	}

	now := time.Now().UTC()
	if cmd.Reply() == ReplyAccept && !rt.OfferIsExpired(now) {
		return h.accept(ctx, uow, rt, now)
	}

	// decline, or an accept that came in past the deadline
	outcome := OutcomeDeclined
	reason := route.ReasonDeclinedExhausted
	if cmd.Reply() == ReplyAccept {
		outcome = OutcomeExpired
		reason = route.ReasonExpiredExhausted
		err = rt.ExpireOffer()
	} else {
		err = rt.DeclineOffer()
	}
	if err != nil {
		return RespondToOfferResult{}, err
	}

	won, err := routeRepo.TransitionOfferStatus(ctx, rt, route.OfferSent)
	if err != nil {
		return RespondToOfferResult{}, err
	}
	if !won {
		return RespondToOfferResult{Outcome: OutcomeSuperseded, RouteID: routeID}, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return RespondToOfferResult{}, err
	}

	return RespondToOfferResult{
		Outcome:       outcome,
		RouteID:       routeID,
		NeedsCascade:  true,
		CascadeReason: reason,
	}, nil
}

func (h *RespondToOfferCommandHandler) accept(
	ctx context.Context,
	uow OfferResponseUoW,
	rt *route.Route,
	now time.Time,
) (RespondToOfferResult, error) {
	if err := rt.AcceptOffer(now); err != nil {
		return RespondToOfferResult{}, err
	}

	won, err := uow.RouteRepository().TransitionOfferStatus(ctx, rt, route.OfferSent)
	if err != nil {
		return RespondToOfferResult{}, err
	}
	if !won {
		return RespondToOfferResult{Outcome: OutcomeSuperseded, RouteID: rt.ID()}, nil
	}

	if err = uow.OrderRepository().AssignDriverByRoute(ctx, rt.ID(), *rt.DriverID()); err != nil {
		return RespondToOfferResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return RespondToOfferResult{}, err
	}

	return RespondToOfferResult{Outcome: OutcomeAccepted, RouteID: rt.ID()}, nil
}

// askForClarification sends the offered driver a yes-or-no prompt. The
// offer itself is left untouched; its deadline keeps running.
func (h *RespondToOfferCommandHandler) askForClarification(
	ctx context.Context,
	uow OfferResponseUoW,
	rt *route.Route,
) (RespondToOfferResult, error) {
	if rt.OfferedDriverID() == nil {
		return RespondToOfferResult{}, route.ErrNoOfferedDriver
	}

	offered, err := uow.DriverRepository().Get(ctx, *rt.OfferedDriverID())
	if err != nil {
		return RespondToOfferResult{}, err
	}

	_ = uow.Rollback(ctx)

	vars := map[string]string{
		"date": rt.Date().Format("2006-01-02"),
	}
	if _, err = h.notifier.SendSms(ctx, offered.Phone(), ports.TemplateOfferClarification, vars); err != nil {
		return RespondToOfferResult{}, err
	}

	return RespondToOfferResult{Outcome: OutcomeClarificationSent, RouteID: rt.ID()}, nil
}
