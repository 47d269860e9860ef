package commands

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/offertoken"
)

// RunOfferCascadeResult reports what one cascade step did.
type RunOfferCascadeResult struct {
	// OfferSent is true when a new offer went out to OfferedDriverID.
	OfferSent       bool
	OfferedDriverID kernel.UUID

	// Escalated is true when the pool was exhausted and the route was
	// handed to an operator.
	Escalated bool
}

// RunOfferCascadeCommandHandler executes one step of the driver-offer
// cascade: claim the route, pick the next candidate, sign an offer token,
// and notify the driver, or escalate when the pool is empty.
//
// Concurrency: the claim is the repository's conditional BeginOffer
// update. Two racing invocations for the same route produce exactly one
// sent offer; the loser returns an empty result without error. The offer
// SMS goes out only after the claiming transaction commits, so a crashed
// step never leaves a driver holding an offer the database doesn't know
// about.
type RunOfferCascadeCommandHandler struct {
	uowFactory    CascadeUoWFactory
	selector      services.DriverSelector
	estimator     services.PayoutEstimator
	notifier      ports.NotificationGateway
	tokenSecret   []byte
	offerValidity time.Duration
	operatorPhone string
	logger        *slog.Logger
}

// NewRunOfferCascadeCommandHandler creates a handler for cascade steps.
func NewRunOfferCascadeCommandHandler(
	uowFactory CascadeUoWFactory,
	selector services.DriverSelector,
	estimator services.PayoutEstimator,
	notifier ports.NotificationGateway,
	tokenSecret []byte,
	offerValidity time.Duration,
	operatorPhone string,
	logger *slog.Logger,
) RunOfferCascadeCommandHandler {
	return RunOfferCascadeCommandHandler{
		uowFactory:    uowFactory,
		selector:      selector,
		estimator:     estimator,
		notifier:      notifier,
		tokenSecret:   tokenSecret,
		offerValidity: offerValidity,
		operatorPhone: operatorPhone,
		logger:        logger,
	}
}

// Handle runs one cascade step for the command's route.
func (h *RunOfferCascadeCommandHandler) Handle(ctx context.Context, cmd RunOfferCascadeCommand) (RunOfferCascadeResult, error) {
	if err := cmd.Validate(); err != nil {
		return RunOfferCascadeResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return RunOfferCascadeResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	routeRepo := uow.RouteRepository()
	won, err := routeRepo.BeginOffer(ctx, cmd.RouteID())
	if err != nil {
		return RunOfferCascadeResult{}, err
	}
	if !won {
		// another invocation holds this route; nothing for us to do
		return RunOfferCascadeResult{}, nil
	}

	rt, err := routeRepo.Get(ctx, cmd.RouteID())
	if err != nil {
		return RunOfferCascadeResult{}, err
	}

	candidate, err := h.selectCandidate(ctx, uow, rt)
	if errors.Is(err, services.ErrNoEligibleDrivers) {
		return h.escalate(ctx, uow, rt, cmd.ExhaustionReason())
	}
	if err != nil {
		return RunOfferCascadeResult{}, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(h.offerValidity)
	taskID := ""
	if cmd.TaskID() != nil {
		taskID = cmd.TaskID().String()
	}
	token, err := offertoken.Sign(rt.ID().String(), taskID, cmd.TriggerName(), expiresAt, h.tokenSecret)
	if err != nil {
		return RunOfferCascadeResult{}, err
	}

	if err = rt.SendOffer(candidate.ID(), token, now, expiresAt); err != nil {
		return RunOfferCascadeResult{}, err
	}

	sent, err := routeRepo.MarkOfferSent(ctx, rt)
	if err != nil {
		return RunOfferCascadeResult{}, err
	}
	if !sent {
		return RunOfferCascadeResult{}, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return RunOfferCascadeResult{}, err
	}

	if err = h.sendOfferSms(ctx, rt, candidate, token); err != nil {
		return RunOfferCascadeResult{}, err
	}

	return RunOfferCascadeResult{OfferSent: true, OfferedDriverID: candidate.ID()}, nil
}

func (h *RunOfferCascadeCommandHandler) selectCandidate(
	ctx context.Context,
	uow CascadeUoW,
	rt *route.Route,
) (*driver.Driver, error) {
	query := ports.DriverQuery{
		Date:        rt.Date(),
		WindowStart: rt.WindowStart(),
		WindowEnd:   rt.WindowEnd(),
		ExcludedIDs: rt.ExcludedDriverIDs(),
		Capability:  driver.CapabilityDelivery,
	}
	candidates, err := uow.DriverRepository().FindEligible(ctx, query)
	if err != nil {
		return nil, err
	}

	committedIDs, err := uow.RouteRepository().FindCommittedDriverIDs(ctx, rt.Date())
	if err != nil {
		return nil, err
	}
	committed := make(map[string]bool, len(committedIDs))
	for _, id := range committedIDs {
		committed[id.String()] = true
	}

	return h.selector.SelectNext(rt, candidates, committed)
}

// escalate records pool exhaustion and alerts the operator. The alert is
// sent only after the escalating transaction commits; because escalation
// consumes the pending claim, it fires exactly once per exhaustion event.
func (h *RunOfferCascadeCommandHandler) escalate(
	ctx context.Context,
	uow CascadeUoW,
	rt *route.Route,
	reason route.EscalationReason,
) (RunOfferCascadeResult, error) {
	if err := rt.Escalate(reason); err != nil {
		return RunOfferCascadeResult{}, err
	}

	won, err := uow.RouteRepository().TransitionOfferStatus(ctx, rt, route.OfferPending)
	if err != nil {
		return RunOfferCascadeResult{}, err
	}
	if !won {
		return RunOfferCascadeResult{}, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return RunOfferCascadeResult{}, err
	}

	vars := map[string]string{
		"routeId": rt.ID().String(),
		"date":    rt.Date().Format("2006-01-02"),
		"stops":   strconv.Itoa(rt.TotalStops()),
		"reason":  string(reason),
	}
	// the escalation is already durable; a lost alert must not make the
	// caller re-run a consumed cascade step
	if _, err = h.notifier.SendSms(ctx, h.operatorPhone, ports.TemplateOperatorNoDriver, vars); err != nil {
		h.logger.ErrorContext(ctx, "operator escalation alert failed",
			"routeId", rt.ID().String(),
			"reason", string(reason),
			"error", err)
	}

	return RunOfferCascadeResult{Escalated: true}, nil
}

func (h *RunOfferCascadeCommandHandler) sendOfferSms(
	ctx context.Context,
	rt *route.Route,
	candidate *driver.Driver,
	token string,
) error {
	distance := 0.0
	if rt.DistanceMiles() != nil {
		distance = *rt.DistanceMiles()
	}
	estimate := h.estimator.Estimate(rt.TotalStops(), distance)
	duration := h.estimator.EstimateDuration(rt.TotalStops(), rt.DurationMinutes())

	vars := map[string]string{
		"date":            rt.Date().Format("2006-01-02"),
		"stops":           strconv.Itoa(rt.TotalStops()),
		"distanceMiles":   strconv.FormatFloat(distance, 'f', 1, 64),
		"durationMinutes": strconv.FormatFloat(duration, 'f', 0, 64),
		"payoutEstimate":  strconv.FormatFloat(estimate, 'f', 2, 64),
		"token":           token,
	}
	_, err := h.notifier.SendSms(ctx, candidate.Phone(), ports.TemplateJobOffer, vars)
	return err
}
