package commands

import (
	"context"
	"strconv"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// SettleCompletedWorkResult reports what the coordinator did for one
// delivered order.
type SettleCompletedWorkResult struct {
	// CustomerNotified is true when the completion message went out.
	CustomerNotified bool

	// RouteSettled / OrderSettled report a successful payout transfer.
	RouteSettled bool
	OrderSettled bool

	// PayoutFailed is true when settlement was attempted and the transfer
	// failed; the failure is recorded and the operator alerted, but the
	// delivery status stands.
	PayoutFailed bool
}

// SettleCompletedWorkCommandHandler coordinates completion notifications
// and payouts for delivered orders.
//
// Exactly-once settlement: the route path gates on the repository's
// conditional completion update, the standalone path on the conditional
// payout claim. Concurrent completion events race on those single-row
// updates; only the winner talks to the settlement service. A failed
// transfer is recorded and alerted but never rolls back the delivered
// status: the status reflects physical reality, money is reconciled
// separately.
type SettleCompletedWorkCommandHandler struct {
	uowFactory    SettlementUoWFactory
	settlement    ports.SettlementService
	notifier      ports.NotificationGateway
	operatorPhone string
}

// NewSettleCompletedWorkCommandHandler creates a settlement coordinator handler.
func NewSettleCompletedWorkCommandHandler(
	uowFactory SettlementUoWFactory,
	settlement ports.SettlementService,
	notifier ports.NotificationGateway,
	operatorPhone string,
) SettleCompletedWorkCommandHandler {
	return SettleCompletedWorkCommandHandler{
		uowFactory:    uowFactory,
		settlement:    settlement,
		notifier:      notifier,
		operatorPhone: operatorPhone,
	}
}

// Handle settles around one delivered order.
func (h *SettleCompletedWorkCommandHandler) Handle(ctx context.Context, cmd SettleCompletedWorkCommand) (SettleCompletedWorkResult, error) {
	if err := cmd.Validate(); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ord, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return SettleCompletedWorkResult{}, err
	}

	if !ord.Status().IsTerminalSuccess() {
		return SettleCompletedWorkResult{}, nil
	}

	var result SettleCompletedWorkResult
	if ord.RouteID() != nil {
		result, err = h.settleRoute(ctx, uow, ord)
	} else {
		result, err = h.settleStandalone(ctx, uow, ord)
	}
	if err != nil {
		return result, err
	}

	// the customer hears about their delivery regardless of payout state
	if err = h.notifyCustomer(ctx, ord, cmd.DriverName()); err != nil {
		return result, err
	}
	result.CustomerNotified = true

	return result, nil
}

// settleRoute completes and settles the route once its last stop delivers.
func (h *SettleCompletedWorkCommandHandler) settleRoute(
	ctx context.Context,
	uow SettlementUoW,
	ord *order.Order,
) (SettleCompletedWorkResult, error) {
	routeRepo := uow.RouteRepository()
	rt, err := routeRepo.Get(ctx, *ord.RouteID())
	if err != nil {
		return SettleCompletedWorkResult{}, err
	}

	siblings, err := uow.OrderRepository().GetByRoute(ctx, rt.ID())
	if err != nil {
		return SettleCompletedWorkResult{}, err
	}

	var totalDistance, totalDuration float64
	for _, sibling := range siblings {
		if !sibling.Status().IsTerminalSuccess() {
			// the route still has open stops; nothing to settle yet
			return SettleCompletedWorkResult{}, nil
		}
		if sibling.DriveDistanceMiles() != nil {
			totalDistance += *sibling.DriveDistanceMiles()
		}
		if sibling.DriveTimeMinutes() != nil {
			totalDuration += *sibling.DriveTimeMinutes()
		}
	}

	if err = rt.CompleteWithMetrics(totalDistance, totalDuration); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	won, err := routeRepo.MarkCompleted(ctx, rt)
	if err != nil {
		return SettleCompletedWorkResult{}, err
	}
	if !won {
		// another completion event already owns this route's settlement
		return SettleCompletedWorkResult{}, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	payout, err := h.settlement.ProcessRoutePayout(ctx, rt.ID())
	if err != nil || !payout.Success {
		if recordErr := h.recordRouteOutcome(ctx, rt.ID(), nil); recordErr != nil {
			return SettleCompletedWorkResult{}, recordErr
		}
		return SettleCompletedWorkResult{PayoutFailed: true}, h.alertPayoutFailure(ctx, "route", rt.ID())
	}

	if err = h.recordRouteOutcome(ctx, rt.ID(), &payout.Amount); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	if rt.DriverID() != nil {
		if err = h.notifyWorkerPaid(ctx, *rt.DriverID(), payout.Amount); err != nil {
			return SettleCompletedWorkResult{RouteSettled: true}, err
		}
	}

	return SettleCompletedWorkResult{RouteSettled: true}, nil
}

// settleStandalone pays out an order dispatched outside any route.
func (h *SettleCompletedWorkCommandHandler) settleStandalone(
	ctx context.Context,
	uow SettlementUoW,
	ord *order.Order,
) (SettleCompletedWorkResult, error) {
	won, err := uow.OrderRepository().BeginPayout(ctx, ord.ID())
	if err != nil {
		return SettleCompletedWorkResult{}, err
	}
	if !won {
		return SettleCompletedWorkResult{}, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	payout, err := h.settlement.ProcessOrderPayout(ctx, ord.ID())
	if err != nil || !payout.Success {
		if recordErr := h.recordOrderOutcome(ctx, ord.ID(), nil); recordErr != nil {
			return SettleCompletedWorkResult{}, recordErr
		}
		return SettleCompletedWorkResult{PayoutFailed: true}, h.alertPayoutFailure(ctx, "order", ord.ID())
	}

	if err = h.recordOrderOutcome(ctx, ord.ID(), &payout.Amount); err != nil {
		return SettleCompletedWorkResult{}, err
	}

	if ord.DriverID() != nil {
		if err = h.notifyWorkerPaid(ctx, *ord.DriverID(), payout.Amount); err != nil {
			return SettleCompletedWorkResult{OrderSettled: true}, err
		}
	}

	return SettleCompletedWorkResult{OrderSettled: true}, nil
}

// recordRouteOutcome writes the payout result in its own transaction,
// after the external settlement call has returned. A nil amount records a
// failure.
func (h *SettleCompletedWorkCommandHandler) recordRouteOutcome(ctx context.Context, routeID kernel.UUID, amount *float64) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	rt, err := uow.RouteRepository().Get(ctx, routeID)
	if err != nil {
		return err
	}

	if amount != nil {
		if err = rt.RecordPayout(*amount); err != nil {
			return err
		}
	} else {
		rt.RecordPayoutFailure()
	}

	if err = uow.RouteRepository().Update(ctx, rt); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h *SettleCompletedWorkCommandHandler) recordOrderOutcome(ctx context.Context, orderID kernel.UUID, amount *float64) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ord, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return err
	}

	if amount != nil {
		if err = ord.RecordPayout(*amount); err != nil {
			return err
		}
	} else {
		ord.RecordPayoutFailure()
	}

	if err = uow.OrderRepository().Update(ctx, ord); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h *SettleCompletedWorkCommandHandler) notifyCustomer(ctx context.Context, ord *order.Order, driverName string) error {
	vars := map[string]string{}
	if ord.PhotoURL() != nil {
		vars["photoUrl"] = *ord.PhotoURL()
	}
	if driverName != "" {
		vars["driverName"] = driverName
	}
	_, err := h.notifier.SendSms(ctx, ord.CustomerPhone(), ports.TemplateCompletionFeedback, vars)
	return err
}

func (h *SettleCompletedWorkCommandHandler) notifyWorkerPaid(ctx context.Context, driverID kernel.UUID, amount float64) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	worker, err := uow.DriverRepository().Get(ctx, driverID)
	if err != nil {
		return err
	}

	_ = uow.Rollback(ctx)

	vars := map[string]string{
		"amount": strconv.FormatFloat(amount, 'f', 2, 64),
	}
	_, err = h.notifier.SendSms(ctx, worker.Phone(), ports.TemplatePayoutNotification, vars)
	return err
}

func (h *SettleCompletedWorkCommandHandler) alertPayoutFailure(ctx context.Context, kind string, id kernel.UUID) error {
	vars := map[string]string{
		"kind": kind,
		"id":   id.String(),
	}
	_, err := h.notifier.SendSms(ctx, h.operatorPhone, ports.TemplateOperatorPayoutFailed, vars)
	return err
}
