package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/model/task"
)

// ProcessTaskEventResult tells the caller which follow-up workflows the
// applied event produced. The handler itself never calls the settlement
// coordinator or the cascade; it reports, the caller orchestrates.
type ProcessTaskEventResult struct {
	// Applied is false when the event was recognized as a replay and
	// produced no state change.
	Applied bool

	// OrderCompleted is true when this event moved an order to Delivered.
	// The caller should invoke settlement for CompletedOrderID.
	OrderCompleted   bool
	CompletedOrderID kernel.UUID

	// WorkerName carries the worker-supplied display name from a completed
	// event and CompletedDriverID the assigned driver, so the caller can
	// name the driver in the customer's completion message.
	WorkerName        *string
	CompletedDriverID *kernel.UUID

	// NeedsReassignment is true when a failed trigger released a routed
	// order's route back into the cascade. The caller should run the
	// cascade for RouteID; FailedTaskID identifies the stop that forced it.
	NeedsReassignment bool
	RouteID           kernel.UUID
	FailedTaskID      kernel.UUID
}

// ProcessTaskEventCommandHandler applies normalized webhook events to the
// task and order rows they concern. Application is idempotent per
// (task, trigger): replays are detected against persisted state and
// reported back as not applied, so downstream side effects fire at most
// once per real state change.
type ProcessTaskEventCommandHandler struct {
	uowFactory TaskEventUoWFactory
}

// NewProcessTaskEventCommandHandler creates a handler for webhook event application.
func NewProcessTaskEventCommandHandler(uowFactory TaskEventUoWFactory) ProcessTaskEventCommandHandler {
	return ProcessTaskEventCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle applies one webhook event.
//
// Out-of-order tolerance: each trigger checks current persisted state
// before mutating, so a late started event after completion degrades to a
// no-op instead of regressing the order.
func (h *ProcessTaskEventCommandHandler) Handle(ctx context.Context, cmd ProcessTaskEventCommand) (ProcessTaskEventResult, error) {
	if err := cmd.Validate(); err != nil {
		return ProcessTaskEventResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ProcessTaskEventResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	taskRepo := uow.TaskRepository()
	aggregate, err := taskRepo.GetByShortID(ctx, cmd.TaskShortID())
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	var result ProcessTaskEventResult
	switch cmd.Trigger() {
	case EventStarted:
		result, err = h.applyStarted(ctx, uow, aggregate, cmd)
	case EventArrival:
		result, err = h.applyArrival(ctx, uow, aggregate)
	case EventCompleted:
		result, err = h.applyCompleted(ctx, uow, aggregate, cmd)
	case EventFailed:
		result, err = h.applyFailed(ctx, uow, aggregate)
	default:
		return ProcessTaskEventResult{}, ErrTriggerIsInvalid
	}
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ProcessTaskEventResult{}, err
	}

	return result, nil
}

func (h *ProcessTaskEventCommandHandler) applyStarted(
	ctx context.Context,
	uow TaskEventUoW,
	aggregate *task.Task,
	cmd ProcessTaskEventCommand,
) (ProcessTaskEventResult, error) {
	if err := aggregate.RecordWebhookTime(cmd.EventTime()); err != nil {
		if errors.Is(err, task.ErrStaleWebhookTime) {
			return ProcessTaskEventResult{}, nil
		}
		return ProcessTaskEventResult{}, err
	}

	if err := uow.TaskRepository().Update(ctx, aggregate); err != nil {
		return ProcessTaskEventResult{}, err
	}

	// a late started after completion must not regress the order
	if aggregate.OrderID() != nil {
		ord, err := uow.OrderRepository().Get(ctx, *aggregate.OrderID())
		if err != nil {
			return ProcessTaskEventResult{}, err
		}
		if err = ord.MarkInTransit(); err == nil {
			if err = uow.OrderRepository().Update(ctx, ord); err != nil {
				return ProcessTaskEventResult{}, err
			}
		}

		if ord.RouteID() != nil {
			if err = h.markRouteInProgress(ctx, uow, *ord.RouteID()); err != nil {
				return ProcessTaskEventResult{}, err
			}
		}
	}

	return ProcessTaskEventResult{Applied: true}, nil
}

// markRouteInProgress moves an assigned route to in-progress when its
// first stop starts; later stops find the route already moved.
func (h *ProcessTaskEventCommandHandler) markRouteInProgress(
	ctx context.Context,
	uow TaskEventUoW,
	routeID kernel.UUID,
) error {
	routeRepo := uow.RouteRepository()
	rt, err := routeRepo.Get(ctx, routeID)
	if err != nil {
		return err
	}

	if rt.Status() != route.StatusAssigned {
		return nil
	}

	if err = rt.MarkInProgress(); err != nil {
		return err
	}

	return routeRepo.Update(ctx, rt)
}

func (h *ProcessTaskEventCommandHandler) applyArrival(
	ctx context.Context,
	uow TaskEventUoW,
	aggregate *task.Task,
) (ProcessTaskEventResult, error) {
	if aggregate.OrderID() == nil {
		return ProcessTaskEventResult{Applied: true}, nil
	}

	ord, err := uow.OrderRepository().Get(ctx, *aggregate.OrderID())
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	if err = ord.MarkDriverArrived(); err != nil {
		// already arrived or already terminal: a replayed or late event
		return ProcessTaskEventResult{}, nil
	}

	if err = uow.OrderRepository().Update(ctx, ord); err != nil {
		return ProcessTaskEventResult{}, err
	}

	return ProcessTaskEventResult{Applied: true}, nil
}

func (h *ProcessTaskEventCommandHandler) applyCompleted(
	ctx context.Context,
	uow TaskEventUoW,
	aggregate *task.Task,
	cmd ProcessTaskEventCommand,
) (ProcessTaskEventResult, error) {
	err := aggregate.Complete(cmd.EventTime(), cmd.PhotoURL(), cmd.PhotoGallery())
	if errors.Is(err, task.ErrTaskAlreadyCompleted) {
		// replay: no state change, no settlement, no notifications
		return ProcessTaskEventResult{}, nil
	}
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	// photo evidence verifies the completion
	if cmd.PhotoURL() != nil {
		aggregate.MarkVerified()
	}

	if err = uow.TaskRepository().Update(ctx, aggregate); err != nil {
		return ProcessTaskEventResult{}, err
	}

	result := ProcessTaskEventResult{Applied: true}
	if aggregate.OrderID() == nil {
		return result, nil
	}

	ord, err := uow.OrderRepository().Get(ctx, *aggregate.OrderID())
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	record := order.CompletionRecord{
		At:                 cmd.EventTime(),
		PhotoURL:           cmd.PhotoURL(),
		PhotoGallery:       cmd.PhotoGallery(),
		DriveDistanceMiles: cmd.DriveDistanceMiles(),
		DriveTimeMinutes:   cmd.DriveTimeMinutes(),
	}
	if err = ord.MarkDelivered(record); err != nil {
		// the order already reached a terminal state through another path
		return ProcessTaskEventResult{}, nil
	}

	if err = uow.OrderRepository().Update(ctx, ord); err != nil {
		return ProcessTaskEventResult{}, err
	}

	if ord.RouteID() != nil {
		if err = h.recordRouteProgress(ctx, uow, *ord.RouteID()); err != nil {
			return ProcessTaskEventResult{}, err
		}
	}

	result.OrderCompleted = true
	result.CompletedOrderID = ord.ID()
	result.WorkerName = cmd.WorkerName()
	result.CompletedDriverID = ord.DriverID()
	return result, nil
}

func (h *ProcessTaskEventCommandHandler) applyFailed(
	ctx context.Context,
	uow TaskEventUoW,
	aggregate *task.Task,
) (ProcessTaskEventResult, error) {
	err := aggregate.MarkFailed()
	if errors.Is(err, task.ErrTaskAlreadyFailed) {
		return ProcessTaskEventResult{}, nil
	}
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	if err = uow.TaskRepository().Update(ctx, aggregate); err != nil {
		return ProcessTaskEventResult{}, err
	}

	result := ProcessTaskEventResult{Applied: true}
	if aggregate.OrderID() == nil {
		return result, nil
	}

	ord, err := uow.OrderRepository().Get(ctx, *aggregate.OrderID())
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	if err = ord.MarkFailed(); err != nil {
		return ProcessTaskEventResult{}, nil
	}

	if err = uow.OrderRepository().Update(ctx, ord); err != nil {
		return ProcessTaskEventResult{}, err
	}

	if ord.RouteID() == nil {
		return result, nil
	}

	// release the route so the cascade can find a replacement driver
	routeRepo := uow.RouteRepository()
	rt, err := routeRepo.Get(ctx, *ord.RouteID())
	if err != nil {
		return ProcessTaskEventResult{}, err
	}

	if rt.Status().IsTerminal() {
		return result, nil
	}

	if err = rt.ReleaseForReassignment(); err != nil {
		return ProcessTaskEventResult{}, err
	}
	if err = routeRepo.Update(ctx, rt); err != nil {
		return ProcessTaskEventResult{}, err
	}

	result.NeedsReassignment = true
	result.RouteID = rt.ID()
	result.FailedTaskID = aggregate.ID()
	return result, nil
}

func (h *ProcessTaskEventCommandHandler) recordRouteProgress(
	ctx context.Context,
	uow TaskEventUoW,
	routeID kernel.UUID,
) error {
	routeRepo := uow.RouteRepository()
	rt, err := routeRepo.Get(ctx, routeID)
	if err != nil {
		return err
	}

	if rt.Status() == route.StatusCompleted {
		return nil
	}

	if err = rt.RecordProgress(rt.CompletedStops() + 1); err != nil {
		return err
	}

	return routeRepo.Update(ctx, rt)
}
