package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/route"

	"github.com/robfig/cron/v3"
)

// OfferDispatchJob starts offer cascades for planned routes that have had
// no offer activity yet. Runs every minute over today's and tomorrow's
// routes; routes further out are picked up when their day comes into the
// window.
type OfferDispatchJob struct {
	dispatchHandler commands.DispatchOffersCommandHandler
	cascadeHandler  commands.RunOfferCascadeCommandHandler
	cron            *cron.Cron
	logger          *slog.Logger
}

// NewOfferDispatchJob creates the dispatch job.
func NewOfferDispatchJob(
	dispatchHandler commands.DispatchOffersCommandHandler,
	cascadeHandler commands.RunOfferCascadeCommandHandler,
	logger *slog.Logger,
) *OfferDispatchJob {
	return &OfferDispatchJob{
		dispatchHandler: dispatchHandler,
		cascadeHandler:  cascadeHandler,
		cron:            cron.New(cron.WithSeconds()),
		logger:          logger.With("component", "offer_dispatch_job"),
	}
}

// Start schedules the dispatch job to run every minute.
func (j *OfferDispatchJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Offer dispatch job started (running every minute)")
	return nil
}

// Stop stops the dispatch job.
func (j *OfferDispatchJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Offer dispatch job stopped")
}

func (j *OfferDispatchJob) run() {
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	cmd, err := commands.NewDispatchOffersCommand([]time.Time{today, today.AddDate(0, 0, 1)})
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to build dispatch command", "error", err)
		return
	}

	routeIDs, err := j.dispatchHandler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Offer dispatch failed", "error", err)
		return
	}

	for _, routeID := range routeIDs {
		cascadeCmd, cmdErr := commands.NewRunOfferCascadeCommand(routeID, route.ReasonFailedExhausted)
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "Failed to build cascade command", "routeId", routeID.String(), "error", cmdErr)
			continue
		}

		result, cascadeErr := j.cascadeHandler.Handle(ctx, cascadeCmd)
		if cascadeErr != nil {
			j.logger.ErrorContext(ctx, "Offer cascade failed", "routeId", routeID.String(), "error", cascadeErr)
			continue
		}

		if result.Escalated {
			j.logger.WarnContext(ctx, "Route escalated to operator", "routeId", routeID.String())
		} else if result.OfferSent {
			j.logger.InfoContext(ctx, "Offer sent",
				"routeId", routeID.String(), "driverId", result.OfferedDriverID.String())
		}
	}
}
