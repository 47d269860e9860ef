package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/route"

	"github.com/robfig/cron/v3"
)

// OfferExpiryJob sweeps offers whose deadline has lapsed unanswered and
// re-runs the cascade for each reclaimed route. Expiry is enforced at the
// data level on every read, so the sweep only has to be frequent enough
// to keep offers moving, not to enforce correctness.
type OfferExpiryJob struct {
	expireHandler  commands.ExpireOffersCommandHandler
	cascadeHandler commands.RunOfferCascadeCommandHandler
	cron           *cron.Cron
	logger         *slog.Logger
}

// NewOfferExpiryJob creates the expiry sweep job.
func NewOfferExpiryJob(
	expireHandler commands.ExpireOffersCommandHandler,
	cascadeHandler commands.RunOfferCascadeCommandHandler,
	logger *slog.Logger,
) *OfferExpiryJob {
	return &OfferExpiryJob{
		expireHandler:  expireHandler,
		cascadeHandler: cascadeHandler,
		cron:           cron.New(cron.WithSeconds()),
		logger:         logger.With("component", "offer_expiry_job"),
	}
}

// Start schedules the expiry sweep to run every minute.
func (j *OfferExpiryJob) Start() error {
	_, err := j.cron.AddFunc("30 * * * * *", j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Offer expiry job started (running every minute)")
	return nil
}

// Stop stops the expiry sweep.
func (j *OfferExpiryJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Offer expiry job stopped")
}

func (j *OfferExpiryJob) run() {
	ctx := context.Background()

	cmd, err := commands.NewExpireOffersCommand(time.Now().UTC())
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to build expiry command", "error", err)
		return
	}

	freed, err := j.expireHandler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Offer expiry sweep failed", "error", err)
		return
	}

	for _, routeID := range freed {
		j.logger.InfoContext(ctx, "Offer expired, rerunning cascade", "routeId", routeID.String())

		cascadeCmd, cmdErr := commands.NewRunOfferCascadeCommand(routeID, route.ReasonExpiredExhausted)
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "Failed to build cascade command", "routeId", routeID.String(), "error", cmdErr)
			continue
		}

		if _, cascadeErr := j.cascadeHandler.Handle(ctx, cascadeCmd); cascadeErr != nil {
			j.logger.ErrorContext(ctx, "Offer cascade failed", "routeId", routeID.String(), "error", cascadeErr)
		}
	}
}
