package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"dispatch/internal/adapters/in/platform"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/settle"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory

	normalizer platform.Normalizer
	notifier   *notify.Client
	settlement *settle.Client

	selector  services.DriverSelector
	estimator services.PayoutEstimator

	tokenSecret   []byte
	offerValidity time.Duration
	operatorPhone string

	logger *slog.Logger
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (CompositionRoot, error) {
	normalizer, err := platform.NewNormalizer(config.CdnBaseURL)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("create normalizer: %w", err)
	}

	notifier, err := notify.NewClient(config.NotifyServiceURL)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("create notification client: %w", err)
	}

	settlement, err := settle.NewClient(config.SettleServiceURL)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("create settlement client: %w", err)
	}

	perStopRate, err := strconv.ParseFloat(config.PayoutPerStopRate, 64)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("parse payout per stop rate: %w", err)
	}

	perMileRate, err := strconv.ParseFloat(config.PayoutPerMileRate, 64)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("parse payout per mile rate: %w", err)
	}

	perStopMinutes, err := strconv.ParseFloat(config.PayoutPerStopMinutes, 64)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("parse payout per stop minutes: %w", err)
	}

	estimator, err := services.NewPayoutEstimator(perStopRate, perMileRate, perStopMinutes)
	if err != nil {
		return CompositionRoot{}, fmt.Errorf("create payout estimator: %w", err)
	}

	validityMinutes, err := strconv.Atoi(config.OfferValidityMinutes)
	if err != nil || validityMinutes <= 0 {
		return CompositionRoot{}, fmt.Errorf("offer validity minutes must be a positive integer, got %q", config.OfferValidityMinutes)
	}

	if config.OfferTokenSecret == "" {
		return CompositionRoot{}, fmt.Errorf("offer token secret is required")
	}

	if config.OperatorPhone == "" {
		return CompositionRoot{}, fmt.Errorf("operator phone is required")
	}

	return CompositionRoot{
		gormDB:        gormDB,
		uowFactory:    postgres.NewGormUnitOfWorkFactory(gormDB),
		normalizer:    normalizer,
		notifier:      notifier,
		settlement:    settlement,
		selector:      services.NewDriverSelector(),
		estimator:     estimator,
		tokenSecret:   []byte(config.OfferTokenSecret),
		offerValidity: time.Duration(validityMinutes) * time.Minute,
		operatorPhone: config.OperatorPhone,
		logger:        logger,
	}, nil
}

func (c *CompositionRoot) Normalizer() platform.Normalizer {
	return c.normalizer
}

func (c *CompositionRoot) UnitOfWorkFactory() ports.UnitOfWorkFactory {
	return c.uowFactory
}

func (c *CompositionRoot) CreateProcessTaskEventCommandHandler() commands.ProcessTaskEventCommandHandler {
	var f commands.TaskEventUoWFactory = FuncTaskEventUoWFactory(func() commands.TaskEventUoW {
		return c.uowFactory.Create()
	})
	return commands.NewProcessTaskEventCommandHandler(f)
}

func (c *CompositionRoot) CreateRunOfferCascadeCommandHandler() commands.RunOfferCascadeCommandHandler {
	var f commands.CascadeUoWFactory = FuncCascadeUoWFactory(func() commands.CascadeUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRunOfferCascadeCommandHandler(
		f, c.selector, c.estimator, c.notifier, c.tokenSecret, c.offerValidity, c.operatorPhone, c.logger)
}

func (c *CompositionRoot) CreateRespondToOfferCommandHandler() commands.RespondToOfferCommandHandler {
	var f commands.OfferResponseUoWFactory = FuncOfferResponseUoWFactory(func() commands.OfferResponseUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRespondToOfferCommandHandler(f, c.notifier, c.tokenSecret)
}

func (c *CompositionRoot) CreateSettleCompletedWorkCommandHandler() commands.SettleCompletedWorkCommandHandler {
	var f commands.SettlementUoWFactory = FuncSettlementUoWFactory(func() commands.SettlementUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSettleCompletedWorkCommandHandler(f, c.settlement, c.notifier, c.operatorPhone)
}

func (c *CompositionRoot) CreateDispatchOffersCommandHandler() commands.DispatchOffersCommandHandler {
	return commands.NewDispatchOffersCommandHandler(c.routeUoWFactory())
}

func (c *CompositionRoot) CreateExpireOffersCommandHandler() commands.ExpireOffersCommandHandler {
	return commands.NewExpireOffersCommandHandler(c.routeUoWFactory())
}

func (c *CompositionRoot) CreateGetEscalatedRoutesQueryHandler() queries.GetEscalatedRoutesQueryHandler {
	return queries.NewGetEscalatedRoutesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOffersQueryHandler() queries.GetActiveOffersQueryHandler {
	return queries.NewGetActiveOffersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateJobManager(logger *slog.Logger) *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateDispatchOffersCommandHandler(),
		c.CreateExpireOffersCommandHandler(),
		c.CreateRunOfferCascadeCommandHandler(),
		logger,
	)
}

func (c *CompositionRoot) routeUoWFactory() commands.RouteUoWFactory {
	return FuncRouteUoWFactory(func() commands.RouteUoW {
		return c.uowFactory.Create()
	})
}

type FuncTaskEventUoWFactory func() commands.TaskEventUoW

func (f FuncTaskEventUoWFactory) Create() commands.TaskEventUoW {
	return f()
}

type FuncCascadeUoWFactory func() commands.CascadeUoW

func (f FuncCascadeUoWFactory) Create() commands.CascadeUoW {
	return f()
}

type FuncOfferResponseUoWFactory func() commands.OfferResponseUoW

func (f FuncOfferResponseUoWFactory) Create() commands.OfferResponseUoW {
	return f()
}

type FuncRouteUoWFactory func() commands.RouteUoW

func (f FuncRouteUoWFactory) Create() commands.RouteUoW {
	return f()
}

type FuncSettlementUoWFactory func() commands.SettlementUoW

func (f FuncSettlementUoWFactory) Create() commands.SettlementUoW {
	return f()
}
