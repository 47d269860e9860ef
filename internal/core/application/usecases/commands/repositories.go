// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler declares the narrowest composite it needs, so tests mock only
// the repositories a command actually touches.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// RouteRepoFactory provides access to the route repository within a transaction.
	RouteRepoFactory interface {
		RouteRepository() ports.RouteRepository
	}

	// TaskRepoFactory provides access to the task repository within a transaction.
	TaskRepoFactory interface {
		TaskRepository() ports.TaskRepository
	}

	// DriverRepoFactory provides access to the driver repository within a transaction.
	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	// TaskEventUoW manages transactions for webhook event application,
	// which touches the task, its order, and possibly the order's route.
	TaskEventUoW interface {
		TxManager
		TaskRepoFactory
		OrderRepoFactory
		RouteRepoFactory
	}

	// TaskEventUoWFactory creates task event unit of work instances.
	TaskEventUoWFactory interface {
		Create() TaskEventUoW
	}

	// CascadeUoW manages transactions for one offer cascade step.
	CascadeUoW interface {
		TxManager
		RouteRepoFactory
		DriverRepoFactory
	}

	// CascadeUoWFactory creates cascade unit of work instances.
	CascadeUoWFactory interface {
		Create() CascadeUoW
	}

	// OfferResponseUoW manages transactions for offer accept/decline
	// handling, which touches the route, its member orders, and the driver.
	OfferResponseUoW interface {
		TxManager
		RouteRepoFactory
		OrderRepoFactory
		DriverRepoFactory
	}

	// OfferResponseUoWFactory creates offer response unit of work instances.
	OfferResponseUoWFactory interface {
		Create() OfferResponseUoW
	}

	// RouteUoW manages transactions for route-only sweeps.
	RouteUoW interface {
		TxManager
		RouteRepoFactory
	}

	// RouteUoWFactory creates route unit of work instances.
	RouteUoWFactory interface {
		Create() RouteUoW
	}

	// SettlementUoW manages transactions for completion settlement, which
	// touches the order, its route and siblings, and the paid worker.
	SettlementUoW interface {
		TxManager
		OrderRepoFactory
		RouteRepoFactory
		DriverRepoFactory
	}

	// SettlementUoWFactory creates settlement unit of work instances.
	SettlementUoWFactory interface {
		Create() SettlementUoW
	}
)
