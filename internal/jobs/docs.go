// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to keep the driver-offer cascade moving without inbound traffic.
//
// # Available Jobs
//
// 1. OfferDispatchJob - Runs every minute to start cascades for unoffered routes on today's and tomorrow's schedule
// 2. OfferExpiryJob - Runs every minute to reclaim lapsed offers and re-run their cascades
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(dispatchHandler, expireHandler, cascadeHandler, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Jobs log failures and keep going; a failed cascade for one route never
// blocks the rest of the sweep. Offer deadlines are also enforced at the
// data level on every read, so a delayed sweep cannot let a stale accept
// through.
package jobs
