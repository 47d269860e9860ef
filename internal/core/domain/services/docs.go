// Package services provides domain services that orchestrate business
// operations across multiple aggregates in the dispatch system. It
// implements logic that doesn't naturally belong to a single aggregate
// root.
//
// The package includes:
//   - DriverSelector: ranks eligible drivers for the next route offer
//   - PayoutEstimator: prices a route for offers and settlement fallback
package services
