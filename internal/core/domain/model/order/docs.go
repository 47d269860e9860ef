// Package order implements the delivery order aggregate.
// An order is a single customer delivery unit that moves through a
// webhook-driven lifecycle: booked, scheduled onto a route (or dispatched
// standalone), started, arrived, and finally delivered, failed, or
// cancelled. The aggregate owns the status machine, the completion
// evidence (photos, timing, drive metrics), and the per-order settlement
// state.
//
// Webhook events from the dispatch platform are not guaranteed in order;
// every transition validates the current state so stale triggers surface
// as validation errors the event updater can treat as no-ops.
package order
