package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
)

// RouteRepository defines the persistence contract for route aggregates.
//
// The conditional methods are the concurrency backbone of the offer
// cascade: each is a single-row compare-and-set whose boolean result says
// whether this caller won the transition. Losers must treat false as
// "someone else is handling it" and stop.
type RouteRepository interface {
	// Add persists a new route aggregate to storage.
	Add(ctx context.Context, aggregate *route.Route) error

	// Update persists changes to an existing route aggregate.
	Update(ctx context.Context, aggregate *route.Route) error

	// Get retrieves a route aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*route.Route, error)

	// FindUnoffered retrieves optimized routes for the given dates that
	// have had no offer activity yet. Feeds the dispatch job.
	FindUnoffered(ctx context.Context, dates []time.Time) ([]*route.Route, error)

	// FindExpiredOffers retrieves routes whose sent offer deadline lies
	// at or before now. Feeds the lazy expiry sweep.
	FindExpiredOffers(ctx context.Context, now time.Time) ([]*route.Route, error)

	// GetSentOfferByDriverPhone retrieves the route holding a sent offer
	// for the driver with the given phone number. Resolves inbound SMS
	// replies to the offer they answer.
	GetSentOfferByDriverPhone(ctx context.Context, phone string) (*route.Route, error)

	// GetEscalated retrieves routes stuck in the escalated offer state.
	GetEscalated(ctx context.Context) ([]*route.Route, error)

	// GetActiveOffers retrieves routes with an offer currently out.
	GetActiveOffers(ctx context.Context) ([]*route.Route, error)

	// FindCommittedDriverIDs returns the IDs of drivers holding an active
	// commitment on the given date: an accepted route or an unanswered
	// sent offer. Used to filter cascade candidates.
	FindCommittedDriverIDs(ctx context.Context, date time.Time) ([]kernel.UUID, error)

	// BeginOffer atomically claims the route for one cascade step by
	// moving offer status from unoffered, declined, or expired to
	// pending. Exactly one concurrent caller gets true; everyone else
	// gets false and must not issue an offer.
	BeginOffer(ctx context.Context, id kernel.UUID) (bool, error)

	// MarkOfferSent publishes the selected driver, token, and deadline,
	// moving offer status from pending to sent. Returns false when the
	// route is no longer pending.
	MarkOfferSent(ctx context.Context, aggregate *route.Route) (bool, error)

	// TransitionOfferStatus moves offer status from one state to another
	// in a single conditional statement, persisting the rest of the
	// aggregate alongside. Used for accept, decline, expire, escalate.
	TransitionOfferStatus(ctx context.Context, aggregate *route.Route, from route.OfferStatus) (bool, error)

	// MarkCompleted atomically completes the route, moving status from
	// assigned or in-progress to completed and recording metrics. The
	// winner of this transition owns the route payout; a false result
	// means another completion event got there first.
	MarkCompleted(ctx context.Context, aggregate *route.Route) (bool, error)
}
