package route_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/payout"
	"dispatch/internal/core/domain/model/route"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

func newTestRoute(t *testing.T, stops int) *route.Route {
	t.Helper()
	r, err := route.NewRoute(kernel.NewUUID(), testDate, 720, 1080, stops)
	require.NoError(t, err)
	return r
}

func sendTestOffer(t *testing.T, r *route.Route, driverID kernel.UUID) {
	t.Helper()
	require.NoError(t, r.BeginOffer())
	sentAt := testDate.Add(9 * time.Hour)
	require.NoError(t, r.SendOffer(driverID, "signed-token", sentAt, sentAt.Add(30*time.Minute)))
}

func TestNewRoute(t *testing.T) {
	t.Run("creates an optimized unoffered route", func(t *testing.T) {
		r := newTestRoute(t, 5)

		require.NoError(t, r.Validate())
		assert.Equal(t, route.StatusOptimized, r.Status())
		assert.Equal(t, route.OfferUnoffered, r.OfferStatus())
		assert.Equal(t, 5, r.TotalStops())
		assert.Zero(t, r.CompletedStops())
		assert.Nil(t, r.DriverID())
		assert.Empty(t, r.ExcludedDriverIDs())
	})

	t.Run("requires stops", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), testDate, 720, 1080, 0)
		require.ErrorIs(t, err, route.ErrTotalStopsIsRequired)
	})

	t.Run("requires a sane operating window", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), testDate, 1080, 720, 3)
		require.ErrorIs(t, err, route.ErrOperatingWindowIsInvalid)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var r route.Route
		require.ErrorIs(t, r.Validate(), route.ErrRouteIsNotConstructed)
	})
}

func TestRoute_OfferLifecycle(t *testing.T) {
	t.Run("begin send accept", func(t *testing.T) {
		r := newTestRoute(t, 3)
		driverID := kernel.NewUUID()

		sendTestOffer(t, r, driverID)
		assert.Equal(t, route.OfferSent, r.OfferStatus())
		require.NotNil(t, r.OfferedDriverID())
		require.NotNil(t, r.OfferToken())
		require.NotNil(t, r.OfferExpiresAt())

		require.NoError(t, r.AcceptOffer(r.OfferSentAt().Add(5*time.Minute)))
		assert.Equal(t, route.OfferAccepted, r.OfferStatus())
		assert.Equal(t, route.StatusAssigned, r.Status())
		require.NotNil(t, r.DriverID())
		assert.True(t, r.DriverID().IsEqual(driverID))
	})

	t.Run("cannot begin while an offer is in flight", func(t *testing.T) {
		r := newTestRoute(t, 3)
		sendTestOffer(t, r, kernel.NewUUID())

		require.Error(t, r.BeginOffer())
	})

	t.Run("decline excludes the driver and loops back", func(t *testing.T) {
		r := newTestRoute(t, 3)
		driverID := kernel.NewUUID()
		sendTestOffer(t, r, driverID)

		require.NoError(t, r.DeclineOffer())

		assert.Equal(t, route.OfferDeclined, r.OfferStatus())
		assert.True(t, r.IsDriverExcluded(driverID))
		assert.Nil(t, r.OfferedDriverID())
		assert.Nil(t, r.OfferToken())

		// the cascade may claim the route again
		require.NoError(t, r.BeginOffer())
	})

	t.Run("expiry excludes the driver and loops back", func(t *testing.T) {
		r := newTestRoute(t, 3)
		driverID := kernel.NewUUID()
		sendTestOffer(t, r, driverID)

		require.NoError(t, r.ExpireOffer())

		assert.Equal(t, route.OfferExpired, r.OfferStatus())
		assert.True(t, r.IsDriverExcluded(driverID))
		require.NoError(t, r.BeginOffer())
	})

	t.Run("cannot accept an expired offer", func(t *testing.T) {
		r := newTestRoute(t, 3)
		sendTestOffer(t, r, kernel.NewUUID())

		late := r.OfferExpiresAt().Add(time.Minute)
		require.Error(t, r.AcceptOffer(late))
		assert.Equal(t, route.OfferSent, r.OfferStatus())
	})

	t.Run("exclusion set grows monotonically", func(t *testing.T) {
		r := newTestRoute(t, 3)
		drivers := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()}

		for _, d := range drivers {
			sendTestOffer(t, r, d)
			require.NoError(t, r.DeclineOffer())
		}

		assert.Len(t, r.ExcludedDriverIDs(), 3)
		for _, d := range drivers {
			assert.True(t, r.IsDriverExcluded(d))
		}

		// excluding again is a no-op
		require.NoError(t, r.ExcludeDriver(drivers[0]))
		assert.Len(t, r.ExcludedDriverIDs(), 3)
	})
}

func TestRoute_Escalate(t *testing.T) {
	t.Run("escalates from the pending claim", func(t *testing.T) {
		r := newTestRoute(t, 3)
		require.NoError(t, r.BeginOffer())

		require.NoError(t, r.Escalate(route.ReasonDeclinedExhausted))

		assert.Equal(t, route.OfferEscalated, r.OfferStatus())
		require.NotNil(t, r.EscalationReason())
		assert.Equal(t, route.ReasonDeclinedExhausted, *r.EscalationReason())

		// escalated is terminal for the automated path
		require.Error(t, r.BeginOffer())
	})

	t.Run("rejects an unknown reason", func(t *testing.T) {
		r := newTestRoute(t, 3)
		require.NoError(t, r.BeginOffer())
		require.Error(t, r.Escalate(route.EscalationReason("because")))
	})

	t.Run("cannot escalate without the claim", func(t *testing.T) {
		r := newTestRoute(t, 3)
		require.Error(t, r.Escalate(route.ReasonExpiredExhausted))
	})
}

func TestRoute_ReleaseForReassignment(t *testing.T) {
	r := newTestRoute(t, 3)
	driverID := kernel.NewUUID()
	sendTestOffer(t, r, driverID)
	require.NoError(t, r.AcceptOffer(r.OfferSentAt().Add(time.Minute)))

	require.NoError(t, r.ReleaseForReassignment())

	assert.Equal(t, route.StatusOptimized, r.Status())
	assert.Equal(t, route.OfferUnoffered, r.OfferStatus())
	assert.Nil(t, r.DriverID())
	assert.True(t, r.IsDriverExcluded(driverID))
	require.NoError(t, r.BeginOffer())
}

func TestRoute_Progress(t *testing.T) {
	r := newTestRoute(t, 3)
	sendTestOffer(t, r, kernel.NewUUID())
	require.NoError(t, r.AcceptOffer(r.OfferSentAt().Add(time.Minute)))
	require.NoError(t, r.MarkInProgress())

	require.NoError(t, r.RecordProgress(2))
	assert.Equal(t, 2, r.CompletedStops())

	t.Run("cannot exceed total stops", func(t *testing.T) {
		require.Error(t, r.RecordProgress(4))
	})

	t.Run("cannot shrink", func(t *testing.T) {
		require.Error(t, r.RecordProgress(1))
	})
}

func TestRoute_CompleteWithMetrics(t *testing.T) {
	r := newTestRoute(t, 2)
	sendTestOffer(t, r, kernel.NewUUID())
	require.NoError(t, r.AcceptOffer(r.OfferSentAt().Add(time.Minute)))

	require.NoError(t, r.CompleteWithMetrics(18.4, 95))

	assert.Equal(t, route.StatusCompleted, r.Status())
	assert.Equal(t, 2, r.CompletedStops())
	require.NotNil(t, r.DistanceMiles())
	assert.InDelta(t, 18.4, *r.DistanceMiles(), 0.001)

	t.Run("completion is not repeatable", func(t *testing.T) {
		require.Error(t, r.CompleteWithMetrics(18.4, 95))
	})

	t.Run("payout bookkeeping", func(t *testing.T) {
		require.NoError(t, r.RecordPayout(64.20))
		assert.Equal(t, payout.Paid, r.PayoutStatus())
		require.NotNil(t, r.PayoutAmount())
		assert.InDelta(t, 64.20, *r.PayoutAmount(), 0.001)
	})
}

func TestRoute_OfferIsExpired(t *testing.T) {
	r := newTestRoute(t, 2)
	assert.False(t, r.OfferIsExpired(time.Now()))

	sendTestOffer(t, r, kernel.NewUUID())
	assert.False(t, r.OfferIsExpired(*r.OfferExpiresAt()))
	assert.True(t, r.OfferIsExpired(r.OfferExpiresAt().Add(time.Second)))
}

func TestRestoreRoute(t *testing.T) {
	id := kernel.NewUUID()
	driverID := kernel.NewUUID()
	excluded := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID()}
	token := "signed-token"
	sentAt := testDate.Add(9 * time.Hour)
	expiresAt := sentAt.Add(30 * time.Minute)

	r, err := route.RestoreRoute(
		id, testDate, 720, 1080, 4, 1,
		route.StatusOptimized, route.OfferSent,
		nil, &driverID, &token, &sentAt, &expiresAt,
		excluded, nil, nil, nil, nil, payout.None,
	)
	require.NoError(t, err)

	require.NoError(t, r.Validate())
	assert.Equal(t, route.OfferSent, r.OfferStatus())
	assert.Equal(t, 1, r.CompletedStops())
	assert.Len(t, r.ExcludedDriverIDs(), 2)
	require.NotNil(t, r.OfferedDriverID())
	assert.True(t, r.OfferedDriverID().IsEqual(driverID))

	t.Run("rejects completed stops above total", func(t *testing.T) {
		_, err := route.RestoreRoute(
			id, testDate, 720, 1080, 2, 3,
			route.StatusInProgress, route.OfferAccepted,
			&driverID, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, payout.None,
		)
		require.Error(t, err)
	})
}
