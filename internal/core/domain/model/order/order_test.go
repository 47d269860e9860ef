package order_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/payout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() (time.Time, time.Time) {
	start := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	return start, start.Add(6 * time.Hour)
}

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	start, end := testWindow()
	o, err := order.NewOrder(kernel.NewUUID(), "+15551230000", start, end)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates a valid order", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.Validate())
		assert.Equal(t, order.Created, o.Status())
		assert.Equal(t, payout.None, o.PayoutStatus())
		assert.Nil(t, o.RouteID())
		assert.Nil(t, o.DriverID())
		assert.Nil(t, o.DeliveredAt())
	})

	t.Run("requires a customer phone", func(t *testing.T) {
		start, end := testWindow()
		_, err := order.NewOrder(kernel.NewUUID(), "", start, end)
		require.ErrorIs(t, err, order.ErrCustomerPhoneIsRequired)
	})

	t.Run("requires a valid delivery window", func(t *testing.T) {
		start, _ := testWindow()
		_, err := order.NewOrder(kernel.NewUUID(), "+15551230000", start, start)
		require.ErrorIs(t, err, order.ErrDeliveryWindowIsInvalid)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_AssignRouteAndDriver(t *testing.T) {
	o := newTestOrder(t)
	routeID := kernel.NewUUID()
	driverID := kernel.NewUUID()

	require.NoError(t, o.AssignRoute(routeID))
	assert.Equal(t, order.Scheduled, o.Status())
	require.NotNil(t, o.RouteID())
	assert.True(t, o.RouteID().IsEqual(routeID))

	require.NoError(t, o.AssignDriver(driverID))
	require.NotNil(t, o.DriverID())
	assert.True(t, o.DriverID().IsEqual(driverID))
}

func TestOrder_LifecycleTriggers(t *testing.T) {
	t.Run("started then arrival then completed", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.AssignRoute(kernel.NewUUID()))

		require.NoError(t, o.MarkInTransit())
		assert.Equal(t, order.InTransit, o.Status())

		require.NoError(t, o.MarkDriverArrived())
		assert.Equal(t, order.DriverArrived, o.Status())

		photo := "https://cdn.example.com/abc/800x.png"
		distance := 12.5
		at := time.Date(2026, time.September, 1, 15, 4, 0, 0, time.UTC)
		require.NoError(t, o.MarkDelivered(order.CompletionRecord{
			At:                 at,
			PhotoURL:           &photo,
			PhotoGallery:       []string{photo},
			DriveDistanceMiles: &distance,
		}))

		assert.Equal(t, order.Delivered, o.Status())
		require.NotNil(t, o.DeliveredAt())
		assert.Equal(t, at, *o.DeliveredAt())
		require.NotNil(t, o.PhotoURL())
		assert.Equal(t, photo, *o.PhotoURL())
		assert.Equal(t, []string{photo}, o.PhotoGallery())
		require.NotNil(t, o.DriveDistanceMiles())
		assert.InDelta(t, 12.5, *o.DriveDistanceMiles(), 0.001)
		assert.Nil(t, o.DriveTimeMinutes())
	})

	t.Run("late started after delivery does not regress", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.MarkDelivered(order.CompletionRecord{At: time.Now()}))

		require.Error(t, o.MarkInTransit())
		assert.Equal(t, order.Delivered, o.Status())
	})

	t.Run("failed trigger", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.MarkInTransit())
		require.NoError(t, o.MarkFailed())
		assert.Equal(t, order.Failed, o.Status())
	})
}

func TestOrder_Payout(t *testing.T) {
	t.Run("records a successful payout", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.RecordPayout(42.50))

		assert.Equal(t, payout.Paid, o.PayoutStatus())
		require.NotNil(t, o.PayoutAmount())
		assert.InDelta(t, 42.50, *o.PayoutAmount(), 0.001)
	})

	t.Run("records a failed payout without touching status", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.MarkDelivered(order.CompletionRecord{At: time.Now()}))

		o.RecordPayoutFailure()

		assert.Equal(t, payout.Failed, o.PayoutStatus())
		assert.Equal(t, order.Delivered, o.Status())
	})
}

func TestRestoreOrder(t *testing.T) {
	start, end := testWindow()
	id := kernel.NewUUID()
	routeID := kernel.NewUUID()
	photo := "https://cdn.example.com/xyz/800x.png"
	at := start.Add(2 * time.Hour)
	amount := 18.0

	o, err := order.RestoreOrder(
		id, "+15551230000", start, end,
		order.Delivered, &routeID, nil,
		&photo, []string{photo}, &at, nil, nil,
		&amount, payout.Paid,
	)
	require.NoError(t, err)

	require.NoError(t, o.Validate())
	assert.Equal(t, order.Delivered, o.Status())
	assert.Equal(t, payout.Paid, o.PayoutStatus())
	require.NotNil(t, o.RouteID())
	assert.True(t, o.RouteID().IsEqual(routeID))

	t.Run("rejects invalid status", func(t *testing.T) {
		_, err := order.RestoreOrder(
			id, "+15551230000", start, end,
			order.Unknown, nil, nil, nil, nil, nil, nil, nil, nil, payout.None,
		)
		require.Error(t, err)
	})
}
