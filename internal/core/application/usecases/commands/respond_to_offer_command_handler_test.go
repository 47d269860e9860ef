package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/payout"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/offertoken"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// restoreSentOfferRoute builds a route with an offer out to one driver,
// carrying a real signed token. offerExpired controls whether the offer's
// data-level deadline has already passed.
func restoreSentOfferRoute(t *testing.T, offerExpired bool) (*route.Route, string, kernel.UUID) {
	t.Helper()

	routeID := kernel.NewUUID()
	driverID := kernel.NewUUID()

	// token validity is generous so Parse itself succeeds either way
	token, err := offertoken.Sign(routeID.String(), "", "", time.Now().Add(time.Hour), cascadeSecret)
	require.NoError(t, err)

	sentAt := time.Now().Add(-20 * time.Minute)
	expiresAt := time.Now().Add(10 * time.Minute)
	if offerExpired {
		expiresAt = time.Now().Add(-time.Minute)
	}

	rt, err := route.RestoreRoute(
		routeID, deliveryDay, 720, 1080, 4, 0,
		route.StatusOptimized, route.OfferSent,
		nil, &driverID, &token, &sentAt, &expiresAt,
		nil, nil, nil, nil, nil, payout.None,
	)
	require.NoError(t, err)
	return rt, token, driverID
}

func TestRespondToOfferCommandHandler_Accept(t *testing.T) {
	ctx := t.Context()
	rt, token, driverID := restoreSentOfferRoute(t, false)

	routeRepo := new(MockRouteRepository)
	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	notifier := new(MockNotificationGateway)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("RouteRepository").Return(routeRepo).Once(),
		routeRepo.On("Get", ctx, rt.ID()).Return(rt, nil).Once(),
		uow.On("RouteRepository").Return(routeRepo).Once(),
		routeRepo.On("TransitionOfferStatus", ctx, rt, route.OfferSent).Return(true, nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		orderRepo.On("AssignDriverByRoute", ctx, rt.ID(), driverID).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOfferResponseUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewRespondToOfferCommand(token, commands.ReplyAccept)
	require.NoError(t, err)

	handler := commands.NewRespondToOfferCommandHandler(factory, notifier, cascadeSecret)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeAccepted, result.Outcome)
	assert.False(t, result.NeedsCascade)

	assert.Equal(t, route.OfferAccepted, rt.OfferStatus())
	assert.Equal(t, route.StatusAssigned, rt.Status())
	require.NotNil(t, rt.DriverID())
	assert.True(t, rt.DriverID().IsEqual(driverID))
	routeRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_Decline(t *testing.T) {
	ctx := t.Context()
	rt, token, driverID := restoreSentOfferRoute(t, false)

	routeRepo := new(MockRouteRepository)
	uow := new(MockUoW)
	notifier := new(MockNotificationGateway)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("RouteRepository").Return(routeRepo).Once(),
		routeRepo.On("Get", ctx, rt.ID()).Return(rt, nil).Once(),
		routeRepo.On("TransitionOfferStatus", ctx, rt, route.OfferSent).Return(true, nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOfferResponseUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewRespondToOfferCommand(token, commands.ReplyDecline)
	require.NoError(t, err)

	handler := commands.NewRespondToOfferCommandHandler(factory, notifier, cascadeSecret)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeDeclined, result.Outcome)
	assert.True(t, result.NeedsCascade)
	assert.Equal(t, route.ReasonDeclinedExhausted, result.CascadeReason)

	assert.Equal(t, route.OfferDeclined, rt.OfferStatus())
	assert.True(t, rt.IsDriverExcluded(driverID))
	routeRepo.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_AcceptAfterDeadline(t *testing.T) {
	ctx := t.Context()
	rt, token, driverID := restoreSentOfferRoute(t, true)

	routeRepo := new(MockRouteRepository)
	uow := new(MockUoW)
	notifier := new(MockNotificationGateway)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("RouteRepository").Return(routeRepo).Once(),
		routeRepo.On("Get", ctx, rt.ID()).Return(rt, nil).Once(),
		routeRepo.On("TransitionOfferStatus", ctx, rt, route.OfferSent).Return(true, nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOfferResponseUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewRespondToOfferCommand(token, commands.ReplyAccept)
	require.NoError(t, err)

	handler := commands.NewRespondToOfferCommandHandler(factory, notifier, cascadeSecret)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeExpired, result.Outcome)
	assert.True(t, result.NeedsCascade)
	assert.Equal(t, route.ReasonExpiredExhausted, result.CascadeReason)

	// a late accept never commits the driver
	assert.Equal(t, route.OfferExpired, rt.OfferStatus())
	assert.Nil(t, rt.DriverID())
	assert.True(t, rt.IsDriverExcluded(driverID))
}

func TestRespondToOfferCommandHandler_Ambiguous(t *testing.T) {
	ctx := t.Context()
	rt, token, _ := restoreSentOfferRoute(t, false)
	offered := availableDriver(t, 4.5)

	routeRepo := new(MockRouteRepository)
	driverRepo := new(MockDriverRepository)
	uow := new(MockUoW)
	notifier := new(MockNotificationGateway)

	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("RouteRepository").Return(routeRepo).Once()
	uow.On("DriverRepository").Return(driverRepo).Once()
	uow.On("Rollback", ctx).Return(nil)
	routeRepo.On("Get", ctx, rt.ID()).Return(rt, nil).Once()
	driverRepo.On("Get", ctx, *rt.OfferedDriverID()).Return(offered, nil).Once()
	notifier.On("SendSms", ctx, offered.Phone(), ports.TemplateOfferClarification, mock.Anything).
		Return(ports.NotificationResult{Success: true}, nil).Once()

	factory := new(MockOfferResponseUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewRespondToOfferCommand(token, commands.ReplyAmbiguous)
	require.NoError(t, err)

	handler := commands.NewRespondToOfferCommandHandler(factory, notifier, cascadeSecret)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeClarificationSent, result.Outcome)

	// the offer stays live; its deadline keeps running
	assert.Equal(t, route.OfferSent, rt.OfferStatus())
	notifier.AssertExpectations(t)
}

func TestRespondToOfferCommandHandler_StaleToken(t *testing.T) {
	ctx := t.Context()
	rt, _, _ := restoreSentOfferRoute(t, false)

	// a token from an earlier offer round for the same route
	staleToken, err := offertoken.Sign(rt.ID().String(), "", "", time.Now().Add(2*time.Hour), cascadeSecret)
	require.NoError(t, err)
	require.NotEqual(t, staleToken, *rt.OfferToken())

	routeRepo := new(MockRouteRepository)
	uow := new(MockUoW)
	notifier := new(MockNotificationGateway)

	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("RouteRepository").Return(routeRepo).Once()
	uow.On("Rollback", ctx).Return(nil)
	routeRepo.On("Get", ctx, rt.ID()).Return(rt, nil).Once()

	factory := new(MockOfferResponseUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewRespondToOfferCommand(staleToken, commands.ReplyAccept)
	require.NoError(t, err)

	handler := commands.NewRespondToOfferCommandHandler(factory, notifier, cascadeSecret)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeSuperseded, result.Outcome)
	assert.Equal(t, route.OfferSent, rt.OfferStatus())
}

func TestRespondToOfferCommandHandler_TokenFailures(t *testing.T) {
	ctx := t.Context()
	factory := new(MockOfferResponseUoWFactory)
	notifier := new(MockNotificationGateway)
	handler := commands.NewRespondToOfferCommandHandler(factory, notifier, cascadeSecret)

	t.Run("malformed token", func(t *testing.T) {
		cmd, err := commands.NewRespondToOfferCommand("not-a-token", commands.ReplyAccept)
		require.NoError(t, err)

		_, err = handler.Handle(ctx, cmd)
		require.ErrorIs(t, err, offertoken.ErrTokenMalformed)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := offertoken.Sign(kernel.NewUUID().String(), "", "", time.Now().Add(-time.Hour), cascadeSecret)
		require.NoError(t, err)

		cmd, err := commands.NewRespondToOfferCommand(expired, commands.ReplyAccept)
		require.NoError(t, err)

		_, err = handler.Handle(ctx, cmd)
		require.ErrorIs(t, err, offertoken.ErrTokenExpired)
	})

	factory.AssertNotCalled(t, "Create")
}
