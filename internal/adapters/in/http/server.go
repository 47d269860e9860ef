// Package http exposes the system's inbound HTTP surface: delivery
// platform webhooks, driver offer responses (SMS replies and tokenized
// links), and operator read views.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dispatch/internal/adapters/in/platform"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/offertoken"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	normalizer platform.Normalizer

	// Command handlers
	processTaskEventHandler commands.ProcessTaskEventCommandHandler
	respondToOfferHandler   commands.RespondToOfferCommandHandler
	runOfferCascadeHandler  commands.RunOfferCascadeCommandHandler
	settleHandler           commands.SettleCompletedWorkCommandHandler

	// Query handlers
	getEscalatedRoutesHandler queries.GetEscalatedRoutesQueryHandler
	getActiveOffersHandler    queries.GetActiveOffersQueryHandler

	// uowFactory backs read-only lookups that have no command of their
	// own, like resolving an SMS sender to their outstanding offer.
	uowFactory ports.UnitOfWorkFactory
}

// NewServer creates a new HTTP server with the required dependencies.
func NewServer(
	normalizer platform.Normalizer,
	processTaskEventHandler commands.ProcessTaskEventCommandHandler,
	respondToOfferHandler commands.RespondToOfferCommandHandler,
	runOfferCascadeHandler commands.RunOfferCascadeCommandHandler,
	settleHandler commands.SettleCompletedWorkCommandHandler,
	getEscalatedRoutesHandler queries.GetEscalatedRoutesQueryHandler,
	getActiveOffersHandler queries.GetActiveOffersQueryHandler,
	uowFactory ports.UnitOfWorkFactory,
) *Server {
	return &Server{
		normalizer:                normalizer,
		processTaskEventHandler:   processTaskEventHandler,
		respondToOfferHandler:     respondToOfferHandler,
		runOfferCascadeHandler:    runOfferCascadeHandler,
		settleHandler:             settleHandler,
		getEscalatedRoutesHandler: getEscalatedRoutesHandler,
		getActiveOffersHandler:    getActiveOffersHandler,
		uowFactory:                uowFactory,
	}
}

// RegisterRoutes attaches all endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/webhooks/tasks", s.HandleTaskWebhook)
	e.POST("/api/v1/webhooks/sms-replies", s.HandleSmsReply)
	e.GET("/api/v1/offers/:token/accept", s.AcceptOffer)
	e.GET("/api/v1/offers/:token/decline", s.DeclineOffer)
	e.GET("/api/v1/routes/escalated", s.GetEscalatedRoutes)
	e.GET("/api/v1/offers/active", s.GetActiveOffers)
}

// ErrorResponse is the JSON error body for all endpoints.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WebhookAck acknowledges a platform webhook. The platform retries
// anything but 2xx, so only structurally invalid payloads are rejected;
// downstream follow-up failures are logged and still acknowledged.
type WebhookAck struct {
	Status string `json:"status"`
}

// HandleTaskWebhook handles POST /api/v1/webhooks/tasks - the delivery
// platform's task lifecycle events.
func (s *Server) HandleTaskWebhook(ctx echo.Context) error {
	var payload platform.WebhookPayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	event, err := s.normalizer.Normalize(payload)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid webhook payload: " + err.Error(),
		})
	}

	cmd, err := commands.NewProcessTaskEventCommand(
		event.TaskShortID,
		commands.EventTrigger(event.Trigger),
		event.Time,
		event.PhotoURL,
		event.PhotoGallery,
		event.WorkerName,
		event.DriveDistanceMiles,
		event.DriveTimeMinutes,
	)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid webhook payload: " + err.Error(),
		})
	}

	requestCtx := ctx.Request().Context()
	result, err := s.processTaskEventHandler.Handle(requestCtx, cmd)
	if err != nil {
		var notFound *errs.ObjectNotFoundError
		if errors.As(err, &notFound) {
			// Task not tracked by this system. Ack so the platform
			// stops retrying.
			return ctx.JSON(http.StatusOK, WebhookAck{Status: "ignored"})
		}
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to process task event",
		})
	}

	// Follow-ups run best effort. The event itself is already durable,
	// and the background jobs cover anything that fails here.
	if result.OrderCompleted {
		driverName := s.resolveDriverName(requestCtx, result)
		if settleCmd, cmdErr := commands.NewSettleCompletedWorkCommand(result.CompletedOrderID, driverName); cmdErr == nil {
			_, _ = s.settleHandler.Handle(requestCtx, settleCmd)
		}
	}

	if result.NeedsReassignment {
		cascadeCmd, cmdErr := commands.NewRunOfferCascadeCommandForTask(
			result.RouteID,
			route.ReasonFailedExhausted,
			result.FailedTaskID,
			string(commands.EventFailed),
		)
		if cmdErr == nil {
			_, _ = s.runOfferCascadeHandler.Handle(requestCtx, cascadeCmd)
		}
	}

	return ctx.JSON(http.StatusOK, WebhookAck{Status: "ok"})
}

// resolveDriverName picks the driver name for the customer's completion
// message: the webhook's worker name first, the assigned driver's record
// second. Lookup failures fall back to the generic name.
func (s *Server) resolveDriverName(ctx context.Context, result commands.ProcessTaskEventResult) string {
	var assignedName *string
	if result.CompletedDriverID != nil {
		uow := s.uowFactory.Create()
		if d, err := uow.DriverRepository().Get(ctx, *result.CompletedDriverID); err == nil {
			name := d.Name()
			assignedName = &name
		}
	}
	return platform.WorkerDisplayName(result.WorkerName, assignedName)
}

// SmsReplyRequest is an inbound SMS forwarded by the messaging provider.
type SmsReplyRequest struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// OfferResponseResult reports how an offer response was resolved.
type OfferResponseResult struct {
	Outcome string `json:"outcome"`
}

// HandleSmsReply handles POST /api/v1/webhooks/sms-replies - a driver
// answering their offer by text message.
func (s *Server) HandleSmsReply(ctx echo.Context) error {
	var request SmsReplyRequest
	if err := ctx.Bind(&request); err != nil || request.From == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	requestCtx := ctx.Request().Context()

	// Resolve the sender to their outstanding offer. Unknown senders and
	// senders with no live offer are acknowledged without action.
	uow := s.uowFactory.Create()
	rt, err := uow.RouteRepository().GetSentOfferByDriverPhone(requestCtx, request.From)
	if err != nil {
		var notFound *errs.ObjectNotFoundError
		if errors.As(err, &notFound) {
			return ctx.JSON(http.StatusOK, OfferResponseResult{Outcome: "no_offer"})
		}
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to resolve sender",
		})
	}

	token := rt.OfferToken()
	if token == nil {
		return ctx.JSON(http.StatusOK, OfferResponseResult{Outcome: "no_offer"})
	}

	return s.respond(ctx, *token, toOfferReply(platform.ClassifyReply(request.Body)))
}

// AcceptOffer handles GET /api/v1/offers/:token/accept - a driver
// accepting through the tokenized link in their offer SMS.
func (s *Server) AcceptOffer(ctx echo.Context) error {
	return s.respond(ctx, ctx.Param("token"), commands.ReplyAccept)
}

// DeclineOffer handles GET /api/v1/offers/:token/decline.
func (s *Server) DeclineOffer(ctx echo.Context) error {
	return s.respond(ctx, ctx.Param("token"), commands.ReplyDecline)
}

func (s *Server) respond(ctx echo.Context, token string, reply commands.OfferReply) error {
	cmd, err := commands.NewRespondToOfferCommand(token, reply)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid offer response",
		})
	}

	requestCtx := ctx.Request().Context()
	result, err := s.respondToOfferHandler.Handle(requestCtx, cmd)
	if err != nil {
		switch {
		case errors.Is(err, offertoken.ErrTokenExpired):
			return ctx.JSON(http.StatusGone, ErrorResponse{
				Code:    http.StatusGone,
				Message: "Offer link expired",
			})
		case errors.Is(err, offertoken.ErrTokenMalformed):
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "Invalid offer token",
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "Failed to process offer response",
			})
		}
	}

	// A dead offer frees the route for the next candidate right away.
	if result.NeedsCascade {
		if cascadeCmd, cmdErr := commands.NewRunOfferCascadeCommand(result.RouteID, result.CascadeReason); cmdErr == nil {
			_, _ = s.runOfferCascadeHandler.Handle(requestCtx, cascadeCmd)
		}
	}

	return ctx.JSON(http.StatusOK, OfferResponseResult{Outcome: outcomeString(result.Outcome)})
}

// EscalatedRoute is one row of the operator work queue.
type EscalatedRoute struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	WindowStart int    `json:"windowStart"`
	WindowEnd   int    `json:"windowEnd"`
	TotalStops  int    `json:"totalStops"`
	Reason      string `json:"reason"`
}

// GetEscalatedRoutes handles GET /api/v1/routes/escalated.
func (s *Server) GetEscalatedRoutes(ctx echo.Context) error {
	query := queries.NewGetEscalatedRoutesQuery()

	escalated, err := s.getEscalatedRoutesHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve escalated routes",
		})
	}

	response := make([]EscalatedRoute, len(escalated))
	for i, r := range escalated {
		response[i] = EscalatedRoute{
			ID:          r.ID.String(),
			Date:        r.Date.Format("2006-01-02"),
			WindowStart: r.WindowStart,
			WindowEnd:   r.WindowEnd,
			TotalStops:  r.TotalStops,
			Reason:      r.Reason,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// ActiveOffer is one in-flight offer on the dispatcher dashboard.
type ActiveOffer struct {
	RouteID    string `json:"routeId"`
	DriverID   string `json:"driverId"`
	Date       string `json:"date"`
	TotalStops int    `json:"totalStops"`
	SentAt     string `json:"sentAt"`
	ExpiresAt  string `json:"expiresAt"`
}

// GetActiveOffers handles GET /api/v1/offers/active.
func (s *Server) GetActiveOffers(ctx echo.Context) error {
	query := queries.NewGetActiveOffersQuery()

	offers, err := s.getActiveOffersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve active offers",
		})
	}

	response := make([]ActiveOffer, len(offers))
	for i, o := range offers {
		response[i] = ActiveOffer{
			RouteID:    o.RouteID.String(),
			DriverID:   o.DriverID.String(),
			Date:       o.Date.Format("2006-01-02"),
			TotalStops: o.TotalStops,
			SentAt:     o.SentAt.UTC().Format(time.RFC3339),
			ExpiresAt:  o.ExpiresAt.UTC().Format(time.RFC3339),
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

func toOfferReply(intent platform.Intent) commands.OfferReply {
	switch intent {
	case platform.IntentAccept:
		return commands.ReplyAccept
	case platform.IntentDecline:
		return commands.ReplyDecline
	default:
		return commands.ReplyAmbiguous
	}
}

func outcomeString(outcome commands.ResponseOutcome) string {
	switch outcome {
	case commands.OutcomeAccepted:
		return "accepted"
	case commands.OutcomeDeclined:
		return "declined"
	case commands.OutcomeExpired:
		return "expired"
	case commands.OutcomeClarificationSent:
		return "clarification_sent"
	default:
		return "superseded"
	}
}
