package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// Template identifies a canned outbound message. The gateway owns the
// actual copy; the application picks the template and supplies variables.
type Template string

const (
	// TemplateJobOffer is the SMS offering a route to a driver.
	TemplateJobOffer Template = "job_offer"

	// TemplateOfferClarification is sent back when a driver's SMS reply
	// could not be classified as accept or decline.
	TemplateOfferClarification Template = "offer_clarification"

	// TemplateCompletionFeedback is the customer notification with the
	// completion photo and a feedback link.
	TemplateCompletionFeedback Template = "completion_feedback"

	// TemplatePayoutNotification tells a worker their payout was sent.
	TemplatePayoutNotification Template = "payout_notification"

	// TemplateOperatorNoDriver alerts the operator that a route's
	// candidate pool is exhausted.
	TemplateOperatorNoDriver Template = "operator_no_driver"

	// TemplateOperatorPayoutFailed alerts the operator that settlement
	// for completed work failed and needs manual follow-up.
	TemplateOperatorPayoutFailed Template = "operator_payout_failed"
)

// NotificationResult reports the outcome of one outbound message.
type NotificationResult struct {
	Success           bool
	ProviderMessageID string
}

// NotificationGateway sends templated messages to drivers, customers,
// and operators. Implementations must not panic on provider failure;
// they report it through the result and error so callers can decide
// whether the failure blocks the business operation (it usually doesn't).
type NotificationGateway interface {
	// SendSms delivers a templated SMS to the given phone number.
	SendSms(ctx context.Context, phone string, template Template, vars map[string]string) (NotificationResult, error)

	// SendEmail delivers a templated email.
	SendEmail(ctx context.Context, address string, template Template, vars map[string]string) (NotificationResult, error)
}

// SettlementResult reports the outcome of a payout request.
type SettlementResult struct {
	Success    bool
	Amount     float64
	TransferID string
}

// SettlementService triggers worker payouts for completed work.
type SettlementService interface {
	// ProcessRoutePayout pays the driver for a completed route.
	ProcessRoutePayout(ctx context.Context, routeID kernel.UUID) (SettlementResult, error)

	// ProcessOrderPayout pays the worker for a completed standalone order.
	ProcessOrderPayout(ctx context.Context, orderID kernel.UUID) (SettlementResult, error)
}
