// Package webhook consumes signed payment-provider events and applies
// idempotent state transitions to the catalog store. Events for one session
// may be redelivered or reordered, so every handler is an idempotent apply
// keyed by the provider reference, never "the Nth event for this order".
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"coldpress-backend/internal/domain"
	emailrepo "coldpress-backend/internal/repository/emailqueue"
	orderrepo "coldpress-backend/internal/repository/order"
	"github.com/stripe/stripe-go/v72"
	stripewebhook "github.com/stripe/stripe-go/v72/webhook"
)

type orderStore interface {
	UpsertBySessionRef(ctx context.Context, in orderrepo.UpsertInput) (*domain.Order, bool, error)
	MarkRefundedByPaymentIntent(ctx context.Context, paymentIntentID string, partial bool) error
	UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error
}

type emailStore interface {
	Enqueue(ctx context.Context, in emailrepo.EnqueueInput) (*domain.EmailQueueEntry, error)
	HasEntryForOrder(ctx context.Context, orderID string) (bool, error)
}

type failureLog interface {
	Record(ctx context.Context, eventID, eventType string, payload []byte, errorMessage string) error
}

type Processor struct {
	orders        orderStore
	emails        emailStore
	failures      failureLog
	signingSecret string
	logger        *log.Logger

	// verify is swappable in tests; defaults to the provider SDK's
	// signature check.
	verify func(payload []byte, sigHeader, secret string) (stripe.Event, error)
}

func New(orders orderStore, emails emailStore, failures failureLog, signingSecret string, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Processor{
		orders:        orders,
		emails:        emails,
		failures:      failures,
		signingSecret: signingSecret,
		logger:        logger,
		verify:        stripewebhook.ConstructEvent,
	}
}

// Process verifies and applies one event. A bad signature is rejected before
// the body is parsed, with no side effects and no detail about why. Handler
// failures after verification are recorded and returned so the HTTP layer
// answers 5xx and the provider redelivers.
func (p *Processor) Process(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := p.verify(payload, sigHeader, p.signingSecret)
	if err != nil {
		return domain.Errorf(domain.KindValidation, "invalid signature")
	}

	var handleErr error
	switch event.Type {
	case "checkout.session.completed":
		handleErr = p.handleCheckoutCompleted(ctx, event)
	case "invoice.paid":
		handleErr = p.handleInvoicePaid(ctx, event)
	case "customer.subscription.updated", "customer.subscription.deleted":
		handleErr = p.handleSubscriptionChange(ctx, event)
	case "charge.refunded":
		handleErr = p.handleChargeRefunded(ctx, event)
	default:
		// Acknowledge and ignore: the provider keeps resending events that
		// are not 2xx'd, including kinds this system does not care about.
		p.logger.Printf("webhook: ignoring event type %s", event.Type)
		return nil
	}

	if handleErr != nil {
		if recordErr := p.failures.Record(ctx, event.ID, event.Type, payload, handleErr.Error()); recordErr != nil {
			p.logger.Printf("webhook: recording failure for %s also failed: %v", event.ID, recordErr)
		}
		return fmt.Errorf("handle %s event %s: %w", event.Type, event.ID, handleErr)
	}
	return nil
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}

	email := session.Metadata["customer_email"]
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}

	metadata := map[string]interface{}{}
	for k, v := range session.Metadata {
		metadata[k] = v
	}
	if session.PaymentIntent != nil {
		metadata["payment_intent_id"] = session.PaymentIntent.ID
	}
	if session.Subscription != nil {
		metadata["subscription_id"] = session.Subscription.ID
		metadata["subscription_status"] = "active"
	}

	var userID *string
	if uid := session.Metadata["user_id"]; uid != "" {
		userID = &uid
	}

	paymentStatus := domain.PaymentPending
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		paymentStatus = domain.PaymentSucceeded
	}

	order, created, err := p.orders.UpsertBySessionRef(ctx, orderrepo.UpsertInput{
		UserID:          userID,
		StripeSessionID: session.ID,
		CustomerEmail:   email,
		AmountTotal:     session.AmountTotal,
		Currency:        string(session.Currency),
		Status:          domain.OrderProcessing,
		PaymentStatus:   paymentStatus,
		Metadata:        metadata,
	})
	if err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}
	if !created {
		p.logger.Printf("webhook: replayed completion for session %s, order %s already exists", session.ID, order.ID)
		// The original delivery can fail between the order insert and the
		// enqueue. A redelivery finishes the job, but only when no entry for
		// the order exists yet, so replays never queue a second confirmation.
		queued, err := p.emails.HasEntryForOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("check email for order %s: %w", order.ID, err)
		}
		if queued {
			return nil
		}
	}

	// Enqueue, never send: the handler has to return fast and must not fail
	// the event because the email provider is slow or down.
	emailType := domain.EmailOrderConfirmation
	if session.Subscription != nil {
		emailType = domain.EmailSubscriptionStarted
	}
	if _, err := p.emails.Enqueue(ctx, emailrepo.EnqueueInput{
		ToEmail:   email,
		EmailType: emailType,
		TemplateData: map[string]interface{}{
			"order_id":     order.ID,
			"amount_total": order.AmountTotal,
			"currency":     order.Currency,
		},
	}); err != nil {
		return fmt.Errorf("enqueue %s email: %w", emailType, err)
	}
	return nil
}

func (p *Processor) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("unmarshal invoice: %w", err)
	}
	if invoice.Subscription == nil {
		return nil
	}
	err := p.orders.UpdateSubscriptionStatus(ctx, invoice.Subscription.ID, "active")
	if errors.Is(err, domain.ErrNotFound) {
		// The completion event for this subscription may not have landed yet;
		// it will carry the active status itself.
		p.logger.Printf("webhook: no order yet for subscription %s", invoice.Subscription.ID)
		return nil
	}
	return err
}

func (p *Processor) handleSubscriptionChange(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}
	status := string(sub.Status)
	if event.Type == "customer.subscription.deleted" {
		status = "canceled"
	}
	err := p.orders.UpdateSubscriptionStatus(ctx, sub.ID, status)
	if errors.Is(err, domain.ErrNotFound) {
		p.logger.Printf("webhook: no order for subscription %s", sub.ID)
		return nil
	}
	return err
}

func (p *Processor) handleChargeRefunded(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return fmt.Errorf("unmarshal charge: %w", err)
	}
	if charge.PaymentIntent == nil {
		return nil
	}
	partial := !charge.Refunded
	err := p.orders.MarkRefundedByPaymentIntent(ctx, charge.PaymentIntent.ID, partial)
	if errors.Is(err, domain.ErrNotFound) {
		p.logger.Printf("webhook: no order for payment intent %s", charge.PaymentIntent.ID)
		return nil
	}
	return err
}
