package order

import (
	"context"

	"coldpress-backend/internal/domain"
)

// UpsertInput carries the fields reconstructed from a completed checkout
// session event.
type UpsertInput struct {
	UserID          *string
	StripeSessionID string
	CustomerEmail   string
	AmountTotal     int64
	Currency        string
	Status          domain.OrderStatus
	PaymentStatus   domain.PaymentStatus
	Metadata        map[string]interface{}
}

type Repository interface {
	// UpsertBySessionRef inserts an order keyed by the provider session
	// reference. Replayed events hit the conflict arm: the existing row is
	// returned and created is false.
	UpsertBySessionRef(ctx context.Context, in UpsertInput) (o *domain.Order, created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetBySessionRef(ctx context.Context, stripeSessionID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	MarkRefunded(ctx context.Context, id string, partial bool) error
	MarkRefundedByPaymentIntent(ctx context.Context, paymentIntentID string, partial bool) error
	UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error
	// HasPriorOrders reports whether the customer, identified by email or
	// account id, has any order on record. Backs first-order-only discounts.
	HasPriorOrders(ctx context.Context, customerEmail string, userID *string) (bool, error)
}
