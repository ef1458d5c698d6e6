package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderFailed     OrderStatus = "failed"
	OrderRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentSucceeded     PaymentStatus = "succeeded"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
)

// ValidOrderStatus reports whether s is one of the defined order statuses.
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderPending, OrderProcessing, OrderCompleted, OrderFailed, OrderRefunded:
		return true
	}
	return false
}

// Order is an append-only record of a completed or in-flight transaction,
// keyed by the provider checkout-session reference. Rows are created on
// webhook receipt, never on session creation, and are status-transitioned
// rather than deleted.
type Order struct {
	ID              string                 `json:"id"`
	UserID          *string                `json:"userId,omitempty"`
	StripeSessionID string                 `json:"stripeSessionId"`
	CustomerEmail   string                 `json:"customerEmail"`
	AmountTotal     int64                  `json:"amountTotal"`
	Currency        string                 `json:"currency"`
	Status          OrderStatus            `json:"status"`
	PaymentStatus   PaymentStatus          `json:"paymentStatus"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// MetadataString returns a string metadata field, or "" when absent.
func (o Order) MetadataString(key string) string {
	if o.Metadata == nil {
		return ""
	}
	if v, ok := o.Metadata[key].(string); ok {
		return v
	}
	return ""
}
