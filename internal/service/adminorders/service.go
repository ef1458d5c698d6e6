// Package adminorders implements admin-only order mutations: free-form
// status corrections and provider-backed refunds. This surface is for human
// operators, so provider errors pass through unsanitized.
package adminorders

import (
	"context"
	"io"
	"log"

	"coldpress-backend/internal/domain"
	"github.com/stripe/stripe-go/v72"
)

type orderStore interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	MarkRefunded(ctx context.Context, id string, partial bool) error
}

type refundClient interface {
	CreateRefund(ctx context.Context, paymentIntentID string, amount *int64) (*stripe.Refund, error)
}

type Service struct {
	orders   orderStore
	provider refundClient
	logger   *log.Logger
}

func New(orders orderStore, provider refundClient, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, provider: provider, logger: logger}
}

// UpdateStatus moves an order between the defined statuses. Any transition is
// allowed as long as the target differs from the current status: this is a
// manual correction tool, not an automated state machine.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, domain.Errorf(domain.KindValidation, "unknown order status %q", status)
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatus(status) {
		return nil, domain.Errorf(domain.KindValidation, "order is already %s", status)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatus(status)); err != nil {
		return nil, err
	}
	s.logger.Printf("adminorders: order %s status %s -> %s", orderID, order.Status, status)
	return s.orders.GetByID(ctx, orderID)
}

// Refund issues a full refund when amount is nil, else a partial refund.
// An amount above the order total is rejected locally before any provider
// call.
func (s *Service) Refund(ctx context.Context, orderID string, amount *int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if amount != nil {
		if *amount <= 0 {
			return nil, domain.Errorf(domain.KindValidation, "refund amount must be positive")
		}
		if *amount > order.AmountTotal {
			return nil, domain.Errorf(domain.KindValidation, "refund amount %d exceeds order total %d", *amount, order.AmountTotal)
		}
	}
	if order.PaymentStatus == domain.PaymentRefunded {
		return nil, domain.Errorf(domain.KindValidation, "order is already fully refunded")
	}

	paymentIntentID := order.MetadataString("payment_intent_id")
	if paymentIntentID == "" {
		return nil, domain.Errorf(domain.KindIntegrity, "order %s has no payment intent reference", orderID)
	}

	refund, err := s.provider.CreateRefund(ctx, paymentIntentID, amount)
	if err != nil {
		// Admin surface: the raw provider error is the useful part.
		return nil, err
	}

	partial := amount != nil && *amount < order.AmountTotal
	if err := s.orders.MarkRefunded(ctx, orderID, partial); err != nil {
		return nil, err
	}
	s.logger.Printf("adminorders: refunded order %s refund=%s partial=%t", orderID, refund.ID, partial)
	return s.orders.GetByID(ctx, orderID)
}
