package adminorders

import (
	"context"
	"errors"
	"testing"

	"coldpress-backend/internal/domain"
	"github.com/stripe/stripe-go/v72"
)

type stubOrders struct {
	orders map[string]*domain.Order

	statusUpdates map[string]domain.OrderStatus
	refunded      map[string]bool
}

func newStubOrders(orders ...*domain.Order) *stubOrders {
	s := &stubOrders{
		orders:        map[string]*domain.Order{},
		statusUpdates: map[string]domain.OrderStatus{},
		refunded:      map[string]bool{},
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	s.statusUpdates[id] = status
	s.orders[id].Status = status
	return nil
}

func (s *stubOrders) MarkRefunded(_ context.Context, id string, partial bool) error {
	s.refunded[id] = partial
	return nil
}

type stubRefunds struct {
	calls   int
	lastPI  string
	lastAmt *int64
	err     error
}

func (s *stubRefunds) CreateRefund(_ context.Context, paymentIntentID string, amount *int64) (*stripe.Refund, error) {
	s.calls++
	s.lastPI = paymentIntentID
	s.lastAmt = amount
	if s.err != nil {
		return nil, s.err
	}
	return &stripe.Refund{ID: "re_1"}, nil
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		AmountTotal:   1899,
		Currency:      "usd",
		Status:        domain.OrderProcessing,
		PaymentStatus: domain.PaymentSucceeded,
		Metadata:      map[string]interface{}{"payment_intent_id": "pi_123"},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestUpdateStatus(t *testing.T) {
	orders := newStubOrders(paidOrder())
	svc := New(orders, &stubRefunds{}, nil)

	order, err := svc.UpdateStatus(context.Background(), "order-1", "completed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if order.Status != domain.OrderCompleted {
		t.Errorf("status = %s", order.Status)
	}
	if orders.statusUpdates["order-1"] != domain.OrderCompleted {
		t.Errorf("update not persisted: %+v", orders.statusUpdates)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := New(newStubOrders(paidOrder()), &stubRefunds{}, nil)

	_, err := svc.UpdateStatus(context.Background(), "order-1", "shipped")
	if err == nil || domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestUpdateStatusRejectsNoop(t *testing.T) {
	svc := New(newStubOrders(paidOrder()), &stubRefunds{}, nil)

	_, err := svc.UpdateStatus(context.Background(), "order-1", "processing")
	if err == nil || domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("want validation error for unchanged status, got %v", err)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := New(newStubOrders(), &stubRefunds{}, nil)

	_, err := svc.UpdateStatus(context.Background(), "order-9", "completed")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRefundFull(t *testing.T) {
	orders := newStubOrders(paidOrder())
	refunds := &stubRefunds{}
	svc := New(orders, refunds, nil)

	if _, err := svc.Refund(context.Background(), "order-1", nil); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunds.lastPI != "pi_123" || refunds.lastAmt != nil {
		t.Errorf("provider call = %s/%v", refunds.lastPI, refunds.lastAmt)
	}
	partial, ok := orders.refunded["order-1"]
	if !ok || partial {
		t.Errorf("want full refund marked, got partial=%t ok=%t", partial, ok)
	}
}

func TestRefundPartial(t *testing.T) {
	orders := newStubOrders(paidOrder())
	refunds := &stubRefunds{}
	svc := New(orders, refunds, nil)

	if _, err := svc.Refund(context.Background(), "order-1", int64Ptr(500)); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunds.lastAmt == nil || *refunds.lastAmt != 500 {
		t.Errorf("amount = %v", refunds.lastAmt)
	}
	if partial := orders.refunded["order-1"]; !partial {
		t.Error("want partial refund marked")
	}
}

func TestRefundExceedingTotalRejectedLocally(t *testing.T) {
	refunds := &stubRefunds{}
	svc := New(newStubOrders(paidOrder()), refunds, nil)

	_, err := svc.Refund(context.Background(), "order-1", int64Ptr(2000))
	if err == nil || domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if refunds.calls != 0 {
		t.Error("an over-total refund must never reach the provider")
	}
}

func TestRefundNonPositiveAmount(t *testing.T) {
	refunds := &stubRefunds{}
	svc := New(newStubOrders(paidOrder()), refunds, nil)

	for _, amt := range []int64{0, -100} {
		_, err := svc.Refund(context.Background(), "order-1", int64Ptr(amt))
		if err == nil || domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("amount %d: want validation error, got %v", amt, err)
		}
	}
	if refunds.calls != 0 {
		t.Error("invalid amounts must never reach the provider")
	}
}

func TestRefundAlreadyRefunded(t *testing.T) {
	order := paidOrder()
	order.PaymentStatus = domain.PaymentRefunded
	refunds := &stubRefunds{}
	svc := New(newStubOrders(order), refunds, nil)

	_, err := svc.Refund(context.Background(), "order-1", nil)
	if err == nil || domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("want validation error, got %v", err)
	}
	if refunds.calls != 0 {
		t.Error("an already-refunded order must never reach the provider")
	}
}

func TestRefundWithoutPaymentIntent(t *testing.T) {
	order := paidOrder()
	order.Metadata = nil
	refunds := &stubRefunds{}
	svc := New(newStubOrders(order), refunds, nil)

	_, err := svc.Refund(context.Background(), "order-1", nil)
	if err == nil || domain.KindOf(err) != domain.KindIntegrity {
		t.Fatalf("want integrity error, got %v", err)
	}
	if refunds.calls != 0 {
		t.Error("an order without a payment intent must never reach the provider")
	}
}

func TestRefundProviderErrorPassesThrough(t *testing.T) {
	orders := newStubOrders(paidOrder())
	providerErr := &stripe.Error{HTTPStatusCode: 402, Msg: "charge_already_refunded"}
	svc := New(orders, &stubRefunds{err: providerErr}, nil)

	_, err := svc.Refund(context.Background(), "order-1", nil)
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		t.Fatalf("admin surface should see the raw provider error, got %v", err)
	}
	if len(orders.refunded) != 0 {
		t.Error("a failed provider refund must not mark the order")
	}
}
