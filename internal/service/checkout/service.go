// Package checkout turns a validated cart into an idempotent provider
// checkout session. Validation here is authoritative: a cart that passed the
// advisory validator is still re-checked before any money-adjacent call.
package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"coldpress-backend/internal/domain"
	"coldpress-backend/internal/payments"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
)

type validator interface {
	Validate(ctx context.Context, items []domain.CartItem) (*domain.CartValidation, error)
}

type catalogRepo interface {
	GetVariantByPriceRef(ctx context.Context, stripePriceID string) (*domain.Variant, error)
	DecrementStock(ctx context.Context, variantID string, qty int64) error
	RestoreStock(ctx context.Context, variantID string, qty int64) error
	BeginReservation(ctx context.Context, idempotencyKey string) (bool, error)
	ReleaseReservation(ctx context.Context, idempotencyKey string) error
}

type discountRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Discount, error)
	Redeem(ctx context.Context, code string) (*domain.Discount, error)
}

type orderHistory interface {
	HasPriorOrders(ctx context.Context, customerEmail string, userID *string) (bool, error)
}

type providerClient interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	FindPromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error)
	CreateCoupon(ctx context.Context, in payments.CouponInput) (*stripe.Coupon, error)
}

// Options carries the checkout-session knobs from config.
type Options struct {
	SuccessURL        string
	CancelURL         string
	Currency          string
	IdempotencyBucket time.Duration
}

type Service struct {
	validator validator
	catalog   catalogRepo
	discounts discountRepo
	orders    orderHistory
	provider  providerClient
	opts      Options
	logger    *log.Logger
	now       func() time.Time
}

func New(v validator, catalog catalogRepo, discounts discountRepo, orders orderHistory, provider providerClient, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.IdempotencyBucket <= 0 {
		opts.IdempotencyBucket = 5 * time.Minute
	}
	return &Service{
		validator: v,
		catalog:   catalog,
		discounts: discounts,
		orders:    orders,
		provider:  provider,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateInput struct {
	Items            []domain.CartItem `json:"items"`
	DiscountCode     string            `json:"discountCode,omitempty"`
	CustomerEmail    string            `json:"email,omitempty"`
	UserID           *string           `json:"-"`
	StripeCustomerID string            `json:"-"`
}

type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// Create builds the provider session. On failure it returns the itemized
// validation result (when the failure is cart-shaped) alongside the error.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Session, *domain.CartValidation, error) {
	validation, err := s.validator.Validate(ctx, in.Items)
	if err != nil {
		return nil, nil, err
	}
	if !validation.Valid {
		return nil, validation, domain.Errorf(cartErrorKind(validation), "cart failed validation")
	}

	mode, subtotal, err := s.resolveCart(ctx, in.Items)
	if err != nil {
		return nil, nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(s.opts.SuccessURL),
		CancelURL:  stripe.String(s.opts.CancelURL),
	}
	for _, item := range in.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceRef),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	identity := s.callerIdentity(in)
	idemKey := IdempotencyKey(identity, in.Items, s.now(), s.opts.IdempotencyBucket)
	params.SetIdempotencyKey(idemKey)

	// Reuse a known provider customer so payment history and saved methods
	// stay on one record; otherwise the provider creates one from the email.
	if in.StripeCustomerID != "" {
		params.Customer = stripe.String(in.StripeCustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	if in.DiscountCode != "" {
		discountParams, err := s.resolveDiscount(ctx, in, subtotal)
		if err != nil {
			return nil, nil, err
		}
		params.Discounts = discountParams
	}

	// The webhook processor rebuilds the order from this metadata; the cart is
	// client-held and gone by the time the event arrives.
	params.AddMetadata("cart_items", itemsSummary(in.Items))
	params.AddMetadata("customer_email", in.CustomerEmail)
	if in.UserID != nil {
		params.AddMetadata("user_id", *in.UserID)
	}
	if in.DiscountCode != "" {
		params.AddMetadata("discount_code", in.DiscountCode)
	}

	// Claim the idempotency key before touching inventory. A duplicate
	// submission inside the bucket finds the key already claimed, skips the
	// decrement, and still gets the provider's replayed session, so one cart
	// can never reserve twice.
	fresh, err := s.catalog.BeginReservation(ctx, idemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("claim reservation: %w", err)
	}
	var reserved []reservation
	if fresh {
		reserved, err = s.reserveStock(ctx, in.Items)
		if err != nil {
			s.abandonReservation(ctx, idemKey)
			return nil, nil, err
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		if fresh {
			s.releaseStock(ctx, reserved)
			s.abandonReservation(ctx, idemKey)
		}
		return nil, nil, mapProviderError(err)
	}

	s.logger.Printf("checkout: created session %s mode=%s items=%d", session.ID, mode, len(in.Items))
	return &Session{ID: session.ID, URL: session.URL}, nil, nil
}

// cartErrorKind picks the transport class for a failed validation: a cart
// whose only problems are malformed input is the customer's mistake, while
// any unavailable or unverifiable item makes the whole cart a conflict.
func cartErrorKind(validation *domain.CartValidation) domain.ErrorKind {
	kind := domain.KindValidation
	for _, e := range validation.Errors {
		switch e.Kind {
		case domain.KindValidation:
		case domain.KindUpstream, domain.KindIntegrity:
			if kind == domain.KindValidation {
				kind = e.Kind
			}
		default:
			return domain.KindAvailability
		}
	}
	return kind
}

type checkoutMode string

const (
	modePayment      checkoutMode = checkoutMode(stripe.CheckoutSessionModePayment)
	modeSubscription checkoutMode = checkoutMode(stripe.CheckoutSessionModeSubscription)
)

// resolveCart rejects mixed carts and totals the order from catalog prices.
// The provider's hosted checkout cannot take one_time and recurring items in
// one session, so the caller must split them; the subtotal backs discount
// minimum-order checks and never comes from client-supplied amounts.
func (s *Service) resolveCart(ctx context.Context, items []domain.CartItem) (checkoutMode, decimal.Decimal, error) {
	var oneTime, recurring bool
	subtotal := decimal.Zero
	for _, item := range items {
		variant, err := s.catalog.GetVariantByPriceRef(ctx, item.PriceRef)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", decimal.Zero, domain.Errorf(domain.KindAvailability, "item %s is no longer available", item.PriceRef)
			}
			return "", decimal.Zero, fmt.Errorf("resolve variant %s: %w", item.PriceRef, err)
		}
		subtotal = subtotal.Add(variant.Price.Mul(decimal.NewFromInt(item.Quantity)))
		switch variant.BillingType {
		case domain.BillingRecurring:
			recurring = true
		default:
			oneTime = true
		}
	}
	if oneTime && recurring {
		return "", decimal.Zero, domain.Errorf(domain.KindValidation, "can't mix order types: one-time and subscription items need separate checkouts")
	}
	if recurring {
		return modeSubscription, subtotal, nil
	}
	return modePayment, subtotal, nil
}

type reservation struct {
	variantID string
	qty       int64
}

// reserveStock decrements tracked inventory item by item; on any shortfall it
// restores what it already took and fails the whole checkout.
func (s *Service) reserveStock(ctx context.Context, items []domain.CartItem) ([]reservation, error) {
	var reserved []reservation
	for _, item := range items {
		variant, err := s.catalog.GetVariantByPriceRef(ctx, item.PriceRef)
		if err != nil {
			s.releaseStock(ctx, reserved)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Errorf(domain.KindAvailability, "item %s is no longer available", item.PriceRef)
			}
			return nil, fmt.Errorf("resolve variant %s: %w", item.PriceRef, err)
		}
		if !variant.TrackInventory {
			continue
		}
		if err := s.catalog.DecrementStock(ctx, variant.ID, item.Quantity); err != nil {
			s.releaseStock(ctx, reserved)
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, domain.Errorf(domain.KindAvailability, "item %s is out of stock", item.PriceRef)
			}
			return nil, fmt.Errorf("reserve stock for %s: %w", variant.ID, err)
		}
		reserved = append(reserved, reservation{variantID: variant.ID, qty: item.Quantity})
	}
	return reserved, nil
}

func (s *Service) releaseStock(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.catalog.RestoreStock(ctx, r.variantID, r.qty); err != nil {
			s.logger.Printf("checkout: restore stock variant=%s qty=%d failed: %v", r.variantID, r.qty, err)
		}
	}
}

// abandonReservation drops the idempotency-key claim after a failed checkout
// so a retry in the same bucket can reserve again once the cause clears.
func (s *Service) abandonReservation(ctx context.Context, idemKey string) {
	if err := s.catalog.ReleaseReservation(ctx, idemKey); err != nil {
		s.logger.Printf("checkout: release reservation %s failed: %v", idemKey, err)
	}
}

// resolveDiscount tries the provider's promotion codes first, then the
// internal discounts table. Internal codes are checked against their own
// restrictions (active window, minimum order, first-order-only) before being
// redeemed transactionally (the counter cannot pass its cap) and carried to
// the provider as a one-off coupon, since the provider is the source of
// truth for final pricing.
func (s *Service) resolveDiscount(ctx context.Context, in CreateInput, subtotal decimal.Decimal) ([]*stripe.CheckoutSessionDiscountParams, error) {
	code := in.DiscountCode
	promo, err := s.provider.FindPromotionCode(ctx, code)
	if err != nil {
		return nil, mapProviderError(err)
	}
	if promo != nil {
		return []*stripe.CheckoutSessionDiscountParams{{PromotionCode: stripe.String(promo.ID)}}, nil
	}

	discount, err := s.discounts.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.KindValidation, "discount code is invalid or expired")
		}
		return nil, fmt.Errorf("load discount %s: %w", code, err)
	}
	if !discount.Redeemable(s.now()) {
		return nil, domain.Errorf(domain.KindValidation, "discount code is invalid or expired")
	}
	if discount.MinOrderAmount != nil && subtotal.LessThan(*discount.MinOrderAmount) {
		return nil, domain.Errorf(domain.KindValidation, "discount code requires a minimum order of %s", discount.MinOrderAmount.StringFixed(2))
	}
	if discount.FirstTimeOnly {
		prior, err := s.orders.HasPriorOrders(ctx, in.CustomerEmail, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("check order history for %s: %w", code, err)
		}
		if prior {
			return nil, domain.Errorf(domain.KindValidation, "discount code is only valid on a first order")
		}
	}

	discount, err = s.discounts.Redeem(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost a race for the last redemption, or the code lapsed between
			// the check and the increment.
			return nil, domain.Errorf(domain.KindValidation, "discount code is invalid or expired")
		}
		return nil, fmt.Errorf("redeem discount %s: %w", code, err)
	}

	couponIn := payments.CouponInput{Name: discount.Code, Currency: s.opts.Currency}
	if discount.DiscountType == domain.DiscountPercent {
		f, _ := discount.Value.Float64()
		couponIn.PercentOff = &f
	} else {
		amount := domain.MinorUnits(discount.Value)
		couponIn.AmountOff = &amount
	}
	coupon, err := s.provider.CreateCoupon(ctx, couponIn)
	if err != nil {
		return nil, mapProviderError(err)
	}
	return []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(coupon.ID)}}, nil
}

func (s *Service) callerIdentity(in CreateInput) string {
	switch {
	case in.StripeCustomerID != "":
		return in.StripeCustomerID
	case in.UserID != nil:
		return *in.UserID
	case in.CustomerEmail != "":
		return strings.ToLower(in.CustomerEmail)
	}
	return "guest"
}

// IdempotencyKey hashes the caller identity, the normalized cart, and a
// coarse time bucket. Duplicate submissions inside one bucket collapse to a
// single provider session; a later, genuinely new checkout lands in a new
// bucket and is not blocked.
func IdempotencyKey(identity string, items []domain.CartItem, now time.Time, bucket time.Duration) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s:%d", item.PriceRef, item.Quantity))
	}
	sort.Strings(lines)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d", identity, strings.Join(lines, "|"), now.Unix()/int64(bucket.Seconds()))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func itemsSummary(items []domain.CartItem) string {
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(b)
}

func mapProviderError(err error) error {
	switch {
	case payments.IsRateLimited(err):
		return domain.WrapError(domain.KindRateLimited, err, "payment provider rate limit")
	case payments.IsIdempotencyConflict(err):
		return domain.WrapError(domain.KindIdempotencyConflict, err, "duplicate checkout submission")
	case payments.IsNotFound(err):
		return domain.WrapError(domain.KindAvailability, err, "item is no longer available")
	default:
		return domain.WrapError(domain.KindUpstream, err, "payment provider error")
	}
}
