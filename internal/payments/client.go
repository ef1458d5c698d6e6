// Package payments wraps the Stripe SDK behind a small surface so services
// can stub the provider in tests. Stripe owns hosted checkout, subscription
// billing, and refunds; this code never computes a final price itself.
package payments

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

type Client struct {
	sc *client.API
}

func New(secretKey string) *Client {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Client{sc: sc}
}

func (c *Client) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	return c.sc.Products.Get(id, params)
}

func (c *Client) CreateProduct(ctx context.Context, name string, metadata map[string]string) (*stripe.Product, error) {
	params := &stripe.ProductParams{Name: stripe.String(name)}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return c.sc.Products.New(params)
}

func (c *Client) GetPrice(ctx context.Context, id string) (*stripe.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	return c.sc.Prices.Get(id, params)
}

// CreatePriceInput describes a new provider price. Provider prices are
// immutable once created: a price change always means a new price, never a
// mutation of an existing one.
type CreatePriceInput struct {
	ProductRef             string
	UnitAmount             int64
	Currency               string
	RecurringInterval      string
	RecurringIntervalCount int64
	Metadata               map[string]string
}

func (c *Client) CreatePrice(ctx context.Context, in CreatePriceInput) (*stripe.Price, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(in.ProductRef),
		UnitAmount: stripe.Int64(in.UnitAmount),
		Currency:   stripe.String(in.Currency),
	}
	params.Context = ctx
	if in.RecurringInterval != "" {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(in.RecurringInterval),
		}
		if in.RecurringIntervalCount > 0 {
			params.Recurring.IntervalCount = stripe.Int64(in.RecurringIntervalCount)
		}
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return c.sc.Prices.New(params)
}

func (c *Client) ListActivePrices(ctx context.Context) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	iter := c.sc.Prices.List(params)
	var prices []*stripe.Price
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	return prices, iter.Err()
}

// FindPromotionCode resolves an active provider promotion code by its
// customer-entered code, or returns domain-agnostic nil when none matches.
func (c *Client) FindPromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	iter := c.sc.PromotionCodes.List(params)
	for iter.Next() {
		return iter.PromotionCode(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// CouponInput describes a one-off coupon minted for an internally issued
// discount code. Exactly one of PercentOff/AmountOff is set.
type CouponInput struct {
	Name       string
	Currency   string
	PercentOff *float64
	AmountOff  *int64
}

func (c *Client) CreateCoupon(ctx context.Context, in CouponInput) (*stripe.Coupon, error) {
	params := &stripe.CouponParams{
		Name:     stripe.String(in.Name),
		Duration: stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx
	if in.PercentOff != nil {
		params.PercentOff = stripe.Float64(*in.PercentOff)
	}
	if in.AmountOff != nil {
		params.AmountOff = stripe.Int64(*in.AmountOff)
		params.Currency = stripe.String(in.Currency)
	}
	return c.sc.Coupons.New(params)
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return c.sc.CheckoutSessions.New(params)
}

func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return c.sc.CheckoutSessions.Get(id, params)
}

func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string, amount *int64) (*stripe.Refund, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentIntentID)}
	params.Context = ctx
	if amount != nil {
		params.Amount = stripe.Int64(*amount)
	}
	return c.sc.Refunds.New(params)
}

// IsNotFound reports whether err is the provider's resource-missing answer.
func IsNotFound(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

// IsRateLimited reports whether the provider rejected the call for rate.
func IsRateLimited(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == 429 || stripeErr.Code == stripe.ErrorCodeRateLimit
	}
	return false
}

// IsIdempotencyConflict reports a reused idempotency key with different
// request contents.
func IsIdempotencyConflict(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Type == stripe.ErrorTypeIdempotency
	}
	return false
}
