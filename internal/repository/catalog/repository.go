package catalog

import (
	"context"

	"coldpress-backend/internal/domain"
)

type Repository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error)
	ListVariants(ctx context.Context) ([]domain.Variant, error)
	GetVariantByPriceRef(ctx context.Context, stripePriceID string) (*domain.Variant, error)
	SetProductStripeRef(ctx context.Context, productID, stripeProductID string) error
	SetVariantStripeRef(ctx context.Context, variantID, stripePriceID string) error
	DecrementStock(ctx context.Context, variantID string, qty int64) error
	RestoreStock(ctx context.Context, variantID string, qty int64) error
	// BeginReservation claims an idempotency key for stock reservation. It
	// returns false when an earlier checkout already reserved under the key.
	BeginReservation(ctx context.Context, idempotencyKey string) (bool, error)
	ReleaseReservation(ctx context.Context, idempotencyKey string) error
}
