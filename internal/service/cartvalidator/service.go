// Package cartvalidator checks a proposed cart against the catalog and the
// payment provider. It is advisory and side-effect free: the checkout service
// re-runs the same checks at commit time and is the actual authority.
package cartvalidator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coldpress-backend/internal/domain"
	"github.com/stripe/stripe-go/v72"
)

type catalogRepo interface {
	GetVariantByPriceRef(ctx context.Context, stripePriceID string) (*domain.Variant, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type priceFetcher interface {
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
}

type Service struct {
	catalog catalogRepo
	prices  priceFetcher

	// verifyOneTimePrices cross-checks one_time items against the provider.
	// Off by default: local prices are authoritative for one-time items so the
	// hot path stays free of provider calls.
	verifyOneTimePrices bool
}

func New(catalog catalogRepo, prices priceFetcher, verifyOneTimePrices bool) *Service {
	return &Service{catalog: catalog, prices: prices, verifyOneTimePrices: verifyOneTimePrices}
}

// Validate checks every item and reports per-item errors in input order. It
// never fails fast: the caller can show itemized errors for the whole cart.
func (s *Service) Validate(ctx context.Context, items []domain.CartItem) (*domain.CartValidation, error) {
	if len(items) == 0 {
		return nil, domain.Errorf(domain.KindValidation, "cart is empty")
	}
	if len(items) > domain.MaxCartItems {
		return nil, domain.Errorf(domain.KindValidation, "cart exceeds %d items", domain.MaxCartItems)
	}

	result := &domain.CartValidation{Valid: true}
	for _, item := range items {
		if itemErr := s.validateItem(ctx, item); itemErr != nil {
			result.Valid = false
			result.Errors = append(result.Errors, *itemErr)
		}
	}
	return result, nil
}

func (s *Service) validateItem(ctx context.Context, item domain.CartItem) *domain.CartItemError {
	if item.Quantity < 1 || item.Quantity > domain.MaxItemQuantity {
		return itemError(item, domain.KindValidation, fmt.Sprintf("Invalid quantity: must be between 1-%d", domain.MaxItemQuantity))
	}
	if !ValidPriceRef(item.PriceRef) {
		return itemError(item, domain.KindValidation, "Invalid price reference")
	}

	variant, err := s.catalog.GetVariantByPriceRef(ctx, item.PriceRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return itemError(item, domain.KindAvailability, "This item is no longer available")
		}
		return itemError(item, domain.KindUpstream, "Unable to verify this item right now")
	}
	if !variant.IsActive {
		return itemError(item, domain.KindAvailability, "This item is no longer available")
	}

	product, err := s.catalog.GetProduct(ctx, variant.ProductID)
	if err != nil || !product.IsActive {
		return itemError(item, domain.KindAvailability, "This item is no longer available")
	}

	switch variant.BillingType {
	case domain.BillingRecurring:
		// Subscriptions track the provider's price lifecycle: the provider
		// owns subscription billing, so the price must exist and be active
		// there, and quantity is fixed at 1.
		if item.Quantity != 1 {
			return itemError(item, domain.KindValidation, "Subscriptions are limited to a quantity of 1")
		}
		price, err := s.prices.GetPrice(ctx, item.PriceRef)
		if err != nil {
			return itemError(item, domain.KindAvailability, "This subscription is no longer available")
		}
		if !price.Active {
			return itemError(item, domain.KindAvailability, "This subscription is no longer available")
		}
	case domain.BillingOneTime:
		if s.verifyOneTimePrices {
			price, err := s.prices.GetPrice(ctx, item.PriceRef)
			if err != nil || !price.Active {
				return itemError(item, domain.KindAvailability, "This item is no longer available")
			}
			if price.UnitAmount != variant.PriceMinorUnits() {
				return itemError(item, domain.KindValidation, "This item's price has changed, refresh your cart")
			}
		}
	}

	if variant.TrackInventory {
		if variant.StockQuantity == nil {
			// Tracking enabled with no stock count is a data problem, not an
			// invitation to assume infinite stock.
			return itemError(item, domain.KindIntegrity, "This item's availability could not be confirmed")
		}
		if int64(*variant.StockQuantity) < item.Quantity {
			e := itemError(item, domain.KindAvailability, fmt.Sprintf("Only %d left in stock", *variant.StockQuantity))
			e.Available = variant.StockQuantity
			return e
		}
	}

	return nil
}

// ValidPriceRef checks the provider's price-reference shape so malformed refs
// are rejected without a database round-trip.
func ValidPriceRef(ref string) bool {
	if !strings.HasPrefix(ref, "price_") {
		return false
	}
	body := ref[len("price_"):]
	if len(body) == 0 || len(body) > 64 {
		return false
	}
	for _, r := range body {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func itemError(item domain.CartItem, kind domain.ErrorKind, msg string) *domain.CartItemError {
	return &domain.CartItemError{PriceRef: item.PriceRef, Error: msg, Kind: kind}
}
