// Package catalogsync reconciles the catalog store with the payment
// provider's product/price records. Status is a read-only drift report;
// Repair creates whatever the provider is missing and persists the new
// references. Provider prices are append-only: repair never mutates or
// deletes one, it creates a replacement and repoints the variant.
package catalogsync

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"coldpress-backend/internal/domain"
	"coldpress-backend/internal/payments"
	"github.com/stripe/stripe-go/v72"
)

type catalogRepo interface {
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error)
	ListVariants(ctx context.Context) ([]domain.Variant, error)
	SetProductStripeRef(ctx context.Context, productID, stripeProductID string) error
	SetVariantStripeRef(ctx context.Context, variantID, stripePriceID string) error
}

type providerClient interface {
	GetProduct(ctx context.Context, id string) (*stripe.Product, error)
	CreateProduct(ctx context.Context, name string, metadata map[string]string) (*stripe.Product, error)
	GetPrice(ctx context.Context, id string) (*stripe.Price, error)
	CreatePrice(ctx context.Context, in payments.CreatePriceInput) (*stripe.Price, error)
	ListActivePrices(ctx context.Context) ([]*stripe.Price, error)
}

type Engine struct {
	catalog  catalogRepo
	provider providerClient
	currency string
	logger   *log.Logger
}

func New(catalog catalogRepo, provider providerClient, currency string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{catalog: catalog, provider: provider, currency: currency, logger: logger}
}

// Status computes a fresh drift report. Missing or unresolvable price
// references are errors (checkout hard-fails for those items); price drift,
// active-flag drift, and orphaned provider prices are warnings.
func (e *Engine) Status(ctx context.Context) (*domain.SyncReport, error) {
	report := &domain.SyncReport{Healthy: true, CheckedAt: time.Now().UTC()}

	products, err := e.catalog.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	for _, product := range products {
		variants, err := e.catalog.ListVariantsByProduct(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("list variants for %s: %w", product.ID, err)
		}
		for _, variant := range variants {
			if !variant.IsActive {
				continue
			}
			e.checkVariant(ctx, report, product, variant)
		}
	}

	if err := e.checkOrphans(ctx, report); err != nil {
		return nil, err
	}

	e.logger.Printf("catalogsync: status errors=%d warnings=%d healthy=%t", report.Errors, report.Warnings, report.Healthy)
	return report, nil
}

func (e *Engine) checkVariant(ctx context.Context, report *domain.SyncReport, product domain.Product, variant domain.Variant) {
	if variant.StripePriceID == nil || *variant.StripePriceID == "" {
		report.Add(domain.SyncIssue{
			Type:      domain.SyncMissingInProvider,
			Severity:  domain.SyncError,
			ProductID: product.ID,
			VariantID: variant.ID,
			Detail:    fmt.Sprintf("variant %s (%s) has no provider price", variant.Label, variant.ID),
		})
		return
	}

	price, err := e.provider.GetPrice(ctx, *variant.StripePriceID)
	if err != nil {
		if payments.IsNotFound(err) {
			report.Add(domain.SyncIssue{
				Type:          domain.SyncMissingInProvider,
				Severity:      domain.SyncError,
				ProductID:     product.ID,
				VariantID:     variant.ID,
				StripePriceID: *variant.StripePriceID,
				Detail:        fmt.Sprintf("provider price %s does not resolve", *variant.StripePriceID),
			})
			return
		}
		report.Add(domain.SyncIssue{
			Type:          domain.SyncMissingInProvider,
			Severity:      domain.SyncError,
			ProductID:     product.ID,
			VariantID:     variant.ID,
			StripePriceID: *variant.StripePriceID,
			Detail:        fmt.Sprintf("provider price %s lookup failed: %v", *variant.StripePriceID, err),
		})
		return
	}

	// Sub-cent drift from rounding is tolerated; a whole cent or more is a
	// mismatch an operator needs to see.
	localMinor := variant.PriceMinorUnits()
	if diff := localMinor - price.UnitAmount; diff >= 1 || diff <= -1 {
		report.Add(domain.SyncIssue{
			Type:          domain.SyncPriceMismatch,
			Severity:      domain.SyncWarning,
			ProductID:     product.ID,
			VariantID:     variant.ID,
			StripePriceID: price.ID,
			Detail:        fmt.Sprintf("store price %d does not match provider price %d", localMinor, price.UnitAmount),
		})
	}

	if price.Active != variant.IsActive {
		report.Add(domain.SyncIssue{
			Type:          domain.SyncInactiveMismatch,
			Severity:      domain.SyncWarning,
			ProductID:     product.ID,
			VariantID:     variant.ID,
			StripePriceID: price.ID,
			Detail:        fmt.Sprintf("variant active=%t but provider price active=%t", variant.IsActive, price.Active),
		})
	}
}

// checkOrphans flags active provider prices with no matching variant. These
// are warnings: the provider legitimately keeps historical prices around.
func (e *Engine) checkOrphans(ctx context.Context, report *domain.SyncReport) error {
	variants, err := e.catalog.ListVariants(ctx)
	if err != nil {
		return fmt.Errorf("list variants: %w", err)
	}
	known := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.StripePriceID != nil {
			known[*v.StripePriceID] = true
		}
	}

	prices, err := e.provider.ListActivePrices(ctx)
	if err != nil {
		return fmt.Errorf("list provider prices: %w", err)
	}
	for _, price := range prices {
		if known[price.ID] {
			continue
		}
		report.Add(domain.SyncIssue{
			Type:          domain.SyncMissingInStore,
			Severity:      domain.SyncWarning,
			StripePriceID: price.ID,
			Detail:        fmt.Sprintf("provider price %s has no matching variant", price.ID),
		})
	}
	return nil
}

// RepairResult summarizes one repair pass.
type RepairResult struct {
	ProductsCreated  int `json:"productsCreated"`
	PricesCreated    int `json:"pricesCreated"`
	VariantsRepaired int `json:"variantsRepaired"`
}

// Repair creates provider records for every active variant whose price
// reference is missing or does not resolve. It always resolves before
// creating, so running it twice over the same drift converges instead of
// stacking duplicate provider records.
func (e *Engine) Repair(ctx context.Context) (*RepairResult, error) {
	result := &RepairResult{}

	products, err := e.catalog.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	for _, product := range products {
		variants, err := e.catalog.ListVariantsByProduct(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("list variants for %s: %w", product.ID, err)
		}
		for _, variant := range variants {
			if !variant.IsActive {
				continue
			}
			if e.priceResolves(ctx, variant) {
				continue
			}
			if err := e.repairVariant(ctx, &product, variant, result); err != nil {
				return nil, err
			}
			result.VariantsRepaired++
		}
	}

	e.logger.Printf("catalogsync: repair products=%d prices=%d variants=%d",
		result.ProductsCreated, result.PricesCreated, result.VariantsRepaired)
	return result, nil
}

func (e *Engine) priceResolves(ctx context.Context, variant domain.Variant) bool {
	if variant.StripePriceID == nil || *variant.StripePriceID == "" {
		return false
	}
	_, err := e.provider.GetPrice(ctx, *variant.StripePriceID)
	return err == nil
}

func (e *Engine) repairVariant(ctx context.Context, product *domain.Product, variant domain.Variant, result *RepairResult) error {
	productRef, err := e.ensureProductRef(ctx, product, result)
	if err != nil {
		return err
	}

	in := payments.CreatePriceInput{
		ProductRef: productRef,
		UnitAmount: variant.PriceMinorUnits(),
		Currency:   e.currency,
		Metadata:   map[string]string{"variant_id": variant.ID, "size_key": variant.SizeKey},
	}
	if variant.BillingType == domain.BillingRecurring && variant.RecurringInterval != nil {
		in.RecurringInterval = *variant.RecurringInterval
		if variant.RecurringIntervalCount != nil {
			in.RecurringIntervalCount = *variant.RecurringIntervalCount
		}
	}

	price, err := e.provider.CreatePrice(ctx, in)
	if err != nil {
		return fmt.Errorf("create price for variant %s: %w", variant.ID, err)
	}
	result.PricesCreated++

	if err := e.catalog.SetVariantStripeRef(ctx, variant.ID, price.ID); err != nil {
		return fmt.Errorf("persist price ref for variant %s: %w", variant.ID, err)
	}
	return nil
}

// ensureProductRef resolves the product's provider record, creating one
// (tagged with the internal id and slug for traceability) only when the
// stored reference is absent or no longer resolves.
func (e *Engine) ensureProductRef(ctx context.Context, product *domain.Product, result *RepairResult) (string, error) {
	if product.StripeProductID != nil && *product.StripeProductID != "" {
		if _, err := e.provider.GetProduct(ctx, *product.StripeProductID); err == nil {
			return *product.StripeProductID, nil
		} else if !payments.IsNotFound(err) {
			return "", fmt.Errorf("resolve provider product %s: %w", *product.StripeProductID, err)
		}
	}

	created, err := e.provider.CreateProduct(ctx, product.Name, map[string]string{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	if err != nil {
		return "", fmt.Errorf("create provider product for %s: %w", product.ID, err)
	}
	result.ProductsCreated++

	if err := e.catalog.SetProductStripeRef(ctx, product.ID, created.ID); err != nil {
		return "", fmt.Errorf("persist product ref for %s: %w", product.ID, err)
	}
	product.StripeProductID = &created.ID
	return created.ID, nil
}
