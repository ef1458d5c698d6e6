package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type variantSeed struct {
	SizeKey                string
	Label                  string
	Price                  decimal.Decimal
	BillingType            string
	RecurringInterval      string
	RecurringIntervalCount int
	Stock                  *int
	TrackInventory         bool
	IsDefault              bool
	DisplayOrder           int
}

type productSeed struct {
	Name     string
	Slug     string
	Variants []variantSeed
}

func intPtr(v int) *int { return &v }

// Apply inserts a demo juice catalog for manual testing. It is idempotent via
// ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Name: "Green Reset",
			Slug: "green-reset",
			Variants: []variantSeed{
				{SizeKey: "12oz", Label: "12 oz bottle", Price: decimal.RequireFromString("8.99"), BillingType: "one_time", Stock: intPtr(40), TrackInventory: true, IsDefault: true, DisplayOrder: 1},
				{SizeKey: "16oz", Label: "16 oz bottle", Price: decimal.RequireFromString("11.49"), BillingType: "one_time", Stock: intPtr(25), TrackInventory: true, DisplayOrder: 2},
				{SizeKey: "weekly-6", Label: "6-pack weekly subscription", Price: decimal.RequireFromString("49.99"), BillingType: "recurring", RecurringInterval: "week", RecurringIntervalCount: 1, DisplayOrder: 3},
			},
		},
		{
			Name: "Citrus Immunity",
			Slug: "citrus-immunity",
			Variants: []variantSeed{
				{SizeKey: "12oz", Label: "12 oz bottle", Price: decimal.RequireFromString("9.49"), BillingType: "one_time", Stock: intPtr(30), TrackInventory: true, IsDefault: true, DisplayOrder: 1},
				{SizeKey: "monthly-12", Label: "12-pack monthly subscription", Price: decimal.RequireFromString("89.00"), BillingType: "recurring", RecurringInterval: "month", RecurringIntervalCount: 1, DisplayOrder: 2},
			},
		},
		{
			Name: "Beet Recovery",
			Slug: "beet-recovery",
			Variants: []variantSeed{
				{SizeKey: "12oz", Label: "12 oz bottle", Price: decimal.RequireFromString("10.99"), BillingType: "one_time", IsDefault: true, DisplayOrder: 1},
			},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (name, slug, is_active, published_at)
VALUES ($1, $2, TRUE, now())
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name
RETURNING id::text
`
	var productID string
	if err := pool.QueryRow(ctx, q, p.Name, p.Slug).Scan(&productID); err != nil {
		return err
	}

	for _, v := range p.Variants {
		if err := upsertVariant(ctx, pool, productID, v); err != nil {
			return fmt.Errorf("variant %s: %w", v.SizeKey, err)
		}
	}
	return nil
}

func upsertVariant(ctx context.Context, pool *pgxpool.Pool, productID string, v variantSeed) error {
	const q = `
INSERT INTO product_variants
	(product_id, size_key, label, price, billing_type, recurring_interval, recurring_interval_count,
	 stock_quantity, track_inventory, is_active, is_default, display_order)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, 0), $8, $9, TRUE, $10, $11)
ON CONFLICT (product_id, size_key, billing_type) DO UPDATE
SET label = EXCLUDED.label,
    price = EXCLUDED.price,
    display_order = EXCLUDED.display_order
`
	_, err := pool.Exec(ctx, q,
		productID, v.SizeKey, v.Label, v.Price, v.BillingType,
		v.RecurringInterval, v.RecurringIntervalCount,
		v.Stock, v.TrackInventory, v.IsDefault, v.DisplayOrder,
	)
	return err
}
