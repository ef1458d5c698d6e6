package catalog

import (
	"context"
	"errors"
	"io"
	"log"

	"coldpress-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, name, slug, is_active, published_at, stripe_product_id, created_at, updated_at`

const variantColumns = `id::text, product_id::text, size_key, label, price, billing_type,
recurring_interval, recurring_interval_count, stripe_price_id, stock_quantity,
track_inventory, is_active, is_default, display_order, created_at, updated_at`

func (r *postgresRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Slug, &p.IsActive, &p.PublishedAt, &p.StripeProductID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.IsActive, &p.PublishedAt, &p.StripeProductID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *postgresRepo) ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 ORDER BY display_order, created_at`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVariants(rows)
}

func (r *postgresRepo) ListVariants(ctx context.Context) ([]domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVariants(rows)
}

func (r *postgresRepo) GetVariantByPriceRef(ctx context.Context, stripePriceID string) (*domain.Variant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants WHERE stripe_price_id = $1`
	row := r.pool.QueryRow(ctx, q, stripePriceID)
	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *postgresRepo) SetProductStripeRef(ctx context.Context, productID, stripeProductID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE products
SET stripe_product_id = $1, updated_at = now()
WHERE id = $2
`, stripeProductID, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("catalog repo: product %s linked to %s", productID, stripeProductID)
	return nil
}

func (r *postgresRepo) SetVariantStripeRef(ctx context.Context, variantID, stripePriceID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE product_variants
SET stripe_price_id = $1, updated_at = now()
WHERE id = $2
`, stripePriceID, variantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("catalog repo: variant %s linked to %s", variantID, stripePriceID)
	return nil
}

// DecrementStock atomically reserves qty units. The guard in the WHERE clause
// makes concurrent reservations race-free: the row is only updated when enough
// stock remains, so oversell cannot happen via read-then-write interleaving.
func (r *postgresRepo) DecrementStock(ctx context.Context, variantID string, qty int64) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE product_variants
SET stock_quantity = stock_quantity - $1, updated_at = now()
WHERE id = $2 AND track_inventory AND stock_quantity >= $1
`, qty, variantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *postgresRepo) RestoreStock(ctx context.Context, variantID string, qty int64) error {
	_, err := r.pool.Exec(ctx, `
UPDATE product_variants
SET stock_quantity = stock_quantity + $1, updated_at = now()
WHERE id = $2 AND track_inventory
`, qty, variantID)
	return err
}

// BeginReservation inserts the idempotency key as a claim row. The conflict
// arm makes the claim race-free: of two concurrent submissions with the same
// key, exactly one sees a fresh claim and decrements stock.
func (r *postgresRepo) BeginReservation(ctx context.Context, idempotencyKey string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
INSERT INTO checkout_reservations (idempotency_key)
VALUES ($1)
ON CONFLICT (idempotency_key) DO NOTHING
`, idempotencyKey)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) ReleaseReservation(ctx context.Context, idempotencyKey string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM checkout_reservations WHERE idempotency_key = $1
`, idempotencyKey)
	return err
}

func scanVariants(rows pgx.Rows) ([]domain.Variant, error) {
	var result []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, rows.Err()
}

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	err := row.Scan(
		&v.ID, &v.ProductID, &v.SizeKey, &v.Label, &v.Price, &v.BillingType,
		&v.RecurringInterval, &v.RecurringIntervalCount, &v.StripePriceID, &v.StockQuantity,
		&v.TrackInventory, &v.IsActive, &v.IsDefault, &v.DisplayOrder, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
