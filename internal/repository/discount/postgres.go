package discount

import (
	"context"
	"errors"

	"coldpress-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const discountColumns = `id::text, code, discount_type, value, min_order_amount, first_time_only,
max_redemptions, redemption_count, expires_at, is_active, created_at`

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Discount, error) {
	q := `SELECT ` + discountColumns + ` FROM discounts WHERE code = $1`
	return scan(r.pool.QueryRow(ctx, q, code))
}

func (r *postgresRepo) Redeem(ctx context.Context, code string) (*domain.Discount, error) {
	q := `
UPDATE discounts
SET redemption_count = redemption_count + 1
WHERE code = $1
  AND is_active
  AND (expires_at IS NULL OR expires_at > now())
  AND (max_redemptions IS NULL OR redemption_count < max_redemptions)
RETURNING ` + discountColumns + `
`
	return scan(r.pool.QueryRow(ctx, q, code))
}

func scan(row pgx.Row) (*domain.Discount, error) {
	var d domain.Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.DiscountType, &d.Value, &d.MinOrderAmount, &d.FirstTimeOnly,
		&d.MaxRedemptions, &d.RedemptionCount, &d.ExpiresAt, &d.IsActive, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
