package discount

import (
	"context"

	"coldpress-backend/internal/domain"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Discount, error)
	// Redeem increments the redemption counter transactionally; the increment
	// only lands while the code is active, unexpired, and under its cap, so
	// the counter can never pass max_redemptions under concurrency.
	Redeem(ctx context.Context, code string) (*domain.Discount, error)
}
