package order

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

const orderColumns = `id::text, user_id::text, stripe_session_id, customer_email, amount_total,
currency, status, payment_status, metadata, created_at, updated_at`

func (r *postgresRepo) UpsertBySessionRef(ctx context.Context, in UpsertInput) (*domain.Order, bool, error) {
	// xmax = 0 distinguishes a fresh insert from the conflict arm, so replays
	// of the same checkout event report created=false.
	q := `
INSERT INTO orders (user_id, stripe_session_id, customer_email, amount_total, currency, status, payment_status, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (stripe_session_id) DO UPDATE
SET updated_at = now()
RETURNING ` + orderColumns + `, (xmax = 0)
`
	var o domain.Order
	var created bool
	err := r.pool.QueryRow(ctx, q,
		in.UserID, in.StripeSessionID, in.CustomerEmail, in.AmountTotal,
		in.Currency, in.Status, in.PaymentStatus, in.Metadata,
	).Scan(
		&o.ID, &o.UserID, &o.StripeSessionID, &o.CustomerEmail, &o.AmountTotal,
		&o.Currency, &o.Status, &o.PaymentStatus, &o.Metadata, &o.CreatedAt, &o.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, err
	}
	if created {
		r.logger.Printf("order repo: created order %s for session %s", o.ID, o.StripeSessionID)
	}
	return &o, created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetch(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetBySessionRef(ctx context.Context, stripeSessionID string) (*domain.Order, error) {
	return r.fetch(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, stripeSessionID)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $1, updated_at = now()
WHERE id = $2
`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkRefunded(ctx context.Context, id string, partial bool) error {
	return r.markRefunded(ctx, `id = $2`, id, partial)
}

func (r *postgresRepo) MarkRefundedByPaymentIntent(ctx context.Context, paymentIntentID string, partial bool) error {
	return r.markRefunded(ctx, `metadata->>'payment_intent_id' = $2`, paymentIntentID, partial)
}

func (r *postgresRepo) markRefunded(ctx context.Context, where, key string, partial bool) error {
	paymentStatus := domain.PaymentRefunded
	status := domain.OrderRefunded
	if partial {
		// A partial refund keeps the order in its current status; only the
		// payment status records the partial refund.
		cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET payment_status = $1, updated_at = now()
WHERE `+where+`
`, domain.PaymentPartialRefund, key)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $1, payment_status = $3, updated_at = now()
WHERE `+where+`
`, status, key, paymentStatus)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET metadata = jsonb_set(metadata, '{subscription_status}', to_jsonb($1::text)),
    updated_at = now()
WHERE metadata->>'subscription_id' = $2
`, status, subscriptionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) HasPriorOrders(ctx context.Context, customerEmail string, userID *string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM orders
	WHERE ($1 <> '' AND customer_email = $1)
	   OR ($2::uuid IS NOT NULL AND user_id = $2::uuid)
)`, customerEmail, userID).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) fetch(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&o.ID, &o.UserID, &o.StripeSessionID, &o.CustomerEmail, &o.AmountTotal,
		&o.Currency, &o.Status, &o.PaymentStatus, &o.Metadata, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
