package emailqueue

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

const entryColumns = `id::text, to_email, email_type, template_data, sent, retry_count, error_message, created_at, sent_at`

func (r *postgresRepo) Enqueue(ctx context.Context, in EnqueueInput) (*domain.EmailQueueEntry, error) {
	q := `
INSERT INTO email_queue (to_email, email_type, template_data)
VALUES ($1, $2, $3)
RETURNING ` + entryColumns + `
`
	data := in.TemplateData
	if data == nil {
		data = map[string]interface{}{}
	}
	row := r.pool.QueryRow(ctx, q, in.ToEmail, in.EmailType, data)
	return scanEntry(row)
}

func (r *postgresRepo) ListPending(ctx context.Context, limit int) ([]domain.EmailQueueEntry, error) {
	q := `
SELECT ` + entryColumns + `
FROM email_queue
WHERE NOT sent AND retry_count < $1
ORDER BY created_at ASC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, domain.MaxEmailRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EmailQueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (r *postgresRepo) MarkSent(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE email_queue
SET sent = TRUE, sent_at = now(), error_message = NULL
WHERE id = $1
`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RecordFailure(ctx context.Context, id, errorMessage string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE email_queue
SET retry_count = retry_count + 1, error_message = $2
WHERE id = $1
`, id, errorMessage)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) HasEntryForOrder(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM email_queue WHERE template_data->>'order_id' = $1
)`, orderID).Scan(&exists)
	return exists, err
}

func scanEntry(row pgx.Row) (*domain.EmailQueueEntry, error) {
	var e domain.EmailQueueEntry
	err := row.Scan(&e.ID, &e.ToEmail, &e.EmailType, &e.TemplateData, &e.Sent, &e.RetryCount, &e.ErrorMessage, &e.CreatedAt, &e.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
