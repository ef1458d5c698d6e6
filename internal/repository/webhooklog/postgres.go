package webhooklog

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Record(ctx context.Context, eventID, eventType string, payload []byte, errorMessage string) error {
	if !json.Valid(payload) {
		payload = []byte(`{}`)
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO webhook_failures (event_id, event_type, payload, error_message)
VALUES ($1, $2, $3, $4)
`, eventID, eventType, payload, errorMessage)
	return err
}
